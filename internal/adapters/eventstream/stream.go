package eventstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Amund211/censusoverlay/internal/adapters/censusapi"
	"github.com/Amund211/censusoverlay/internal/constants"
	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const handshakeTimeout = 15 * time.Second

// ErrClosed is returned by Next once the server closed the connection
var ErrClosed = errors.New("event stream closed")

type subscribeMessage struct {
	Service    string   `json:"service"`
	Action     string   `json:"action"`
	Characters []string `json:"characters"`
	Worlds     []string `json:"worlds"`
	EventNames []string `json:"eventNames"`
}

func newSubscribeMessage() subscribeMessage {
	return subscribeMessage{
		Service:    "event",
		Action:     "subscribe",
		Characters: []string{"all"},
		Worlds:     []string{"all"},
		EventNames: domain.SubscribedEventNames(),
	}
}

// PushURL builds the push endpoint for a service id
func PushURL(baseURL string, serviceID string) string {
	return fmt.Sprintf("%s?environment=ps2&service-id=%s", baseURL, censusapi.ServiceID(serviceID))
}

type Dialer struct {
	url    string
	dialer *websocket.Dialer

	frameCount metric.Int64Counter
}

func NewDialer(serviceID string) (*Dialer, error) {
	return NewDialerWithURL(PushURL(constants.CENSUS_PUSH_URL, serviceID))
}

func NewDialerWithURL(pushURL string) (*Dialer, error) {
	meter := otel.Meter("census-overlay/eventstream/push")

	frameCount, err := meter.Int64Counter("eventstream/push/frame_count")
	if err != nil {
		return nil, fmt.Errorf("failed to create frame count metric: %w", err)
	}

	return &Dialer{
		url: pushURL,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},

		frameCount: frameCount,
	}, nil
}

// Connect opens the websocket and sends the subscribe frame.
// The connection is closed when ctx is done.
func (d *Dialer) Connect(ctx context.Context) (*Stream, error) {
	header := http.Header{}
	header.Set("User-Agent", constants.USER_AGENT)

	conn, resp, err := d.dialer.DialContext(ctx, d.url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dial push endpoint: %w", err)
	}

	if err := conn.WriteJSON(newSubscribeMessage()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send subscribe frame: %w", err)
	}

	stream := &Stream{conn: conn, frameCount: d.frameCount}
	stream.stopClose = context.AfterFunc(ctx, func() {
		stream.closeConn()
	})
	return stream, nil
}

type Stream struct {
	conn      *websocket.Conn
	stopClose func() bool
	closeOnce sync.Once

	frameCount metric.Int64Counter
}

// Next blocks until a frame carrying a payload arrives.
// Non-text frames and frames without a payload object are skipped.
func (s *Stream) Next(ctx context.Context) (domain.Payload, error) {
	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return domain.Payload{}, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return domain.Payload{}, fmt.Errorf("%w: %w", ErrClosed, err)
			}
			return domain.Payload{}, fmt.Errorf("failed to read frame: %w", err)
		}

		if messageType != websocket.TextMessage {
			s.record(ctx, "non_text")
			continue
		}

		payload, ok := domain.ParseFrame(data)
		if !ok {
			s.record(ctx, "no_payload")
			continue
		}

		s.record(ctx, "payload")
		return payload, nil
	}
}

func (s *Stream) record(ctx context.Context, kind string) {
	s.frameCount.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (s *Stream) Close() error {
	if s.stopClose != nil {
		s.stopClose()
	}
	return s.closeConn()
}

func (s *Stream) closeConn() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return err
}
