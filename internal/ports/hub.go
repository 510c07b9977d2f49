package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/Amund211/censusoverlay/internal/logging"
	"github.com/Amund211/censusoverlay/internal/ratelimiting"
	"github.com/Amund211/censusoverlay/internal/reporting"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Messages buffered per client before it is dropped as too slow
	clientSendBuffer = 256
	writeTimeout     = 5 * time.Second
)

// Hub broadcasts every published message to the connected presentation clients
type Hub struct {
	mu      sync.Mutex
	clients map[string]*hubClient
	closed  bool
}

type hubClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*hubClient),
	}
}

// Publish returns domain.ErrSinkClosed once the hub has been closed
func (h *Hub) Publish(ctx context.Context, messages []domain.Message) error {
	payloads := make([][]byte, 0, len(messages))
	for _, message := range messages {
		data, err := json.Marshal(message)
		if err != nil {
			reporting.Report(ctx, fmt.Errorf("failed to marshal overlay message: %w", err), map[string]string{
				"messageType": message.MessageType(),
			})
			continue
		}
		payloads = append(payloads, data)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return domain.ErrSinkClosed
	}

	for id, client := range h.clients {
		if client.enqueue(payloads) {
			continue
		}
		logging.FromContext(ctx).WarnContext(ctx, "Dropping slow overlay client", slog.String("overlayClientID", id))
		delete(h.clients, id)
		client.close()
	}

	return nil
}

// Close disconnects every client. Later publishes fail with domain.ErrSinkClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, client := range h.clients {
		delete(h.clients, id)
		client.close()
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(conn *websocket.Conn) (*hubClient, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, false
	}

	client := &hubClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
		done: make(chan struct{}),
	}
	h.clients[client.id] = client
	return client, true
}

func (h *Hub) unregister(client *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.id] == client {
		delete(h.clients, client.id)
	}
	client.close()
}

func (c *hubClient) enqueue(payloads [][]byte) bool {
	for _, data := range payloads {
		select {
		case c.send <- data:
		default:
			return false
		}
	}
	return true
}

func (c *hubClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *hubClient) writeLoop(ctx context.Context) {
	logger := logging.FromContext(ctx)
	defer func() {
		if err := c.conn.Close(); err != nil {
			logger.DebugContext(ctx, "Failed to close overlay client connection", slog.String("error", err.Error()))
		}
	}()

	for {
		select {
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				logger.InfoContext(ctx, "Failed to write to overlay client", slog.String("error", err.Error()))
				c.close()
				return
			}
		case <-c.done:
			if err := c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "")); err != nil {
				logger.DebugContext(ctx, "Failed to send close frame to overlay client", slog.String("error", err.Error()))
			}
			return
		}
	}
}

func (c *hubClient) write(messageType int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := c.conn.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

func MakeOverlayStreamHandler(hub *Hub, opts PortOptions) http.HandlerFunc {
	// NOTE: The limiter expiry loop runs for the lifetime of the process
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(1),
		ratelimiting.BurstSize(30),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(ipLimiter, ratelimiting.IPKeyFunc)

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Browser sources in streaming software may not send an origin
			origin := r.Header.Get("Origin")
			return origin == "" || opts.AllowedOrigins.Allows(origin)
		},
	}

	middleware := portMiddleware("overlaystream", opts, ipRateLimiter)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// NOTE: Upgrade has already replied to the client
			logging.FromContext(ctx).InfoContext(ctx, "Overlay stream upgrade failed", slog.String("error", err.Error()))
			return
		}

		client, ok := hub.register(conn)
		if !ok {
			closeFrame := websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down")
			if err := conn.WriteControl(websocket.CloseMessage, closeFrame, time.Now().Add(writeTimeout)); err != nil {
				logging.FromContext(ctx).DebugContext(ctx, "Failed to send close frame to overlay client", slog.String("error", err.Error()))
			}
			if err := conn.Close(); err != nil {
				logging.FromContext(ctx).DebugContext(ctx, "Failed to close overlay client connection", slog.String("error", err.Error()))
			}
			return
		}

		ctx = logging.AddMetaToContext(ctx, slog.String("overlayClientID", client.id))
		logging.FromContext(ctx).InfoContext(ctx, "Overlay client connected")

		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			client.writeLoop(context.WithoutCancel(ctx))
		}()

		// Clients only listen, reads are for noticing disconnects
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		hub.unregister(client)
		<-writerDone
		logging.FromContext(ctx).InfoContext(ctx, "Overlay client disconnected")
	}

	return middleware(handler)
}
