// Package ingest reads the push stream, filters duplicate payloads and feeds
// the side channel and the session engine in payload order.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/Amund211/censusoverlay/internal/logging"
	"github.com/Amund211/censusoverlay/internal/session"
	"github.com/Amund211/censusoverlay/internal/sidechannel"
	"golang.org/x/sync/errgroup"
)

// Jobs waiting for the emitter before the ingest goroutine blocks
const jobBuffer = 256

type Stream interface {
	Next(ctx context.Context) (domain.Payload, error)
	Close() error
}

type Dial func(ctx context.Context) (Stream, error)

// Sink receives every outbound message in order.
// Publish returns domain.ErrSinkClosed once nothing can be delivered anymore.
type Sink interface {
	Publish(ctx context.Context, messages []domain.Message) error
}

type SessionEngine interface {
	Prefetch(ctx context.Context, payload domain.Payload, characterID string, now float64) session.Work
	Apply(ctx context.Context, work session.Work) []domain.Message
}

type SideChannel interface {
	Observe(ctx context.Context, payload domain.Payload, now float64) []domain.Message
	Results() <-chan sidechannel.BatchResult
	Apply(ctx context.Context, result sidechannel.BatchResult) []domain.Message
}

// job is either ready messages or session work to apply first
type job struct {
	messages []domain.Message
	work     *session.Work
}

type Loop struct {
	dial    Dial
	engine  SessionEngine
	side    SideChannel
	sink    Sink
	dedupe  *Deduper
	tracked []string

	activeID       string
	reconnectDelay time.Duration

	nowFunc   func() time.Time
	afterFunc func(time.Duration) <-chan time.Time
}

// NewLoop starts out with activeID, or the first tracked character when it is empty
func NewLoop(
	dial Dial,
	engine SessionEngine,
	side SideChannel,
	sink Sink,
	tracked []string,
	activeID string,
	reconnectDelay time.Duration,
	nowFunc func() time.Time,
	afterFunc func(time.Duration) <-chan time.Time,
) *Loop {
	if activeID == "" && len(tracked) > 0 {
		activeID = tracked[0]
	}
	return &Loop{
		dial:    dial,
		engine:  engine,
		side:    side,
		sink:    sink,
		dedupe:  NewDeduper(DedupeCapacity),
		tracked: tracked,

		activeID:       activeID,
		reconnectDelay: reconnectDelay,

		nowFunc:   nowFunc,
		afterFunc: afterFunc,
	}
}

// Run reconnects until ctx is cancelled or the sink closes.
// A closed sink is returned as an error wrapping domain.ErrSinkClosed.
func (l *Loop) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	if len(l.tracked) == 0 {
		logger.WarnContext(ctx, "No characters are tracked, sessions will not be recorded")
	}
	logger.InfoContext(ctx, "Starting ingestion", slog.Int("trackedCount", len(l.tracked)), slog.String("activeID", l.activeID))

	jobs := make(chan job, jobBuffer)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return l.emit(ctx, jobs)
	})
	g.Go(func() error {
		defer close(jobs)
		l.connectLoop(ctx, jobs)
		return nil
	})

	err := g.Wait()
	if errors.Is(err, domain.ErrSinkClosed) {
		logger.ErrorContext(ctx, "Overlay sink closed, stopping ingestion")
		return err
	}
	return nil
}

// emit applies session work and publishes in job order
func (l *Loop) emit(ctx context.Context, jobs <-chan job) error {
	for j := range jobs {
		messages := j.messages
		if j.work != nil {
			messages = l.engine.Apply(ctx, *j.work)
		}
		if len(messages) == 0 {
			continue
		}
		if err := l.sink.Publish(ctx, messages); err != nil {
			if errors.Is(err, domain.ErrSinkClosed) {
				return fmt.Errorf("failed to publish: %w", err)
			}
			if ctx.Err() != nil {
				return nil
			}
			logging.FromContext(ctx).WarnContext(ctx, "Failed to publish messages", slog.String("error", err.Error()))
		}
	}
	return nil
}

func (l *Loop) connectLoop(ctx context.Context, jobs chan<- job) {
	logger := logging.FromContext(ctx)

	for {
		stream, err := l.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.WarnContext(ctx, "Failed to connect to push stream", slog.String("error", err.Error()))
		} else {
			logger.InfoContext(ctx, "Connected to push stream")
			err = l.consume(ctx, stream, jobs)
			if closeErr := stream.Close(); closeErr != nil {
				logger.DebugContext(ctx, "Failed to close push stream", slog.String("error", closeErr.Error()))
			}
			if ctx.Err() != nil {
				return
			}
			logger.WarnContext(ctx, "Push stream disconnected", slog.String("error", err.Error()))
		}

		logger.InfoContext(ctx, "Reconnecting to push stream", slog.Duration("delay", l.reconnectDelay))
		select {
		case <-ctx.Done():
			return
		case <-l.afterFunc(l.reconnectDelay):
		}
	}
}

type read struct {
	payload domain.Payload
	err     error
}

// consume handles payloads until the stream fails
func (l *Loop) consume(ctx context.Context, stream Stream, jobs chan<- job) error {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	reads := make(chan read)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			payload, err := stream.Next(streamCtx)
			select {
			case reads <- read{payload: payload, err: err}:
			case <-streamCtx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	defer func() {
		cancel()
		<-readerDone
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case result := <-l.side.Results():
			l.send(ctx, jobs, job{messages: l.side.Apply(ctx, result)})
		case r := <-reads:
			if r.err != nil {
				return r.err
			}
			l.handle(ctx, r.payload, jobs)
		}
	}
}

func (l *Loop) send(ctx context.Context, jobs chan<- job, j job) {
	if j.work == nil && len(j.messages) == 0 {
		return
	}
	select {
	case jobs <- j:
	case <-ctx.Done():
	}
}

func (l *Loop) isTracked(characterID string) bool {
	return slices.Contains(l.tracked, characterID)
}

func (l *Loop) handle(ctx context.Context, payload domain.Payload, jobs chan<- job) {
	uid, ok := payload.UID()
	if !ok {
		return
	}
	if !l.dedupe.Admit(uid) {
		return
	}

	now := float64(l.nowFunc().UnixNano()) / 1e9
	if ts, ok := payload.Timestamp(); ok {
		now = ts
	}

	kind := payload.Kind()
	characterID, hasCharacter := payload.CharacterID()

	ctx = logging.AddMetaToContext(
		ctx,
		slog.String("characterID", characterID),
		slog.String("eventName", payload.EventName()),
		slog.String("uid", uid),
	)

	l.send(ctx, jobs, job{messages: l.side.Observe(ctx, payload, now)})

	if (kind == domain.EventPlayerLogin || kind == domain.EventGainExperience) &&
		hasCharacter && characterID != l.activeID && l.isTracked(characterID) {
		logging.FromContext(ctx).InfoContext(ctx, "Switching active character", slog.String("previousID", l.activeID))
		l.activeID = characterID
	}

	if l.activeID != "" {
		work := l.engine.Prefetch(ctx, payload, l.activeID, now)
		l.send(ctx, jobs, job{work: &work})
	}

	if kind == domain.EventPlayerLogout && hasCharacter && characterID == l.activeID {
		logging.FromContext(ctx).InfoContext(ctx, "Active character logged out")
		l.activeID = ""
	}
}
