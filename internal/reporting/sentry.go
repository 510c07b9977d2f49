package reporting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/Amund211/censusoverlay/internal/config"
	"github.com/Amund211/censusoverlay/internal/logging"
	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
)

var censusIDRx = regexp.MustCompile(`\b[0-9]{4,}\b`)
var serviceIDRx = regexp.MustCompile(`/s:[^/\s"]+/`)
var characterNameRx = regexp.MustCompile(`name\.first_lower=[^&\s"]+`)
var hostRx = regexp.MustCompile(`\[:{0,2}([0-9a-f]{0,4}:?){1,8}\]:\d+`)

func sanitizeError(err string) string {
	err = hostRx.ReplaceAllString(err, "<host>")
	err = serviceIDRx.ReplaceAllString(err, "/<service>/")
	err = characterNameRx.ReplaceAllString(err, "name.first_lower=<name>")
	err = censusIDRx.ReplaceAllString(err, "<id>")
	return err
}

func Report(ctx context.Context, err error, extras ...map[string]string) {
	hub := sentry.GetHubFromContext(ctx)
	logger := logging.FromContext(ctx)
	if hub == nil {
		logger.WarnContext(ctx, "Failed to get Sentry hub from context", "error", err, "extras", extras)
		return
	}

	if err == nil {
		err = errors.New("No error provided")
	}

	logger.ErrorContext(
		ctx,
		"Reporting error to Sentry",
		slog.String("error", err.Error()),
		slog.Any("extras", extras),
	)

	hub.WithScope(func(scope *sentry.Scope) {
		meta := MetaFromContext(ctx)
		scope.SetTags(meta.tags)
		for key, value := range meta.extras {
			scope.SetExtra(key, value)
		}
		if meta.characterID != "" {
			scope.SetUser(sentry.User{
				ID: meta.characterID,
			})
		}
		if !meta.startedAt.IsZero() {
			scope.SetExtra("secondsSinceStart", time.Since(meta.startedAt).Seconds())
		}

		for _, extra := range extras {
			for key, value := range extra {
				scope.SetExtra(key, value)
			}
		}

		scope.SetFingerprint([]string{"{{ default }}", sanitizeError(err.Error())})
		hub.CaptureException(err)
	})
}

// NewAddMetaMiddleware tags reported errors with the port that handled the request
func NewAddMetaMiddleware(portName string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userAgent := r.UserAgent()
			if userAgent == "" {
				userAgent = "<missing>"
			}

			ctx = AddTagsToContext(ctx,
				map[string]string{
					"port":       portName,
					"userAgent":  userAgent,
					"methodPath": fmt.Sprintf("%s %s", r.Method, r.URL.Path),
				},
			)
			ctx = setStartedAtInContext(ctx, time.Now())

			next(w, r.WithContext(ctx))
		}
	}
}

// NewBackgroundContext gives a long running worker its own hub and reporting meta
func NewBackgroundContext(ctx context.Context, component string) context.Context {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub = hub.Clone()
	hub.Scope().SetTag("component", component)

	ctx = sentry.SetHubOnContext(ctx, hub)
	ctx = AddTagsToContext(ctx, map[string]string{"component": component})
	return setStartedAtInContext(ctx, time.Now())
}

func InitSentry(sentryDSN string, environment string) (func(), error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              sentryDSN,
		Environment:      environment,
		EnableTracing:    true,
		TracesSampleRate: 1.0 / 100.0,
	})
	if err != nil {
		return nil, err
	}

	flush := func() {
		sentry.Flush(5 * time.Second)
	}

	return flush, nil
}

func newSentryHTTPMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	sentryHandler := sentryhttp.New(sentryhttp.Options{Repanic: false})

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			sentryHandler.HandleFunc(next).ServeHTTP(w, r)
		}
	}
}

// NewSentryMiddlewareOrMock initializes Sentry when a DSN is configured.
// Development runs without a DSN get a pass-through middleware.
func NewSentryMiddlewareOrMock(config config.Config) (func(http.HandlerFunc) http.HandlerFunc, func(), error) {
	if config.SentryDSN() != "" {
		flush, err := InitSentry(config.SentryDSN(), config.Environment())
		if err != nil {
			return nil, nil, err
		}
		return newSentryHTTPMiddleware(), flush, nil
	}

	if config.IsDevelopment() {
		middleware := func(next http.HandlerFunc) http.HandlerFunc {
			return next
		}
		flush := func() {}
		return middleware, flush, nil
	}

	return nil, nil, fmt.Errorf("Missing Sentry DSN in non-development environment")
}
