package logging

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

type loggerContextKey struct{}

var fallbackLogger = sync.OnceValue(func() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(slog.String("logger", "fallback"))
})

// FromContext returns the logger stored in ctx, or a fallback JSON logger on stdout
func FromContext(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(loggerContextKey{}).(*slog.Logger)
	if !ok || logger == nil {
		return fallbackLogger()
	}
	return logger
}

func AddToContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

func AddMetaToContext(ctx context.Context, args ...slog.Attr) context.Context {
	anySlice := make([]any, len(args))
	for i, arg := range args {
		anySlice[i] = arg
	}

	return AddToContext(ctx, FromContext(ctx).With(anySlice...))
}

// WithComponent tags every record logged through ctx with the component name
func WithComponent(ctx context.Context, component string) context.Context {
	return AddMetaToContext(ctx, slog.String("component", component))
}
