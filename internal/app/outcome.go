package app

import (
	"context"
	"log/slog"
)

// Outcome records how a best-effort side effect went. It is logged and handed
// back to callers for inspection but never turned into an error.
type Outcome struct {
	Action string
	Err    error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

// attempt runs fn and logs a failure at info level.
func attempt(ctx context.Context, logger *slog.Logger, action string, fn func() error, attrs ...any) Outcome {
	err := fn()
	if err != nil {
		logger.InfoContext(ctx, "best-effort action failed", append([]any{"action", action, "err", err}, attrs...)...)
	}
	return Outcome{Action: action, Err: err}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
