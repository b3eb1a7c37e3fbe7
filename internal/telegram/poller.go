package telegram

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Poller long-polls getUpdates and hands every update to its own goroutine.
type Poller struct {
	client  *Client
	handler *UpdateHandler
	timeout time.Duration
	backoff time.Duration
	logger  *slog.Logger
}

func NewPoller(client *Client, handler *UpdateHandler, timeout time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Poller{
		client:  client,
		handler: handler,
		timeout: timeout,
		backoff: 3 * time.Second,
		logger:  logger,
	}
}

// Run blocks until ctx is done, then waits for in-flight updates.
func (p *Poller) Run(ctx context.Context) error {
	var (
		offset int64
		wg     sync.WaitGroup
	)
	defer wg.Wait()

	p.logger.Info("polling telegram updates", "timeout", p.timeout)
	for {
		if ctx.Err() != nil {
			return nil
		}
		updates, err := p.client.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Warn("get updates failed", "err", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.backoff):
			}
			continue
		}
		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.handler.Handle(ctx, upd)
			}()
		}
	}
}
