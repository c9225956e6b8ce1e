package report

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Warmer refreshes the cache on a cron schedule so interactive callers
// mostly hit warm data instead of stalling on the remote poll loop.
type Warmer struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewWarmer schedules a background refresh of svc on the given cron
// spec (standard 5-field syntax).
func NewWarmer(schedule string, svc *Service, logger *slog.Logger) (*Warmer, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := svc.Refresh(context.Background()); err != nil {
			logger.Warn("scheduled cache warm failed", "error", err)
		} else {
			logger.Debug("cache warmed", "schedule", schedule)
		}
	})
	if err != nil {
		return nil, err
	}
	return &Warmer{cron: c, logger: logger}, nil
}

// Start begins running scheduled refreshes in the background.
func (w *Warmer) Start() { w.cron.Start() }

// Stop cancels future refreshes; an in-flight refresh runs to completion.
func (w *Warmer) Stop() { w.cron.Stop() }
