package orchestrators

import (
	"context"
	"log/slog"
	"time"
)

// DefaultPollInterval is the fixed message refresh interval.
const DefaultPollInterval = 30 * time.Second

// PollMetrics counts poll outcomes.
type PollMetrics interface {
	PollTick(err error)
}

// Poller refreshes messages on a fixed interval. Each tick reads the topic
// current at fire time, so a topic switch between ticks is picked up.
type Poller struct {
	Interval time.Duration
	Refresh  RefreshMessagesDeps
	Metrics  PollMetrics
	// OnTick, when set, receives every tick's outcome.
	OnTick func(ctx context.Context, err error)
}

// Run ticks until ctx is cancelled.
// PRE: Refresh.State and Refresh.Backend are set
// POST: returns ctx.Err() once cancelled; tick failures never stop the loop
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.tick(ctx)
		case <-ctx.Done():
			slog.Info("forum_poller_stopped")
			return ctx.Err()
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()
	_, err := ExecuteRefreshMessages(tickCtx, p.Refresh)
	if err != nil {
		slog.Warn("forum_poll_failed", "error", err)
	}
	if p.Metrics != nil {
		p.Metrics.PollTick(err)
	}
	if p.OnTick != nil {
		p.OnTick(ctx, err)
	}
}

func (p *Poller) timeout() time.Duration {
	if p.Interval > 0 && p.Interval < DefaultPollInterval {
		return p.Interval
	}
	return DefaultPollInterval
}
