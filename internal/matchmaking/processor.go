package matchmaking

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Broadcaster pushes a notification to every connected participant.
type Broadcaster interface {
	Broadcast(ctx context.Context, n Notification)
}

type ProcessorConfig struct {
	PairInterval    time.Duration
	CleanupInterval time.Duration
	StatsInterval   time.Duration
}

// Processor runs the periodic tasks: one pairing loop per mode, the
// stale-state sweep and the stats broadcast.
type Processor struct {
	matcher     *Matcher
	reaper      *Reaper
	manager     *Manager
	broadcaster Broadcaster
	cfg         ProcessorConfig
	log         *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewProcessor(manager *Manager, reaper *Reaper, broadcaster Broadcaster, cfg ProcessorConfig, log *slog.Logger) *Processor {
	return &Processor{
		matcher:     NewMatcher(manager.state, manager, log),
		reaper:      reaper,
		manager:     manager,
		broadcaster: broadcaster,
		cfg:         cfg,
		log:         log,
	}
}

func (p *Processor) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	for _, mode := range Modes {
		mode := mode
		p.every(ctx, p.cfg.PairInterval, func(ctx context.Context) {
			p.matcher.Pass(ctx, mode)
		})
	}
	p.every(ctx, p.cfg.CleanupInterval, func(ctx context.Context) {
		p.reaper.Sweep(ctx)
	})
	if p.broadcaster != nil {
		p.every(ctx, p.cfg.StatsInterval, p.broadcastStats)
	}

	p.log.Info("Queue processor started",
		"pair_interval", p.cfg.PairInterval,
		"cleanup_interval", p.cfg.CleanupInterval,
		"stats_interval", p.cfg.StatsInterval)
}

// Stop cancels the loops and waits for the running iteration of each to
// return.
func (p *Processor) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.log.Info("Queue processor stopped")
}

func (p *Processor) every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	if interval <= 0 {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
}

func (p *Processor) broadcastStats(ctx context.Context) {
	stats := p.manager.Stats()
	p.broadcaster.Broadcast(ctx, Notification{Type: NotifyStats, Stats: &stats})
}
