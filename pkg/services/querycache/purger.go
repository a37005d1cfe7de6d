package querycache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const DefaultPurgeInterval = 10 * time.Minute

// Purger periodically drops expired results from a Cache.
type Purger struct {
	cache    Cache
	interval time.Duration
	done     chan struct{}
}

func NewPurger(cache Cache, interval time.Duration) *Purger {
	if interval <= 0 {
		interval = DefaultPurgeInterval
	}
	return &Purger{
		cache:    cache,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Done is closed once Run has returned.
func (p *Purger) Done() <-chan struct{} {
	return p.done
}

// Start runs the purger in the background. The returned stop func cancels it and blocks
// until the last purge has returned, so the cache store can be closed after it.
func (p *Purger) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	go p.Run(ctx)
	return func() {
		cancel()
		<-p.done
	}
}

// Run purges the cache every interval until ctx is cancelled. Purge failures are logged and
// retried on the next tick.
func (p *Purger) Run(ctx context.Context) {
	logger := zerolog.Ctx(ctx)
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("query cache purger stopped")
			return
		case <-ticker.C:
			if err := p.cache.Purge(ctx); err != nil {
				logger.Error().Err(err).Msg("failed to purge query cache")
			}
		}
	}
}
