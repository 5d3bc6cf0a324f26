package datasync

import (
	"context"
	"time"

	"github.com/yungbote/finboard-backend/internal/logger"
	"github.com/yungbote/finboard-backend/internal/registry"
)

// StalenessMonitor sweeps the cache on a fixed interval and refreshes
// exactly the types whose entries have outlived the TTL. It stays
// idle until the first full load has settled.
type StalenessMonitor struct {
	log     *logger.Logger
	cache   *CacheStore
	ttl     time.Duration
	ready   func() bool
	refresh func(ctx context.Context, types []registry.EntityType)
}

func NewStalenessMonitor(
	cache *CacheStore,
	ttl time.Duration,
	ready func() bool,
	refresh func(ctx context.Context, types []registry.EntityType),
	baseLog *logger.Logger,
) *StalenessMonitor {
	return &StalenessMonitor{
		log:     baseLog.With("component", "StalenessMonitor"),
		cache:   cache,
		ttl:     ttl,
		ready:   ready,
		refresh: refresh,
	}
}

// Run loops until the context is cancelled. The sweep interval equals
// the TTL.
func (m *StalenessMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.ttl)
	defer ticker.Stop()

	m.log.Info("Staleness monitor started", "interval", m.ttl.String())
	for {
		select {
		case <-ctx.Done():
			m.log.Info("Staleness monitor stopped")
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *StalenessMonitor) sweep(ctx context.Context) {
	if !m.ready() {
		return
	}
	stale := m.cache.Stale(m.ttl)
	if len(stale) == 0 {
		return
	}
	m.log.Debug("Refreshing stale entities", "entities", stale)
	m.refresh(ctx, stale)
}
