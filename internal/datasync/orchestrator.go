package datasync

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/finboard-backend/internal/logger"
	"github.com/yungbote/finboard-backend/internal/registry"
	"github.com/yungbote/finboard-backend/internal/storage"
)

// State is the aggregate view the UI layer observes. Failure
// information surfaces only here; the public methods never return
// errors.
type State struct {
	Loading    map[registry.EntityType]bool   `json:"loading"`
	Errors     map[registry.EntityType]string `json:"errors"`
	IsLoading  bool                           `json:"is_loading"`
	HasError   bool                           `json:"has_error"`
	DataLoaded bool                           `json:"data_loaded"`
}

// Orchestrator composes the cache, retry executor, request
// controller, chaos injector, hydrator and staleness monitor into the
// resilient load pipeline described in the package doc.
type Orchestrator struct {
	log      *logger.Logger
	cfg      Config
	reg      registry.Registry
	cache    *CacheStore
	retry    *RetryExecutor
	requests *RequestController
	chaos    *ChaosInjector
	hydrator *Hydrator
	calls    *CallTable
	online   func(ctx context.Context) bool

	mu         sync.Mutex
	loading    map[registry.EntityType]bool
	errors     map[registry.EntityType]string
	dataLoaded bool
	hydrated   bool
	allLoads   int

	cancelMonitor context.CancelFunc
}

// Option tweaks orchestrator construction.
type Option func(*Orchestrator)

// WithOnlineProbe replaces the network-reachability probe sampled
// once at Start. The default assumes online.
func WithOnlineProbe(probe func(ctx context.Context) bool) Option {
	return func(o *Orchestrator) { o.online = probe }
}

func NewOrchestrator(cfg Config, reg registry.Registry, kv storage.KV, baseLog *logger.Logger, opts ...Option) *Orchestrator {
	log := baseLog.With("component", "Orchestrator")
	o := &Orchestrator{
		log:      log,
		cfg:      cfg,
		reg:      reg,
		cache:    NewCacheStore(),
		retry:    NewRetryExecutor(baseLog),
		requests: NewRequestController(baseLog),
		chaos:    NewChaosInjector(kv, cfg, baseLog),
		hydrator: NewHydrator(kv, baseLog),
		calls:    NewCallTable(cfg.CallTimeout, baseLog),
		online:   func(context.Context) bool { return true },
		loading:  make(map[registry.EntityType]bool),
		errors:   make(map[registry.EntityType]string),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Chaos exposes the injector for the toggle endpoint.
func (o *Orchestrator) Chaos() *ChaosInjector { return o.chaos }

// Start samples the environment signal once, hydrates from snapshots
// when offline, and launches the staleness monitor.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	alreadyHydrated := o.hydrated
	o.hydrated = true
	o.mu.Unlock()

	if !alreadyHydrated && !o.online(ctx) {
		o.log.Info("Offline at startup, hydrating from snapshots")
		snaps := o.hydrator.HydrateAll(ctx)
		for t, records := range snaps {
			if o.cache.Read(t).Version == 0 {
				o.cache.ReplaceData(t, records)
			}
		}
	}

	monitorCtx, cancel := context.WithCancel(context.Background())
	o.cancelMonitor = cancel
	monitor := NewStalenessMonitor(o.cache, o.cfg.CacheTTL, o.DataLoaded, func(ctx context.Context, types []registry.EntityType) {
		o.RefreshData(ctx, types)
	}, o.log)
	go monitor.Run(monitorCtx)
}

// LoadEntityData returns fresh cache without a network call when
// possible; otherwise it drives one Chaos→Retry→Registry fetch. It
// never fails: on exhaustion the last cached data comes back and the
// error is recorded in the state map.
func (o *Orchestrator) LoadEntityData(ctx context.Context, t registry.EntityType, force bool) []registry.Record {
	if !t.Valid() {
		o.log.Warn("Ignoring load for unknown entity type", "entity", t)
		return nil
	}

	if !force && o.cache.IsFresh(t, o.cfg.CacheTTL) {
		return o.cache.Read(t).Data
	}

	token := o.requests.Begin(t)
	callID := o.calls.Register(t)
	defer o.calls.Complete(callID)

	o.mu.Lock()
	o.loading[t] = true
	delete(o.errors, t)
	o.mu.Unlock()

	retries := o.cfg.Retries
	chaosOn := o.chaos.Enabled(ctx)
	if chaosOn {
		retries = o.cfg.ChaosRetries
	}
	policy := RetryPolicy{
		Retries:    retries,
		BaseDelay:  o.cfg.RetryBaseDelay,
		Factor:     o.cfg.RetryFactor,
		JitterFrac: o.cfg.RetryJitterFrac,
	}

	data, err := o.retry.Execute(ctx, policy, func(ctx context.Context) ([]registry.Record, error) {
		if chaosOn {
			disruption, derr := o.chaos.MaybeDisrupt(ctx)
			if derr != nil {
				return nil, derr
			}
			if disruption == DisruptionSilentEmpty {
				return []registry.Record{}, nil
			}
		}
		lister, lerr := o.reg.Lister(t)
		if lerr != nil {
			return nil, lerr
		}
		return lister.List(ctx, o.cfg.SortKey, o.cfg.ListLimit)
	})

	if err != nil {
		// A superseded or torn-down fetch discards its result
		// silently; so does one whose caller went away. Neither is
		// an entity failure.
		if token.Aborted() {
			return o.cache.Read(t).Data
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			o.log.Debug("Entity load cancelled", "entity", t)
			o.mu.Lock()
			o.loading[t] = false
			o.mu.Unlock()
			return o.cache.Read(t).Data
		}
		o.log.Error("Entity load failed after retries", "entity", t, "error", err)
		o.mu.Lock()
		o.errors[t] = err.Error()
		o.loading[t] = false
		o.mu.Unlock()
		return o.cache.Read(t).Data
	}

	// Commit holds the controller lock across the liveness check and
	// the write, so a newer load beginning in between cannot end up
	// clobbered by this one's result.
	var entry CacheEntry
	if !o.requests.Commit(token, func() {
		entry = o.cache.Write(t, data)
		o.hydrator.Persist(ctx, t, data)
	}) {
		return o.cache.Read(t).Data
	}
	o.mu.Lock()
	o.loading[t] = false
	o.mu.Unlock()
	o.log.Debug("Entity loaded", "entity", t, "records", len(entry.Data), "version", entry.Version)
	return entry.Data
}

// LoadAllData fans out one LoadEntityData per type in parallel and
// waits for all of them to settle. Concurrent non-forced invocations
// coalesce into a no-op.
func (o *Orchestrator) LoadAllData(ctx context.Context, force bool) {
	o.mu.Lock()
	if o.allLoads > 0 && !force {
		o.mu.Unlock()
		return
	}
	o.allLoads++
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.allLoads--
		o.mu.Unlock()
	}()

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range registry.AllEntityTypes() {
		t := t
		g.Go(func() error {
			o.LoadEntityData(gctx, t, force)
			return nil
		})
	}
	_ = g.Wait()

	o.mu.Lock()
	o.dataLoaded = true
	o.mu.Unlock()
}

// RefreshData forces network loads for the given subset, or for all
// seven types when the slice is nil.
func (o *Orchestrator) RefreshData(ctx context.Context, types []registry.EntityType) {
	if types == nil {
		o.LoadAllData(ctx, true)
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range types {
		t := t
		g.Go(func() error {
			o.LoadEntityData(gctx, t, true)
			return nil
		})
	}
	_ = g.Wait()
}

// ClearError drops a recorded error without touching cached data.
func (o *Orchestrator) ClearError(t registry.EntityType) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.errors, t)
}

// DataLoaded reports whether the first full load has settled.
func (o *Orchestrator) DataLoaded() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dataLoaded
}

// Data returns the current cached collection for one type.
func (o *Orchestrator) Data(t registry.EntityType) []registry.Record {
	return o.cache.Read(t).Data
}

// AllData returns every cached collection keyed by type.
func (o *Orchestrator) AllData() map[registry.EntityType][]registry.Record {
	out := make(map[registry.EntityType][]registry.Record, len(registry.AllEntityTypes()))
	for _, t := range registry.AllEntityTypes() {
		out[t] = o.cache.Read(t).Data
	}
	return out
}

// State snapshots the derived loading/error flags.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	loading := make(map[registry.EntityType]bool, len(o.loading))
	anyLoading := false
	for t, v := range o.loading {
		loading[t] = v
		if v {
			anyLoading = true
		}
	}
	errs := make(map[registry.EntityType]string, len(o.errors))
	for t, msg := range o.errors {
		errs[t] = msg
	}
	return State{
		Loading:    loading,
		Errors:     errs,
		IsLoading:  anyLoading,
		HasError:   len(errs) > 0,
		DataLoaded: o.dataLoaded,
	}
}

// Close aborts every live token and stops the monitor. No state
// mutation lands after teardown.
func (o *Orchestrator) Close() {
	if o.cancelMonitor != nil {
		o.cancelMonitor()
		o.cancelMonitor = nil
	}
	o.requests.AbortAll()
	o.calls.Close()
	// Aborted loads never clear their own flag, so reset here or
	// IsLoading would read true forever.
	o.mu.Lock()
	o.loading = make(map[registry.EntityType]bool)
	o.mu.Unlock()
}
