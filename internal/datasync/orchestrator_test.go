package datasync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/finboard-backend/internal/logger"
	"github.com/yungbote/finboard-backend/internal/registry"
	"github.com/yungbote/finboard-backend/internal/storage"
)

// scriptedLister counts calls and delegates to a per-call script.
type scriptedLister struct {
	mu sync.Mutex
	n  int
	fn func(call int) ([]registry.Record, error)
}

func (l *scriptedLister) List(context.Context, string, int) ([]registry.Record, error) {
	l.mu.Lock()
	call := l.n
	l.n++
	fn := l.fn
	l.mu.Unlock()
	return fn(call)
}

func (l *scriptedLister) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n
}

func staticLister(records []registry.Record) *scriptedLister {
	return &scriptedLister{fn: func(int) ([]registry.Record, error) { return records, nil }}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryBaseDelay = time.Millisecond
	cfg.RetryJitterFrac = 0
	cfg.CallTimeout = 0
	return cfg
}

func newTestOrchestrator(t *testing.T, kv storage.KV, overrides map[registry.EntityType]registry.Lister, opts ...Option) *Orchestrator {
	t.Helper()
	listers := make(map[registry.EntityType]registry.Lister)
	for _, typ := range registry.AllEntityTypes() {
		listers[typ] = staticLister([]registry.Record{})
	}
	for typ, l := range overrides {
		listers[typ] = l
	}
	reg, err := registry.NewStaticRegistry(listers)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return NewOrchestrator(testConfig(), reg, kv, logger.NewNop(), opts...)
}

func TestCacheHitSkipsNetwork(t *testing.T) {
	lister := staticLister([]registry.Record{{"id": "t1"}})
	o := newTestOrchestrator(t, storage.NewMemoryKV(), map[registry.EntityType]registry.Lister{
		registry.EntityTransactions: lister,
	})
	ctx := context.Background()

	first := o.LoadEntityData(ctx, registry.EntityTransactions, false)
	second := o.LoadEntityData(ctx, registry.EntityTransactions, false)

	if lister.calls() != 1 {
		t.Fatalf("expected a single registry call, got %d", lister.calls())
	}
	if len(first) != 1 || len(second) != 1 || first[0]["id"] != second[0]["id"] {
		t.Fatalf("consecutive fresh reads must return identical data")
	}
	if v := o.cache.Read(registry.EntityTransactions).Version; v != 1 {
		t.Fatalf("cache hit must not advance version, got %d", v)
	}
}

func TestForcedRefreshAlwaysHitsNetwork(t *testing.T) {
	lister := staticLister([]registry.Record{{"id": "g1"}})
	o := newTestOrchestrator(t, storage.NewMemoryKV(), map[registry.EntityType]registry.Lister{
		registry.EntityGoals: lister,
	})
	ctx := context.Background()

	o.LoadEntityData(ctx, registry.EntityGoals, false)
	o.LoadEntityData(ctx, registry.EntityGoals, true)

	if lister.calls() != 2 {
		t.Fatalf("forced refresh must hit the registry, got %d calls", lister.calls())
	}
	if v := o.cache.Read(registry.EntityGoals).Version; v != 2 {
		t.Fatalf("expected version 2 after forced refresh, got %d", v)
	}
}

func TestSupersededFetchNeverMutatesCache(t *testing.T) {
	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	lister := &scriptedLister{fn: func(call int) ([]registry.Record, error) {
		entered <- struct{}{}
		if call == 0 {
			<-release
			return []registry.Record{{"id": "stale"}}, nil
		}
		return []registry.Record{{"id": "fresh"}}, nil
	}}
	o := newTestOrchestrator(t, storage.NewMemoryKV(), map[registry.EntityType]registry.Lister{
		registry.EntityDebts: lister,
	})
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		o.LoadEntityData(ctx, registry.EntityDebts, true)
		close(done)
	}()
	<-entered // first fetch is in flight

	// second load supersedes the first and completes immediately
	data := o.LoadEntityData(ctx, registry.EntityDebts, true)
	<-entered
	if len(data) != 1 || data[0]["id"] != "fresh" {
		t.Fatalf("second load should return its own result, got %v", data)
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("first load never settled")
	}

	entry := o.cache.Read(registry.EntityDebts)
	if entry.Version != 1 {
		t.Fatalf("only the superseding fetch may write; version = %d", entry.Version)
	}
	if entry.Data[0]["id"] != "fresh" {
		t.Fatalf("stale completion clobbered the cache: %v", entry.Data)
	}
}

func TestRetryBoundRecovery(t *testing.T) {
	// rejects twice, then resolves: retries=2 means success on the
	// third attempt with no recorded error
	lister := &scriptedLister{fn: func(call int) ([]registry.Record, error) {
		if call < 2 {
			return nil, fmt.Errorf("fetch debts: connection reset")
		}
		return []registry.Record{{"id": 1, "balance": 500}}, nil
	}}
	o := newTestOrchestrator(t, storage.NewMemoryKV(), map[registry.EntityType]registry.Lister{
		registry.EntityDebts: lister,
	})

	data := o.LoadEntityData(context.Background(), registry.EntityDebts, false)
	if len(data) != 1 || data[0]["balance"] != 500 {
		t.Fatalf("expected the recovered result, got %v", data)
	}
	if lister.calls() != 3 {
		t.Fatalf("expected 3 attempts, got %d", lister.calls())
	}

	state := o.State()
	if _, ok := state.Errors[registry.EntityDebts]; ok {
		t.Fatalf("recovered load must not record an error: %v", state.Errors)
	}
	if v := o.cache.Read(registry.EntityDebts).Version; v != 1 {
		t.Fatalf("expected version 1, got %d", v)
	}
}

func TestRetryExhaustionKeepsPriorCache(t *testing.T) {
	healthy := staticLister([]registry.Record{{"id": "b1"}})
	o := newTestOrchestrator(t, storage.NewMemoryKV(), map[registry.EntityType]registry.Lister{
		registry.EntityBudgets: healthy,
	})
	ctx := context.Background()

	o.LoadEntityData(ctx, registry.EntityBudgets, false)

	// swap the script to always fail, then force a refresh
	healthy.mu.Lock()
	healthy.fn = func(int) ([]registry.Record, error) { return nil, errors.New("backend down") }
	healthy.mu.Unlock()

	data := o.LoadEntityData(ctx, registry.EntityBudgets, true)
	if len(data) != 1 || data[0]["id"] != "b1" {
		t.Fatalf("exhausted load must return prior cached data, got %v", data)
	}

	state := o.State()
	if state.Errors[registry.EntityBudgets] == "" {
		t.Fatalf("exhausted load must record an error")
	}
	if !state.HasError {
		t.Fatalf("aggregate error flag must be set")
	}
	if v := o.cache.Read(registry.EntityBudgets).Version; v != 1 {
		t.Fatalf("failed fetch must not advance version, got %d", v)
	}
}

func TestSuccessfulLoadClearsPriorError(t *testing.T) {
	flaky := &scriptedLister{fn: func(int) ([]registry.Record, error) { return nil, errors.New("down") }}
	o := newTestOrchestrator(t, storage.NewMemoryKV(), map[registry.EntityType]registry.Lister{
		registry.EntityBills: flaky,
	})
	ctx := context.Background()

	o.LoadEntityData(ctx, registry.EntityBills, false)
	if o.State().Errors[registry.EntityBills] == "" {
		t.Fatalf("expected recorded error")
	}

	flaky.mu.Lock()
	flaky.fn = func(int) ([]registry.Record, error) { return []registry.Record{{"id": "ok"}}, nil }
	flaky.mu.Unlock()

	o.LoadEntityData(ctx, registry.EntityBills, true)
	if _, ok := o.State().Errors[registry.EntityBills]; ok {
		t.Fatalf("successful load must clear the recorded error")
	}
}

func TestClearErrorLeavesData(t *testing.T) {
	failing := &scriptedLister{fn: func(int) ([]registry.Record, error) { return nil, errors.New("down") }}
	o := newTestOrchestrator(t, storage.NewMemoryKV(), map[registry.EntityType]registry.Lister{
		registry.EntityShifts: failing,
	})
	ctx := context.Background()

	o.LoadEntityData(ctx, registry.EntityShifts, false)
	o.ClearError(registry.EntityShifts)

	state := o.State()
	if _, ok := state.Errors[registry.EntityShifts]; ok {
		t.Fatalf("ClearError must drop the entry")
	}
}

func TestLoadAllDataCoalesces(t *testing.T) {
	entered := make(chan struct{}, 20)
	release := make(chan struct{})
	blocked := &scriptedLister{fn: func(int) ([]registry.Record, error) {
		entered <- struct{}{}
		<-release
		return []registry.Record{}, nil
	}}
	overrides := make(map[registry.EntityType]registry.Lister)
	for _, typ := range registry.AllEntityTypes() {
		overrides[typ] = blocked
	}
	o := newTestOrchestrator(t, storage.NewMemoryKV(), overrides)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		o.LoadAllData(ctx, false)
		close(done)
	}()
	for i := 0; i < len(registry.AllEntityTypes()); i++ {
		<-entered
	}

	// a concurrent non-forced call is a no-op while the first runs
	o.LoadAllData(ctx, false)
	if got := blocked.calls(); got != 7 {
		t.Fatalf("coalesced call must not add registry calls, got %d", got)
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("LoadAllData never settled")
	}

	if !o.DataLoaded() {
		t.Fatalf("DataLoaded must be true after the first full settle")
	}
}

func TestLoadAllDataSettlesDespiteFailures(t *testing.T) {
	overrides := map[registry.EntityType]registry.Lister{
		registry.EntityDebts: &scriptedLister{fn: func(int) ([]registry.Record, error) {
			return nil, errors.New("down")
		}},
		registry.EntityGoals: staticLister([]registry.Record{{"id": "g"}}),
	}
	o := newTestOrchestrator(t, storage.NewMemoryKV(), overrides)

	o.LoadAllData(context.Background(), false)

	state := o.State()
	if !state.DataLoaded {
		t.Fatalf("DataLoaded must be set even with per-entity failures")
	}
	if state.Errors[registry.EntityDebts] == "" {
		t.Fatalf("debts failure must be recorded")
	}
	if len(o.Data(registry.EntityGoals)) != 1 {
		t.Fatalf("goals must load despite the debts failure")
	}
}

func TestOfflineHydration(t *testing.T) {
	kv := storage.NewMemoryKV()
	ctx := context.Background()

	snapshot := []registry.Record{{"id": "t1"}, {"id": "t2"}, {"id": "t3"}}
	raw, _ := json.Marshal(snapshot)
	if err := kv.Set(ctx, snapshotKey(registry.EntityTransactions), string(raw)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	lister := staticLister([]registry.Record{{"id": "network"}})
	o := newTestOrchestrator(t, kv, map[registry.EntityType]registry.Lister{
		registry.EntityTransactions: lister,
	}, WithOnlineProbe(func(context.Context) bool { return false }))
	o.Start(ctx)
	defer o.Close()

	data := o.Data(registry.EntityTransactions)
	if len(data) != 3 {
		t.Fatalf("expected 3 hydrated records, got %d", len(data))
	}
	if lister.calls() != 0 {
		t.Fatalf("offline hydration must not call the registry, got %d calls", lister.calls())
	}
	if v := o.cache.Read(registry.EntityTransactions).Version; v != 0 {
		t.Fatalf("hydration must not count as a fetch, version = %d", v)
	}
}

func TestOnlineStartSkipsHydration(t *testing.T) {
	kv := storage.NewMemoryKV()
	ctx := context.Background()

	raw, _ := json.Marshal([]registry.Record{{"id": "old"}})
	_ = kv.Set(ctx, snapshotKey(registry.EntityGoals), string(raw))

	o := newTestOrchestrator(t, kv, nil)
	o.Start(ctx)
	defer o.Close()

	if len(o.Data(registry.EntityGoals)) != 0 {
		t.Fatalf("online start must not hydrate from snapshots")
	}
}

func TestSnapshotWrittenAfterSuccessfulFetch(t *testing.T) {
	kv := storage.NewMemoryKV()
	o := newTestOrchestrator(t, kv, map[registry.EntityType]registry.Lister{
		registry.EntityInvestments: staticLister([]registry.Record{{"symbol": "VTI"}}),
	})
	ctx := context.Background()

	o.LoadEntityData(ctx, registry.EntityInvestments, false)

	raw, err := kv.Get(ctx, snapshotKey(registry.EntityInvestments))
	if err != nil {
		t.Fatalf("snapshot missing after successful fetch: %v", err)
	}
	var records []registry.Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		t.Fatalf("snapshot not parseable: %v", err)
	}
	if len(records) != 1 || records[0]["symbol"] != "VTI" {
		t.Fatalf("unexpected snapshot contents: %v", records)
	}
}

func TestCloseAbortsInFlightFetch(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	lister := &scriptedLister{fn: func(int) ([]registry.Record, error) {
		entered <- struct{}{}
		<-release
		return []registry.Record{{"id": "late"}}, nil
	}}
	o := newTestOrchestrator(t, storage.NewMemoryKV(), map[registry.EntityType]registry.Lister{
		registry.EntityGoals: lister,
	})
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		o.LoadEntityData(ctx, registry.EntityGoals, false)
		close(done)
	}()
	<-entered
	o.Close()
	close(release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("load never settled")
	}

	if v := o.cache.Read(registry.EntityGoals).Version; v != 0 {
		t.Fatalf("post-teardown completion must not write, version = %d", v)
	}
	state := o.State()
	if len(state.Errors) != 0 {
		t.Fatalf("cancellation is not an error: %v", state.Errors)
	}
	if state.IsLoading {
		t.Fatalf("no load may read as in flight after teardown")
	}
}

func TestCancelledLoadLeavesNoError(t *testing.T) {
	lister := staticLister([]registry.Record{{"id": "d1"}})
	o := newTestOrchestrator(t, storage.NewMemoryKV(), map[registry.EntityType]registry.Lister{
		registry.EntityDebts: lister,
	})
	o.LoadEntityData(context.Background(), registry.EntityDebts, false)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	data := o.LoadEntityData(cancelled, registry.EntityDebts, true)

	if len(data) != 1 || data[0]["id"] != "d1" {
		t.Fatalf("cancelled load must return last cached data, got %v", data)
	}
	state := o.State()
	if len(state.Errors) != 0 {
		t.Fatalf("cancellation is not an entity error: %v", state.Errors)
	}
	if state.IsLoading {
		t.Fatalf("cancelled load must not stay marked loading")
	}
	if v := o.cache.Read(registry.EntityDebts).Version; v != 1 {
		t.Fatalf("cancelled load must not advance version, got %d", v)
	}
}

func TestClientDisconnectMidLoadLeavesNoError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	lister := &scriptedLister{fn: func(int) ([]registry.Record, error) {
		cancel() // caller goes away while the fetch is failing
		return nil, errors.New("connection reset")
	}}
	o := newTestOrchestrator(t, storage.NewMemoryKV(), map[registry.EntityType]registry.Lister{
		registry.EntityBills: lister,
	})

	o.LoadEntityData(ctx, registry.EntityBills, false)

	state := o.State()
	if len(state.Errors) != 0 {
		t.Fatalf("mid-load disconnect must be discarded silently: %v", state.Errors)
	}
	if state.IsLoading {
		t.Fatalf("disconnected load must not stay marked loading")
	}
}

func TestUnknownEntityTypeIgnored(t *testing.T) {
	o := newTestOrchestrator(t, storage.NewMemoryKV(), nil)
	if data := o.LoadEntityData(context.Background(), registry.EntityType("crypto"), false); data != nil {
		t.Fatalf("unknown type must return nil, got %v", data)
	}
}
