package datasync

import (
	"sync"
	"time"

	"github.com/yungbote/finboard-backend/internal/logger"
	"github.com/yungbote/finboard-backend/internal/registry"
)

// CallTable tracks pending driving fetches keyed by an incrementing
// ID, so tests and diagnostics can observe in-flight work. Entries
// leave the table on completion or when the timeout evicts them,
// never by leaking.
type CallTable struct {
	mu      sync.Mutex
	log     *logger.Logger
	nextID  uint64
	timeout time.Duration
	pending map[uint64]*pendingCall
}

type pendingCall struct {
	id      uint64
	typ     registry.EntityType
	started time.Time
	timer   *time.Timer
	done    chan struct{}
}

func NewCallTable(timeout time.Duration, baseLog *logger.Logger) *CallTable {
	return &CallTable{
		log:     baseLog.With("component", "CallTable"),
		timeout: timeout,
		pending: make(map[uint64]*pendingCall),
	}
}

// Register adds a pending call and returns its ID. If the call is
// still pending after the table's timeout it is evicted with a
// warning.
func (c *CallTable) Register(t registry.EntityType) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	call := &pendingCall{
		id:      id,
		typ:     t,
		started: time.Now(),
		done:    make(chan struct{}),
	}
	if c.timeout > 0 {
		call.timer = time.AfterFunc(c.timeout, func() { c.evict(id) })
	}
	c.pending[id] = call
	return id
}

// Complete removes a pending call. Safe to call for an already
// evicted ID.
func (c *CallTable) Complete(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	call, ok := c.pending[id]
	if !ok {
		return
	}
	if call.timer != nil {
		call.timer.Stop()
	}
	close(call.done)
	delete(c.pending, id)
}

func (c *CallTable) evict(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	call, ok := c.pending[id]
	if !ok {
		return
	}
	c.log.Warn("Pending call timed out, evicting",
		"call_id", id,
		"entity", call.typ,
		"age", time.Since(call.started).String(),
	)
	close(call.done)
	delete(c.pending, id)
}

// InFlight reports the number of pending calls.
func (c *CallTable) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// InFlightFor reports the number of pending calls for one type.
func (c *CallTable) InFlightFor(t registry.EntityType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.pending {
		if call.typ == t {
			n++
		}
	}
	return n
}

// Close evicts everything still pending.
func (c *CallTable) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, call := range c.pending {
		if call.timer != nil {
			call.timer.Stop()
		}
		close(call.done)
		delete(c.pending, id)
	}
}
