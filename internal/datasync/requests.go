package datasync

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/yungbote/finboard-backend/internal/logger"
	"github.com/yungbote/finboard-backend/internal/registry"
)

// Token marks one driving fetch for an entity type. Aborting is
// cooperative: the underlying call keeps running, but its result must
// be discarded at the mutation point.
type Token struct {
	ID      uuid.UUID
	Type    registry.EntityType
	aborted atomic.Bool
}

func (t *Token) Aborted() bool {
	if t == nil {
		return true
	}
	return t.aborted.Load()
}

func (t *Token) abort() {
	if t != nil {
		t.aborted.Store(true)
	}
}

// RequestController owns at most one live token per entity type.
// Beginning a new fetch for a type aborts the previous token first,
// so a slow stale response can never clobber a fresher one.
type RequestController struct {
	mu   sync.Mutex
	log  *logger.Logger
	live map[registry.EntityType]*Token
}

func NewRequestController(baseLog *logger.Logger) *RequestController {
	return &RequestController{
		log:  baseLog.With("component", "RequestController"),
		live: make(map[registry.EntityType]*Token),
	}
}

// Begin supersedes any live token for the type and returns a fresh one.
func (c *RequestController) Begin(t registry.EntityType) *Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.live[t]; ok && !prev.Aborted() {
		prev.abort()
		c.log.Debug("Superseded in-flight request", "entity", t, "token_id", prev.ID)
	}
	token := &Token{ID: uuid.New(), Type: t}
	c.live[t] = token
	return token
}

// Commit runs fn only while token is still the live, unaborted token
// for its type. The controller's lock spans the check and fn, so a
// concurrent Begin cannot slip between a stale fetch's liveness check
// and its write.
func (c *RequestController) Commit(token *Token, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token == nil || token.aborted.Load() {
		return false
	}
	if c.live[token.Type] != token {
		return false
	}
	fn()
	return true
}

// AbortAll cancels every live token. Called on teardown so no state
// mutation lands after the consumer stops observing.
func (c *RequestController) AbortAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for t, token := range c.live {
		token.abort()
		delete(c.live, t)
	}
}
