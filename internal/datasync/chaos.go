package datasync

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"github.com/yungbote/finboard-backend/internal/logger"
	"github.com/yungbote/finboard-backend/internal/storage"
)

const chaosFlagKey = "finboard:chaos_mode"

// ErrSimulatedFailure is raised by chaos mode to exercise the retry
// path of the pipeline and the consuming UI.
var ErrSimulatedFailure = errors.New("chaos: simulated fetch failure")

type Disruption int

const (
	DisruptionNone Disruption = iota
	DisruptionDelayOnly
	DisruptionSimulatedFailure
	DisruptionSilentEmpty
)

func (d Disruption) String() string {
	switch d {
	case DisruptionDelayOnly:
		return "delay_only"
	case DisruptionSimulatedFailure:
		return "simulated_failure"
	case DisruptionSilentEmpty:
		return "silent_empty"
	default:
		return "none"
	}
}

// ChaosInjector simulates adverse network conditions: an
// unconditional random delay, a simulated failure that feeds the
// retry path, or a silent empty result that bypasses retries. The
// enable flag persists in the KV store so it survives restarts.
type ChaosInjector struct {
	log   *logger.Logger
	kv    storage.KV
	cfg   Config
	sleep func(ctx context.Context, d time.Duration) error
	randF func() float64
}

func NewChaosInjector(kv storage.KV, cfg Config, baseLog *logger.Logger) *ChaosInjector {
	return &ChaosInjector{
		log:   baseLog.With("component", "ChaosInjector"),
		kv:    kv,
		cfg:   cfg,
		sleep: sleepCtx,
		randF: rand.Float64,
	}
}

// Enabled reads the persisted chaos flag. Missing or unreadable flag
// means off.
func (c *ChaosInjector) Enabled(ctx context.Context) bool {
	v, err := c.kv.Get(ctx, chaosFlagKey)
	if err != nil {
		return false
	}
	enabled, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return enabled
}

func (c *ChaosInjector) SetEnabled(ctx context.Context, enabled bool) error {
	if err := c.kv.Set(ctx, chaosFlagKey, strconv.FormatBool(enabled)); err != nil {
		return err
	}
	c.log.Info("Chaos mode toggled", "enabled", enabled)
	return nil
}

// MaybeDisrupt applies one disruption roll. Callers must treat a
// SilentEmpty outcome as a successful empty result set.
func (c *ChaosInjector) MaybeDisrupt(ctx context.Context) (Disruption, error) {
	if !c.Enabled(ctx) {
		return DisruptionNone, nil
	}

	span := c.cfg.ChaosDelayMax - c.cfg.ChaosDelayMin
	if span < 0 {
		span = 0
	}
	delay := c.cfg.ChaosDelayMin + time.Duration(c.randF()*float64(span))
	if err := c.sleep(ctx, delay); err != nil {
		return DisruptionNone, err
	}

	roll := c.randF()
	switch {
	case roll < c.cfg.ChaosFailureProb:
		c.log.Debug("Chaos injected failure", "delay", delay.String())
		return DisruptionSimulatedFailure, ErrSimulatedFailure
	case c.randF() < c.cfg.ChaosSilentEmptyProb:
		c.log.Debug("Chaos injected silent empty result", "delay", delay.String())
		return DisruptionSilentEmpty, nil
	default:
		return DisruptionDelayOnly, nil
	}
}
