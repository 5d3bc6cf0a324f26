package datasync

import (
	"time"

	"github.com/yungbote/finboard-backend/internal/logger"
	"github.com/yungbote/finboard-backend/internal/utils"
)

// Config carries the process-wide tunables for the sync layer. These
// are operational knobs, not user-facing flags; the chaos enable flag
// itself lives in the KV store so it survives restarts.
type Config struct {
	CacheTTL time.Duration

	Retries         int
	ChaosRetries    int
	RetryBaseDelay  time.Duration
	RetryFactor     float64
	RetryJitterFrac float64

	ChaosDelayMin        time.Duration
	ChaosDelayMax        time.Duration
	ChaosFailureProb     float64
	ChaosSilentEmptyProb float64

	SortKey   string
	ListLimit int

	CallTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		CacheTTL:             5 * time.Minute,
		Retries:              2,
		ChaosRetries:         4,
		RetryBaseDelay:       250 * time.Millisecond,
		RetryFactor:          2,
		RetryJitterFrac:      0.5,
		ChaosDelayMin:        500 * time.Millisecond,
		ChaosDelayMax:        2500 * time.Millisecond,
		ChaosFailureProb:     0.30,
		ChaosSilentEmptyProb: 0.20,
		SortKey:              "created_at",
		ListLimit:            500,
		CallTimeout:          60 * time.Second,
	}
}

// ConfigFromEnv overlays environment overrides on the defaults.
func ConfigFromEnv(log *logger.Logger) Config {
	cfg := DefaultConfig()
	cfg.CacheTTL = time.Duration(utils.GetEnvAsInt("SYNC_CACHE_TTL_MS", int(cfg.CacheTTL/time.Millisecond), log)) * time.Millisecond
	cfg.Retries = utils.GetEnvAsInt("SYNC_RETRY_COUNT", cfg.Retries, log)
	cfg.ChaosRetries = utils.GetEnvAsInt("SYNC_CHAOS_RETRY_COUNT", cfg.ChaosRetries, log)
	cfg.RetryBaseDelay = time.Duration(utils.GetEnvAsInt("SYNC_RETRY_BASE_DELAY_MS", int(cfg.RetryBaseDelay/time.Millisecond), log)) * time.Millisecond
	cfg.RetryFactor = utils.GetEnvAsFloat("SYNC_RETRY_FACTOR", cfg.RetryFactor, log)
	cfg.RetryJitterFrac = utils.GetEnvAsFloat("SYNC_RETRY_JITTER_FRAC", cfg.RetryJitterFrac, log)
	cfg.ChaosDelayMin = time.Duration(utils.GetEnvAsInt("SYNC_CHAOS_DELAY_MIN_MS", int(cfg.ChaosDelayMin/time.Millisecond), log)) * time.Millisecond
	cfg.ChaosDelayMax = time.Duration(utils.GetEnvAsInt("SYNC_CHAOS_DELAY_MAX_MS", int(cfg.ChaosDelayMax/time.Millisecond), log)) * time.Millisecond
	cfg.ChaosFailureProb = utils.GetEnvAsFloat("SYNC_CHAOS_FAILURE_PROB", cfg.ChaosFailureProb, log)
	cfg.ChaosSilentEmptyProb = utils.GetEnvAsFloat("SYNC_CHAOS_SILENT_EMPTY_PROB", cfg.ChaosSilentEmptyProb, log)
	cfg.SortKey = utils.GetEnv("SYNC_SORT_KEY", cfg.SortKey, log)
	cfg.ListLimit = utils.GetEnvAsInt("SYNC_LIST_LIMIT", cfg.ListLimit, log)
	cfg.CallTimeout = time.Duration(utils.GetEnvAsInt("SYNC_CALL_TIMEOUT_MS", int(cfg.CallTimeout/time.Millisecond), log)) * time.Millisecond
	return cfg
}
