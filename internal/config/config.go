package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/finboard-backend/internal/logger"
)

// File is the optional YAML configuration. Environment variables win
// over anything set here; the file exists so local setups don't need
// a wall of exports.
type File struct {
	Server struct {
		Port        string   `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Sync struct {
		CacheTTLMS       int `yaml:"cache_ttl_ms"`
		RetryCount       int `yaml:"retry_count"`
		ChaosRetryCount  int `yaml:"chaos_retry_count"`
		RetryBaseDelayMS int `yaml:"retry_base_delay_ms"`
		ListLimit        int `yaml:"list_limit"`
	} `yaml:"sync"`
}

// Load reads the YAML file at path. A missing file is not an error;
// the zero value comes back and env defaults apply.
func Load(path string, log *logger.Logger) (File, error) {
	var f File
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if log != nil {
				log.Debug("No config file, using env and defaults", "path", path)
			}
			return f, nil
		}
		return f, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("parse config %q: %w", path, err)
	}
	return f, nil
}

// ApplyEnv exports file values as env defaults so the usual
// utils.GetEnv* lookups see them without special-casing.
func (f File) ApplyEnv() {
	setIfUnset := func(key, val string) {
		if val == "" {
			return
		}
		if _, ok := os.LookupEnv(key); !ok {
			_ = os.Setenv(key, val)
		}
	}
	setIfUnset("PORT", f.Server.Port)
	setIfUnset("SYNC_CACHE_TTL_MS", intToEnv(f.Sync.CacheTTLMS))
	setIfUnset("SYNC_RETRY_COUNT", intToEnv(f.Sync.RetryCount))
	setIfUnset("SYNC_CHAOS_RETRY_COUNT", intToEnv(f.Sync.ChaosRetryCount))
	setIfUnset("SYNC_RETRY_BASE_DELAY_MS", intToEnv(f.Sync.RetryBaseDelayMS))
	setIfUnset("SYNC_LIST_LIMIT", intToEnv(f.Sync.ListLimit))
}

func intToEnv(v int) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%d", v)
}
