package mutant

import (
	"fmt"
	"time"
)

const (
	defaultDatabase = "mutant"
	defaultCacheTTL = 24 * time.Hour
	defaultStatsTTL = 10 * time.Second
)

type config struct {
	Mongo        string   `json:"mongo"`
	Database     string   `json:"database"`
	Redis        []string `json:"redis"`
	CacheTTLExpr string   `json:"cacheTTL"`
	StatsTTLExpr string   `json:"statsTTL"`
	// parsed values
	cacheTTL time.Duration
	statsTTL time.Duration
}

func parseTTL(expr string, def time.Duration) (time.Duration, error) {
	if expr == "" {
		return def, nil
	}
	ttl, err := time.ParseDuration(expr)
	if err != nil {
		return 0, fmt.Errorf("malformed ttl value: %q", expr)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("ttl must be positive: %q", expr)
	}
	return ttl, nil
}

func (cfg *config) parse() (err error) {
	if cfg.Mongo == "" {
		return fmt.Errorf("require mongo configuration")
	}
	if cfg.Database == "" {
		cfg.Database = defaultDatabase
	}
	if cfg.cacheTTL, err = parseTTL(cfg.CacheTTLExpr, defaultCacheTTL); err != nil {
		return
	}
	if cfg.statsTTL, err = parseTTL(cfg.StatsTTLExpr, defaultStatsTTL); err != nil {
		return
	}
	return
}
