package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ApplyEnvOverrides mutates a copy of cfg with any OOMGUARD_* environment
// variables present, and returns it. Variable names follow the original
// daemon's OOM_GUARD_* convention, collapsed to OOMGUARD_* (no internal
// underscore). The names do not mirror the CLI flag names (for example
// OOMGUARD_MEM_WARN vs --mem-threshold), and not every flag has a variable.
func ApplyEnvOverrides(cfg Config) (Config, error) {
	if v, ok := os.LookupEnv("OOMGUARD_MEM_WARN"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("OOMGUARD_MEM_WARN: %w", err)
		}
		cfg.MemThresholdWarn = f
	}
	if v, ok := os.LookupEnv("OOMGUARD_SWAP_WARN"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("OOMGUARD_SWAP_WARN: %w", err)
		}
		cfg.SwapThresholdWarn = f
	}
	if v, ok := os.LookupEnv("OOMGUARD_MEM_KILL"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("OOMGUARD_MEM_KILL: %w", err)
		}
		cfg.MemThresholdKill = f
	}
	if v, ok := os.LookupEnv("OOMGUARD_SWAP_KILL"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("OOMGUARD_SWAP_KILL: %w", err)
		}
		cfg.SwapThresholdKill = f
	}

	if v, ok := os.LookupEnv("OOMGUARD_MEM_SIZE_WARN"); ok {
		u, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("OOMGUARD_MEM_SIZE_WARN: %w", err)
		}
		cfg.MemSizeWarnKB = &u
	}
	if v, ok := os.LookupEnv("OOMGUARD_SWAP_SIZE_WARN"); ok {
		u, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("OOMGUARD_SWAP_SIZE_WARN: %w", err)
		}
		cfg.SwapSizeWarnKB = &u
	}
	if v, ok := os.LookupEnv("OOMGUARD_MEM_SIZE_KILL"); ok {
		u, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("OOMGUARD_MEM_SIZE_KILL: %w", err)
		}
		cfg.MemSizeKillKB = &u
	}
	if v, ok := os.LookupEnv("OOMGUARD_SWAP_SIZE_KILL"); ok {
		u, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("OOMGUARD_SWAP_SIZE_KILL: %w", err)
		}
		cfg.SwapSizeKillKB = &u
	}

	if v, ok := os.LookupEnv("OOMGUARD_INTERVAL"); ok {
		secs, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("OOMGUARD_INTERVAL: %w", err)
		}
		cfg.CheckInterval = time.Duration(secs) * time.Second
	}
	if v, ok := os.LookupEnv("OOMGUARD_REPORT"); ok {
		secs, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("OOMGUARD_REPORT: %w", err)
		}
		cfg.ReportInterval = time.Duration(secs) * time.Second
	}

	if v, ok := os.LookupEnv("OOMGUARD_SORT_BY_RSS"); ok {
		b, err := ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("OOMGUARD_SORT_BY_RSS: %w", err)
		}
		cfg.SortByRSS = b
	}
	if v, ok := os.LookupEnv("OOMGUARD_DRY_RUN"); ok {
		b, err := ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("OOMGUARD_DRY_RUN: %w", err)
		}
		cfg.DryRun = b
	}
	if v, ok := os.LookupEnv("OOMGUARD_DEBUG"); ok {
		b, err := ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("OOMGUARD_DEBUG: %w", err)
		}
		cfg.Debug = b
	}
	if v, ok := os.LookupEnv("OOMGUARD_NOTIFY"); ok {
		b, err := ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("OOMGUARD_NOTIFY: %w", err)
		}
		cfg.Notify = b
	}
	if v, ok := os.LookupEnv("OOMGUARD_IGNORE_ROOT_USER"); ok {
		b, err := ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("OOMGUARD_IGNORE_ROOT_USER: %w", err)
		}
		cfg.IgnoreRootUser = b
	}
	if v, ok := os.LookupEnv("OOMGUARD_KILL_GROUP"); ok {
		b, err := ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("OOMGUARD_KILL_GROUP: %w", err)
		}
		cfg.KillGroup = b
	}
	if v, ok := os.LookupEnv("OOMGUARD_STRICT_FILTER"); ok {
		b, err := ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("OOMGUARD_STRICT_FILTER: %w", err)
		}
		cfg.StrictFilter = b
	}

	if v, ok := os.LookupEnv("OOMGUARD_PRIORITY"); ok {
		p, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("OOMGUARD_PRIORITY: %w", err)
		}
		cfg.Priority = p
	}

	return cfg, nil
}
