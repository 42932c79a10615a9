// Package config defines the daemon's Configuration value and the parsing,
// validation, and environment-override logic that produces it.
package config

import (
	"fmt"
	"regexp"
	"regexp/syntax"
	"strconv"
	"strings"
	"time"
	"unsafe"
)

const (
	maxRegexPatternLength = 256
	regexSizeLimit        = 10 * (1 << 20) // 10 MiB compiled-program ceiling
)

// Config is the immutable configuration fixed at startup and owned by the
// Control Loop for the daemon's lifetime.
type Config struct {
	MemThresholdWarn  float64
	MemThresholdKill  float64
	SwapThresholdWarn float64
	SwapThresholdKill float64

	MemSizeWarnKB  *uint64
	MemSizeKillKB  *uint64
	SwapSizeWarnKB *uint64
	SwapSizeKillKB *uint64

	CheckInterval  time.Duration
	ReportInterval time.Duration
	AdaptiveSleep  bool

	SortByRSS    bool
	StrictFilter bool
	Prefer       []*regexp.Regexp
	Avoid        []*regexp.Regexp
	Ignore       []*regexp.Regexp

	DryRun         bool
	Debug          bool
	Notify         bool
	IgnoreRootUser bool
	KillGroup      bool

	PreKillScript  string
	PostKillScript string

	Priority int
}

// Default returns the baseline configuration, matching the original
// daemon's defaults: 10%/5% memory and swap thresholds, 1s check interval,
// 60s report interval, oom_score-based ranking.
func Default() Config {
	return Config{
		MemThresholdWarn:  10.0,
		MemThresholdKill:  5.0,
		SwapThresholdWarn: 10.0,
		SwapThresholdKill: 5.0,
		CheckInterval:     time.Second,
		ReportInterval:    60 * time.Second,
		AdaptiveSleep:     true,
		Priority:          0,
	}
}

// defaultKillRatio is the fraction of warn a kill threshold defaults to
// when a threshold pair supplies only the warn value.
const defaultKillRatio = 0.5

// ParseThresholdPair parses "WARN" or "WARN,KILL" into a (warn, kill) pair
// of percentages. When KILL is elided, it defaults to warn * 0.5.
func ParseThresholdPair(s string) (warn, kill float64, err error) {
	parts := strings.SplitN(s, ",", 2)
	warn, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid threshold value %q: %w", parts[0], err)
	}
	if len(parts) > 1 {
		kill, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid kill threshold %q: %w", parts[1], err)
		}
		return warn, kill, nil
	}
	return warn, warn * defaultKillRatio, nil
}

// ParseSizePair parses "SIZE" or "SIZE,KILL_SIZE" (both KiB) into a (warn,
// kill) pair. When KILL_SIZE is elided, it defaults to warn * 0.5.
func ParseSizePair(s string) (warn, kill uint64, err error) {
	parts := strings.SplitN(s, ",", 2)
	warn, err = strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size value %q: %w", parts[0], err)
	}
	if len(parts) > 1 {
		kill, err = strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid kill size %q: %w", parts[1], err)
		}
		return warn, kill, nil
	}
	return warn, uint64(float64(warn) * defaultKillRatio), nil
}

// CompileSafePattern compiles a user-supplied pattern with a length guard
// and a compiled-program size ceiling, to prevent a hostile config from
// blocking the Control Loop on pathological backtracking or memory use.
// There is no third-party ReDoS-bounded regex engine anywhere in reach
// here, so this compiles the pattern with regexp/syntax first and measures
// the resulting program (instruction count times instruction size).
func CompileSafePattern(pattern string) (*regexp.Regexp, error) {
	if len(pattern) > maxRegexPatternLength {
		truncated := pattern
		if len(truncated) > 50 {
			truncated = truncated[:50]
		}
		return nil, fmt.Errorf("regex pattern too long (max %d chars): %s...", maxRegexPatternLength, truncated)
	}

	parsed, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
	}
	prog, err := syntax.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
	}
	if progSize := len(prog.Inst) * int(unsafe.Sizeof(syntax.Inst{})); progSize > regexSizeLimit {
		return nil, fmt.Errorf("regex pattern %q compiles to a program larger than %d bytes", pattern, regexSizeLimit)
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
	}
	return re, nil
}

// ParseBool accepts true/false, 1/0, yes/no, on/off, case-insensitively.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value: %s", s)
	}
}

// Validate checks the invariants spec.md §3 requires at startup. A
// kill-above-warn threshold is a warning, not an error — callers should log
// the returned warnings but need not treat them as fatal.
func (c Config) Validate() (warnings []string, err error) {
	for _, pct := range []struct {
		name string
		val  float64
	}{
		{"mem_threshold_warn", c.MemThresholdWarn},
		{"mem_threshold_kill", c.MemThresholdKill},
		{"swap_threshold_warn", c.SwapThresholdWarn},
		{"swap_threshold_kill", c.SwapThresholdKill},
	} {
		if pct.val < 0 || pct.val > 100 {
			return nil, fmt.Errorf("%s must be between 0 and 100, got %v", pct.name, pct.val)
		}
	}

	if c.Priority < -20 || c.Priority > 19 {
		return nil, fmt.Errorf("priority must be between -20 and 19, got %d", c.Priority)
	}

	if c.MemThresholdKill > c.MemThresholdWarn {
		warnings = append(warnings, fmt.Sprintf("mem_threshold_kill (%v) is greater than mem_threshold_warn (%v)",
			c.MemThresholdKill, c.MemThresholdWarn))
	}
	if c.SwapThresholdKill > c.SwapThresholdWarn {
		warnings = append(warnings, fmt.Sprintf("swap_threshold_kill (%v) is greater than swap_threshold_warn (%v)",
			c.SwapThresholdKill, c.SwapThresholdWarn))
	}

	return warnings, nil
}
