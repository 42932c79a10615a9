//go:build linux

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oomguard/oomguard/pkg/config"
	"github.com/oomguard/oomguard/pkg/daemon"
	"github.com/oomguard/oomguard/pkg/hooks"
	oomlog "github.com/oomguard/oomguard/pkg/log"
)

type flags struct {
	memThreshold  string
	swapThreshold string
	memSize       string
	swapSize      string

	checkInterval  int
	reportInterval int
	noAdaptive     bool

	sortByRSS      bool
	strictFilter   bool
	ignoreRootUser bool
	killGroup      bool
	dryRun         bool

	prefer []string
	avoid  []string
	ignore []string

	preKillScript  string
	postKillScript string

	priority int
	logLevel string
	logFile  string
}

func main() {
	var f flags

	root := &cobra.Command{
		Use:   "oomguard",
		Short: "Userspace out-of-memory prevention daemon",
		Long: `oomguard watches /proc/meminfo for memory and swap pressure and, before
the kernel's own OOM killer would have to step in, selects and terminates a
victim process under a configurable filter and scoring policy.

It samples at an adaptive pace, escalates from SIGTERM to SIGKILL, tracks
victims by pidfd to stay race-free against pid reuse, and can run pre/post
kill hook scripts for external notification.

* GitHub: https://github.com/oomguard/oomguard`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f)
		},
	}

	root.Flags().StringVar(&f.memThreshold, "mem-threshold", "10", `memory threshold as "WARN" or "WARN,KILL" percent`)
	root.Flags().StringVar(&f.swapThreshold, "swap-threshold", "10", `swap threshold as "WARN" or "WARN,KILL" percent`)
	root.Flags().StringVar(&f.memSize, "mem-size", "", `absolute memory threshold in KiB, "WARN" or "WARN,KILL" (overrides --mem-threshold)`)
	root.Flags().StringVar(&f.swapSize, "swap-size", "", `absolute swap threshold in KiB, "WARN" or "WARN,KILL" (overrides --swap-threshold)`)

	root.Flags().IntVar(&f.checkInterval, "interval", 1, "check interval in seconds")
	root.Flags().IntVar(&f.reportInterval, "report-interval", 60, "status report interval in seconds")
	root.Flags().BoolVar(&f.noAdaptive, "no-adaptive-sleep", false, "disable adaptive sleep pacing; always sleep --interval")

	root.Flags().BoolVar(&f.sortByRSS, "sort-by-rss", false, "rank candidates by RSS instead of kernel oom_score")
	root.Flags().BoolVar(&f.strictFilter, "strict-filter", false, "never select an avoid-matched process, even as a last resort")
	root.Flags().BoolVar(&f.ignoreRootUser, "ignore-root-user", false, "never select a process owned by uid 0")
	root.Flags().BoolVar(&f.killGroup, "kill-group", false, "signal the victim's whole process group")
	root.Flags().BoolVar(&f.dryRun, "dry-run", false, "log the kill decision without signaling anything")

	root.Flags().StringArrayVar(&f.prefer, "prefer", nil, "regex matched against name/cmdline; matches are boosted (repeatable)")
	root.Flags().StringArrayVar(&f.avoid, "avoid", nil, "regex matched against name/cmdline; matches are penalized (repeatable)")
	root.Flags().StringArrayVar(&f.ignore, "ignore", nil, "regex matched against name/cmdline; matches are never selected (repeatable)")

	root.Flags().StringVar(&f.preKillScript, "pre-kill-script", "", "executable run before a kill, given OOM_GUARD_* env vars")
	root.Flags().StringVar(&f.postKillScript, "post-kill-script", "", "executable run after a kill, given OOM_GUARD_* env vars")

	root.Flags().IntVar(&f.priority, "priority", 0, "own scheduling priority (nice value, -20..19)")
	root.Flags().StringVar(&f.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.Flags().StringVar(&f.logFile, "log-file", "", "write logs to this file (rotated) instead of stderr")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags) error {
	cfg, err := buildConfig(f)
	if err != nil {
		return err
	}

	cfg, err = config.ApplyEnvOverrides(cfg)
	if err != nil {
		return err
	}

	warnings, err := cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := oomlog.ParseLevel(f.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", f.logLevel, err)
	}
	logger := oomlog.CreateLogger(level, f.logFile)
	defer logger.Sync() //nolint:errcheck

	for _, w := range warnings {
		logger.Warn(w)
	}

	if err := hooks.ValidateHooks(cfg.PreKillScript, cfg.PostKillScript, logger); err != nil {
		return err
	}

	var notifier hooks.Notifier = hooks.NopNotifier{}
	if cfg.Notify && (cfg.PreKillScript != "" || cfg.PostKillScript != "") {
		notifier = &hooks.ScriptHook{
			PreKillScript:  cfg.PreKillScript,
			PostKillScript: cfg.PostKillScript,
			Log:            logger,
		}
	}

	loop := daemon.New(cfg, logger, notifier)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		loop.Start()
		close(done)
	}()

	select {
	case <-sigCtx.Done():
		logger.Info("received shutdown signal")
		loop.Stop()
		<-done
	case <-done:
	}

	return nil
}

func buildConfig(f flags) (config.Config, error) {
	cfg := config.Default()

	if f.memSize != "" {
		warn, kill, err := config.ParseSizePair(f.memSize)
		if err != nil {
			return cfg, fmt.Errorf("--mem-size: %w", err)
		}
		cfg.MemSizeWarnKB, cfg.MemSizeKillKB = &warn, &kill
	} else {
		warn, kill, err := config.ParseThresholdPair(f.memThreshold)
		if err != nil {
			return cfg, fmt.Errorf("--mem-threshold: %w", err)
		}
		cfg.MemThresholdWarn, cfg.MemThresholdKill = warn, kill
	}

	if f.swapSize != "" {
		warn, kill, err := config.ParseSizePair(f.swapSize)
		if err != nil {
			return cfg, fmt.Errorf("--swap-size: %w", err)
		}
		cfg.SwapSizeWarnKB, cfg.SwapSizeKillKB = &warn, &kill
	} else {
		warn, kill, err := config.ParseThresholdPair(f.swapThreshold)
		if err != nil {
			return cfg, fmt.Errorf("--swap-threshold: %w", err)
		}
		cfg.SwapThresholdWarn, cfg.SwapThresholdKill = warn, kill
	}

	cfg.CheckInterval = time.Duration(f.checkInterval) * time.Second
	cfg.ReportInterval = time.Duration(f.reportInterval) * time.Second
	cfg.AdaptiveSleep = !f.noAdaptive

	cfg.SortByRSS = f.sortByRSS
	cfg.StrictFilter = f.strictFilter
	cfg.IgnoreRootUser = f.ignoreRootUser
	cfg.KillGroup = f.killGroup
	cfg.DryRun = f.dryRun
	cfg.Notify = f.preKillScript != "" || f.postKillScript != ""

	cfg.PreKillScript = f.preKillScript
	cfg.PostKillScript = f.postKillScript
	cfg.Priority = f.priority

	var err error
	if cfg.Prefer, err = compileAll(f.prefer); err != nil {
		return cfg, fmt.Errorf("--prefer: %w", err)
	}
	if cfg.Avoid, err = compileAll(f.avoid); err != nil {
		return cfg, fmt.Errorf("--avoid: %w", err)
	}
	if cfg.Ignore, err = compileAll(f.ignore); err != nil {
		return cfg, fmt.Errorf("--ignore: %w", err)
	}

	return cfg, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := config.CompileSafePattern(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}
