//go:build linux

package daemon

import (
	"github.com/oomguard/oomguard/pkg/meminfo"
	"github.com/oomguard/oomguard/pkg/selfprotect"
)

// Start runs the self-protection sequence and logs a startup banner, then
// enters Run. Call this instead of Run directly from cmd/oomguard.
func (l *Loop) Start() {
	selfprotect.Apply(l.cfg.Priority, l.log)
	l.logStartupBanner()
	l.Run()
}

func (l *Loop) logStartupBanner() {
	snap, err := meminfo.Read()
	if err != nil {
		l.log.Warnw("startup: failed to read meminfo", "error", err)
	} else {
		l.log.Infow("oomguard starting",
			"mem_total_kib", uint64(snap.MemTotal),
			"mem_available_kib", uint64(snap.MemAvailable),
			"mem_available_pct", snap.MemAvailablePercent(),
			"swap_total_kib", uint64(snap.SwapTotal),
			"swap_free_kib", uint64(snap.SwapFree),
			"swap_free_pct", snap.SwapFreePercent(),
		)
	}

	if l.cfg.MemSizeWarnKB != nil {
		l.log.Infow("thresholds (absolute)",
			"sigterm_mem_kib", *l.cfg.MemSizeWarnKB, "sigterm_swap_kib", valueOrZero(l.cfg.SwapSizeWarnKB),
			"sigkill_mem_kib", valueOrZero(l.cfg.MemSizeKillKB), "sigkill_swap_kib", valueOrZero(l.cfg.SwapSizeKillKB))
	} else {
		l.log.Infow("thresholds (percent)",
			"sigterm_mem_pct", l.cfg.MemThresholdWarn, "sigterm_swap_pct", l.cfg.SwapThresholdWarn,
			"sigkill_mem_pct", l.cfg.MemThresholdKill, "sigkill_swap_pct", l.cfg.SwapThresholdKill)
	}

	l.log.Infow("selection policy",
		"prefer_patterns", len(l.cfg.Prefer), "avoid_patterns", len(l.cfg.Avoid), "ignore_patterns", len(l.cfg.Ignore),
		"sort_by_rss", l.cfg.SortByRSS, "strict_filter", l.cfg.StrictFilter)

	if l.cfg.DryRun {
		l.log.Warn("DRY RUN MODE - will not actually kill processes")
	}
	if l.cfg.KillGroup {
		l.log.Info("process-group kill enabled")
	}

	l.log.Infow("monitoring cadence", "check_interval", l.cfg.CheckInterval.String(),
		"report_interval", l.cfg.ReportInterval.String(), "adaptive_sleep", l.cfg.AdaptiveSleep)
}

func valueOrZero(p *uint64) uint64 {
	if p == nil {
		return 0
	}
	return *p
}
