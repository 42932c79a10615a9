//go:build linux

// Package daemon implements the Control Loop: it sequences sampling,
// decision, selection, and termination each tick, paces itself via
// adaptive sleep, enforces a cooldown between kills, and emits periodic
// status reports.
package daemon

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/oomguard/oomguard/pkg/config"
	"github.com/oomguard/oomguard/pkg/hooks"
	"github.com/oomguard/oomguard/pkg/killer"
	"github.com/oomguard/oomguard/pkg/meminfo"
	"github.com/oomguard/oomguard/pkg/procfs"
	"github.com/oomguard/oomguard/pkg/sanitize"
	"github.com/oomguard/oomguard/pkg/selector"
	"github.com/oomguard/oomguard/pkg/types"
)

// cooldown is the minimum monotonic interval between two successful kills.
const cooldown = 10 * time.Second

// Decision is the tagged kill decision a tick's threshold check produces.
type Decision int

const (
	DecisionNone Decision = iota
	DecisionGraceful
	DecisionForceful
)

// Loop owns the Configuration for the daemon's lifetime and drives one
// sampling tick at a time. The zero value is not usable; construct with
// New.
type Loop struct {
	cfg      config.Config
	log      *zap.SugaredLogger
	notifier hooks.Notifier

	running      atomic.Bool
	lastReportAt time.Time
	lastKillAt   time.Time
	hasKilled    bool
}

// New builds a Loop ready to Run. notifier may be hooks.NopNotifier{} if no
// pre/post-kill hooks are configured.
func New(cfg config.Config, log *zap.SugaredLogger, notifier hooks.Notifier) *Loop {
	if notifier == nil {
		notifier = hooks.NopNotifier{}
	}
	return &Loop{cfg: cfg, log: log, notifier: notifier}
}

// Stop requests the loop exit after its current tick. Safe to call from a
// signal handler: it only stores to a single atomic word.
func (l *Loop) Stop() {
	l.running.Store(false)
}

// Run executes the Control Loop until Stop is called. It blocks the
// calling goroutine.
func (l *Loop) Run() {
	l.running.Store(true)
	l.lastReportAt = time.Now()

	for l.running.Load() {
		snap, err := meminfo.Read()
		if err != nil {
			l.log.Warnw("failed to read meminfo, skipping tick", "error", err)
			time.Sleep(l.cfg.CheckInterval)
			continue
		}

		l.tick(snap)

		if time.Since(l.lastReportAt) >= l.cfg.ReportInterval {
			l.reportStatus(snap)
			l.lastReportAt = time.Now()
		}

		time.Sleep(l.sleepDuration(snap))
	}

	l.log.Info("oomguard daemon shutting down gracefully")
}

// tick runs one sample → decision → selection → termination sequence.
func (l *Loop) tick(snap meminfo.Snapshot) {
	if l.hasKilled && time.Since(l.lastKillAt) < cooldown {
		l.log.Debugw("in cooldown, skipping decision", "remaining", cooldown-time.Since(l.lastKillAt))
		return
	}

	decision := l.decide(snap)
	if decision == DecisionNone {
		return
	}

	strategy := killer.Graceful
	if decision == DecisionForceful {
		strategy = killer.Forceful
	}
	l.log.Warnw("threshold exceeded", "strategy", strategy.String(),
		"mem_available_pct", snap.MemAvailablePercent(), "swap_free_pct", snap.SwapFreePercent())

	records, err := procfs.ReadAll()
	if err != nil {
		l.log.Errorw("failed to enumerate process table", "error", err)
		return
	}

	pol := l.policy()
	victim, ok := selector.Select(records, pol)
	if !ok {
		l.log.Warn("no suitable victim process found")
		return
	}

	// Liveness re-check: the victim chosen above may already have exited in
	// the time it took to rank the process table.
	if !procfs.Exists(victim.PID) {
		l.log.Debugw("selected victim already exited before signal delivery", "pid", victim.PID)
		return
	}

	// Pre-verification: re-sample meminfo and re-run the threshold decision
	// immediately before signaling, so a transient spike that has already
	// receded between tick start and now does not cost a kill that is no
	// longer warranted.
	current, err := meminfo.Read()
	if err != nil {
		l.log.Warnw("pre-verification: failed to re-read meminfo, proceeding with original sample", "error", err)
	} else if l.decide(current) == DecisionNone {
		l.log.Debugw("pre-verification: thresholds no longer breached, aborting kill",
			"mem_available_pct", current.MemAvailablePercent(), "swap_free_pct", current.SwapFreePercent())
		return
	}

	l.killVictim(victim, strategy)
}

func (l *Loop) decide(snap meminfo.Snapshot) Decision {
	memCritical := l.memBelow(snap, l.cfg.MemSizeKillKB, l.cfg.MemThresholdKill)
	swapCritical := l.swapBelow(snap, l.cfg.SwapSizeKillKB, l.cfg.SwapThresholdKill)
	if memCritical && swapCritical {
		return DecisionForceful
	}

	memLow := l.memBelow(snap, l.cfg.MemSizeWarnKB, l.cfg.MemThresholdWarn)
	swapLow := l.swapBelow(snap, l.cfg.SwapSizeWarnKB, l.cfg.SwapThresholdWarn)
	if memLow && swapLow {
		return DecisionGraceful
	}

	return DecisionNone
}

func (l *Loop) memBelow(snap meminfo.Snapshot, sizeKB *uint64, pct float64) bool {
	if sizeKB != nil {
		return snap.MemBelowKB(types.KiB(*sizeKB))
	}
	return snap.MemBelow(pct)
}

func (l *Loop) swapBelow(snap meminfo.Snapshot, sizeKB *uint64, pct float64) bool {
	if sizeKB != nil {
		return snap.SwapBelowKB(types.KiB(*sizeKB))
	}
	return snap.SwapBelow(pct)
}

func (l *Loop) policy() selector.Policy {
	return selector.Policy{
		SortByRSS:      l.cfg.SortByRSS,
		IgnoreRootUser: l.cfg.IgnoreRootUser,
		StrictFilter:   l.cfg.StrictFilter,
		Prefer:         l.cfg.Prefer,
		Avoid:          l.cfg.Avoid,
		Ignore:         l.cfg.Ignore,
	}
}

func (l *Loop) killVictim(victim procfs.Record, strategy killer.Strategy) {
	payload := hooks.PayloadFromRecord(victim)

	// victim.Name/Cmdline come straight from /proc and are attacker-
	// influenceable (a process can name itself with embedded control
	// characters); sanitize before they reach a structured log field.
	safeName := sanitize.ForLog(victim.Name)

	l.log.Warnw("killing process", "pid", victim.PID, "name", safeName,
		"rss_kb", victim.RSSKiB, "strategy", strategy.String())

	if l.cfg.DryRun {
		l.log.Infow("dry run: would kill process", "pid", victim.PID, "name", safeName)
		return
	}

	l.notifier.PreKill(payload)

	outcome := l.killWithTracking(victim.PID, strategy)

	if outcome.IsSuccess() {
		l.log.Infow("successfully killed process", "pid", victim.PID, "name", safeName, "outcome", outcome.String())
		l.lastKillAt = time.Now()
		l.hasKilled = true
		l.notifier.PostKill(payload, nil)
		return
	}

	l.log.Errorw("failed to kill process", "pid", victim.PID, "name", safeName, "outcome", outcome.String())
	l.notifier.PostKill(payload, errKillFailed(outcome))
}

// killWithTracking opens a pidfd tracker for the victim (when the kernel
// supports it) so the actual signal delivery cannot be misdirected at a
// different process that later reuses the same pid.
func (l *Loop) killWithTracking(pid int, strategy killer.Strategy) killer.Outcome {
	tracker, ok := killer.OpenTracker(pid)
	if !ok {
		return killer.Kill(pid, strategy, l.cfg.KillGroup)
	}
	defer tracker.Close()

	outcome := killer.KillTracked(tracker, pid, strategy, l.cfg.KillGroup)
	if outcome.IsSuccess() {
		killer.ReclaimNow(tracker)
	}
	return outcome
}

func (l *Loop) reportStatus(snap meminfo.Snapshot) {
	records, err := procfs.ReadAll()
	if err != nil {
		l.log.Warnw("status report: failed to enumerate process table", "error", err)
		return
	}
	stats := selector.Stats(records, l.policy())

	fields := []any{
		"mem_available_pct", snap.MemAvailablePercent(),
		"swap_free_pct", snap.SwapFreePercent(),
		"processes_total", stats.Total,
		"processes_killable", stats.Killable,
	}
	if l.hasKilled {
		fields = append(fields, "last_kill_ago", time.Since(l.lastKillAt).String())
	} else {
		fields = append(fields, "last_kill_ago", "never")
	}
	l.log.Infow("status report", fields...)
}

// sleepDuration computes the Control Loop's pacing. When adaptive sleep is
// disabled, it is simply the configured check interval.
func (l *Loop) sleepDuration(snap meminfo.Snapshot) time.Duration {
	if !l.cfg.AdaptiveSleep {
		return l.cfg.CheckInterval
	}

	memHeadroom := snap.MemAvailablePercent() - l.cfg.MemThresholdWarn
	swapHeadroom := snap.SwapFreePercent() - l.cfg.SwapThresholdWarn
	headroom := memHeadroom
	if swapHeadroom < headroom {
		headroom = swapHeadroom
	}

	const (
		minSleep = 100 * time.Millisecond
		maxSleep = 1000 * time.Millisecond
	)

	switch {
	case headroom <= 0:
		return minSleep
	case headroom >= 20:
		return maxSleep
	default:
		span := float64(maxSleep - minSleep)
		return minSleep + time.Duration((headroom/20)*span)
	}
}

type killFailedError struct{ outcome killer.Outcome }

func (e killFailedError) Error() string { return e.outcome.String() }

func errKillFailed(o killer.Outcome) error { return killFailedError{outcome: o} }
