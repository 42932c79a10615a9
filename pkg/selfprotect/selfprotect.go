//go:build linux

// Package selfprotect hardens the daemon process itself against the same
// pressure it is watching for: lock its pages resident, raise its
// scheduling priority, and bias the kernel OOM killer away from it. Every
// step here is best-effort — a failure is logged and the daemon continues
// startup regardless.
package selfprotect

import (
	"os"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/oomguard/oomguard/pkg/cgroupinfo"
)

// selfOOMScoreAdj is written to /proc/self/oom_score_adj so the kernel
// strongly disfavors killing the daemon, without making it fully immune
// (-1000 is reserved for genuinely unkillable system processes).
const selfOOMScoreAdj = -100

// Apply runs the full self-protection sequence: mlockall, scheduling
// priority, and the daemon's own oom_score_adj. priority must be in
// [-20, 19]; callers validate that range before calling Apply.
func Apply(priority int, log *zap.SugaredLogger) {
	if err := lockMemory(); err != nil {
		log.Warnw("mlockall failed, daemon may be swapped out under pressure", "error", err)
	}

	if err := setPriority(priority); err != nil {
		log.Warnw("failed to set scheduling priority", "priority", priority, "error", err)
	}

	if err := setOwnOOMScoreAdj(selfOOMScoreAdj); err != nil {
		log.Warnw("failed to adjust own oom_score_adj", "error", err)
	}

	reportCgroupMode(log)
}

func lockMemory() error {
	return unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE)
}

func setPriority(priority int) error {
	return unix.Setpriority(unix.PRIO_PROCESS, 0, priority)
}

func setOwnOOMScoreAdj(v int) error {
	return os.WriteFile("/proc/self/oom_score_adj", []byte(strconv.Itoa(v)), 0o644)
}

// reportCgroupMode logs the host's cgroup hierarchy and, if the daemon's
// own process is cgroup-memory-limited, that ceiling — purely diagnostic
// context at startup; oomguard never reads or enforces per-cgroup limits.
// A tight self-ceiling is worth surfacing: it means the kernel can reclaim
// or kill inside this process's cgroup well before host-wide /proc/meminfo
// pressure ever crosses the thresholds this daemon watches.
func reportCgroupMode(log *zap.SugaredLogger) {
	ver, detail, err := cgroupinfo.Detect()
	if err != nil {
		log.Debugw("cgroup detection unavailable", "error", err)
		return
	}
	log.Infow("detected cgroup hierarchy", "version", ver.String(), "detail", detail)

	if limit, ok := cgroupinfo.SelfMemoryCeiling(); ok {
		log.Infow("daemon's own cgroup has a memory ceiling", "limit", limit.Humanized())
	}
}
