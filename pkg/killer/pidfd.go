//go:build linux

package killer

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// pidfd support is opportunistic: probed once at first use, cached, and
// silently degraded on kernels older than 5.3 (no PidfdOpen) rather than
// linked against headers that might not exist on the build host.
var (
	pidfdProbeOnce sync.Once
	pidfdSupported bool
)

func pidfdAvailable() bool {
	pidfdProbeOnce.Do(func() {
		fd, err := unix.PidfdOpen(unix.Getpid(), 0)
		if err != nil {
			pidfdSupported = false
			return
		}
		unix.Close(fd)
		pidfdSupported = true
	})
	return pidfdSupported
}

// Tracker pins a pidfd to a specific process so a later signal cannot be
// misdelivered to an unrelated process that has since reused the same pid
// (the classic wait-then-kill TOCTOU race). OpenTracker returns (nil, false) when
// the kernel has no pidfd support or the pid has already exited; callers
// must fall back to pid-based signaling in that case.
type Tracker struct {
	fd int
}

// OpenTracker opens a pidfd for pid if the kernel supports it.
func OpenTracker(pid int) (*Tracker, bool) {
	if !pidfdAvailable() {
		return nil, false
	}
	fd, err := unix.PidfdOpen(pid, 0)
	if err != nil {
		return nil, false
	}
	return &Tracker{fd: fd}, true
}

// Close releases the pidfd.
func (t *Tracker) Close() error {
	if t == nil {
		return nil
	}
	return unix.Close(t.fd)
}

// Signal delivers sig to exactly the process the Tracker was opened
// against, even if its pid has since been reused by another process.
func (t *Tracker) Signal(sig unix.Signal) Outcome {
	err := unix.PidfdSendSignal(t.fd, sig, nil, 0)
	if err == nil {
		return Success
	}
	switch {
	case errors.Is(err, unix.ESRCH):
		return NotFound
	case errors.Is(err, unix.EPERM):
		return PermissionDenied
	default:
		return Errorf("pidfd signal error: %v", err)
	}
}

// KillTracked behaves like Kill but signals through a pidfd Tracker when one
// is supplied, eliminating the pid-reuse race between victim selection and
// signal delivery. Process-group kills cannot be expressed via pidfd (there
// is no "pidfd group") and always fall back to Kill's pgid path.
func KillTracked(tracker *Tracker, pid int, strategy Strategy, killGroup bool) Outcome {
	if tracker == nil || killGroup {
		return Kill(pid, strategy, killGroup)
	}

	switch strategy {
	case Forceful:
		return killForcefulTracked(tracker, pid)
	default:
		return killGracefulTracked(tracker, pid)
	}
}

func killGracefulTracked(tracker *Tracker, pid int) Outcome {
	result := tracker.Signal(unix.SIGTERM)
	if !result.IsSuccess() {
		return result
	}
	for i := 0; i < gracefulPollAttempts; i++ {
		time.Sleep(gracefulPollInterval)
		if !isAlive(pid) {
			return Success
		}
	}
	return killForcefulTracked(tracker, pid)
}

func killForcefulTracked(tracker *Tracker, pid int) Outcome {
	result := tracker.Signal(unix.SIGKILL)
	if !result.IsSuccess() {
		return result
	}
	for i := 0; i < forcefulPollAttempts; i++ {
		time.Sleep(forcefulPollInterval)
		if !isAlive(pid) {
			return Success
		}
	}
	if isAlive(pid) {
		return Errorf("process survived SIGKILL")
	}
	return Success
}
