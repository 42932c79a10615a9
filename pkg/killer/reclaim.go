//go:build linux

package killer

import (
	"sync"

	"golang.org/x/sys/unix"
)

// process_mrelease(2) was added in Linux 5.14; x/sys/unix exposes no typed
// wrapper, so it is invoked through the raw syscall table. Like pidfd, this
// is purely opportunistic.
const sysProcessMrelease = 448

var (
	mreleaseProbeOnce sync.Once
	mreleaseSupported bool
)

func mreleaseAvailable() bool {
	mreleaseProbeOnce.Do(func() {
		// Probe against our own pidfd; a real kernel with the syscall wired
		// up returns EINVAL for a process that is not exiting (not ENOSYS),
		// which is enough to confirm support.
		fd, ok := OpenTracker(unix.Getpid())
		if !ok {
			mreleaseSupported = false
			return
		}
		defer fd.Close()

		_, _, errno := unix.Syscall(sysProcessMrelease, uintptr(fd.fd), 0, 0)
		mreleaseSupported = errno != unix.ENOSYS
	})
	return mreleaseSupported
}

// ReclaimNow asks the kernel to release a killed victim's memory
// immediately, via process_mrelease(2) on its pidfd, instead of waiting for
// the victim's own exit path. Best-effort: failures are not reported as
// errors, since the victim is already dead or dying by the time this is
// called.
func ReclaimNow(tracker *Tracker) {
	if tracker == nil || !mreleaseAvailable() {
		return
	}
	unix.Syscall(sysProcessMrelease, uintptr(tracker.fd), 0, 0)
}
