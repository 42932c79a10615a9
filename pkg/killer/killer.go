//go:build linux

// Package killer delivers termination signals to a chosen victim process,
// escalating from a graceful to a forceful strategy and verifying death by
// polling, with race-free tracking via pidfd where the kernel supports it.
package killer

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Strategy selects how a victim is terminated.
type Strategy int

const (
	Graceful Strategy = iota // SIGTERM, escalating to SIGKILL on timeout
	Forceful                 // SIGKILL immediately
)

func (s Strategy) String() string {
	if s == Forceful {
		return "forceful"
	}
	return "graceful"
}

// Outcome is the result of one kill attempt.
type Outcome struct {
	code    outcomeCode
	message string
}

type outcomeCode int

const (
	codeSuccess outcomeCode = iota
	codeAlreadyDead
	codePermissionDenied
	codeNotFound
	codeError
)

var (
	Success          = Outcome{code: codeSuccess}
	AlreadyDead      = Outcome{code: codeAlreadyDead}
	PermissionDenied = Outcome{code: codePermissionDenied}
	NotFound         = Outcome{code: codeNotFound}
)

// Errorf builds an Outcome carrying an arbitrary failure message.
func Errorf(format string, args ...any) Outcome {
	return Outcome{code: codeError, message: fmt.Sprintf(format, args...)}
}

// IsSuccess reports whether the outcome represents a completed kill: either
// the signal took effect, or the target was already gone.
func (o Outcome) IsSuccess() bool {
	return o.code == codeSuccess || o.code == codeAlreadyDead
}

func (o Outcome) String() string {
	switch o.code {
	case codeSuccess:
		return "successfully terminated"
	case codeAlreadyDead:
		return "already dead"
	case codePermissionDenied:
		return "permission denied"
	case codeNotFound:
		return "not found"
	default:
		return o.message
	}
}

const (
	gracefulPollAttempts = 10
	gracefulPollInterval = 100 * time.Millisecond
	forcefulPollAttempts = 5
	forcefulPollInterval = 50 * time.Millisecond
)

// Kill terminates pid under the given strategy, optionally targeting its
// entire process group. It first probes liveness with a signal-0 check, then
// sends the appropriate signal and polls for death, escalating a Graceful
// strategy to Forceful on timeout.
func Kill(pid int, strategy Strategy, killGroup bool) Outcome {
	if !isAlive(pid) {
		return AlreadyDead
	}

	switch strategy {
	case Forceful:
		return killForceful(pid, killGroup)
	default:
		return killGraceful(pid, killGroup)
	}
}

func killGraceful(pid int, killGroup bool) Outcome {
	result := sendSignalToTarget(pid, unix.SIGTERM, killGroup)
	if !result.IsSuccess() {
		return result
	}

	for i := 0; i < gracefulPollAttempts; i++ {
		time.Sleep(gracefulPollInterval)
		if !isAlive(pid) {
			return Success
		}
	}

	return killForceful(pid, killGroup)
}

func killForceful(pid int, killGroup bool) Outcome {
	result := sendSignalToTarget(pid, unix.SIGKILL, killGroup)
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

func isAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil
}

func sendSignal(pid int, sig unix.Signal) Outcome {
	err := unix.Kill(pid, sig)
	if err == nil {
		return Success
	}
	switch {
	case errors.Is(err, unix.ESRCH):
		return NotFound
	case errors.Is(err, unix.EPERM):
		return PermissionDenied
	default:
		return Errorf("signal error: %v", err)
	}
}

// sendSignalToTarget delivers sig to pid, or to pid's entire process group
// when killGroup is set. Falls back to a single-pid signal if the process
// group cannot be resolved.
func sendSignalToTarget(pid int, sig unix.Signal, killGroup bool) Outcome {
	if !killGroup {
		return sendSignal(pid, sig)
	}

	pgid, err := unix.Getpgid(pid)
	if err != nil {
		return sendSignal(pid, sig)
	}

	err = unix.Kill(-pgid, sig)
	if err == nil {
		return Success
	}
	switch {
	case errors.Is(err, unix.ESRCH):
		return NotFound
	case errors.Is(err, unix.EPERM):
		return PermissionDenied
	default:
		return Errorf("killpg error: %v", err)
	}
}
