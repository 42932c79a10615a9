//go:build linux

// Package meminfo samples system-wide memory and swap pressure from
// /proc/meminfo.
package meminfo

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/oomguard/oomguard/pkg/types"
)

// Snapshot is an immutable view of /proc/meminfo captured at one instant.
type Snapshot struct {
	MemTotal     types.KiB
	MemAvailable types.KiB
	SwapTotal    types.KiB
	SwapFree     types.KiB
}

// Read samples /proc/meminfo.
func Read() (Snapshot, error) {
	return readFromPath("/proc/meminfo")
}

func readFromPath(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, ErrUnreadable
	}
	defer f.Close()

	var snap Snapshot
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		key := strings.TrimSuffix(fields[0], ":")
		v, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch key {
		case "MemTotal":
			snap.MemTotal = types.KiB(v)
		case "MemAvailable":
			snap.MemAvailable = types.KiB(v)
		case "SwapTotal":
			snap.SwapTotal = types.KiB(v)
		case "SwapFree":
			snap.SwapFree = types.KiB(v)
		}
	}
	if err := sc.Err(); err != nil {
		return Snapshot{}, ErrUnreadable
	}
	if snap.MemTotal == 0 {
		return Snapshot{}, ErrUnreadable
	}
	return snap, nil
}

// MemAvailablePercent returns 100*MemAvailable/MemTotal.
func (s Snapshot) MemAvailablePercent() float64 {
	return types.Percent(s.MemAvailable, s.MemTotal)
}

// SwapFreePercent returns 100*SwapFree/SwapTotal, or 100 if there is no swap
// configured at all. This is the literal display invariant from the spec;
// it is deliberately NOT used by the threshold predicates below (see
// SwapBelow/SwapBelowKB), since "no swap" must never itself trigger a kill.
func (s Snapshot) SwapFreePercent() float64 {
	if s.SwapTotal == 0 {
		return 100
	}
	return types.Percent(s.SwapFree, s.SwapTotal)
}

// MemBelow reports whether available memory is strictly below warnPercent.
func (s Snapshot) MemBelow(warnPercent float64) bool {
	return s.MemAvailablePercent() < warnPercent
}

// MemBelowKB reports whether available memory is strictly below warnKB.
func (s Snapshot) MemBelowKB(warnKB types.KiB) bool {
	return s.MemAvailable < warnKB
}

// SwapBelow reports whether free swap is strictly below warnPercent.
//
// On a swap-less system (SwapTotal == 0) this predicate always returns
// true: swap pressure can never be the blocker that prevents a kill when
// there is no swap to begin with. See spec §9's semantic correction.
func (s Snapshot) SwapBelow(warnPercent float64) bool {
	if s.SwapTotal == 0 {
		return true
	}
	return s.SwapFreePercent() < warnPercent
}

// SwapBelowKB reports whether free swap is strictly below warnKB, with the
// same swap-less correction as SwapBelow.
func (s Snapshot) SwapBelowKB(warnKB types.KiB) bool {
	if s.SwapTotal == 0 {
		return true
	}
	return s.SwapFree < warnKB
}

func (s Snapshot) String() string {
	return "mem available " + s.MemAvailable.Humanized() + "/" + s.MemTotal.Humanized() +
		" (" + formatPct(s.MemAvailablePercent()) + "%), swap free " +
		s.SwapFree.Humanized() + "/" + s.SwapTotal.Humanized() +
		" (" + formatPct(s.SwapFreePercent()) + "%)"
}

func formatPct(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64)
}
