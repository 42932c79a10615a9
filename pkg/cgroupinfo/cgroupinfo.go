//go:build linux

// Package cgroupinfo reports which cgroup hierarchy a host has mounted and,
// where determinable, whether oomguard's own process is itself bound by a
// cgroup memory ceiling.
//
// This is diagnostic-only: oomguard does not enforce or read per-process
// cgroup limits (that is an explicit non-goal). The purpose here is narrow —
// surface enough at startup for an operator to know that a host-level memory
// warning might never fire because the daemon's own cgroup gets reclaimed
// (or OOM-killed) first at a tighter ceiling than /proc/meminfo reflects.
package cgroupinfo

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/oomguard/oomguard/pkg/types"
)

// Version identifies which cgroup hierarchy (or hierarchies) a host has
// mounted — the scope the kernel's own OOM killer would be constrained to,
// not anything oomguard enforces itself.
type Version int

const (
	Unsupported Version = iota // no cgroup mounts found
	V1                         // legacy multi-hierarchy cgroup v1 only
	V2                         // unified cgroup v2 only
	Hybrid                     // both v1 and v2 present
)

func (v Version) String() string {
	switch v {
	case V1:
		return "cgroup v1"
	case V2:
		return "cgroup v2"
	case Hybrid:
		return "cgroup hybrid"
	default:
		return "unsupported"
	}
}

// Detect parses /proc/self/mountinfo for cgroup filesystems and returns the
// detected version plus a human-readable detail string naming the mount
// points found.
func Detect() (Version, string, error) {
	f, err := os.Open("/proc/self/mountinfo")
	if err != nil {
		return Unsupported, "", fmt.Errorf("open mountinfo: %w", err)
	}
	defer f.Close()

	var (
		hasV1, hasV2 bool
		v1Pts, v2Pts []string
	)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		// mountinfo line shape: <fields> - <fstype> <source> <superopts>
		const sep = " - "
		i := strings.LastIndex(line, sep)
		if i < 0 {
			continue
		}
		tail := strings.Fields(line[i+len(sep):])
		if len(tail) < 1 {
			continue
		}
		fstype := tail[0]

		pre := strings.Fields(line[:i])
		if len(pre) < 5 {
			continue
		}
		mountPoint := pre[4]

		switch fstype {
		case "cgroup2":
			hasV2 = true
			v2Pts = append(v2Pts, mountPoint)
		case "cgroup":
			hasV1 = true
			v1Pts = append(v1Pts, mountPoint)
		}
	}
	if err := sc.Err(); err != nil {
		return Unsupported, "", fmt.Errorf("scan mountinfo: %w", err)
	}

	switch {
	case hasV1 && hasV2:
		return Hybrid, fmt.Sprintf("cgroup2 on %s; cgroup v1 on %s",
			strings.Join(v2Pts, ","), strings.Join(v1Pts, ",")), nil
	case hasV2:
		return V2, fmt.Sprintf("cgroup2 on %s", strings.Join(v2Pts, ",")), nil
	case hasV1:
		return V1, fmt.Sprintf("cgroup v1 on %s", strings.Join(v1Pts, ",")), nil
	default:
		return Unsupported, "no cgroup mounts found", nil
	}
}

// SelfMemoryCeiling reports the memory limit imposed on the calling
// process's own cgroup, if any is set. A host can look memory-healthy per
// /proc/meminfo while the daemon's own cgroup is pinned to a much smaller
// ceiling — in that case the kernel (or a cgroup-aware OOM killer) can
// reclaim or kill processes in-cgroup well before the host-wide thresholds
// this daemon watches would ever trip. ok is false when no limit is in
// effect (cgroup v1's near-MaxInt64 "unlimited" value, v2 "max" keyword,
// unreadable file, or no cgroup mounted at all).
func SelfMemoryCeiling() (limit types.KiB, ok bool) {
	path, _, err := selfMemoryControllerPath()
	if err != nil {
		return 0, false
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	text := strings.TrimSpace(string(raw))
	if text == "max" {
		return 0, false
	}

	// cgroup v1 reports "no limit" as a page-aligned value just below
	// MaxInt64 rather than a keyword.
	const v1UnlimitedFloor = 1 << 62
	bytes, err := strconv.ParseUint(text, 10, 64)
	if err != nil || bytes == 0 || bytes >= v1UnlimitedFloor {
		return 0, false
	}
	return types.KiB(bytes / 1024), true
}

// selfMemoryControllerPath resolves /proc/self/cgroup to the memory
// controller's limit file for the calling process's own cgroup, trying v2's
// unified hierarchy first and falling back to v1's memory subsystem.
func selfMemoryControllerPath() (path string, isV2 bool, err error) {
	f, err := os.Open("/proc/self/cgroup")
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	var v1MemoryRel, v2Rel string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		// /proc/self/cgroup line shape: hierarchy-id:controller-list:path
		fields := strings.SplitN(sc.Text(), ":", 3)
		if len(fields) != 3 {
			continue
		}
		controllers, rel := fields[1], fields[2]
		switch {
		case controllers == "":
			v2Rel = rel
		case strings.Contains(controllers, "memory"):
			v1MemoryRel = rel
		}
	}
	if err := sc.Err(); err != nil {
		return "", false, err
	}

	if v2Rel != "" {
		if p := "/sys/fs/cgroup" + v2Rel + "/memory.max"; fileReadable(p) {
			return p, true, nil
		}
	}
	if v1MemoryRel != "" {
		if p := "/sys/fs/cgroup/memory" + v1MemoryRel + "/memory.limit_in_bytes"; fileReadable(p) {
			return p, false, nil
		}
	}
	return "", false, fmt.Errorf("no memory controller path resolved")
}

func fileReadable(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
