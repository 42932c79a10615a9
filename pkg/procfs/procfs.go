//go:build linux

// Package procfs enumerates the Linux process table from /proc and extracts
// the per-process attributes the selector (pkg/selector) ranks victims by.
package procfs

import (
	"os"
	"strconv"

	"github.com/oomguard/oomguard/pkg/types"
)

// Record is an immutable per-process snapshot.
type Record struct {
	PID         int
	Name        string
	Cmdline     string
	RSSKiB      types.KiB
	OOMScore    int
	OOMScoreAdj int
	UID         int
	IsZombie    bool
}

// IsKernelThread reports whether the record's cmdline is the synthesized
// "[name]" form used when a process exposes no argument vector.
func (r Record) IsKernelThread() bool {
	return r.Cmdline == "["+r.Name+"]"
}

// PageSize returns the system memory page size in bytes. It checks the
// PAGE_SIZE env var first (for hermetic tests), then falls back to
// os.Getpagesize().
func PageSize() int {
	if ps := os.Getenv("PAGE_SIZE"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 {
			return v
		}
	}
	return os.Getpagesize()
}

// Exists reports whether a given PID currently exists in /proc.
func Exists(pid int) bool {
	_, err := os.Stat("/proc/" + strconv.Itoa(pid))
	return err == nil
}

// ReadAll enumerates every numeric /proc/<pid> entry and reads its
// attributes. Individual per-process read failures (the process exited
// mid-enumeration) are swallowed and the entry omitted; no ordering is
// guaranteed.
func ReadAll() ([]Record, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, ErrEnumerate
	}

	pageSize := PageSize()
	records := make([]Record, 0, len(entries))
	for _, ent := range entries {
		pid, err := strconv.Atoi(ent.Name())
		if err != nil || pid <= 0 {
			continue
		}
		rec, err := readProcess(pid, pageSize)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func readProcess(pid int, pageSize int) (Record, error) {
	name, state, rssKiB, err := readStat(pid, pageSize)
	if err != nil {
		return Record{}, err
	}

	uid, err := readUID(pid)
	if err != nil {
		return Record{}, err
	}

	cmdline := readCmdline(pid)
	if cmdline == "" {
		cmdline = "[" + name + "]"
	}

	return Record{
		PID:         pid,
		Name:        name,
		Cmdline:     cmdline,
		RSSKiB:      rssKiB,
		OOMScore:    readIntFile("/proc/" + strconv.Itoa(pid) + "/oom_score"),
		OOMScoreAdj: readIntFile("/proc/" + strconv.Itoa(pid) + "/oom_score_adj"),
		UID:         uid,
		IsZombie:    state == 'Z',
	}, nil
}

func readIntFile(path string) int {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	v, err := strconv.Atoi(trimNewline(string(b)))
	if err != nil {
		return 0
	}
	return v
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == ' ') {
		s = s[:len(s)-1]
	}
	return s
}
