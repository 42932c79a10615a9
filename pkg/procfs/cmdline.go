//go:build linux

package procfs

import (
	"os"
	"strconv"
	"strings"
)

// readCmdline reads /proc/<pid>/cmdline, a NUL-separated argument vector,
// and joins it with spaces. Returns "" (the empty string, denoting a
// kernel thread) when the file is empty or unreadable.
func readCmdline(pid int) string {
	b, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/cmdline")
	if err != nil {
		return ""
	}
	trimmed := strings.Trim(string(b), "\x00")
	if trimmed == "" {
		return ""
	}
	parts := strings.Split(trimmed, "\x00")
	return strings.Join(parts, " ")
}
