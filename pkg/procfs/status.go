//go:build linux

package procfs

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// readUID parses /proc/<pid>/status for the real (first) uid on the Uid:
// line, which lists real/effective/saved/filesystem uids in that order.
func readUID(pid int) (int, error) {
	f, err := os.Open("/proc/" + strconv.Itoa(pid) + "/status")
	if err != nil {
		return 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "Uid:") {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, "Uid:"))
		if len(fields) == 0 {
			return 0, errNoUID
		}
		uid, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0, errNoUID
		}
		return uid, nil
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return 0, errNoUID
}
