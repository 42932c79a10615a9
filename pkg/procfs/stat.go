//go:build linux

package procfs

import (
	"os"
	"strconv"
	"strings"

	"github.com/oomguard/oomguard/pkg/types"
)

// readStat parses /proc/<pid>/stat and extracts:
//   - name: the command name (field 2, inside parens; may itself contain
//     spaces or parens, so everything up to the LAST ") " is treated as
//     "pid (comm)")
//   - state: the one-letter process state (field 3)
//   - rssKiB: resident set size, computed from the rss-in-pages field
//     (field 24) times the page size
func readStat(pid int, pageSize int) (name string, state byte, rssKiB types.KiB, err error) {
	b, e := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if e != nil {
		return "", 0, 0, e
	}
	line := strings.TrimRight(string(b), "\n")

	open := strings.IndexByte(line, '(')
	closeParen := strings.LastIndexByte(line, ')')
	if open < 0 || closeParen < 0 || closeParen <= open {
		return "", 0, 0, errNoStat
	}
	name = line[open+1 : closeParen]

	rest := line[closeParen+1:]
	fields := strings.Fields(rest)
	// fields[0] is state (field 3 overall); field k overall is fields[k-3]
	// for k >= 3.
	if len(fields) == 0 {
		return "", 0, 0, errNoStat
	}
	if fields[0] == "" {
		return "", 0, 0, errNoStat
	}
	state = fields[0][0]

	const rssFieldOverall = 24
	idx := rssFieldOverall - 3
	if idx >= len(fields) {
		return "", 0, 0, errShortStat
	}
	pages, convErr := strconv.ParseUint(fields[idx], 10, 64)
	if convErr != nil {
		return "", 0, 0, errShortStat
	}
	rssKiB = types.KiB(pages * uint64(pageSize) / 1024)

	return name, state, rssKiB, nil
}
