// Package selector ranks the process table and picks at most one victim to
// terminate, under the configured protection rules and scoring policy.
package selector

import (
	"fmt"
	"os"
	"regexp"

	"github.com/oomguard/oomguard/pkg/procfs"
)

// Policy configures how Select partitions and ranks candidates. Callers
// build this from the daemon's resolved Configuration; selector itself
// holds no config-parsing logic.
type Policy struct {
	SortByRSS      bool
	IgnoreRootUser bool
	StrictFilter   bool // when true, avoid-matched processes are never returned, even as a last resort
	Prefer         []*regexp.Regexp
	Avoid          []*regexp.Regexp
	Ignore         []*regexp.Regexp
}

// Statistics summarizes one filtering pass over a process table, for
// inclusion in periodic status reports.
type Statistics struct {
	Total     int
	Killable  int
	Preferred int
	Avoided   int
	Ignored   int
}

// Select applies the filter stages, partitions by avoid/prefer, and returns
// the top-ranked survivor. Returns (Record{}, false) when every record was
// rejected at the filter stage.
func Select(records []procfs.Record, pol Policy) (procfs.Record, bool) {
	candidates := filter(records, pol)
	if len(candidates) == 0 {
		return procfs.Record{}, false
	}
	return selectBest(candidates, pol)
}

// Stats computes pool counts without performing a selection, for reporting.
func Stats(records []procfs.Record, pol Policy) Statistics {
	st := Statistics{Total: len(records)}
	for _, r := range records {
		if isKillable(r, pol) {
			st.Killable++
		}
		if matchesAny(pol.Prefer, r) {
			st.Preferred++
		}
		if matchesAny(pol.Avoid, r) {
			st.Avoided++
		}
		if matchesAny(pol.Ignore, r) {
			st.Ignored++
		}
	}
	return st
}

func (s Statistics) String() string {
	return fmt.Sprintf("processes: %d total, %d killable, %d preferred, %d avoided, %d ignored",
		s.Total, s.Killable, s.Preferred, s.Avoided, s.Ignored)
}

func filter(records []procfs.Record, pol Policy) []procfs.Record {
	out := make([]procfs.Record, 0, len(records))
	for _, r := range records {
		if isKillable(r, pol) {
			out = append(out, r)
		}
	}
	return out
}

// isKillable applies, in order, the stages spec.md §4.3 names: unconditional
// protection, ignore patterns, root-user filter.
func isKillable(r procfs.Record, pol Policy) bool {
	if r.PID == 1 {
		return false
	}
	if r.PID == os.Getpid() {
		return false
	}
	if r.OOMScoreAdj == -1000 {
		return false
	}
	if r.IsZombie {
		return false
	}
	if r.IsKernelThread() {
		return false
	}
	if matchesAny(pol.Ignore, r) {
		return false
	}
	if pol.IgnoreRootUser && r.UID == 0 {
		return false
	}
	return true
}

func matchesAny(patterns []*regexp.Regexp, r procfs.Record) bool {
	for _, p := range patterns {
		if p.MatchString(r.Name) || p.MatchString(r.Cmdline) {
			return true
		}
	}
	return false
}

type scored struct {
	rec       procfs.Record
	score     int64
	preferred bool
	avoided   bool
}

// selectBest ranks the surviving candidates on their unmodified base score
// and picks the winner from three strictly-prioritized buckets: the
// top-ranked preferred candidate if the preferred subset is non-empty;
// otherwise the top-ranked non-avoided candidate; otherwise the top-ranked
// avoided candidate as a last resort (unless StrictFilter excludes it
// entirely). The buckets are computed from the same base score so a
// preferred match always wins over a non-preferred one regardless of base
// magnitude — unlike a flat ±1000 score adjustment, this holds even when
// the base is unbounded (RSSKiB under SortByRSS), not just when it is
// capped (oom_score).
func selectBest(candidates []procfs.Record, pol Policy) (procfs.Record, bool) {
	scoredList := make([]scored, 0, len(candidates))
	for _, r := range candidates {
		var base int64
		if pol.SortByRSS {
			base = int64(r.RSSKiB)
		} else {
			base = int64(r.OOMScore)
		}

		avoided := matchesAny(pol.Avoid, r)
		preferred := matchesAny(pol.Prefer, r) && !avoided

		scoredList = append(scoredList, scored{rec: r, score: base, preferred: preferred, avoided: avoided})
	}

	// stable sort, descending by score; ties keep insertion order
	for i := 1; i < len(scoredList); i++ {
		for j := i; j > 0 && scoredList[j].score > scoredList[j-1].score; j-- {
			scoredList[j], scoredList[j-1] = scoredList[j-1], scoredList[j]
		}
	}

	var bestPreferred, bestNonAvoided, bestAvoided *scored
	for i := range scoredList {
		s := &scoredList[i]
		if s.preferred && bestPreferred == nil {
			bestPreferred = s
		}
		if !s.avoided {
			if bestNonAvoided == nil {
				bestNonAvoided = s
			}
			continue
		}
		if bestAvoided == nil {
			bestAvoided = s
		}
	}

	if bestPreferred != nil {
		return bestPreferred.rec, true
	}
	if bestNonAvoided != nil {
		return bestNonAvoided.rec, true
	}
	if pol.StrictFilter {
		return procfs.Record{}, false
	}
	if bestAvoided != nil {
		return bestAvoided.rec, true
	}
	return procfs.Record{}, false
}
