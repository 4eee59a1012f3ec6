package kobis

import (
	"fmt"
	"sort"
	"time"
)

// DefaultRerunGapMonths is the minimum gap between the original KR theatrical
// run and a later one before the later counts as a rerun. Shorter gaps are
// treated as limited-to-wide rollouts of the same run.
const DefaultRerunGapMonths = 4

// DiffFullMonths returns the number of full calendar months from one ISO date
// to another, with day-of-month borrow correction: Jan 31 to Feb 27 is 0 full
// months, not 1. The result is negative when `to` precedes `from`.
func DiffFullMonths(from, to string) (int, error) {
	f, err := time.Parse(isoDateLayout, from)
	if err != nil {
		return 0, fmt.Errorf("parse from date %q: %w", from, err)
	}
	t, err := time.Parse(isoDateLayout, to)
	if err != nil {
		return 0, fmt.Errorf("parse to date %q: %w", to, err)
	}

	months := (t.Year()-f.Year())*12 + int(t.Month()) - int(f.Month())
	if t.Day() < f.Day() {
		months--
	}
	return months, nil
}

// IsRerun reports whether a KR theatrical release-date history qualifies the
// latest date as a re-release. Two or more distinct theatrical dates are
// required; minMonths (when positive) additionally requires that many full
// months between the first and the latest date. Pass 0 to disable the gap
// check.
func IsRerun(dates []string, minMonths int) bool {
	distinct := distinctSortedDates(dates)
	if len(distinct) < 2 {
		return false
	}
	if minMonths <= 0 {
		return true
	}
	gap, err := DiffFullMonths(distinct[0], distinct[len(distinct)-1])
	if err != nil {
		return false
	}
	return gap >= minMonths
}

func distinctSortedDates(dates []string) []string {
	seen := make(map[string]struct{}, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if _, err := time.Parse(isoDateLayout, d); err != nil {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
