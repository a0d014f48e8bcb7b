package core

import (
	"regexp"
	"strconv"
	"time"
)

var (
	monthPattern = regexp.MustCompile(`(先月|今月|(\d{1,2})月)`)
	// Category phrase: a run of CJK or Latin word characters introduced by
	// the particle の or って.
	categoryPattern = regexp.MustCompile(`(?:の|って)([一-龠ぁ-んァ-ンa-zA-Z]+)`)
)

// ParsePeriodQuery extracts a month reference and an optional category
// phrase from text. The second return value is false when no month token is
// present, meaning the text is not a period query at all.
//
// Month resolution against now:
//   - 今月: the current year and month.
//   - 先月: the preceding month, rolling the year back across January.
//   - an explicit N月: the current year, unless N is greater than the
//     current month, which is read as last year's occurrence.
func ParsePeriodQuery(text string, now time.Time) (PeriodQuery, bool) {
	m := monthPattern.FindStringSubmatch(text)
	if m == nil {
		return PeriodQuery{}, false
	}

	var q PeriodQuery
	switch m[1] {
	case "今月":
		q.Year, q.Month = now.Year(), int(now.Month())
	case "先月":
		firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		prev := firstOfMonth.AddDate(0, 0, -1)
		q.Year, q.Month = prev.Year(), int(prev.Month())
	default:
		n, err := strconv.Atoi(m[2])
		if err != nil || n < 1 || n > 12 {
			return PeriodQuery{}, false
		}
		q.Year, q.Month = now.Year(), n
		if n > int(now.Month()) {
			q.Year--
		}
	}

	if cm := categoryPattern.FindStringSubmatch(text); cm != nil {
		q.Category = cm[1]
	}
	return q, true
}
