package core

import (
	"testing"
	"time"
)

func at(year, month int) time.Time {
	return time.Date(year, time.Month(month), 15, 10, 0, 0, 0, time.UTC)
}

func TestParsePeriodQuery(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		now      time.Time
		ok       bool
		year     int
		month    int
		category string
	}{
		{"this month with category", "今月の食費", at(2024, 2), true, 2024, 2, "食費"},
		{"last month", "先月の食費", at(2024, 2), true, 2024, 1, "食費"},
		{"last month january rollback", "先月の家賃", at(2024, 1), true, 2023, 12, "家賃"},
		{"explicit past month", "3月のランチ", at(2024, 5), true, 2024, 3, "ランチ"},
		{"explicit future month is last year", "3月のランチ", at(2024, 2), true, 2023, 3, "ランチ"},
		{"two digit month", "12月の交通費", at(2024, 12), true, 2024, 12, "交通費"},
		{"tte particle", "今月って食費", at(2024, 6), true, 2024, 6, "食費"},
		// The capture runs to the end of the kana/kanji run, so trailing
		// particles become part of the phrase.
		{"trailing particle is captured", "今月の食費は？", at(2024, 2), true, 2024, 2, "食費は"},
		{"no category", "今月", at(2024, 2), true, 2024, 2, ""},
		{"no month token", "食費は？", at(2024, 2), false, 0, 0, ""},
		{"plain text", "こんにちは", at(2024, 2), false, 0, 0, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, ok := ParsePeriodQuery(tc.text, tc.now)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if !ok {
				return
			}
			if q.Year != tc.year || q.Month != tc.month || q.Category != tc.category {
				t.Fatalf("got (%d, %d, %q), want (%d, %d, %q)",
					q.Year, q.Month, q.Category, tc.year, tc.month, tc.category)
			}
		})
	}
}

func TestPeriodQueryComplete(t *testing.T) {
	if (PeriodQuery{Year: 2024, Month: 2}).Complete() {
		t.Fatalf("query without category must be incomplete")
	}
	if !(PeriodQuery{Year: 2024, Month: 2, Category: "食費"}).Complete() {
		t.Fatalf("query with category must be complete")
	}
}

func TestPeriodQueryMonthRange(t *testing.T) {
	q := PeriodQuery{Year: 2024, Month: 2, Category: "食費"}
	start, end := q.MonthRange(time.UTC)
	if !start.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", start)
	}
	// 2024 is a leap year.
	if !end.Equal(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)) {
		t.Fatalf("end = %v", end)
	}

	dec := PeriodQuery{Year: 2023, Month: 12, Category: "食費"}
	_, decEnd := dec.MonthRange(time.UTC)
	if !decEnd.Equal(time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)) {
		t.Fatalf("december end = %v", decEnd)
	}
}
