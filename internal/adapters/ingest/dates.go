package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Accepted textual date layouts, day-first before ISO.
var dateLayouts = []string{"02/01/2006", "2006-01-02", "02-01-2006", "2006/01/02", "2/1/2006"}

var firstInt = regexp.MustCompile(`\d+`)

// ParseDate reads a cell as a date. Numeric cells are Excel serial dates.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// RoundNumber extracts the first integer in a round cell ("Week 3" -> 3).
func RoundNumber(raw string) int {
	m := firstInt.FindString(raw)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// RoundDate places round n of a season starting at start, one round per
// week.
func RoundDate(start time.Time, n int) time.Time {
	if start.IsZero() || n < 1 {
		return time.Time{}
	}
	return start.AddDate(0, 0, 7*(n-1))
}
