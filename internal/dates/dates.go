// Package dates resolves relative date expressions such as "today" or
// "-7d" against a reference time.
package dates

import (
	"strconv"
	"strings"
	"time"
)

var keywords = map[string]int{
	"today":     0,
	"tomorrow":  1,
	"yesterday": -1,
}

// Resolve interprets text as a relative date:
//
//	today, yesterday, tomorrow
//	-7d, +2w, -3m, -1y      offsets in days, weeks, months or years
//
// Keywords and offsets resolve to the start of the day in now's location.
// ok is false when text is not a relative date.
func Resolve(text string, now time.Time) (time.Time, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if days, ok := keywords[s]; ok {
		return startOfDay(now).AddDate(0, 0, days), true
	}

	if len(s) < 3 || (s[0] != '-' && s[0] != '+') {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(s[1 : len(s)-1])
	if err != nil || n < 0 {
		return time.Time{}, false
	}
	if s[0] == '-' {
		n = -n
	}

	anchor := startOfDay(now)
	switch s[len(s)-1] {
	case 'd':
		return anchor.AddDate(0, 0, n), true
	case 'w':
		return anchor.AddDate(0, 0, 7*n), true
	case 'm':
		return anchor.AddDate(0, n, 0), true
	case 'y':
		return anchor.AddDate(n, 0, 0), true
	}
	return time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
