package dates

import (
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	now := time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"today", day(2025, 3, 15), true},
		{" Yesterday ", day(2025, 3, 14), true},
		{"tomorrow", day(2025, 3, 16), true},
		{"-7d", day(2025, 3, 8), true},
		{"+2w", day(2025, 3, 29), true},
		{"-1m", day(2025, 2, 15), true},
		{"-1y", day(2024, 3, 15), true},
		{"+0d", day(2025, 3, 15), true},
		{"2025-03-15", time.Time{}, false},
		{"-7", time.Time{}, false},
		{"-xd", time.Time{}, false},
		{"--1d", time.Time{}, false},
		{"-3h", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Resolve(tt.in, now)
			if ok != tt.ok {
				t.Fatalf("Resolve(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("Resolve(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
