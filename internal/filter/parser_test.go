package filter

import (
	"testing"
	"time"
)

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantErr     bool
		checkResult func(from, to *time.Time) bool
	}{
		{
			name:  "Mar 1-15",
			input: "Mar 1-15",
			checkResult: func(from, to *time.Time) bool {
				return from.Month() == time.March && from.Day() == 1 &&
					to.Month() == time.March && to.Day() == 15 && from.Year() == to.Year()
			},
		},
		{
			name:  "March 1 - April 15",
			input: "March 1 - April 15",
			checkResult: func(from, to *time.Time) bool {
				return from.Month() == time.March && from.Day() == 1 &&
					to.Month() == time.April && to.Day() == 15 && from.Year() == to.Year()
			},
		},
		{
			name:  "Dec 25 - Jan 5 (cross year)",
			input: "Dec 25 - Jan 5",
			checkResult: func(from, to *time.Time) bool {
				return from.Month() == time.December && from.Day() == 25 &&
					to.Month() == time.January && to.Day() == 5 &&
					to.Year() == from.Year()+1
			},
		},
		{
			name:  "whole month",
			input: "february",
			checkResult: func(from, to *time.Time) bool {
				last := 28
				if from.Year()%4 == 0 {
					last = 29
				}
				return from.Day() == 1 && to.Month() == time.February && to.Day() == last
			},
		},
		{
			name:  "iso dots",
			input: "2026-07-16..2026-07-20",
			checkResult: func(from, to *time.Time) bool {
				return from.Equal(time.Date(2026, 7, 16, 0, 0, 0, 0, time.UTC)) &&
					to.Equal(time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC))
			},
		},
		{
			name:  "iso to",
			input: "2026-07-16 to 2026-07-16",
			checkResult: func(from, to *time.Time) bool {
				return from.Equal(*to)
			},
		},
		{name: "empty", input: "", wantErr: true},
		{name: "reversed days", input: "Mar 15-1", wantErr: true},
		{name: "reversed iso", input: "2026-07-20..2026-07-16", wantErr: true},
		{name: "impossible day", input: "Feb 30-31", wantErr: true},
		{name: "bad iso", input: "2026-13-01..2026-13-02", wantErr: true},
		{name: "gibberish", input: "next week", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := ParseDateRange(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDateRange(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !tt.checkResult(from, to) {
				t.Errorf("ParseDateRange(%q) = %v, %v", tt.input, from, to)
			}
		})
	}
}
