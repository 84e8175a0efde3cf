package core

import (
	"fmt"
	"strings"
	"time"
)

// DisplayFormat is the canonical display form for dates.
const DisplayFormat = "2006-01-02"

// InvalidDateLabel is what the display layer renders for values that fail
// normalization.
const InvalidDateLabel = "Invalid Date"

// isoFormat allows single-digit month and day fields on ISO-ordered input.
const isoFormat = "2006-1-2"

// dayFirstFormat is the permissive day-month-year fallback.
const dayFirstFormat = "2-1-2006"

// Date is a calendar date with day granularity, kept as explicit fields so
// format detection happens exactly once, at normalization.
type Date struct {
	y int
	m time.Month
	d int
}

// NewDate returns a normalized Date for the given year, month, and day.
func NewDate(year, month, day int) Date {
	d := Date{year, time.Month(month), day}
	d.y, d.m, d.d = d.Time().Date()
	return d
}

// Time returns the canonical representation of the day, midnight UTC.
func (d Date) Time() time.Time {
	return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC)
}

// Compare orders dates chronologically: -1 if d is earlier than x, 0 if
// equal, +1 if later.
func (d Date) Compare(x Date) int {
	return d.Time().Compare(x.Time())
}

// String renders the canonical zero-padded YYYY-MM-DD form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.y, int(d.m), d.d)
}

// NormalizeDate parses heterogeneous date text into a canonical Date. The
// second return value is false when the input does not resolve to a valid
// calendar date.
//
// Hyphen-separated input is read as DD-MM-YYYY and rewritten to YYYY-MM-DD
// before parsing. The rewritten string is tried against the ISO layout first
// and a day-month-year fallback second, so a literal ISO input comes out
// unchanged even though the rewrite swaps its year and day fields:
// "01-04-2025" and "2025-04-01" both normalize to 2025-04-01. The tracker's
// stored records were written through this rule; changing it would re-date
// historical data.
func NormalizeDate(raw string) (Date, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Date{}, false
	}

	if parts := strings.Split(s, "-"); len(parts) == 3 {
		swapped := parts[2] + "-" + parts[1] + "-" + parts[0]
		if t, err := time.Parse(isoFormat, swapped); err == nil {
			return dateOf(t), true
		}
		if t, err := time.Parse(dayFirstFormat, swapped); err == nil {
			return dateOf(t), true
		}
		return Date{}, false
	}

	for _, layout := range []string{isoFormat, "2006/1/2", "Jan 2, 2006", "January 2, 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOf(t), true
		}
	}
	return Date{}, false
}

// DisplayDate is the canonical YYYY-MM-DD rendering of raw, or the
// InvalidDateLabel sentinel when raw does not normalize.
func DisplayDate(raw string) string {
	d, ok := NormalizeDate(raw)
	if !ok {
		return InvalidDateLabel
	}
	return d.String()
}

func dateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{y, m, d}
}
