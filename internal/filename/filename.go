// Package filename extracts capture dates encoded in media filenames.
package filename

import (
	"regexp"
	"strconv"
	"time"
)

const minYear = 1970

// timeSuffix matches an optional HH MM SS group with loose separators.
const timeSuffix = `(?:[ T_.-]?([01]\d|2[0-3])[:_.-]?([0-5]\d)[:_.-]?([0-5]\d))?`

type pattern struct {
	re *regexp.Regexp
	// indexes of year, month and day submatches
	y, m, d int
}

// Year-first patterns are tried before day-first ones, so an ambiguous
// numeric triplet is read as an ISO-like date.
var patterns = []pattern{
	{
		re: regexp.MustCompile(`(19\d{2}|20\d{2})[-_.](0[1-9]|1[0-2])[-_.](0[1-9]|[12]\d|3[01])` + timeSuffix),
		y:  1, m: 2, d: 3,
	},
	{
		re: regexp.MustCompile(`(19\d{2}|20\d{2})(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])(?:[_-]?([01]\d|2[0-3])([0-5]\d)([0-5]\d))?`),
		y:  1, m: 2, d: 3,
	},
	{
		re: regexp.MustCompile(`(0[1-9]|[12]\d|3[01])[-_.](0[1-9]|1[0-2])[-_.](19\d{2}|20\d{2})` + timeSuffix),
		y:  3, m: 2, d: 1,
	},
}

// Extractor parses dates out of filenames.
type Extractor struct {
	now func() time.Time
}

// New returns an Extractor bound to the wall clock.
func New() *Extractor {
	return &Extractor{now: time.Now}
}

// NewWithClock returns an Extractor that uses now for the upper year bound.
func NewWithClock(now func() time.Time) *Extractor {
	return &Extractor{now: now}
}

// ExtractDate is shorthand for New().Extract(name).
func ExtractDate(name string) *time.Time {
	return New().Extract(name)
}

// Extract returns the first in-range date found in name, or nil. The year
// must fall within [1970, current year + 1].
func (e *Extractor) Extract(name string) *time.Time {
	maxYear := e.now().Year() + 1

	for _, p := range patterns {
		for _, m := range p.re.FindAllStringSubmatch(name, -1) {
			t, ok := build(m, p)
			if !ok {
				continue
			}
			if t.Year() < minYear || t.Year() > maxYear {
				continue
			}
			return &t
		}
	}
	return nil
}

func build(m []string, p pattern) (time.Time, bool) {
	year, _ := strconv.Atoi(m[p.y])
	month, _ := strconv.Atoi(m[p.m])
	day, _ := strconv.Atoi(m[p.d])

	var hour, minute, sec int
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		minute, _ = strconv.Atoi(m[5])
		sec, _ = strconv.Atoi(m[6])
	}

	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.UTC)
	// time.Date normalizes Feb 30 into March; reject instead.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
