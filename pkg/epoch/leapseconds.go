package epoch

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
)

//go:embed CDFLeapSeconds.txt
var leapSecondsTable string

type leapEntry struct {
	year, month, day int
	leap             float64 // cumulative TAI-UTC at 00:00 UTC of that date
	mjdBase          float64 // pre-1972 drift baseline, MJD
	drift            float64 // pre-1972 drift rate, seconds per day
}

func parseLeapTable(src string) ([]leapEntry, error) {
	var entries []leapEntry
	for ln, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 6 {
			return nil, fmt.Errorf("epoch: leap second table line %d: want 6 fields, got %d", ln+1, len(fields))
		}
		var e leapEntry
		var err error
		if e.year, err = strconv.Atoi(fields[0]); err != nil {
			return nil, fmt.Errorf("epoch: leap second table line %d: %w", ln+1, err)
		}
		if e.month, err = strconv.Atoi(fields[1]); err != nil {
			return nil, fmt.Errorf("epoch: leap second table line %d: %w", ln+1, err)
		}
		if e.day, err = strconv.Atoi(fields[2]); err != nil {
			return nil, fmt.Errorf("epoch: leap second table line %d: %w", ln+1, err)
		}
		if e.leap, err = strconv.ParseFloat(fields[3], 64); err != nil {
			return nil, fmt.Errorf("epoch: leap second table line %d: %w", ln+1, err)
		}
		if e.mjdBase, err = strconv.ParseFloat(fields[4], 64); err != nil {
			return nil, fmt.Errorf("epoch: leap second table line %d: %w", ln+1, err)
		}
		if e.drift, err = strconv.ParseFloat(fields[5], 64); err != nil {
			return nil, fmt.Errorf("epoch: leap second table line %d: %w", ln+1, err)
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("epoch: leap second table is empty")
	}
	return entries, nil
}

// leapSecondsYMD returns the cumulative TAI-UTC offset in effect at the
// start of the given UTC date. Dates before the first table row get 0.
// Bulk array conversions hit the same date over and over, so the most
// recent lookup is cached on the codec.
func (c *Codec) leapSecondsYMD(y, m, d int) float64 {
	if c.cacheValid && c.cacheY == y && c.cacheM == m && c.cacheD == d {
		return c.cacheLeap
	}

	ls := 0.0
	for i := len(c.table) - 1; i >= 0; i-- {
		e := c.table[i]
		if y > e.year || (y == e.year && (m > e.month || (m == e.month && d >= e.day))) {
			if e.drift != 0 {
				mjd := float64(julianDay(y, m, d)) - 2400000.5
				ls = e.leap + (mjd-e.mjdBase)*e.drift
			} else {
				ls = e.leap
			}
			break
		}
	}

	c.cacheY, c.cacheM, c.cacheD = y, m, d
	c.cacheLeap = ls
	c.cacheValid = true
	return ls
}

// TableLastUpdated returns the date of the newest leap second table row as
// a YYYYMMDD integer. Files record it so readers can tell whether their own
// table is older than the one the writer used.
func (c *Codec) TableLastUpdated() int {
	last := c.table[len(c.table)-1]
	return last.year*10000 + last.month*100 + last.day
}

// boundary is one flat-offset leap table row resolved to the TT2000 value
// of 00:00:00 UTC on its date under the row's own offset. Breakdown uses
// these to place an instant without iterating.
type boundary struct {
	t    int64
	leap float64
	jd   int // Julian day number of the row's date
}

func buildBoundaries(table []leapEntry) []boundary {
	bounds := make([]boundary, 0, len(table))
	for _, e := range table {
		if e.drift != 0 {
			continue
		}
		jd := julianDay(e.year, e.month, e.day)
		days := int64(jd - julianDayJ2000)
		t := days*nsPerDay - nsHalfDay + int64(e.leap*1e9) + ttMinusTAIns
		bounds = append(bounds, boundary{t: t, leap: e.leap, jd: jd})
	}
	return bounds
}
