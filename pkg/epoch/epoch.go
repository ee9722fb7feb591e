// Package epoch converts between the three CDF time representations
// (CDF_EPOCH, CDF_EPOCH16, CDF_TIME_TT2000), broken-down calendar
// components, strings and Go time values.
//
// CDF_EPOCH counts milliseconds since 0000-01-01T00:00:00 as a float64.
// CDF_EPOCH16 is a complex128 whose real part counts seconds since year 0
// and whose imaginary part counts picoseconds within the second.
// CDF_TIME_TT2000 counts nanoseconds since 2000-01-01T12:00:00 TT as an
// int64, which makes it leap-second aware: conversions to and from UTC
// calendar components go through a bundled leap-second table.
package epoch

import (
	"fmt"
	"math"
	"sort"
)

// Kind identifies one of the three epoch representations.
type Kind int

const (
	KindEpoch Kind = iota
	KindEpoch16
	KindTT2000
)

func (k Kind) String() string {
	switch k {
	case KindEpoch:
		return "CDF_EPOCH"
	case KindEpoch16:
		return "CDF_EPOCH16"
	case KindTT2000:
		return "CDF_TIME_TT2000"
	}
	return fmt.Sprintf("KIND_<%d>", int(k))
}

// Reserved values. The fill sentinels mark invalid samples and encode to
// the fixed 9999-12-31 string; the TT2000 pad encodes to 0000-01-01.
const (
	FillEpoch  = -1.0e31
	FillTT2000 = int64(math.MinInt64)
	PadTT2000  = int64(math.MinInt64 + 1)
)

// FillEpoch16 is the CDF_EPOCH16 fill sentinel.
var FillEpoch16 = complex(-1.0e31, -1.0e31)

const (
	nsPerDay     = int64(86400) * 1e9
	nsHalfDay    = nsPerDay / 2
	ttMinusTAIns = int64(32184000000) // TT - TAI, fixed 32.184 s
	msPerDay     = int64(86400000)
	// Milliseconds from year 0 to 1970-01-01, for unixtime conversions.
	ms0ADto1970 = int64(julianDay1970-julianDay0AD) * 86400000
	// Unix seconds of 2000-01-01T12:00:00 UTC.
	unixJ2000Noon = 946728000
	julianDay1970 = 2440588
)

// Codec performs epoch conversions. It owns the parsed leap-second table
// and a one-entry date cache, so independent codecs never share state.
type Codec struct {
	table  []leapEntry
	bounds []boundary

	cacheY, cacheM, cacheD int
	cacheLeap              float64
	cacheValid             bool
}

// NewCodec builds a codec from the bundled leap-second table. The table is
// compiled into the binary; a parse failure is a build defect.
func NewCodec() *Codec {
	table, err := parseLeapTable(leapSecondsTable)
	if err != nil {
		panic(err)
	}
	return &Codec{table: table, bounds: buildBoundaries(table)}
}

// KindOf reports the epoch kind of a scalar or slice value.
func KindOf(value interface{}) (Kind, bool) {
	switch value.(type) {
	case float64, []float64:
		return KindEpoch, true
	case complex128, []complex128:
		return KindEpoch16, true
	case int64, []int64:
		return KindTT2000, true
	}
	return 0, false
}

// ttComponents assembles a TT2000 value from integral calendar components.
func (c *Codec) ttComponents(y, mo, d, h, mn, s, ms, us, ns int) int64 {
	days := int64(julianDay(y, mo, d) - julianDayJ2000)
	tod := ((int64(h)*3600+int64(mn)*60+int64(s))*1e9 +
		int64(ms)*1e6 + int64(us)*1e3 + int64(ns))
	ls := c.leapSecondsYMD(y, mo, d)
	return days*nsPerDay + tod - nsHalfDay + int64(ls*1e9) + ttMinusTAIns
}

// breakdownTT2000 splits a TT2000 value into its nine UTC components.
// Instants inside an inserted leap second render as second 60.
func (c *Codec) breakdownTT2000(t int64) [9]int64 {
	if t == FillTT2000 {
		return [9]int64{9999, 12, 31, 23, 59, 59, 999, 999, 999}
	}
	if t == PadTT2000 {
		return [9]int64{0, 1, 1, 0, 0, 0, 0, 0, 0}
	}

	// Index of the last flat-offset boundary at or before t.
	i := sort.Search(len(c.bounds), func(k int) bool { return c.bounds[k].t > t }) - 1

	if i+1 < len(c.bounds) && i >= 0 && t >= c.bounds[i+1].t-1e9 {
		// Inside the positive leap second just before boundary i+1.
		y, mo, d := calendarFromJulian(c.bounds[i+1].jd - 1)
		frac := t - (c.bounds[i+1].t - 1e9)
		return [9]int64{int64(y), int64(mo), int64(d), 23, 59, 60,
			frac / 1e6, frac / 1e3 % 1000, frac % 1000}
	}

	var ls float64
	if i >= 0 {
		ls = c.bounds[i].leap
	} else {
		// Before the flat-offset era: converge on the drift-corrected
		// offset by re-evaluating with the date it implies.
		for iter := 0; iter < 3; iter++ {
			y, mo, d, _ := c.splitUTC(t, ls)
			next := c.leapSecondsYMD(y, mo, d)
			if next == ls {
				break
			}
			ls = next
		}
	}

	y, mo, d, rem := c.splitUTC(t, ls)
	h := rem / 3600e9
	rem -= h * 3600e9
	mn := rem / 60e9
	rem -= mn * 60e9
	s := rem / 1e9
	rem -= s * 1e9
	return [9]int64{int64(y), int64(mo), int64(d), h, mn, s,
		rem / 1e6, rem / 1e3 % 1000, rem % 1000}
}

// splitUTC converts t to a UTC calendar date plus nanoseconds-of-day under
// a fixed leap-second offset.
func (c *Codec) splitUTC(t int64, ls float64) (y, mo, d int, rem int64) {
	utc := t - ttMinusTAIns - int64(ls*1e9) + nsHalfDay
	days := floorDiv(utc, nsPerDay)
	rem = utc - days*nsPerDay
	y, mo, d = calendarFromJulian(julianDayJ2000 + int(days))
	return
}

// epochComponents assembles a CDF_EPOCH value (milliseconds since year 0).
func epochComponents(y, mo, d, h, mn, s, ms int, fracMs float64) float64 {
	days := float64(julianDay(y, mo, d) - julianDay0AD)
	return days*float64(msPerDay) +
		float64(h)*3600000 + float64(mn)*60000 + float64(s)*1000 + float64(ms) + fracMs
}

// breakdownEpoch splits a CDF_EPOCH value into its seven components.
func breakdownEpoch(e float64) [7]int64 {
	if e == FillEpoch {
		return [7]int64{9999, 12, 31, 23, 59, 59, 999}
	}
	ms := int64(math.Floor(e))
	days := floorDiv(ms, msPerDay)
	rem := ms - days*msPerDay
	y, mo, d := calendarFromJulian(julianDay0AD + int(days))
	h := rem / 3600000
	rem -= h * 3600000
	mn := rem / 60000
	rem -= mn * 60000
	s := rem / 1000
	return [7]int64{int64(y), int64(mo), int64(d), h, mn, s, rem - s*1000}
}

// epoch16Components assembles a CDF_EPOCH16 value.
func epoch16Components(y, mo, d, h, mn, s, ms, us, ns, ps int) complex128 {
	days := float64(julianDay(y, mo, d) - julianDay0AD)
	re := days*86400 + float64(h)*3600 + float64(mn)*60 + float64(s)
	im := float64(ms)*1e9 + float64(us)*1e6 + float64(ns)*1e3 + float64(ps)
	return complex(re, im)
}

// breakdownEpoch16 splits a CDF_EPOCH16 value into its ten components.
func breakdownEpoch16(e complex128) [10]int64 {
	if e == FillEpoch16 {
		return [10]int64{9999, 12, 31, 23, 59, 59, 999, 999, 999, 999}
	}
	sec := int64(math.Floor(real(e)))
	days := floorDiv(sec, 86400)
	rem := sec - days*86400
	y, mo, d := calendarFromJulian(julianDay0AD + int(days))
	h := rem / 3600
	rem -= h * 3600
	mn := rem / 60
	s := rem - mn*60
	ps := int64(imag(e))
	return [10]int64{int64(y), int64(mo), int64(d), h, mn, s,
		ps / 1e9, ps / 1e6 % 1000, ps / 1e3 % 1000, ps % 1000}
}
