package epoch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeEpoch_KnownValues(t *testing.T) {
	c := NewCodec()

	testCases := []struct {
		name       string
		components []float64
		want       float64
	}{
		{
			name:       "J2000 midnight",
			components: []float64{2000, 1, 1},
			want:       63113904000000.0,
		},
		{
			name:       "unix epoch",
			components: []float64{1970, 1, 1},
			want:       62167219200000.0,
		},
		{
			name:       "one millisecond later",
			components: []float64{1970, 1, 1, 0, 0, 0, 1},
			want:       62167219200001.0,
		},
		{
			name:       "leap day",
			components: []float64{1996, 2, 29},
			want:       62992771200000.0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.ComputeEpoch(tc.components)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCompute_KindSelection(t *testing.T) {
	c := NewCodec()

	v, err := c.Compute([]float64{2010, 6, 15, 12})
	require.NoError(t, err)
	assert.IsType(t, float64(0), v)

	v, err = c.Compute([]float64{2010, 6, 15, 12, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.IsType(t, int64(0), v)

	v, err = c.Compute([]float64{2010, 6, 15, 12, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.IsType(t, complex128(0), v)

	_, err = c.Compute(nil)
	assert.Error(t, err)

	_, err = c.Compute(make([]float64, 8))
	assert.Error(t, err)
}

func TestCompute_FractionCascade(t *testing.T) {
	c := NewCodec()

	half, err := c.ComputeEpoch([]float64{2001, 1, 1.5})
	require.NoError(t, err)
	noon, err := c.ComputeEpoch([]float64{2001, 1, 1, 12})
	require.NoError(t, err)
	assert.Equal(t, noon, half)

	quarterHour, err := c.ComputeEpoch([]float64{2001, 1, 1, 6.25})
	require.NoError(t, err)
	explicit, err := c.ComputeEpoch([]float64{2001, 1, 1, 6, 15})
	require.NoError(t, err)
	assert.Equal(t, explicit, quarterHour)

	_, err = c.ComputeEpoch([]float64{2001.5})
	assert.Error(t, err, "fractional year must be rejected")

	_, err = c.ComputeEpoch([]float64{2001, 1.5, 1})
	assert.Error(t, err, "fractional month must be rejected")
}

func TestBreakdownRoundTrip(t *testing.T) {
	c := NewCodec()

	testCases := []struct {
		name       string
		components []float64
	}{
		{"epoch", []float64{1996, 2, 29, 13, 45, 30, 123}},
		{"epoch pre-1970", []float64{1859, 9, 1, 11, 0, 0, 0}},
		{"tt2000", []float64{2015, 7, 2, 9, 8, 7, 6, 5, 4}},
		{"tt2000 before 2000", []float64{1994, 3, 15, 23, 59, 59, 999, 0, 0}},
		{"epoch16", []float64{2020, 12, 31, 23, 59, 59, 999, 888, 777, 666}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := c.Compute(tc.components)
			require.NoError(t, err)

			b, err := c.Breakdown(v)
			require.NoError(t, err)
			require.Len(t, b, len(tc.components))
			for i, comp := range tc.components {
				assert.Equal(t, int64(comp), b[i], "component %d", i)
			}
		})
	}
}

func TestTT2000_LeapSecond(t *testing.T) {
	c := NewCodec()

	// A positive leap second was inserted at the end of 2016, so the two
	// instants below are two real seconds apart.
	before, err := c.ComputeTT2000([]float64{2016, 12, 31, 23, 59, 59})
	require.NoError(t, err)
	after, err := c.ComputeTT2000([]float64{2017, 1, 1, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, int64(2e9), after-before)

	// The instant in between renders as second 60.
	b := c.breakdownTT2000(before + 1e9)
	assert.Equal(t, [9]int64{2016, 12, 31, 23, 59, 60, 0, 0, 0}, b)

	// An ordinary day boundary is one second wide.
	b1, err := c.ComputeTT2000([]float64{2018, 12, 31, 23, 59, 59})
	require.NoError(t, err)
	b2, err := c.ComputeTT2000([]float64{2019, 1, 1, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, int64(1e9), b2-b1)
}

func TestEncodeParseRoundTrip(t *testing.T) {
	c := NewCodec()

	values := map[string][]float64{
		"epoch":   {2004, 5, 13, 15, 8, 11, 22},
		"tt2000":  {2004, 5, 13, 15, 8, 11, 22, 33, 44},
		"epoch16": {2004, 5, 13, 15, 8, 11, 22, 33, 44, 55},
	}

	for name, comp := range values {
		for _, iso := range []bool{true, false} {
			label := name + "/legacy"
			if iso {
				label = name + "/iso"
			}
			t.Run(label, func(t *testing.T) {
				v, err := c.Compute(comp)
				require.NoError(t, err)

				s, err := c.Encode(v, iso)
				require.NoError(t, err)

				back, err := c.Parse(s)
				require.NoError(t, err)
				assert.Equal(t, v, back)
			})
		}
	}
}

func TestEncode_Formats(t *testing.T) {
	c := NewCodec()

	e, err := c.ComputeEpoch([]float64{2004, 5, 13, 15, 8, 11, 22})
	require.NoError(t, err)
	assert.Equal(t, "2004-05-13T15:08:11.022", c.EncodeEpoch(e, true))
	assert.Equal(t, "13-May-2004 15:08:11.022", c.EncodeEpoch(e, false))

	tt, err := c.ComputeTT2000([]float64{2004, 5, 13, 15, 8, 11, 22, 33, 44})
	require.NoError(t, err)
	assert.Equal(t, "2004-05-13T15:08:11.022033044", c.EncodeTT2000(tt, true))
	assert.Equal(t, "13-May-2004 15:08:11.022.033.044", c.EncodeTT2000(tt, false))

	// Published reference value from the leap second documentation.
	assert.Equal(t, "2005-12-04T20:19:18.176321123", c.EncodeTT2000(int64(186999622360321123), true))
}

func TestFillSentinels(t *testing.T) {
	c := NewCodec()

	assert.Equal(t, "9999-12-31T23:59:59.999", c.EncodeEpoch(FillEpoch, true))
	assert.Equal(t, "9999-12-31T23:59:59.999999999", c.EncodeTT2000(FillTT2000, true))
	assert.Equal(t, "9999-12-31T23:59:59.999999999999", c.EncodeEpoch16(FillEpoch16, true))
	assert.Equal(t, "31-Dec-9999 23:59:59.999", c.EncodeEpoch(FillEpoch, false))

	v, err := c.Parse("9999-12-31T23:59:59.999")
	require.NoError(t, err)
	assert.Equal(t, FillEpoch, v)

	v, err = c.Parse("9999-12-31T23:59:59.999999999")
	require.NoError(t, err)
	assert.Equal(t, FillTT2000, v)

	v, err = c.Parse("31-Dec-9999 23:59:59.999.999.999.999")
	require.NoError(t, err)
	assert.Equal(t, FillEpoch16, v)

	// The TT2000 pad sentinel renders as year 0.
	assert.Equal(t, "0000-01-01T00:00:00.000000000", c.EncodeTT2000(PadTT2000, true))
}

func TestParse_Malformed(t *testing.T) {
	c := NewCodec()

	for _, s := range []string{
		"",
		"not a time",
		"2004-05-13 15:08:11.022",    // space separator with ISO length
		"2004-13-99T15:08:11.0XX",    // non-digit fraction
		"13-Zzz-2004 15:08:11.022",   // unknown month
		"2004-05-13T15:08:11.022033", // length matches no kind
	} {
		_, err := c.Parse(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestToTime(t *testing.T) {
	c := NewCodec()

	e, err := c.ComputeEpoch([]float64{2010, 3, 4, 5, 6, 7, 890})
	require.NoError(t, err)
	got, err := c.ToTime(e)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2010, 3, 4, 5, 6, 7, 890e6, time.UTC), got)

	tt, err := c.ComputeTT2000([]float64{2010, 3, 4, 5, 6, 7, 890, 123, 0})
	require.NoError(t, err)
	got, err = c.ToTime(tt)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2010, 3, 4, 5, 6, 7, 890123000, time.UTC), got)

	times, err := c.ToTimeSlice([]float64{e, e})
	require.NoError(t, err)
	require.Len(t, times, 2)
	assert.Equal(t, times[0], times[1])

	_, err = c.ToTime("nope")
	assert.Error(t, err)
}

func TestUnixtime(t *testing.T) {
	c := NewCodec()

	e, err := c.ComputeEpoch([]float64{1970, 1, 1})
	require.NoError(t, err)
	u, err := c.Unixtime(e)
	require.NoError(t, err)
	assert.Equal(t, 0.0, u)

	tt, err := c.ComputeTT2000([]float64{1970, 1, 1, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	u, err = c.Unixtime(tt)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, u, 1e-6)

	e, err = c.ComputeEpoch([]float64{2009, 2, 13, 23, 31, 30})
	require.NoError(t, err)
	u, err = c.Unixtime(e)
	require.NoError(t, err)
	assert.Equal(t, 1234567890.0, u)
}

func TestFindEpochRange(t *testing.T) {
	c := NewCodec()

	mk := func(day float64) float64 {
		v, err := c.ComputeEpoch([]float64{2020, 1, day})
		require.NoError(t, err)
		return v
	}
	epochs := []float64{mk(1), mk(2), mk(3), mk(4), mk(5)}

	first, last, ok, err := c.FindEpochRange(epochs, mk(2), mk(4))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, first)
	assert.Equal(t, 3, last)

	// Component-list bounds resolve through Compute.
	first, last, ok, err = c.FindEpochRange(epochs, []float64{2020, 1, 3}, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, first)
	assert.Equal(t, 4, last)

	// Open on both ends covers everything.
	first, last, ok, err = c.FindEpochRange(epochs, nil, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, first)
	assert.Equal(t, 4, last)

	// Empty intersection.
	_, _, ok, err = c.FindEpochRange(epochs, mk(10), mk(20))
	require.NoError(t, err)
	assert.False(t, ok)

	// Bound kind must match the slice kind.
	_, _, _, err = c.FindEpochRange(epochs, int64(0), nil)
	assert.Error(t, err)

	// TT2000 slices range on int64 bounds.
	tts := []int64{100, 200, 300}
	first, last, ok, err = c.FindEpochRange(tts, int64(150), int64(300))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, last)
}

func TestKindOf(t *testing.T) {
	testCases := []struct {
		value interface{}
		kind  Kind
		ok    bool
	}{
		{float64(1), KindEpoch, true},
		{[]float64{1}, KindEpoch, true},
		{int64(1), KindTT2000, true},
		{[]int64{1}, KindTT2000, true},
		{complex128(1), KindEpoch16, true},
		{[]complex128{1}, KindEpoch16, true},
		{"x", 0, false},
		{int32(1), 0, false},
	}

	for _, tc := range testCases {
		k, ok := KindOf(tc.value)
		assert.Equal(t, tc.ok, ok)
		if ok {
			assert.Equal(t, tc.kind, k)
		}
	}
}

func TestTableLastUpdated(t *testing.T) {
	c := NewCodec()
	// The bundled table ends at the 2017-01-01 entry or later.
	assert.GreaterOrEqual(t, c.TableLastUpdated(), 20170101)
}
