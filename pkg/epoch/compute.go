package epoch

import (
	"fmt"
	"math"
)

// Compute assembles an epoch value from calendar components. The component
// count selects the kind: up to 7 components build a CDF_EPOCH, exactly 9
// a CDF_TIME_TT2000 and exactly 10 a CDF_EPOCH16. Lists shorter than the
// kind's full count are padded (month and day default to 1, the rest to 0)
// and the last supplied component may carry a fraction, which cascades into
// the lower units: [2001, 1, 1.5] is noon on January 1st. Year and month
// must be integral. Out-of-range values such as month 13 or hour 25 roll
// over arithmetically rather than failing.
func (c *Codec) Compute(components []float64) (interface{}, error) {
	switch {
	case len(components) == 0:
		return nil, fmt.Errorf("epoch: no components given")
	case len(components) <= 7:
		return c.ComputeEpoch(components)
	case len(components) == 9:
		return c.ComputeTT2000(components)
	case len(components) == 10:
		return c.ComputeEpoch16(components)
	}
	return nil, fmt.Errorf("epoch: %d components match no epoch kind (want <=7, 9 or 10)", len(components))
}

// cascade normalizes a component list to exactly n entries. The fraction of
// the last supplied component spills into the next unit using the factors
// for hour/minute/second/sub-second chains; the final slot keeps any
// remaining fraction.
func cascade(components []float64, n int, factors []float64) ([]float64, error) {
	if len(components) > n {
		return nil, fmt.Errorf("epoch: %d components exceed the kind's %d", len(components), n)
	}
	full := make([]float64, n)
	full[1], full[2] = 1, 1 // month and day default to the 1st
	copy(full, components)

	for i := 0; i < n; i++ {
		frac := full[i] - math.Trunc(full[i])
		if frac == 0 {
			continue
		}
		if i < 2 {
			return nil, fmt.Errorf("epoch: fractional %s not supported", [2]string{"year", "month"}[i])
		}
		if i == n-1 {
			break // the last unit keeps its fraction
		}
		full[i] = math.Trunc(full[i])
		full[i+1] += frac * factors[i]
	}
	return full, nil
}

// Factors from each unit to the next finer one, starting at day.
var (
	epochFactors   = []float64{0, 0, 24, 60, 60, 1000}
	tt2000Factors  = []float64{0, 0, 24, 60, 60, 1000, 1000, 1000}
	epoch16Factors = []float64{0, 0, 24, 60, 60, 1000, 1000, 1000, 1000}
)

// ComputeEpoch builds a CDF_EPOCH from up to 7 components
// (year, month, day, hour, minute, second, millisecond).
func (c *Codec) ComputeEpoch(components []float64) (float64, error) {
	full, err := cascade(components, 7, epochFactors)
	if err != nil {
		return 0, err
	}
	msFrac := full[6] - math.Trunc(full[6])
	return epochComponents(int(full[0]), int(full[1]), int(full[2]),
		int(full[3]), int(full[4]), int(full[5]), int(math.Trunc(full[6])), msFrac), nil
}

// ComputeTT2000 builds a CDF_TIME_TT2000 from up to 9 components
// (year through nanosecond).
func (c *Codec) ComputeTT2000(components []float64) (int64, error) {
	full, err := cascade(components, 9, tt2000Factors)
	if err != nil {
		return 0, err
	}
	return c.ttComponents(int(full[0]), int(full[1]), int(full[2]),
		int(full[3]), int(full[4]), int(full[5]),
		int(full[6]), int(full[7]), int(math.Round(full[8]))), nil
}

// ComputeEpoch16 builds a CDF_EPOCH16 from up to 10 components
// (year through picosecond).
func (c *Codec) ComputeEpoch16(components []float64) (complex128, error) {
	full, err := cascade(components, 10, epoch16Factors)
	if err != nil {
		return 0, err
	}
	return epoch16Components(int(full[0]), int(full[1]), int(full[2]),
		int(full[3]), int(full[4]), int(full[5]),
		int(full[6]), int(full[7]), int(full[8]), int(math.Round(full[9]))), nil
}

// Breakdown splits a scalar epoch value of any kind into its components.
func (c *Codec) Breakdown(value interface{}) ([]int64, error) {
	switch v := value.(type) {
	case float64:
		b := breakdownEpoch(v)
		return b[:], nil
	case complex128:
		b := breakdownEpoch16(v)
		return b[:], nil
	case int64:
		b := c.breakdownTT2000(v)
		return b[:], nil
	}
	return nil, fmt.Errorf("epoch: cannot break down %T", value)
}

// BreakdownSlice breaks down every element of an epoch slice, preserving
// order. Accepts []float64, []complex128 or []int64.
func (c *Codec) BreakdownSlice(values interface{}) ([][]int64, error) {
	switch v := values.(type) {
	case []float64:
		out := make([][]int64, len(v))
		for i, x := range v {
			b := breakdownEpoch(x)
			out[i] = b[:]
		}
		return out, nil
	case []complex128:
		out := make([][]int64, len(v))
		for i, x := range v {
			b := breakdownEpoch16(x)
			out[i] = b[:]
		}
		return out, nil
	case []int64:
		out := make([][]int64, len(v))
		for i, x := range v {
			b := c.breakdownTT2000(x)
			out[i] = b[:]
		}
		return out, nil
	}
	return nil, fmt.Errorf("epoch: cannot break down %T", values)
}
