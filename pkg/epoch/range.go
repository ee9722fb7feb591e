package epoch

import (
	"fmt"
	"sort"
)

// FindEpochRange returns the inclusive index range [first, last] of the
// elements of a monotonically non-decreasing epoch slice that fall within
// [start, end]. start and end may be nil (open-ended), a scalar epoch of
// the slice's kind, or a component list ([]float64) to be computed first.
// An empty intersection reports ok=false.
func (c *Codec) FindEpochRange(epochs interface{}, start, end interface{}) (first, last int, ok bool, err error) {
	switch v := epochs.(type) {
	case []float64:
		lo, hi, err := c.rangeBounds(start, end, KindEpoch)
		if err != nil {
			return 0, 0, false, err
		}
		first, last, ok = findRange(len(v), func(i int) bool { return v[i] >= lo.(float64) },
			func(i int) bool { return v[i] > hi.(float64) })
		return first, last, ok, nil
	case []int64:
		lo, hi, err := c.rangeBounds(start, end, KindTT2000)
		if err != nil {
			return 0, 0, false, err
		}
		first, last, ok = findRange(len(v), func(i int) bool { return v[i] >= lo.(int64) },
			func(i int) bool { return v[i] > hi.(int64) })
		return first, last, ok, nil
	case []complex128:
		lo, hi, err := c.rangeBounds(start, end, KindEpoch16)
		if err != nil {
			return 0, 0, false, err
		}
		loC, hiC := lo.(complex128), hi.(complex128)
		first, last, ok = findRange(len(v), func(i int) bool { return !less16(v[i], loC) },
			func(i int) bool { return less16(hiC, v[i]) })
		return first, last, ok, nil
	}
	return 0, 0, false, fmt.Errorf("epoch: cannot range over %T", epochs)
}

// less16 orders CDF_EPOCH16 values by seconds, then picoseconds.
func less16(a, b complex128) bool {
	if real(a) != real(b) {
		return real(a) < real(b)
	}
	return imag(a) < imag(b)
}

// rangeBounds resolves the optional start/end arguments to concrete scalar
// bounds of the wanted kind, substituting the kind's extremes when omitted.
func (c *Codec) rangeBounds(start, end interface{}, kind Kind) (lo, hi interface{}, err error) {
	resolve := func(arg interface{}, def interface{}) (interface{}, error) {
		if arg == nil {
			return def, nil
		}
		if comp, isComp := arg.([]float64); isComp {
			v, err := c.Compute(comp)
			if err != nil {
				return nil, err
			}
			arg = v
		}
		if k, ok := KindOf(arg); !ok || k != kind {
			return nil, fmt.Errorf("epoch: range bound %T does not match %s data", arg, kind)
		}
		return arg, nil
	}

	var min, max interface{}
	switch kind {
	case KindEpoch:
		min, max = -1.0e31, 1.0e31
	case KindTT2000:
		min, max = int64(-9223372036854775808), int64(9223372036854775807)
	case KindEpoch16:
		min, max = complex(-1.0e31, -1.0e31), complex(1.0e31, 1.0e31)
	}
	if lo, err = resolve(start, min); err != nil {
		return nil, nil, err
	}
	hi, err = resolve(end, max)
	return lo, hi, err
}

// findRange locates the inclusive span where atOrAbove holds and above does
// not yet, assuming a non-decreasing sequence.
func findRange(n int, atOrAbove func(int) bool, above func(int) bool) (int, int, bool) {
	first := sort.Search(n, atOrAbove)
	last := sort.Search(n, above) - 1
	if first > last || first == n {
		return 0, 0, false
	}
	return first, last, true
}
