package epoch

import (
	"fmt"
	"time"
)

// ToTime converts a scalar epoch value to a UTC time.Time, truncated to
// microsecond precision. CDF_EPOCH16 picosecond fidelity past microseconds
// is necessarily lost. Instants inside a leap second normalize into the
// next minute, since Go's time model has no second 60.
func (c *Codec) ToTime(value interface{}) (time.Time, error) {
	b, err := c.Breakdown(value)
	if err != nil {
		return time.Time{}, err
	}
	var us int64
	switch len(b) {
	case 7:
		us = b[6] * 1000
	case 9:
		us = b[6]*1000 + b[7]
	case 10:
		us = b[6]*1000 + b[7]
	}
	return time.Date(int(b[0]), time.Month(b[1]), int(b[2]),
		int(b[3]), int(b[4]), int(b[5]), int(us*1000), time.UTC), nil
}

// ToTimeSlice converts every element of an epoch slice.
func (c *Codec) ToTimeSlice(values interface{}) ([]time.Time, error) {
	bs, err := c.BreakdownSlice(values)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(bs))
	for i, b := range bs {
		var us int64
		switch len(b) {
		case 7:
			us = b[6] * 1000
		default:
			us = b[6]*1000 + b[7]
		}
		out[i] = time.Date(int(b[0]), time.Month(b[1]), int(b[2]),
			int(b[3]), int(b[4]), int(b[5]), int(us*1000), time.UTC)
	}
	return out, nil
}

// Unixtime converts a scalar epoch value to float seconds since
// 1970-01-01T00:00:00 UTC.
func (c *Codec) Unixtime(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return (v - float64(ms0ADto1970)) / 1000, nil
	case complex128:
		return real(v) - float64(ms0ADto1970)/1000 + imag(v)/1e12, nil
	case int64:
		b := c.breakdownTT2000(v)
		ls := c.leapSecondsYMD(int(b[0]), int(b[1]), int(b[2]))
		utcNs := v - ttMinusTAIns - int64(ls*1e9)
		return float64(unixJ2000Noon) + float64(utcNs)/1e9, nil
	}
	return 0, fmt.Errorf("epoch: cannot convert %T to unixtime", value)
}
