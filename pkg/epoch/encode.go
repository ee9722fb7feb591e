package epoch

import (
	"fmt"
	"strconv"
	"strings"
)

var monthNames = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func monthName(m int64) string {
	if m >= 1 && m <= 12 {
		return monthNames[m-1]
	}
	return "???"
}

// Encode renders a scalar epoch value as a string: ISO 8601 when iso8601 is
// true, the legacy dd-Mmm-yyyy form otherwise. The kind's fill sentinel
// always renders the reserved 9999-12-31 string.
func (c *Codec) Encode(value interface{}, iso8601 bool) (string, error) {
	switch v := value.(type) {
	case float64:
		return c.EncodeEpoch(v, iso8601), nil
	case complex128:
		return c.EncodeEpoch16(v, iso8601), nil
	case int64:
		return c.EncodeTT2000(v, iso8601), nil
	}
	return "", fmt.Errorf("epoch: cannot encode %T", value)
}

// EncodeSlice renders every element of an epoch slice.
func (c *Codec) EncodeSlice(values interface{}, iso8601 bool) ([]string, error) {
	switch v := values.(type) {
	case []float64:
		out := make([]string, len(v))
		for i, x := range v {
			out[i] = c.EncodeEpoch(x, iso8601)
		}
		return out, nil
	case []complex128:
		out := make([]string, len(v))
		for i, x := range v {
			out[i] = c.EncodeEpoch16(x, iso8601)
		}
		return out, nil
	case []int64:
		out := make([]string, len(v))
		for i, x := range v {
			out[i] = c.EncodeTT2000(x, iso8601)
		}
		return out, nil
	}
	return nil, fmt.Errorf("epoch: cannot encode %T", values)
}

// EncodeEpoch renders a CDF_EPOCH with millisecond precision.
func (c *Codec) EncodeEpoch(e float64, iso8601 bool) string {
	b := breakdownEpoch(e)
	if iso8601 {
		return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d.%03d",
			b[0], b[1], b[2], b[3], b[4], b[5], b[6])
	}
	return fmt.Sprintf("%02d-%s-%04d %02d:%02d:%02d.%03d",
		b[2], monthName(b[1]), b[0], b[3], b[4], b[5], b[6])
}

// EncodeEpoch16 renders a CDF_EPOCH16 with picosecond precision.
func (c *Codec) EncodeEpoch16(e complex128, iso8601 bool) string {
	b := breakdownEpoch16(e)
	if iso8601 {
		return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d.%03d%03d%03d%03d",
			b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7], b[8], b[9])
	}
	return fmt.Sprintf("%02d-%s-%04d %02d:%02d:%02d.%03d.%03d.%03d.%03d",
		b[2], monthName(b[1]), b[0], b[3], b[4], b[5], b[6], b[7], b[8], b[9])
}

// EncodeTT2000 renders a CDF_TIME_TT2000 with nanosecond precision.
func (c *Codec) EncodeTT2000(t int64, iso8601 bool) string {
	b := c.breakdownTT2000(t)
	if iso8601 {
		return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d.%03d%03d%03d",
			b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7], b[8])
	}
	return fmt.Sprintf("%02d-%s-%04d %02d:%02d:%02d.%03d.%03d.%03d",
		b[2], monthName(b[1]), b[0], b[3], b[4], b[5], b[6], b[7], b[8])
}

// Reserved strings produced by the fill sentinels. Parse maps them back to
// the exact sentinel values.
const (
	fillISOEpoch      = "9999-12-31T23:59:59.999"
	fillISOTT2000     = "9999-12-31T23:59:59.999999999"
	fillISOEpoch16    = "9999-12-31T23:59:59.999999999999"
	fillLegacyEpoch   = "31-Dec-9999 23:59:59.999"
	fillLegacyTT2000  = "31-Dec-9999 23:59:59.999.999.999"
	fillLegacyEpoch16 = "31-Dec-9999 23:59:59.999.999.999.999"
)

// Parse is the inverse of Encode. The string length plus the "T" versus
// space separator pick the kind and sub-format:
//
//	ISO    23 -> CDF_EPOCH, 29 -> TT2000, 32 -> CDF_EPOCH16
//	legacy 24 -> CDF_EPOCH, 32 -> TT2000, 36 -> CDF_EPOCH16
func (c *Codec) Parse(s string) (interface{}, error) {
	iso := strings.ContainsRune(s, 'T')
	switch {
	case iso && len(s) == len(fillISOEpoch):
		if s == fillISOEpoch {
			return FillEpoch, nil
		}
		comp, err := parseISO(s, 3)
		if err != nil {
			return nil, err
		}
		return c.ComputeEpoch(comp)
	case iso && len(s) == len(fillISOTT2000):
		if s == fillISOTT2000 {
			return FillTT2000, nil
		}
		comp, err := parseISO(s, 9)
		if err != nil {
			return nil, err
		}
		return c.ComputeTT2000(comp)
	case iso && len(s) == len(fillISOEpoch16):
		if s == fillISOEpoch16 {
			return FillEpoch16, nil
		}
		comp, err := parseISO(s, 12)
		if err != nil {
			return nil, err
		}
		return c.ComputeEpoch16(comp)
	case !iso && len(s) == len(fillLegacyEpoch):
		if s == fillLegacyEpoch {
			return FillEpoch, nil
		}
		comp, err := parseLegacy(s, 1)
		if err != nil {
			return nil, err
		}
		return c.ComputeEpoch(comp)
	case !iso && len(s) == len(fillLegacyTT2000):
		if s == fillLegacyTT2000 {
			return FillTT2000, nil
		}
		comp, err := parseLegacy(s, 3)
		if err != nil {
			return nil, err
		}
		return c.ComputeTT2000(comp)
	case !iso && len(s) == len(fillLegacyEpoch16):
		if s == fillLegacyEpoch16 {
			return FillEpoch16, nil
		}
		comp, err := parseLegacy(s, 4)
		if err != nil {
			return nil, err
		}
		return c.ComputeEpoch16(comp)
	}
	return nil, fmt.Errorf("epoch: unrecognized epoch string %q", s)
}

// parseISO handles "yyyy-mm-ddThh:mm:ss." plus fracDigits of sub-second
// digits, split into millisecond groups of three.
func parseISO(s string, fracDigits int) ([]float64, error) {
	if len(s) != 20+fracDigits || s[4] != '-' || s[7] != '-' || s[10] != 'T' ||
		s[13] != ':' || s[16] != ':' || s[19] != '.' {
		return nil, fmt.Errorf("epoch: malformed ISO epoch string %q", s)
	}
	fields := []string{s[0:4], s[5:7], s[8:10], s[11:13], s[14:16], s[17:19]}
	for i := 20; i < len(s); i += 3 {
		fields = append(fields, s[i:i+3])
	}
	return atofs(s, fields)
}

// parseLegacy handles "dd-Mmm-yyyy hh:mm:ss" plus fracGroups dot-separated
// three-digit groups.
func parseLegacy(s string, fracGroups int) ([]float64, error) {
	if len(s) != 20+4*fracGroups || s[2] != '-' || s[6] != '-' || s[11] != ' ' ||
		s[14] != ':' || s[17] != ':' || s[20] != '.' {
		return nil, fmt.Errorf("epoch: malformed epoch string %q", s)
	}
	month := 0
	for i, name := range monthNames {
		if s[3:6] == name {
			month = i + 1
			break
		}
	}
	if month == 0 {
		return nil, fmt.Errorf("epoch: unknown month in %q", s)
	}
	fields := []string{s[7:11], "", s[0:2], s[12:14], s[15:17], s[18:20]}
	for g := 0; g < fracGroups; g++ {
		at := 21 + 4*g
		fields = append(fields, s[at:at+3])
		if g+1 < fracGroups && s[at+3] != '.' {
			return nil, fmt.Errorf("epoch: malformed epoch string %q", s)
		}
	}
	comp, err := atofs(s, fields[:1])
	if err != nil {
		return nil, err
	}
	rest, err := atofs(s, fields[2:])
	if err != nil {
		return nil, err
	}
	return append(append(comp, float64(month)), rest...), nil
}

func atofs(src string, fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("epoch: malformed component in %q: %w", src, err)
		}
		out[i] = v
	}
	return out, nil
}
