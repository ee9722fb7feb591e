package codec

import "bytes"

// TrimNulls decodes one fixed-width character field. The field is cut at
// its first NUL, discarding whatever padding or garbage follows within the
// same field. The cut applies per field, never across fields, so interior
// NULs of one record cannot swallow the values of the next one the way a
// whole-buffer split on NUL would.
func TrimNulls(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		return string(field[:i])
	}
	return string(field)
}
