package codec

import (
	"fmt"
	"math"
)

// DataType is a CDF numeric data type code as stored in VDR and AEDR records.
type DataType int32

const (
	Int1       DataType = 1
	Int2       DataType = 2
	Int4       DataType = 4
	Int8       DataType = 8
	UInt1      DataType = 11
	UInt2      DataType = 12
	UInt4      DataType = 14
	Real4      DataType = 21
	Real8      DataType = 22
	Epoch      DataType = 31
	Epoch16    DataType = 32
	TimeTT2000 DataType = 33
	Byte       DataType = 41
	Float      DataType = 44
	Double     DataType = 45
	Char       DataType = 51
	UChar      DataType = 52
)

var typeNames = map[DataType]string{
	Int1: "CDF_INT1", Int2: "CDF_INT2", Int4: "CDF_INT4", Int8: "CDF_INT8",
	UInt1: "CDF_UINT1", UInt2: "CDF_UINT2", UInt4: "CDF_UINT4",
	Real4: "CDF_REAL4", Real8: "CDF_REAL8",
	Epoch: "CDF_EPOCH", Epoch16: "CDF_EPOCH16", TimeTT2000: "CDF_TIME_TT2000",
	Byte: "CDF_BYTE", Float: "CDF_FLOAT", Double: "CDF_DOUBLE",
	Char: "CDF_CHAR", UChar: "CDF_UCHAR",
}

func (d DataType) String() string {
	if s, ok := typeNames[d]; ok {
		return s
	}
	return fmt.Sprintf("CDF_<%d>", int32(d))
}

// Valid reports whether d is one of the defined type codes.
func (d DataType) Valid() bool {
	_, ok := typeNames[d]
	return ok
}

// IsChar reports whether d is a character type, for which the element
// count is the string length rather than 1.
func (d DataType) IsChar() bool { return d == Char || d == UChar }

// IsEpoch reports whether d is one of the three time value types.
func (d DataType) IsEpoch() bool {
	return d == Epoch || d == Epoch16 || d == TimeTT2000
}

// Size returns the byte width of a single value of type d. For character
// types one value occupies numElems bytes; for every other type numElems
// is 1 and the width is fixed.
func (d DataType) Size(numElems int) (int, error) {
	switch d {
	case Int1, UInt1, Byte:
		return 1, nil
	case Int2, UInt2:
		return 2, nil
	case Int4, UInt4, Real4, Float:
		return 4, nil
	case Int8, Real8, Double, Epoch, TimeTT2000:
		return 8, nil
	case Epoch16:
		return 16, nil
	case Char, UChar:
		if numElems < 1 {
			return 0, fmt.Errorf("codec: character type needs a positive element count, got %d", numElems)
		}
		return numElems, nil
	}
	return 0, fmt.Errorf("codec: unknown data type code %d", int32(d))
}

// PadValue returns the default pad value for d, used when a sparse record
// has no explicit pad. The dynamic type matches the slices produced by
// DecodeValues.
func (d DataType) PadValue() interface{} {
	switch d {
	case Int1, Byte:
		return int8(-127)
	case Int2:
		return int16(-32767)
	case Int4:
		return int32(-2147483647)
	case Int8:
		return int64(-9223372036854775807)
	case UInt1:
		return uint8(254)
	case UInt2:
		return uint16(65534)
	case UInt4:
		return uint32(4294967294)
	case Real4, Float:
		return float32(-1e30)
	case Real8, Double, Epoch:
		return float64(-1e30)
	case Epoch16:
		return complex(-1e30, -1e30)
	case TimeTT2000:
		return int64(-9223372036854775807)
	case Char, UChar:
		return " "
	}
	return nil
}

// FillValue returns the reserved fill sentinel for d, distinct from the
// pad value for the epoch kinds.
func (d DataType) FillValue() interface{} {
	switch d {
	case Epoch:
		return float64(-1e31)
	case Epoch16:
		return complex(-1e31, -1e31)
	case TimeTT2000:
		return int64(math.MinInt64)
	}
	return d.PadValue()
}

// FromValues maps the dynamic type of a flat value slice to its natural
// CDF data type. Strings map to CDF_CHAR; float64 maps to CDF_DOUBLE, not
// CDF_EPOCH, so epoch variables must declare their type explicitly.
func FromValues(values interface{}) (DataType, bool) {
	switch values.(type) {
	case []int8:
		return Int1, true
	case []int16:
		return Int2, true
	case []int32:
		return Int4, true
	case []int64:
		return Int8, true
	case []uint8:
		return UInt1, true
	case []uint16:
		return UInt2, true
	case []uint32:
		return UInt4, true
	case []float32:
		return Float, true
	case []float64:
		return Double, true
	case []complex128:
		return Epoch16, true
	case []string:
		return Char, true
	}
	return 0, false
}
