package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DecodeValues turns a raw record payload into a flat typed slice. count is
// the number of values; for character types each value is a numElems-byte
// string, for every other type numElems must be 1. The returned dynamic
// type is one of []int8, []int16, []int32, []int64, []uint8, []uint16,
// []uint32, []float32, []float64, []complex128 or []string.
func DecodeValues(raw []byte, d DataType, numElems int, count int, order binary.ByteOrder) (interface{}, error) {
	width, err := d.Size(numElems)
	if err != nil {
		return nil, err
	}
	if len(raw) < width*count {
		return nil, fmt.Errorf("codec: payload holds %d bytes, need %d for %d %s values",
			len(raw), width*count, count, d)
	}

	switch d {
	case Int1, Byte:
		out := make([]int8, count)
		for i := range out {
			out[i] = int8(raw[i])
		}
		return out, nil
	case UInt1:
		out := make([]uint8, count)
		copy(out, raw[:count])
		return out, nil
	case Int2:
		out := make([]int16, count)
		for i := range out {
			out[i] = int16(order.Uint16(raw[2*i:]))
		}
		return out, nil
	case UInt2:
		out := make([]uint16, count)
		for i := range out {
			out[i] = order.Uint16(raw[2*i:])
		}
		return out, nil
	case Int4:
		out := make([]int32, count)
		for i := range out {
			out[i] = int32(order.Uint32(raw[4*i:]))
		}
		return out, nil
	case UInt4:
		out := make([]uint32, count)
		for i := range out {
			out[i] = order.Uint32(raw[4*i:])
		}
		return out, nil
	case Int8, TimeTT2000:
		out := make([]int64, count)
		for i := range out {
			out[i] = int64(order.Uint64(raw[8*i:]))
		}
		return out, nil
	case Real4, Float:
		out := make([]float32, count)
		for i := range out {
			out[i] = math.Float32frombits(order.Uint32(raw[4*i:]))
		}
		return out, nil
	case Real8, Double, Epoch:
		out := make([]float64, count)
		for i := range out {
			out[i] = math.Float64frombits(order.Uint64(raw[8*i:]))
		}
		return out, nil
	case Epoch16:
		out := make([]complex128, count)
		for i := range out {
			re := math.Float64frombits(order.Uint64(raw[16*i:]))
			im := math.Float64frombits(order.Uint64(raw[16*i+8:]))
			out[i] = complex(re, im)
		}
		return out, nil
	case Char, UChar:
		out := make([]string, count)
		for i := range out {
			out[i] = TrimNulls(raw[i*numElems : (i+1)*numElems])
		}
		return out, nil
	}
	return nil, fmt.Errorf("codec: unknown data type code %d", int32(d))
}

// EncodeValues is the inverse of DecodeValues: it flattens a typed slice
// into the record payload layout. Strings shorter than numElems are
// NUL-padded; longer ones are truncated.
func EncodeValues(values interface{}, d DataType, numElems int, order binary.ByteOrder) ([]byte, error) {
	width, err := d.Size(numElems)
	if err != nil {
		return nil, err
	}

	switch v := values.(type) {
	case []int8:
		raw := make([]byte, width*len(v))
		for i, x := range v {
			raw[i] = byte(x)
		}
		return raw, nil
	case []uint8:
		raw := make([]byte, width*len(v))
		copy(raw, v)
		return raw, nil
	case []int16:
		raw := make([]byte, width*len(v))
		for i, x := range v {
			order.PutUint16(raw[2*i:], uint16(x))
		}
		return raw, nil
	case []uint16:
		raw := make([]byte, width*len(v))
		for i, x := range v {
			order.PutUint16(raw[2*i:], x)
		}
		return raw, nil
	case []int32:
		raw := make([]byte, width*len(v))
		for i, x := range v {
			order.PutUint32(raw[4*i:], uint32(x))
		}
		return raw, nil
	case []uint32:
		raw := make([]byte, width*len(v))
		for i, x := range v {
			order.PutUint32(raw[4*i:], x)
		}
		return raw, nil
	case []int64:
		raw := make([]byte, width*len(v))
		for i, x := range v {
			order.PutUint64(raw[8*i:], uint64(x))
		}
		return raw, nil
	case []float32:
		raw := make([]byte, width*len(v))
		for i, x := range v {
			order.PutUint32(raw[4*i:], math.Float32bits(x))
		}
		return raw, nil
	case []float64:
		raw := make([]byte, width*len(v))
		for i, x := range v {
			order.PutUint64(raw[8*i:], math.Float64bits(x))
		}
		return raw, nil
	case []complex128:
		raw := make([]byte, width*len(v))
		for i, x := range v {
			order.PutUint64(raw[16*i:], math.Float64bits(real(x)))
			order.PutUint64(raw[16*i+8:], math.Float64bits(imag(x)))
		}
		return raw, nil
	case []string:
		raw := make([]byte, width*len(v))
		for i, s := range v {
			if len(s) > numElems {
				s = s[:numElems]
			}
			copy(raw[i*numElems:(i+1)*numElems], s)
		}
		return raw, nil
	}
	return nil, fmt.Errorf("codec: cannot encode %T as %s", values, d)
}

// EncodeScalar encodes a single value as one record payload element.
func EncodeScalar(value interface{}, d DataType, numElems int, order binary.ByteOrder) ([]byte, error) {
	switch v := value.(type) {
	case int8:
		return EncodeValues([]int8{v}, d, numElems, order)
	case uint8:
		return EncodeValues([]uint8{v}, d, numElems, order)
	case int16:
		return EncodeValues([]int16{v}, d, numElems, order)
	case uint16:
		return EncodeValues([]uint16{v}, d, numElems, order)
	case int32:
		return EncodeValues([]int32{v}, d, numElems, order)
	case uint32:
		return EncodeValues([]uint32{v}, d, numElems, order)
	case int64:
		return EncodeValues([]int64{v}, d, numElems, order)
	case float32:
		return EncodeValues([]float32{v}, d, numElems, order)
	case float64:
		return EncodeValues([]float64{v}, d, numElems, order)
	case complex128:
		return EncodeValues([]complex128{v}, d, numElems, order)
	case string:
		return EncodeValues([]string{v}, d, numElems, order)
	}
	return nil, fmt.Errorf("codec: cannot encode scalar %T as %s", value, d)
}

// ValueCount returns the length of a flat value slice, or -1 for an
// unsupported dynamic type.
func ValueCount(values interface{}) int {
	switch v := values.(type) {
	case []int8:
		return len(v)
	case []uint8:
		return len(v)
	case []int16:
		return len(v)
	case []uint16:
		return len(v)
	case []int32:
		return len(v)
	case []uint32:
		return len(v)
	case []int64:
		return len(v)
	case []float32:
		return len(v)
	case []float64:
		return len(v)
	case []complex128:
		return len(v)
	case []string:
		return len(v)
	}
	return -1
}
