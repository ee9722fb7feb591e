package cdf

import (
	"bytes"
	"fmt"

	"github.com/heliolib/gocdf/pkg/codec"
)

// Result holds one variable read. Values is a flat typed slice in row-major
// order; Shape gives the record count followed by the sizes of the varying
// dimensions.
type Result struct {
	Name        string
	DataType    codec.DataType
	NumElems    int
	Values      interface{}
	Shape       []int
	FirstRecord int
}

// dataBlock is one VXR entry resolved to its data record.
type dataBlock struct {
	first, last int32
	at          int64
}

// VarGet reads every record of the named variable.
func (r *Reader) VarGet(name string) (*Result, error) {
	v, err := r.vdr(name)
	if err != nil {
		return nil, err
	}
	if v.maxRec < 0 {
		return r.emptyResult(v), nil
	}
	return r.varRange(v, 0, int(v.maxRec))
}

// VarGetRecords reads records first through last inclusive. Non-varying
// variables ignore the range and return their single record. For sparse
// variables the range may extend beyond the last physical record; the
// overhang is synthesized per the sparse policy.
func (r *Reader) VarGetRecords(name string, first, last int) (*Result, error) {
	v, err := r.vdr(name)
	if err != nil {
		return nil, err
	}
	if !v.recVary() {
		if v.maxRec < 0 {
			return r.emptyResult(v), nil
		}
		return r.varRange(v, 0, 0)
	}
	if first < 0 || last < first {
		return nil, opErr("varget", name, fmt.Errorf("%w: record range [%d, %d]", ErrUsage, first, last))
	}
	if v.maxRec < 0 {
		return r.emptyResult(v), nil
	}
	if last > int(v.maxRec) && v.sparse == SparseNone {
		return nil, opErr("varget", name, fmt.Errorf("%w: record %d beyond last record %d", ErrUsage, last, v.maxRec))
	}
	return r.varRange(v, first, last)
}

// VarGetTimeRange reads the records whose DEPEND_0 epoch values fall within
// [start, end]. start and end may each be nil (open end), a time component
// slice, or a raw epoch value of the time variable's kind.
func (r *Reader) VarGetTimeRange(name string, start, end interface{}) (*Result, error) {
	dep, err := r.AttGet("DEPEND_0", name)
	if err != nil {
		return nil, opErr("varget", name, fmt.Errorf("time range needs a DEPEND_0 attribute: %w", err))
	}
	epochName, ok := dep.Value.(string)
	if !ok {
		return nil, opErr("varget", name, fmt.Errorf("%w: DEPEND_0 entry is not a variable name", ErrUsage))
	}
	return r.VarGetTimeRangeVia(name, epochName, start, end)
}

// VarGetTimeRangeVia is VarGetTimeRange with the epoch variable named
// explicitly instead of resolved through DEPEND_0.
func (r *Reader) VarGetTimeRangeVia(name, epochName string, start, end interface{}) (*Result, error) {
	v, err := r.vdr(name)
	if err != nil {
		return nil, err
	}
	times, err := r.VarGet(epochName)
	if err != nil {
		return nil, err
	}
	first, last, found, err := r.epoch.FindEpochRange(times.Values, start, end)
	if err != nil {
		return nil, opErr("varget", name, err)
	}
	if !found {
		return r.emptyResult(v), nil
	}
	if last > int(v.maxRec) {
		last = int(v.maxRec)
	}
	if first > last {
		return r.emptyResult(v), nil
	}
	return r.varRange(v, first, last)
}

func (r *Reader) emptyResult(v *vdrRecord) *Result {
	return &Result{
		Name:     v.name,
		DataType: v.dataType,
		NumElems: int(v.numElems),
		Shape:    append([]int{0}, v.varyDims()...),
	}
}

// varRange assembles records first..last. Non-varying variables hold one
// physical record no matter how many virtual records the file advertises,
// so they always decode as a single record.
func (r *Reader) varRange(v *vdrRecord, first, last int) (*Result, error) {
	if !v.recVary() {
		first, last = 0, 0
	}
	scalarWidth, err := v.dataType.Size(int(v.numElems))
	if err != nil {
		return nil, opErr("varget", v.name, fmt.Errorf("%w: %v", ErrFormat, err))
	}
	recWidth := scalarWidth * v.valuesPerRecord()

	raw, err := r.assembleRaw(v, first, last, scalarWidth, recWidth)
	if err != nil {
		return nil, opErr("varget", v.name, err)
	}

	dims := v.varyDims()
	if !r.cdr.rowMajor() && len(dims) > 1 {
		for rec := 0; rec*recWidth < len(raw); rec++ {
			chunk := raw[rec*recWidth : (rec+1)*recWidth]
			copy(chunk, codec.ColumnToRow(chunk, scalarWidth, dims))
		}
	}

	nRecs := last - first + 1
	count := nRecs * v.valuesPerRecord()
	numElems := 1
	if v.dataType.IsChar() {
		numElems = int(v.numElems)
	}
	values, err := codec.DecodeValues(raw, v.dataType, numElems, count, r.order)
	if err != nil {
		return nil, opErr("varget", v.name, fmt.Errorf("%w: %v", ErrFormat, err))
	}
	return &Result{
		Name:        v.name,
		DataType:    v.dataType,
		NumElems:    int(v.numElems),
		Values:      values,
		Shape:       append([]int{nRecs}, dims...),
		FirstRecord: first,
	}, nil
}

// assembleRaw concatenates the stored blocks covering [first, last] and
// fills sparse gaps per the variable's sparse-record policy.
func (r *Reader) assembleRaw(v *vdrRecord, first, last, scalarWidth, recWidth int) ([]byte, error) {
	blocks, err := r.collectBlocks(v)
	if err != nil {
		return nil, err
	}

	var cType codec.Compression
	if v.compressed() {
		if v.cprOffset == 0 {
			return nil, fmt.Errorf("%w: compressed variable without a CPR", ErrFormat)
		}
		cpr, err := r.readCPR(v.cprOffset)
		if err != nil {
			return nil, err
		}
		cType = cpr.cType
	}

	padRec, err := r.padRecord(v, scalarWidth, recWidth)
	if err != nil {
		return nil, err
	}

	out := make([]byte, (last-first+1)*recWidth)

	// The filler for gap records starts as the pad record. Under
	// Prev_sparse it becomes a copy of the latest physical record, which
	// may live in a block entirely before the requested range.
	filler := padRec
	if v.sparse == SparsePrevious {
		for _, blk := range blocks {
			if int(blk.last) >= first {
				break
			}
			data, err := r.blockData(v, blk, cType, recWidth)
			if err != nil {
				return nil, err
			}
			filler = append([]byte(nil), data[len(data)-recWidth:]...)
		}
	}

	pos := first
	for _, blk := range blocks {
		if int(blk.last) < first {
			continue
		}
		if int(blk.first) > last {
			break
		}
		data, err := r.blockData(v, blk, cType, recWidth)
		if err != nil {
			return nil, err
		}
		for ; pos < int(blk.first); pos++ {
			if v.sparse == SparseNone {
				return nil, fmt.Errorf("%w: record %d missing from a non-sparse variable", ErrFormat, pos)
			}
			copy(out[(pos-first)*recWidth:], filler)
		}
		lo := pos - int(blk.first)
		hi := int(blk.last)
		if hi > last {
			hi = last
		}
		n := hi - pos + 1
		copy(out[(pos-first)*recWidth:], data[lo*recWidth:(lo+n)*recWidth])
		pos = hi + 1
		if v.sparse == SparsePrevious {
			filler = append(filler[:0:0], data[len(data)-recWidth:]...)
		}
	}
	for ; pos <= last; pos++ {
		if v.sparse == SparseNone {
			return nil, fmt.Errorf("%w: record %d missing from a non-sparse variable", ErrFormat, pos)
		}
		copy(out[(pos-first)*recWidth:], filler)
	}
	return out, nil
}

// padRecord builds one record's worth of pad bytes, in file byte order.
func (r *Reader) padRecord(v *vdrRecord, scalarWidth, recWidth int) ([]byte, error) {
	one := v.padRaw
	if !v.hasPad() || len(one) != scalarWidth {
		enc, err := codec.EncodeScalar(v.dataType.PadValue(), v.dataType, int(v.numElems), r.order)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding default pad: %v", ErrFormat, err)
		}
		one = enc
	}
	return bytes.Repeat(one, recWidth/scalarWidth), nil
}

// collectBlocks flattens the variable's VXR tree into its data blocks in
// record order. Interior entries point at child VXRs; leaves point at VVR
// or CVVR records.
func (r *Reader) collectBlocks(v *vdrRecord) ([]dataBlock, error) {
	var out []dataBlock
	seen := make(map[int64]bool)

	var walk func(at int64) error
	walk = func(at int64) error {
		for at != 0 {
			if seen[at] {
				return fmt.Errorf("%w: VXR chain of %q loops at offset %d", ErrFormat, v.name, at)
			}
			seen[at] = true
			rec, typ, err := r.readRecord(at)
			if err != nil {
				return err
			}
			if typ != recVXR {
				return fmt.Errorf("%w: VXR chain of %q hit record type %d", ErrFormat, v.name, typ)
			}
			vxr, err := r.rc.decodeVXR(rec, at)
			if err != nil {
				return err
			}
			for i := 0; i < int(vxr.nUsed); i++ {
				head := make([]byte, r.rc.headerLen())
				if _, err := r.ra.ReadAt(head, vxr.at[i]); err != nil {
					return fmt.Errorf("%w: VXR entry at %d: %v", ErrFormat, vxr.at[i], err)
				}
				_, childType := r.rc.recordHeader(head)
				switch childType {
				case recVXR:
					if err := walk(vxr.at[i]); err != nil {
						return err
					}
				case recVVR, recCVVR:
					out = append(out, dataBlock{first: vxr.first[i], last: vxr.last[i], at: vxr.at[i]})
				default:
					return fmt.Errorf("%w: VXR entry of %q points at record type %d", ErrFormat, v.name, childType)
				}
			}
			at = vxr.next
		}
		return nil
	}
	if err := walk(v.vxrHead); err != nil {
		return nil, err
	}
	return out, nil
}

// blockData reads one block's record bytes, decompressing CVVRs.
func (r *Reader) blockData(v *vdrRecord, blk dataBlock, cType codec.Compression, recWidth int) ([]byte, error) {
	rec, typ, err := r.readRecord(blk.at)
	if err != nil {
		return nil, err
	}
	var data []byte
	switch typ {
	case recVVR:
		data = r.rc.vvrPayload(rec)
	case recCVVR:
		comp, err := r.rc.cvvrPayload(rec)
		if err != nil {
			return nil, err
		}
		data, err = codec.Decompress(cType, comp)
		if err != nil {
			return nil, fmt.Errorf("%w: records %d..%d of %q: %v", ErrFormat, blk.first, blk.last, v.name, err)
		}
	default:
		return nil, fmt.Errorf("%w: data block of %q has record type %d", ErrFormat, v.name, typ)
	}
	want := int(blk.last-blk.first+1) * recWidth
	if len(data) < want {
		return nil, fmt.Errorf("%w: records %d..%d of %q hold %d bytes, need %d",
			ErrFormat, blk.first, blk.last, v.name, len(data), want)
	}
	return data[:want], nil
}
