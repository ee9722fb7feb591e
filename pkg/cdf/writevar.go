package cdf

import (
	"fmt"

	"github.com/heliolib/gocdf/pkg/codec"
)

const (
	// vxrEntryCap is the number of entry slots allocated per VXR.
	vxrEntryCap = 7
	// vxrTopFanout is the longest VXR sibling chain left unindexed. A
	// level with more nodes gets a parent level instead.
	vxrTopFanout = 3
	// defaultBlockBytes sizes data blocks when no blocking factor is
	// given.
	defaultBlockBytes = 64 << 10
)

// VarSpec declares a variable for WriteVar. Variables are z variables
// unless RVariable is set.
type VarSpec struct {
	Name     string
	DataType codec.DataType
	// NumElems is the string length for character types. Other types
	// leave it zero.
	NumElems int
	// Dims lists the z variable's dimension sizes. R variables leave it
	// nil and share the file's RDimSizes instead.
	Dims []int
	// RVariable stores the variable on the rVDR chain with the file-wide
	// r dimensions from WriterOptions.RDimSizes.
	RVariable bool
	// DimVarys marks which dimensions vary per record; nil means all do.
	DimVarys []bool
	// NoRecVary stores a single physical record shared by every virtual
	// record.
	NoRecVary bool
	Sparse    SparseMode
	// Compression compresses data blocks individually. A block that does
	// not shrink is stored raw.
	Compression      codec.Compression
	CompressionLevel int
	// BlockingFactor is the record count per data block. Zero derives
	// one from the record width.
	BlockingFactor int
	// Pad overrides the data type's default pad value.
	Pad interface{}
}

// recRun is a span of consecutive record numbers backed by a slice of the
// encoded values, addressed by ordinal position.
type recRun struct {
	first   int32
	count   int
	ordinal int
}

// WriteVar writes a complete variable whose records are numbered 0..n-1.
// values is a flat row-major typed slice; its length fixes the record
// count.
func (w *Writer) WriteVar(spec VarSpec, values interface{}) error {
	if err := w.guard("varput"); err != nil {
		return err
	}
	v, raw, nRecs, err := w.prepareVar(spec, values)
	if err != nil {
		return opErr("varput", spec.Name, err)
	}
	var runs []recRun
	if nRecs > 0 {
		runs = []recRun{{first: 0, count: nRecs}}
	}
	if err := w.writeVarData(v, spec, raw, runs); err != nil {
		return opErr("varput", spec.Name, err)
	}
	return nil
}

// WriteVarRecords writes a sparse variable: values holds one record per
// entry of recNums, which must be strictly increasing. Gaps are left to the
// variable's sparse-record policy.
func (w *Writer) WriteVarRecords(spec VarSpec, recNums []int, values interface{}) error {
	if err := w.guard("varput"); err != nil {
		return err
	}
	if spec.Sparse == SparseNone {
		return opErr("varput", spec.Name, fmt.Errorf("%w: explicit record numbers need a sparse variable", ErrUsage))
	}
	if spec.NoRecVary {
		return opErr("varput", spec.Name, fmt.Errorf("%w: a non-varying variable cannot be sparse", ErrUsage))
	}
	runs, err := coalesceRuns(recNums)
	if err != nil {
		return opErr("varput", spec.Name, err)
	}
	v, raw, nRecs, err := w.prepareVar(spec, values)
	if err != nil {
		return opErr("varput", spec.Name, err)
	}
	if nRecs != len(recNums) {
		return opErr("varput", spec.Name,
			fmt.Errorf("%w: %d records of values for %d record numbers", ErrUsage, nRecs, len(recNums)))
	}
	if len(runs) > 0 {
		v.maxRec = runs[len(runs)-1].first + int32(runs[len(runs)-1].count) - 1
	}
	if err := w.writeVarData(v, spec, raw, runs); err != nil {
		return opErr("varput", spec.Name, err)
	}
	return nil
}

func coalesceRuns(recNums []int) ([]recRun, error) {
	var runs []recRun
	for i, n := range recNums {
		if n < 0 {
			return nil, fmt.Errorf("%w: record number %d", ErrUsage, n)
		}
		if i > 0 && n <= recNums[i-1] {
			return nil, fmt.Errorf("%w: record numbers must be strictly increasing", ErrUsage)
		}
		if len(runs) > 0 && runs[len(runs)-1].first+int32(runs[len(runs)-1].count) == int32(n) {
			runs[len(runs)-1].count++
			continue
		}
		runs = append(runs, recRun{first: int32(n), count: 1, ordinal: i})
	}
	return runs, nil
}

// prepareVar validates the spec, encodes the values into file byte order
// and storage majority, and writes the variable's CPR and VDR.
func (w *Writer) prepareVar(spec VarSpec, values interface{}) (*varState, []byte, int, error) {
	if spec.Name == "" {
		return nil, nil, 0, fmt.Errorf("%w: variable needs a name", ErrUsage)
	}
	if _, dup := w.vars[spec.Name]; dup {
		return nil, nil, 0, fmt.Errorf("%w: variable %q already written", ErrUsage, spec.Name)
	}
	if !spec.DataType.Valid() {
		return nil, nil, 0, fmt.Errorf("%w: data type code %d", ErrUsage, int32(spec.DataType))
	}
	numElems := spec.NumElems
	if spec.DataType.IsChar() {
		if numElems <= 0 {
			return nil, nil, 0, fmt.Errorf("%w: character variables need NumElems", ErrUsage)
		}
	} else if numElems == 0 {
		numElems = 1
	} else if numElems != 1 {
		return nil, nil, 0, fmt.Errorf("%w: NumElems must be 1 for %s", ErrUsage, spec.DataType)
	}
	dims := spec.Dims
	if spec.RVariable {
		if len(spec.Dims) != 0 {
			return nil, nil, 0, fmt.Errorf("%w: r variables take their dimensions from the file's RDimSizes", ErrUsage)
		}
		dims = w.opts.RDimSizes
	}
	if spec.DimVarys != nil && len(spec.DimVarys) != len(dims) {
		return nil, nil, 0, fmt.Errorf("%w: %d dimensions but %d variances", ErrUsage, len(dims), len(spec.DimVarys))
	}
	if spec.Sparse != SparseNone && spec.Sparse != SparsePad && spec.Sparse != SparsePrevious {
		return nil, nil, 0, fmt.Errorf("%w: sparse mode %d", ErrUsage, int32(spec.Sparse))
	}

	num := int32(len(w.zVars))
	if spec.RVariable {
		num = int32(len(w.rVars))
	}
	v := &varState{
		name:     spec.Name,
		num:      num,
		z:        !spec.RVariable,
		dataType: spec.DataType,
		numElems: int32(numElems),
		recVary:  !spec.NoRecVary,
		sparse:   spec.Sparse,
		maxRec:   -1,
	}
	v.dims = make([]int32, len(dims))
	v.varys = make([]int32, len(dims))
	vpr := 1
	var varyDims []int
	for i, d := range dims {
		if d <= 0 {
			return nil, nil, 0, fmt.Errorf("%w: dimension size %d", ErrUsage, d)
		}
		v.dims[i] = int32(d)
		if spec.DimVarys == nil || spec.DimVarys[i] {
			v.varys[i] = -1
			vpr *= d
			varyDims = append(varyDims, d)
		}
	}

	scalarWidth, err := spec.DataType.Size(numElems)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	v.scalarWidth = scalarWidth
	v.recWidth = scalarWidth * vpr

	count := codec.ValueCount(values)
	if count < 0 {
		return nil, nil, 0, fmt.Errorf("%w: cannot store %T values", ErrUsage, values)
	}
	if count%vpr != 0 {
		return nil, nil, 0, fmt.Errorf("%w: %d values do not fill whole records of %d", ErrUsage, count, vpr)
	}
	nRecs := count / vpr
	if spec.NoRecVary && nRecs > 1 {
		return nil, nil, 0, fmt.Errorf("%w: a non-varying variable holds one record, got %d", ErrUsage, nRecs)
	}

	raw, err := codec.EncodeValues(values, spec.DataType, numElems, w.order)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if w.opts.Majority == codec.ColumnMajority && len(varyDims) > 1 {
		for rec := 0; rec < nRecs; rec++ {
			chunk := raw[rec*v.recWidth : (rec+1)*v.recWidth]
			copy(chunk, codec.RowToColumn(chunk, scalarWidth, varyDims))
		}
	}

	var cprAt int64
	if spec.Compression != codec.NoCompression {
		cprAt, err = w.writeCPR(spec.Compression, spec.CompressionLevel)
		if err != nil {
			return nil, nil, 0, err
		}
	}

	if nRecs > 0 {
		v.maxRec = int32(nRecs - 1)
	}
	if err := w.writeVDR(v, spec, cprAt); err != nil {
		return nil, nil, 0, err
	}
	w.vars[v.name] = v
	if v.z {
		w.zVars = append(w.zVars, v)
	} else {
		w.rVars = append(w.rVars, v)
	}
	return v, raw, nRecs, nil
}

func (w *Writer) writeCPR(c codec.Compression, level int) (int64, error) {
	if c != codec.GzipCompression && c != codec.RLECompression {
		return 0, fmt.Errorf("%w: cannot write compression scheme %s", ErrUsage, c)
	}
	parm := int32(level)
	if c == codec.GzipCompression && parm <= 0 {
		parm = 6
	}
	if c == codec.RLECompression {
		parm = 0
	}
	var b builder
	b.i32(int32(c))
	b.i32(0) // rfuA
	b.i32(1) // pCount
	b.i32(parm)
	return w.appendRecord(b.record(recCPR))
}

func (w *Writer) writeVDR(v *varState, spec VarSpec, cprAt int64) error {
	flags := int32(0)
	if v.recVary {
		flags |= vdrFlagRecVary
	}
	var padRaw []byte
	if spec.Pad != nil {
		enc, err := codec.EncodeScalar(spec.Pad, v.dataType, int(v.numElems), w.order)
		if err != nil {
			return fmt.Errorf("%w: pad value: %v", ErrUsage, err)
		}
		padRaw = enc
		flags |= vdrFlagPadValue
	}
	if cprAt != 0 {
		flags |= vdrFlagCompressed
	}

	blocking := int32(spec.BlockingFactor)
	if blocking <= 0 {
		blocking = int32(blockRecords(spec, v.recWidth))
	}

	var b builder
	b.i64(0) // VDR next
	b.i32(int32(v.dataType))
	b.i32(v.maxRec)
	b.i64(0) // VXR head, patched after the data is placed
	b.i64(0) // VXR tail
	b.i32(flags)
	b.i32(int32(v.sparse))
	b.i32(0)  // rfuB
	b.i32(-1) // rfuC
	b.i32(-1) // rfuF
	b.i32(v.numElems)
	b.i32(v.num)
	b.i64(cprAt)
	b.i32(blocking)
	b.strN(v.name, 256)
	// An rVDR carries no dimension list of its own; its DimVarys follow
	// the GDR's r dimensions.
	if v.z {
		b.i32(int32(len(v.dims)))
		for _, d := range v.dims {
			b.i32(d)
		}
	}
	for _, vy := range v.varys {
		b.i32(vy)
	}
	b.raw(padRaw)
	recType := int32(recZVDR)
	chain := w.zVars
	if !v.z {
		recType = recRVDR
		chain = w.rVars
	}
	at, err := w.appendRecord(b.record(recType))
	if err != nil {
		return err
	}
	v.at = at

	if n := len(chain); n > 0 {
		return w.patchI64(chain[n-1].at+12, at)
	}
	return nil
}

// blockRecords derives how many records go into one data block.
func blockRecords(spec VarSpec, recWidth int) int {
	if spec.NoRecVary {
		return 1
	}
	n := defaultBlockBytes / recWidth
	if n < 1 {
		n = 1
	}
	return n
}

// writeVarData lays the encoded records out as VVR and CVVR blocks and
// indexes them with a VXR tree, then patches the VDR to point at it all.
func (w *Writer) writeVarData(v *varState, spec VarSpec, raw []byte, runs []recRun) error {
	if len(runs) == 0 {
		return nil
	}
	blockRecs := spec.BlockingFactor
	if blockRecs <= 0 {
		blockRecs = blockRecords(spec, v.recWidth)
	}

	var blocks []vxrNode
	for _, run := range runs {
		for done := 0; done < run.count; done += blockRecs {
			n := run.count - done
			if n > blockRecs {
				n = blockRecs
			}
			ord := run.ordinal + done
			data := raw[ord*v.recWidth : (ord+n)*v.recWidth]
			at, err := w.writeDataBlock(spec, data)
			if err != nil {
				return err
			}
			first := run.first + int32(done)
			blocks = append(blocks, vxrNode{first: first, last: first + int32(n) - 1, at: at})
		}
	}

	head, tail, err := w.writeVXRTree(blocks)
	if err != nil {
		return err
	}
	if err := w.patchI32(v.at+24, v.maxRec); err != nil {
		return err
	}
	if err := w.patchI64(v.at+28, head); err != nil {
		return err
	}
	return w.patchI64(v.at+36, tail)
}

// writeDataBlock stores one block, compressed only when that actually
// shrinks it.
func (w *Writer) writeDataBlock(spec VarSpec, data []byte) (int64, error) {
	if spec.Compression != codec.NoCompression {
		comp, _, err := compressBlock(spec.Compression, spec.CompressionLevel, data)
		if err != nil {
			return 0, err
		}
		if len(comp) < len(data) {
			var b builder
			b.i32(0) // rfuA
			b.i64(int64(len(comp)))
			b.raw(comp)
			return w.appendRecord(b.record(recCVVR))
		}
	}
	var b builder
	b.raw(data)
	return w.appendRecord(b.record(recVVR))
}

// vxrNode is a finished VXR entry: a record span and the offset of the data
// block or child VXR that holds it.
type vxrNode struct {
	first, last int32
	at          int64
}

// writeVXRTree indexes the data blocks bottom-up. Each VXR holds up to
// seven entries; once a level needs more than three sibling VXRs it gets a
// parent level, so a long chain never forms and lookups stay logarithmic.
func (w *Writer) writeVXRTree(blocks []vxrNode) (head, tail int64, err error) {
	level := blocks
	for {
		var nodes []vxrNode
		for lo := 0; lo < len(level); lo += vxrEntryCap {
			hi := lo + vxrEntryCap
			if hi > len(level) {
				hi = len(level)
			}
			at, err := w.writeVXR(level[lo:hi])
			if err != nil {
				return 0, 0, err
			}
			nodes = append(nodes, vxrNode{first: level[lo].first, last: level[hi-1].last, at: at})
		}
		if len(nodes) <= vxrTopFanout {
			for i := 1; i < len(nodes); i++ {
				if err := w.patchI64(nodes[i-1].at+12, nodes[i].at); err != nil {
					return 0, 0, err
				}
			}
			return nodes[0].at, nodes[len(nodes)-1].at, nil
		}
		// Too many siblings: these become entries of the next level up
		// and keep next pointers of zero.
		level = nodes
	}
}

func (w *Writer) writeVXR(entries []vxrNode) (int64, error) {
	var b builder
	b.i64(0) // VXR next
	b.i32(vxrEntryCap)
	b.i32(int32(len(entries)))
	for i := 0; i < vxrEntryCap; i++ {
		if i < len(entries) {
			b.i32(entries[i].first)
		} else {
			b.i32(-1)
		}
	}
	for i := 0; i < vxrEntryCap; i++ {
		if i < len(entries) {
			b.i32(entries[i].last)
		} else {
			b.i32(-1)
		}
	}
	for i := 0; i < vxrEntryCap; i++ {
		if i < len(entries) {
			b.i64(entries[i].at)
		} else {
			b.i64(-1)
		}
	}
	return w.appendRecord(b.record(recVXR))
}
