package cdf

import (
	"fmt"

	"github.com/heliolib/gocdf/pkg/codec"
)

// recordCodec decodes the version-specific record layouts. The v2 and v3
// paths are deliberately kept as two complete implementations rather than
// one parameterized decoder: the layouts differ in field order and in which
// reserved fields exist, not just in offset width, and each path should be
// auditable against its version of the format on its own.
type recordCodec interface {
	// headerLen is the size of the record header (record size + type).
	headerLen() int
	// recordHeader splits a record header into total size and type code.
	recordHeader(head []byte) (size int64, typ int32)
	decodeCDR(rec []byte) (*cdrRecord, error)
	decodeGDR(rec []byte) (*gdrRecord, error)
	decodeVDR(rec []byte, offset int64, rDimSizes []int32) (*vdrRecord, error)
	decodeADR(rec []byte, offset int64) (*adrRecord, error)
	decodeAEDR(rec []byte, offset int64) (*aedrRecord, error)
	decodeVXR(rec []byte, offset int64) (*vxrRecord, error)
	decodeCPR(rec []byte) (*cprRecord, error)
	decodeCCR(rec []byte) (*ccrRecord, error)
	// vvrPayload returns the record data of an uncompressed VVR.
	vvrPayload(rec []byte) []byte
	// cvvrPayload returns the still-compressed data of a CVVR.
	cvvrPayload(rec []byte) ([]byte, error)
}

// v3Codec decodes CDF v3 records: 8-byte record sizes and offsets, 256-byte
// name fields.
type v3Codec struct{}

func (v3Codec) headerLen() int { return 12 }

func (v3Codec) recordHeader(head []byte) (int64, int32) {
	c := cursor{buf: head}
	size := c.i64()
	typ := c.i32()
	return size, typ
}

func (v3Codec) decodeCDR(rec []byte) (*cdrRecord, error) {
	c := cursor{buf: rec, pos: 12}
	r := &cdrRecord{}
	r.gdrOffset = c.i64()
	r.version = c.i32()
	r.release = c.i32()
	r.encoding = codec.Encoding(c.i32())
	r.flags = c.i32()
	c.skip(8) // rfuA, rfuB
	r.increment = c.i32()
	c.skip(8) // identifier, rfuE
	r.copyright = c.str(256)
	return r, c.err
}

func (v3Codec) decodeGDR(rec []byte) (*gdrRecord, error) {
	c := cursor{buf: rec, pos: 12}
	r := &gdrRecord{}
	r.rVDRHead = c.i64()
	r.zVDRHead = c.i64()
	r.adrHead = c.i64()
	r.eof = c.i64()
	r.nrVars = c.i32()
	r.numAttr = c.i32()
	r.rMaxRec = c.i32()
	rNumDims := c.i32()
	r.nzVars = c.i32()
	c.skip(8) // UIRhead
	c.skip(4) // rfuC
	r.leapSecondLastUpdated = c.i32()
	c.skip(4) // rfuE
	if rNumDims < 0 || rNumDims > 128 {
		return nil, fmt.Errorf("%w: GDR claims %d r-dimensions", ErrFormat, rNumDims)
	}
	r.rDimSizes = make([]int32, rNumDims)
	for i := range r.rDimSizes {
		r.rDimSizes[i] = c.i32()
	}
	return r, c.err
}

func (v3Codec) decodeVDR(rec []byte, offset int64, rDimSizes []int32) (*vdrRecord, error) {
	c := cursor{buf: rec, pos: 8}
	typ := c.i32()
	r := &vdrRecord{offset: offset, z: typ == recZVDR}
	r.next = c.i64()
	r.dataType = codec.DataType(c.i32())
	r.maxRec = c.i32()
	r.vxrHead = c.i64()
	r.vxrTail = c.i64()
	r.flags = c.i32()
	r.sparse = SparseMode(c.i32())
	c.skip(12) // rfuB, rfuC, rfuF
	r.numElems = c.i32()
	r.num = c.i32()
	r.cprOffset = c.i64()
	r.blockingFactor = c.i32()
	r.name = c.str(256)
	return finishVDR(r, &c, rDimSizes)
}

func (v3Codec) decodeADR(rec []byte, offset int64) (*adrRecord, error) {
	c := cursor{buf: rec, pos: 12}
	r := &adrRecord{offset: offset}
	r.next = c.i64()
	r.agrEDRHead = c.i64()
	r.scope = c.i32()
	r.num = c.i32()
	r.ngrEntries = c.i32()
	r.maxGrEntry = c.i32()
	c.skip(4) // rfuA
	r.azEDRHead = c.i64()
	r.nzEntries = c.i32()
	r.maxZEntry = c.i32()
	c.skip(4) // rfuE
	r.name = c.str(256)
	return r, c.err
}

func (v3Codec) decodeAEDR(rec []byte, offset int64) (*aedrRecord, error) {
	c := cursor{buf: rec, pos: 12}
	r := &aedrRecord{offset: offset}
	r.next = c.i64()
	r.attrNum = c.i32()
	r.dataType = codec.DataType(c.i32())
	r.num = c.i32()
	r.numElems = c.i32()
	c.skip(20) // NumStrings, rfuB, rfuC, rfuD, rfuE
	r.valueRaw = c.rest()
	return r, c.err
}

func (v3Codec) decodeVXR(rec []byte, offset int64) (*vxrRecord, error) {
	c := cursor{buf: rec, pos: 12}
	r := &vxrRecord{offset: offset}
	r.next = c.i64()
	r.nEntries = c.i32()
	r.nUsed = c.i32()
	if r.nEntries < 0 || r.nUsed < 0 || r.nUsed > r.nEntries {
		return nil, fmt.Errorf("%w: VXR entry counts %d/%d", ErrFormat, r.nUsed, r.nEntries)
	}
	n := int(r.nEntries)
	r.first = make([]int32, n)
	for i := range r.first {
		r.first[i] = c.i32()
	}
	r.last = make([]int32, n)
	for i := range r.last {
		r.last[i] = c.i32()
	}
	r.at = make([]int64, n)
	for i := range r.at {
		r.at[i] = c.i64()
	}
	return r, c.err
}

func (v3Codec) decodeCPR(rec []byte) (*cprRecord, error) {
	return decodeCPRCommon(rec, 12)
}

func (v3Codec) decodeCCR(rec []byte) (*ccrRecord, error) {
	c := cursor{buf: rec, pos: 12}
	r := &ccrRecord{}
	r.cprOffset = c.i64()
	r.uSize = c.i64()
	c.skip(4) // rfuA
	r.data = c.rest()
	return r, c.err
}

func (v3Codec) vvrPayload(rec []byte) []byte { return rec[12:] }

func (v3Codec) cvvrPayload(rec []byte) ([]byte, error) {
	c := cursor{buf: rec, pos: 12}
	c.skip(4) // rfuA
	size := c.i64()
	data := c.bytesN(int(size))
	return data, c.err
}

// finishVDR decodes the trailing dimension spec and pad value shared by the
// two VDR layouts.
func finishVDR(r *vdrRecord, c *cursor, rDimSizes []int32) (*vdrRecord, error) {
	if r.z {
		zNumDims := c.i32()
		if zNumDims < 0 || zNumDims > 128 {
			return nil, fmt.Errorf("%w: zVDR %q claims %d dimensions", ErrFormat, r.name, zNumDims)
		}
		r.dimSizes = make([]int32, zNumDims)
		for i := range r.dimSizes {
			r.dimSizes[i] = c.i32()
		}
	} else {
		r.dimSizes = append([]int32(nil), rDimSizes...)
	}
	r.dimVarys = make([]int32, len(r.dimSizes))
	for i := range r.dimVarys {
		r.dimVarys[i] = c.i32()
	}
	if !r.dataType.Valid() {
		return nil, fmt.Errorf("%w: VDR %q has unknown data type code %d", ErrFormat, r.name, int32(r.dataType))
	}
	if r.hasPad() {
		width, err := r.dataType.Size(int(r.numElems))
		if err != nil {
			return nil, fmt.Errorf("%w: VDR %q: %v", ErrFormat, r.name, err)
		}
		r.padRaw = c.bytesN(width)
	}
	return r, c.err
}

func decodeCPRCommon(rec []byte, headerLen int) (*cprRecord, error) {
	c := cursor{buf: rec, pos: headerLen}
	r := &cprRecord{}
	r.cType = codec.Compression(c.i32())
	c.skip(4) // rfuA
	pCount := c.i32()
	if pCount < 0 || pCount > 16 {
		return nil, fmt.Errorf("%w: CPR claims %d parameters", ErrFormat, pCount)
	}
	r.parms = make([]int32, pCount)
	for i := range r.parms {
		r.parms[i] = c.i32()
	}
	return r, c.err
}
