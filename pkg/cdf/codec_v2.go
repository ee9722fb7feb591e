package cdf

import (
	"fmt"

	"github.com/heliolib/gocdf/pkg/codec"
)

// v2Codec decodes CDF v2.x records: 4-byte record sizes and offsets, 64-byte
// name fields. The reader only reads v2 files; the writer always emits v3.
type v2Codec struct{}

func (v2Codec) headerLen() int { return 8 }

func (v2Codec) recordHeader(head []byte) (int64, int32) {
	c := cursor{buf: head}
	size := int64(c.i32())
	typ := c.i32()
	return size, typ
}

func (v2Codec) decodeCDR(rec []byte) (*cdrRecord, error) {
	c := cursor{buf: rec, pos: 8}
	r := &cdrRecord{}
	r.gdrOffset = int64(c.i32())
	r.version = c.i32()
	r.release = c.i32()
	r.encoding = codec.Encoding(c.i32())
	r.flags = c.i32()
	c.skip(8) // rfuA, rfuB
	r.increment = c.i32()
	c.skip(8) // rfuD, rfuE
	r.copyright = c.str(len(rec) - c.pos)
	return r, c.err
}

func (v2Codec) decodeGDR(rec []byte) (*gdrRecord, error) {
	c := cursor{buf: rec, pos: 8}
	r := &gdrRecord{}
	r.rVDRHead = int64(c.i32())
	r.zVDRHead = int64(c.i32())
	r.adrHead = int64(c.i32())
	r.eof = int64(c.i32())
	r.nrVars = c.i32()
	r.numAttr = c.i32()
	r.rMaxRec = c.i32()
	rNumDims := c.i32()
	r.nzVars = c.i32()
	c.skip(4)  // UIRhead
	c.skip(12) // rfuC, rfuD, rfuE
	if rNumDims < 0 || rNumDims > 128 {
		return nil, fmt.Errorf("%w: GDR claims %d r-dimensions", ErrFormat, rNumDims)
	}
	r.rDimSizes = make([]int32, rNumDims)
	for i := range r.rDimSizes {
		r.rDimSizes[i] = c.i32()
	}
	return r, c.err
}

func (v2Codec) decodeVDR(rec []byte, offset int64, rDimSizes []int32) (*vdrRecord, error) {
	c := cursor{buf: rec, pos: 4}
	typ := c.i32()
	r := &vdrRecord{offset: offset, z: typ == recZVDR}
	r.next = int64(c.i32())
	r.dataType = codec.DataType(c.i32())
	r.maxRec = c.i32()
	r.vxrHead = int64(c.i32())
	r.vxrTail = int64(c.i32())
	r.flags = c.i32()
	r.sparse = SparseMode(c.i32())
	c.skip(12) // rfuB, rfuC, rfuF
	r.numElems = c.i32()
	r.num = c.i32()
	r.cprOffset = int64(c.i32())
	r.blockingFactor = c.i32()
	r.name = c.str(64)
	return finishVDR(r, &c, rDimSizes)
}

func (v2Codec) decodeADR(rec []byte, offset int64) (*adrRecord, error) {
	c := cursor{buf: rec, pos: 8}
	r := &adrRecord{offset: offset}
	r.next = int64(c.i32())
	r.agrEDRHead = int64(c.i32())
	r.scope = c.i32()
	r.num = c.i32()
	r.ngrEntries = c.i32()
	r.maxGrEntry = c.i32()
	c.skip(4) // rfuA
	r.azEDRHead = int64(c.i32())
	r.nzEntries = c.i32()
	r.maxZEntry = c.i32()
	c.skip(4) // rfuE
	r.name = c.str(64)
	return r, c.err
}

func (v2Codec) decodeAEDR(rec []byte, offset int64) (*aedrRecord, error) {
	c := cursor{buf: rec, pos: 8}
	r := &aedrRecord{offset: offset}
	r.next = int64(c.i32())
	r.attrNum = c.i32()
	r.dataType = codec.DataType(c.i32())
	r.num = c.i32()
	r.numElems = c.i32()
	c.skip(20) // NumStrings, rfuB, rfuC, rfuD, rfuE
	r.valueRaw = c.rest()
	return r, c.err
}

func (v2Codec) decodeVXR(rec []byte, offset int64) (*vxrRecord, error) {
	c := cursor{buf: rec, pos: 8}
	r := &vxrRecord{offset: offset}
	r.next = int64(c.i32())
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
		r.at[i] = int64(c.i32())
	}
	return r, c.err
}

func (v2Codec) decodeCPR(rec []byte) (*cprRecord, error) {
	return decodeCPRCommon(rec, 8)
}

func (v2Codec) decodeCCR(rec []byte) (*ccrRecord, error) {
	c := cursor{buf: rec, pos: 8}
	r := &ccrRecord{}
	r.cprOffset = int64(c.i32())
	r.uSize = int64(c.i32())
	c.skip(4) // rfuA
	r.data = c.rest()
	return r, c.err
}

func (v2Codec) vvrPayload(rec []byte) []byte { return rec[8:] }

func (v2Codec) cvvrPayload(rec []byte) ([]byte, error) {
	c := cursor{buf: rec, pos: 8}
	c.skip(4) // rfuA
	size := int64(c.i32())
	data := c.bytesN(int(size))
	return data, c.err
}
