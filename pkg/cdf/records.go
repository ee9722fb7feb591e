package cdf

import (
	"github.com/heliolib/gocdf/pkg/codec"
)

// The file is a chain of records located purely by byte offset. Nothing in
// this package builds an object graph out of them: every query re-walks the
// relevant chain from the head offsets cached at open, and the writer
// patches fixed-width pointer fields of earlier records in place. Offsets
// are the only durable identity a record has.

// Magic header values. The first word picks the format version, the second
// says whether the body is wrapped in a whole-file CCR.
const (
	magicV3           = 0xCDF30001
	magicV2           = 0xCDF26002
	magicUncompressed = 0x0000FFFF
	magicCompressed   = 0xCCCC0001
)

// Record type codes.
const (
	recCDR    = 1
	recGDR    = 2
	recRVDR   = 3
	recADR    = 4
	recAgrEDR = 5
	recVXR    = 6
	recVVR    = 7
	recZVDR   = 8
	recAzEDR  = 9
	recCCR    = 10
	recCPR    = 11
	recSPR    = 12
	recCVVR   = 13
)

// CDR flag bits.
const (
	cdrFlagRowMajor    = 1 << 0
	cdrFlagSingleFile  = 1 << 1
	cdrFlagChecksum    = 1 << 2
	cdrFlagChecksumMD5 = 1 << 3
)

// VDR flag bits.
const (
	vdrFlagRecVary    = 1 << 0
	vdrFlagPadValue   = 1 << 1
	vdrFlagCompressed = 1 << 2
)

// Attribute scopes.
const (
	scopeGlobal   = 1
	scopeVariable = 2
)

// SparseMode is a variable's sparse-record policy.
type SparseMode int32

const (
	// SparseNone stores every record physically.
	SparseNone SparseMode = 0
	// SparsePad fills virtual records with the variable's pad value.
	SparsePad SparseMode = 1
	// SparsePrevious fills virtual records with a copy of the nearest
	// preceding physical record, falling back to the pad value when no
	// physical record precedes them.
	SparsePrevious SparseMode = 2
)

func (s SparseMode) String() string {
	switch s {
	case SparseNone:
		return "No_sparse"
	case SparsePad:
		return "Pad_sparse"
	case SparsePrevious:
		return "Prev_sparse"
	}
	return "Sparse_<unknown>"
}

// Decoded record contents. Pointer fields keep their on-disk byte offsets.

type cdrRecord struct {
	gdrOffset                   int64
	version, release, increment int32
	encoding                    codec.Encoding
	flags                       int32
	copyright                   string
}

func (c *cdrRecord) rowMajor() bool   { return c.flags&cdrFlagRowMajor != 0 }
func (c *cdrRecord) singleFile() bool { return c.flags&cdrFlagSingleFile != 0 }
func (c *cdrRecord) checksummed() bool {
	return c.flags&cdrFlagChecksum != 0
}

type gdrRecord struct {
	rVDRHead, zVDRHead, adrHead int64
	eof                         int64
	nrVars, numAttr             int32
	rMaxRec                     int32
	nzVars                      int32
	rDimSizes                   []int32
	leapSecondLastUpdated       int32
}

type vdrRecord struct {
	offset         int64 // where this VDR lives, for variable numbering checks
	next           int64
	dataType       codec.DataType
	maxRec         int32
	vxrHead        int64
	vxrTail        int64
	flags          int32
	sparse         SparseMode
	numElems       int32
	num            int32
	cprOffset      int64
	blockingFactor int32
	name           string
	dimSizes       []int32
	dimVarys       []int32
	padRaw         []byte
	z              bool
}

func (v *vdrRecord) recVary() bool    { return v.flags&vdrFlagRecVary != 0 }
func (v *vdrRecord) hasPad() bool     { return v.flags&vdrFlagPadValue != 0 }
func (v *vdrRecord) compressed() bool { return v.flags&vdrFlagCompressed != 0 }

// valuesPerRecord is the number of values in one record after dropping
// non-varying dimensions.
func (v *vdrRecord) valuesPerRecord() int {
	n := 1
	for i, d := range v.dimSizes {
		if v.dimVarys[i] != 0 {
			n *= int(d)
		}
	}
	return n
}

// varyDims lists the sizes of the varying dimensions only.
func (v *vdrRecord) varyDims() []int {
	var dims []int
	for i, d := range v.dimSizes {
		if v.dimVarys[i] != 0 {
			dims = append(dims, int(d))
		}
	}
	return dims
}

type adrRecord struct {
	offset                 int64
	next                   int64
	agrEDRHead, azEDRHead  int64
	scope, num             int32
	ngrEntries, maxGrEntry int32
	nzEntries, maxZEntry   int32
	name                   string
}

type aedrRecord struct {
	offset   int64
	next     int64
	attrNum  int32
	dataType codec.DataType
	num      int32
	numElems int32
	valueRaw []byte
}

type vxrRecord struct {
	offset   int64
	next     int64
	nEntries int32
	nUsed    int32
	first    []int32
	last     []int32
	at       []int64
}

type cprRecord struct {
	cType codec.Compression
	parms []int32
}

func (c *cprRecord) level() int {
	if len(c.parms) > 0 {
		return int(c.parms[0])
	}
	return 0
}

type ccrRecord struct {
	cprOffset int64
	uSize     int64
	data      []byte
}
