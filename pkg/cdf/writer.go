package cdf

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/heliolib/gocdf/pkg/codec"
	"github.com/heliolib/gocdf/pkg/epoch"
)

const cdfCopyright = "\nCommon Data Format (CDF)\nhttps://cdf.gsfc.nasa.gov\n" +
	"Space Physics Data Facility\nNASA/Goddard Space Flight Center\n" +
	"Greenbelt, Maryland 20771 USA\n"

// WriterOptions configures NewWriter. The zero value writes an uncompressed
// column-major file in the host's native encoding with an MD5 checksum.
type WriterOptions struct {
	// Overwrite allows replacing an existing file. Without it NewWriter
	// fails when the path already exists.
	Overwrite bool
	// Encoding selects the byte order of value payloads. Zero means the
	// host's native encoding.
	Encoding codec.Encoding
	// Majority selects the on-disk storage order of array values. Zero
	// means ColumnMajority. Values handed to WriteVar are always
	// row-major; the writer transposes them when needed.
	Majority codec.Majority
	// RDimSizes declares the file-wide r-variable dimension sizes. Every
	// r variable shares them; z variables carry their own.
	RDimSizes []int
	// NoChecksum drops the trailing MD5.
	NoChecksum bool
	// Compression, when not NoCompression, wraps the entire file in a
	// CCR on Close.
	Compression      codec.Compression
	CompressionLevel int
}

type entryRef struct {
	num int32
	at  int64
}

type attrState struct {
	name  string
	num   int32
	scope int32
	at    int64
	// Entry chains stay sorted by entry number; inserts splice on disk.
	grEntries []entryRef
	zEntries  []entryRef
}

type varState struct {
	name        string
	num         int32
	z           bool
	at          int64
	dataType    codec.DataType
	numElems    int32
	dims        []int32
	varys       []int32
	recVary     bool
	sparse      SparseMode
	maxRec      int32
	scalarWidth int
	recWidth    int
}

// Writer builds a new version 3 CDF file. Variables are written as z
// variables unless their spec asks for an r variable; attributes and their
// entries may be added in any order relative to variables. Close finalizes
// the file and must be called.
type Writer struct {
	f     *os.File
	path  string
	opts  WriterOptions
	order binary.ByteOrder
	eof   int64

	cdrAt int64
	gdrAt int64

	attrs    map[string]*attrState
	attrList []*attrState
	vars     map[string]*varState
	rVars    []*varState
	zVars    []*varState

	epoch  *epoch.Codec
	closed bool
}

// NewWriter creates path and writes the file's magic, CDR and GDR. The
// file on disk stays internally consistent only after Close.
func NewWriter(path string, opts WriterOptions) (*Writer, error) {
	if opts.Encoding == 0 {
		opts.Encoding = codec.NativeEncoding()
	}
	if opts.Majority == 0 {
		opts.Majority = codec.ColumnMajority
	}
	for _, d := range opts.RDimSizes {
		if d <= 0 {
			return nil, opErr("create", path, fmt.Errorf("%w: r dimension size %d", ErrUsage, d))
		}
	}
	if !opts.Encoding.Supported() {
		return nil, opErr("create", path, fmt.Errorf("%w: cannot write encoding %s", ErrUsage, opts.Encoding))
	}
	order, err := opts.Encoding.ByteOrder()
	if err != nil {
		return nil, opErr("create", path, fmt.Errorf("%w: %v", ErrUsage, err))
	}

	flags := os.O_RDWR | os.O_CREATE | os.O_EXCL
	if opts.Overwrite {
		flags = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, opErr("create", path, err)
	}

	w := &Writer{
		f:     f,
		path:  path,
		opts:  opts,
		order: order,
		attrs: make(map[string]*attrState),
		vars:  make(map[string]*varState),
		epoch: epoch.NewCodec(),
	}
	if err := w.writeHeader(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, opErr("create", path, err)
	}
	return w, nil
}

func (w *Writer) writeHeader() error {
	var magic [8]byte
	binary.BigEndian.PutUint32(magic[:4], magicV3)
	binary.BigEndian.PutUint32(magic[4:], magicUncompressed)
	if _, err := w.f.Write(magic[:]); err != nil {
		return err
	}
	w.eof = 8

	flags := int32(cdrFlagSingleFile)
	if w.opts.Majority == codec.RowMajority {
		flags |= cdrFlagRowMajor
	}
	if !w.opts.NoChecksum {
		flags |= cdrFlagChecksum | cdrFlagChecksumMD5
	}

	var cdr builder
	cdr.i64(0) // GDR offset, patched below
	cdr.i32(3) // version
	cdr.i32(9) // release
	cdr.i32(int32(w.opts.Encoding))
	cdr.i32(flags)
	cdr.i32(0) // rfuA
	cdr.i32(0) // rfuB
	cdr.i32(0) // increment
	cdr.i32(3) // identifier
	cdr.i32(-1)
	cdr.strN(cdfCopyright, 256)
	cdrAt, err := w.appendRecord(cdr.record(recCDR))
	if err != nil {
		return err
	}
	w.cdrAt = cdrAt

	w.gdrAt = w.eof
	if err := w.rewriteGDR(); err != nil {
		return err
	}
	return w.patchI64(w.cdrAt+12, w.gdrAt)
}

// rewriteGDR emits the GDR with the current heads and counts. Its size is
// fixed because the r dimension list is declared at creation, so it can be
// rewritten in place as the file grows.
func (w *Writer) rewriteGDR() error {
	var rHead, zHead, adrHead int64
	if len(w.rVars) > 0 {
		rHead = w.rVars[0].at
	}
	if len(w.zVars) > 0 {
		zHead = w.zVars[0].at
	}
	if len(w.attrList) > 0 {
		adrHead = w.attrList[0].at
	}
	rMaxRec := int32(-1)
	for _, v := range w.rVars {
		if v.maxRec > rMaxRec {
			rMaxRec = v.maxRec
		}
	}
	var g builder
	g.i64(rHead)
	g.i64(zHead)
	g.i64(adrHead)
	g.i64(w.eof)
	g.i32(int32(len(w.rVars)))
	g.i32(int32(len(w.attrList)))
	g.i32(rMaxRec)
	g.i32(int32(len(w.opts.RDimSizes)))
	g.i32(int32(len(w.zVars)))
	g.i64(0) // UIR head
	g.i32(0) // rfuC
	g.i32(int32(w.epoch.TableLastUpdated()))
	g.i32(-1)
	for _, d := range w.opts.RDimSizes {
		g.i32(int32(d))
	}
	rec := g.record(recGDR)

	if w.eof == w.gdrAt {
		_, err := w.appendRecord(rec)
		return err
	}
	_, err := w.f.WriteAt(rec, w.gdrAt)
	return err
}

// appendRecord writes a complete record at the end of file and returns its
// offset.
func (w *Writer) appendRecord(rec []byte) (int64, error) {
	at := w.eof
	if _, err := w.f.WriteAt(rec, at); err != nil {
		return 0, err
	}
	w.eof += int64(len(rec))
	return at, nil
}

func (w *Writer) patchI32(at int64, v int32) error {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(v))
	_, err := w.f.WriteAt(tmp[:], at)
	return err
}

func (w *Writer) patchI64(at int64, v int64) error {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	_, err := w.f.WriteAt(tmp[:], at)
	return err
}

func (w *Writer) guard(op string) error {
	if w.closed {
		return opErr(op, w.path, fmt.Errorf("%w: writer is closed", ErrUsage))
	}
	return nil
}

// ensureAttr returns the attribute's state, creating its ADR on first use.
// A name may not be reused across scopes.
func (w *Writer) ensureAttr(name string, scope int32) (*attrState, error) {
	if a, ok := w.attrs[name]; ok {
		if a.scope != scope {
			return nil, fmt.Errorf("%w: attribute %q already exists with the other scope", ErrUsage, name)
		}
		return a, nil
	}
	a := &attrState{name: name, num: int32(len(w.attrList)), scope: scope}

	var b builder
	b.i64(0) // ADR next
	b.i64(0) // AgrEDR head
	b.i32(scope)
	b.i32(a.num)
	b.i32(0)  // NgrEntries
	b.i32(-1) // MAXgrEntry
	b.i32(0)  // rfuA
	b.i64(0)  // AzEDR head
	b.i32(0)  // NzEntries
	b.i32(-1) // MAXzEntry
	b.i32(-1)
	b.strN(name, 256)
	at, err := w.appendRecord(b.record(recADR))
	if err != nil {
		return nil, err
	}
	a.at = at

	if n := len(w.attrList); n > 0 {
		if err := w.patchI64(w.attrList[n-1].at+12, at); err != nil {
			return nil, err
		}
	}
	w.attrs[name] = a
	w.attrList = append(w.attrList, a)
	return a, nil
}

// WriteGlobalAttr creates (or extends) a global attribute. Each value
// becomes one entry, numbered from the attribute's current entry count.
func (w *Writer) WriteGlobalAttr(name string, values ...interface{}) error {
	if err := w.guard("attput"); err != nil {
		return err
	}
	a, err := w.ensureAttr(name, scopeGlobal)
	if err != nil {
		return opErr("attput", name, err)
	}
	for _, v := range values {
		num := int32(0)
		if n := len(a.grEntries); n > 0 {
			num = a.grEntries[n-1].num + 1
		}
		if err := w.writeEntry(a, false, num, v); err != nil {
			return opErr("attput", name, err)
		}
	}
	return nil
}

// WriteVarAttr attaches a variable-scoped attribute entry to varName. The
// variable must already exist.
func (w *Writer) WriteVarAttr(attrName, varName string, value interface{}) error {
	if err := w.guard("attput"); err != nil {
		return err
	}
	v, ok := w.vars[varName]
	if !ok {
		return opErr("attput", varName, ErrNotFound)
	}
	a, err := w.ensureAttr(attrName, scopeVariable)
	if err != nil {
		return opErr("attput", attrName, err)
	}
	if err := w.writeEntry(a, v.z, v.num, value); err != nil {
		return opErr("attput", attrName, err)
	}
	return nil
}

// writeEntry appends one AEDR and splices it into the attribute's entry
// chain in entry-number order, patching the predecessor's next pointer or
// the ADR head on disk.
func (w *Writer) writeEntry(a *attrState, z bool, num int32, value interface{}) error {
	chain := &a.grEntries
	recType := int32(recAgrEDR)
	headAt := a.at + 20  // AgrEDR head field
	countAt := a.at + 36 // NgrEntries
	maxAt := a.at + 40   // MAXgrEntry
	if z {
		chain = &a.zEntries
		recType = recAzEDR
		headAt = a.at + 48
		countAt = a.at + 56
		maxAt = a.at + 60
	}
	for _, e := range *chain {
		if e.num == num {
			return fmt.Errorf("%w: entry %d of %q already written", ErrUsage, num, a.name)
		}
	}

	dt, numElems, raw, err := w.encodeAttrValue(value)
	if err != nil {
		return fmt.Errorf("entry %d of %q: %w", num, a.name, err)
	}

	// Successor before writing, so the new record carries its next link
	// instead of needing a patch of its own.
	idx := sort.Search(len(*chain), func(i int) bool { return (*chain)[i].num > num })
	var next int64
	if idx < len(*chain) {
		next = (*chain)[idx].at
	}

	numStrings := int32(0)
	if dt.IsChar() {
		numStrings = 1
	}
	var b builder
	b.i64(next)
	b.i32(a.num)
	b.i32(int32(dt))
	b.i32(num)
	b.i32(numElems)
	b.i32(numStrings)
	b.i32(0) // rfuB
	b.i32(0) // rfuC
	b.i32(-1)
	b.i32(-1)
	b.raw(raw)
	at, err := w.appendRecord(b.record(recType))
	if err != nil {
		return err
	}

	if idx == 0 {
		if err := w.patchI64(headAt, at); err != nil {
			return err
		}
	} else {
		if err := w.patchI64((*chain)[idx-1].at+12, at); err != nil {
			return err
		}
	}
	*chain = append(*chain, entryRef{})
	copy((*chain)[idx+1:], (*chain)[idx:])
	(*chain)[idx] = entryRef{num: num, at: at}

	if err := w.patchI32(countAt, int32(len(*chain))); err != nil {
		return err
	}
	return w.patchI32(maxAt, (*chain)[len(*chain)-1].num)
}

// encodeAttrValue infers the entry's stored type from the Go value. A
// string becomes one character entry; a typed slice or scalar becomes a
// numeric entry with one element per value.
func (w *Writer) encodeAttrValue(value interface{}) (codec.DataType, int32, []byte, error) {
	if ss, ok := value.([]string); ok && len(ss) == 1 {
		value = ss[0]
	}
	if s, ok := value.(string); ok {
		if s == "" {
			s = " "
		}
		raw, err := codec.EncodeScalar(s, codec.Char, len(s), w.order)
		return codec.Char, int32(len(s)), raw, err
	}
	if _, ok := value.([]string); ok {
		return 0, 0, nil, fmt.Errorf("%w: a character entry holds one string", ErrUsage)
	}
	if dt, ok := codec.FromValues(value); ok {
		raw, err := codec.EncodeValues(value, dt, 1, w.order)
		if err != nil {
			return 0, 0, nil, err
		}
		return dt, int32(codec.ValueCount(value)), raw, nil
	}
	if dt, ok := scalarType(value); ok {
		raw, err := codec.EncodeScalar(value, dt, 1, w.order)
		return dt, 1, raw, err
	}
	return 0, 0, nil, fmt.Errorf("%w: cannot store a %T attribute entry", ErrUsage, value)
}

func scalarType(value interface{}) (codec.DataType, bool) {
	switch value.(type) {
	case int8:
		return codec.Int1, true
	case int16:
		return codec.Int2, true
	case int32:
		return codec.Int4, true
	case int64:
		return codec.Int8, true
	case uint8:
		return codec.UInt1, true
	case uint16:
		return codec.UInt2, true
	case uint32:
		return codec.UInt4, true
	case float32:
		return codec.Real4, true
	case float64:
		return codec.Real8, true
	case complex128:
		return codec.Epoch16, true
	}
	return 0, false
}

// Close patches the GDR, appends the checksum and applies whole-file
// compression. It is idempotent; only the first call does the work.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.rewriteGDR(); err != nil {
		return opErr("close", w.path, err)
	}
	if !w.opts.NoChecksum {
		if err := w.appendChecksum(); err != nil {
			return opErr("close", w.path, err)
		}
	}
	if w.opts.Compression != codec.NoCompression {
		tmpName, err := w.packFile()
		if err != nil {
			w.f.Close()
			return opErr("close", w.path, err)
		}
		if err := w.f.Close(); err != nil {
			os.Remove(tmpName)
			return opErr("close", w.path, err)
		}
		if err := os.Rename(tmpName, w.path); err != nil {
			os.Remove(tmpName)
			return opErr("close", w.path, err)
		}
		return nil
	}
	if err := w.f.Close(); err != nil {
		return opErr("close", w.path, err)
	}
	return nil
}

func (w *Writer) appendChecksum() error {
	if _, err := w.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	h := md5.New()
	if _, err := io.Copy(h, io.LimitReader(w.f, w.eof)); err != nil {
		return err
	}
	sum := h.Sum(nil)
	_, err := w.f.WriteAt(sum, w.eof)
	if err == nil {
		w.eof += int64(len(sum))
	}
	return err
}

// packFile rewrites the finished file as magic, CCR, CPR in a sibling temp
// file and returns its name. The CCR data is the whole uncompressed stream
// after the magic, checksum included, so readers can reconstruct the
// original file exactly.
func (w *Writer) packFile() (string, error) {
	body := make([]byte, w.eof-8)
	if _, err := w.f.ReadAt(body, 8); err != nil {
		return "", err
	}
	comp, level, err := compressBlock(w.opts.Compression, w.opts.CompressionLevel, body)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp("", "gocdf-pack-*.cdf")
	if err != nil {
		return "", err
	}

	var magic [8]byte
	binary.BigEndian.PutUint32(magic[:4], magicV3)
	binary.BigEndian.PutUint32(magic[4:], magicCompressed)

	ccrAt := int64(8)
	var ccr builder
	cprAt := ccrAt + 12 + 8 + 8 + 4 + int64(len(comp))
	ccr.i64(cprAt)
	ccr.i64(int64(len(body)))
	ccr.i32(0) // rfuA
	ccr.raw(comp)

	var cpr builder
	cpr.i32(int32(w.opts.Compression))
	cpr.i32(0) // rfuA
	cpr.i32(1) // pCount
	cpr.i32(int32(level))

	if _, err := tmp.Write(magic[:]); err == nil {
		if _, err = tmp.Write(ccr.record(recCCR)); err == nil {
			_, err = tmp.Write(cpr.record(recCPR))
		}
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// compressBlock compresses one block under the chosen scheme and reports
// the parameter recorded in the CPR.
func compressBlock(c codec.Compression, level int, data []byte) ([]byte, int, error) {
	switch c {
	case codec.GzipCompression:
		if level <= 0 {
			level = 6
		}
		out, err := codec.GzipDeflate(data, level)
		return out, level, err
	case codec.RLECompression:
		return codec.RLEEncode(data), 0, nil
	}
	return nil, 0, fmt.Errorf("%w: cannot write compression scheme %s", ErrUsage, c)
}
