package cdf

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/heliolib/gocdf/pkg/codec"
	"github.com/heliolib/gocdf/pkg/epoch"
	"github.com/heliolib/gocdf/pkg/source"
)

// Options configures Open.
type Options struct {
	// SkipChecksum disables MD5 validation of checksummed files.
	SkipChecksum bool
	// Source configures remote transports for URL specs.
	Source source.Config
}

// Reader reads one CDF file. It is safe for concurrent queries once Open
// returns; Close is not safe to race with queries.
type Reader struct {
	name string
	src  source.Source
	body *os.File // decompressed copy when the file is CCR-wrapped
	ra   io.ReaderAt
	size int64

	rc    recordCodec
	order binary.ByteOrder
	cdr   *cdrRecord
	gdr   *gdrRecord

	compressed bool
	fileCType  codec.Compression

	vdrs      []*vdrRecord
	vdrByName map[string]*vdrRecord
	vdrByFold map[string]*vdrRecord
	adrs      []*adrRecord
	adrByName map[string]*adrRecord
	adrByFold map[string]*adrRecord

	epoch *epoch.Codec

	closed bool
}

// Open resolves spec (a path or file/http/https/s3 URL) and parses the
// file's control records. CCR-wrapped files are decompressed into a private
// temporary file first.
func Open(ctx context.Context, spec string, opts Options) (*Reader, error) {
	src, err := source.Open(ctx, spec, opts.Source)
	if err != nil {
		return nil, opErr("open", spec, err)
	}
	r, err := newReader(src, opts)
	if err != nil {
		src.Close()
		return nil, opErr("open", spec, err)
	}
	return r, nil
}

// OpenSource parses an already-resolved Source. The Reader takes ownership
// of src and closes it on Close.
func OpenSource(src source.Source, opts Options) (*Reader, error) {
	r, err := newReader(src, opts)
	if err != nil {
		return nil, opErr("open", src.Name(), err)
	}
	return r, nil
}

func newReader(src source.Source, opts Options) (*Reader, error) {
	r := &Reader{
		name: src.Name(),
		src:  src,
		ra:   src,
		size: src.Size(),
	}

	var magic [8]byte
	if _, err := r.ra.ReadAt(magic[:], 0); err != nil {
		return nil, fmt.Errorf("%w: reading magic: %v", ErrFormat, err)
	}
	m1 := binary.BigEndian.Uint32(magic[:4])
	m2 := binary.BigEndian.Uint32(magic[4:])
	switch m1 {
	case magicV3:
		r.rc = v3Codec{}
	case magicV2:
		r.rc = v2Codec{}
	default:
		return nil, fmt.Errorf("%w: magic %#08x is not a CDF file", ErrFormat, m1)
	}

	switch m2 {
	case magicUncompressed:
	case magicCompressed:
		if err := r.inflateBody(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: compression magic %#08x", ErrFormat, m2)
	}

	if err := r.parseControl(); err != nil {
		r.releaseBody()
		return nil, err
	}
	if r.cdr.checksummed() && !opts.SkipChecksum {
		if err := r.verifyChecksum(); err != nil {
			r.releaseBody()
			return nil, err
		}
	}
	r.epoch = epoch.NewCodec()
	return r, nil
}

// inflateBody unwraps a whole-file CCR: the decompressed stream, which
// includes the trailing checksum if any, lands in a temporary file behind
// a reconstructed uncompressed magic header.
func (r *Reader) inflateBody() error {
	rec, typ, err := r.readRecord(8)
	if err != nil {
		return err
	}
	if typ != recCCR {
		return fmt.Errorf("%w: compressed file starts with record type %d, want CCR", ErrFormat, typ)
	}
	ccr, err := r.rc.decodeCCR(rec)
	if err != nil {
		return err
	}
	cprRec, typ, err := r.readRecord(ccr.cprOffset)
	if err != nil {
		return err
	}
	if typ != recCPR {
		return fmt.Errorf("%w: CCR points at record type %d, want CPR", ErrFormat, typ)
	}
	cpr, err := r.rc.decodeCPR(cprRec)
	if err != nil {
		return err
	}
	body, err := codec.Decompress(cpr.cType, ccr.data)
	if err != nil {
		return fmt.Errorf("%w: file body: %v", ErrFormat, err)
	}
	if int64(len(body)) != ccr.uSize {
		return fmt.Errorf("%w: CCR inflated to %d bytes, expected %d", ErrFormat, len(body), ccr.uSize)
	}

	f, err := os.CreateTemp("", "gocdf-inflate-*.cdf")
	if err != nil {
		return fmt.Errorf("inflating %s: %w", r.name, err)
	}
	var head [8]byte
	var m1 uint32 = magicV3
	if _, ok := r.rc.(v2Codec); ok {
		m1 = magicV2
	}
	binary.BigEndian.PutUint32(head[:4], m1)
	binary.BigEndian.PutUint32(head[4:], magicUncompressed)
	if _, err := f.Write(head[:]); err == nil {
		_, err = f.Write(body)
	}
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("inflating %s: %w", r.name, err)
	}

	r.body = f
	r.ra = f
	r.size = int64(len(body)) + 8
	r.compressed = true
	r.fileCType = cpr.cType
	return nil
}

func (r *Reader) releaseBody() {
	if r.body != nil {
		r.body.Close()
		os.Remove(r.body.Name())
		r.body = nil
	}
}

func (r *Reader) parseControl() error {
	rec, typ, err := r.readRecord(8)
	if err != nil {
		return err
	}
	if typ != recCDR {
		return fmt.Errorf("%w: first record has type %d, want CDR", ErrFormat, typ)
	}
	if r.cdr, err = r.rc.decodeCDR(rec); err != nil {
		return err
	}
	if !r.cdr.singleFile() {
		return fmt.Errorf("%w: multi-file layout is not supported", ErrFormat)
	}
	if !r.cdr.encoding.Supported() {
		return fmt.Errorf("%w: encoding %s is not supported", ErrFormat, r.cdr.encoding)
	}
	order, err := r.cdr.encoding.ByteOrder()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFormat, err)
	}
	r.order = order

	rec, typ, err = r.readRecord(r.cdr.gdrOffset)
	if err != nil {
		return err
	}
	if typ != recGDR {
		return fmt.Errorf("%w: CDR points at record type %d, want GDR", ErrFormat, typ)
	}
	if r.gdr, err = r.rc.decodeGDR(rec); err != nil {
		return err
	}

	if err := r.loadVariables(); err != nil {
		return err
	}
	return r.loadAttributes()
}

// loadVariables walks both VDR chains once. z variables come first so that
// name collisions, which the format allows but real files avoid, resolve
// in favor of the modern kind.
func (r *Reader) loadVariables() error {
	r.vdrByName = make(map[string]*vdrRecord)
	r.vdrByFold = make(map[string]*vdrRecord)
	walk := func(head int64, wantType int32, count int32) error {
		at := head
		for n := int32(0); at != 0; n++ {
			if n > count {
				return fmt.Errorf("%w: VDR chain longer than the GDR's %d variables", ErrFormat, count)
			}
			rec, typ, err := r.readRecord(at)
			if err != nil {
				return err
			}
			if typ != wantType {
				return fmt.Errorf("%w: VDR chain hit record type %d", ErrFormat, typ)
			}
			vdr, err := r.rc.decodeVDR(rec, at, r.gdr.rDimSizes)
			if err != nil {
				return err
			}
			r.vdrs = append(r.vdrs, vdr)
			if _, dup := r.vdrByName[vdr.name]; !dup {
				r.vdrByName[vdr.name] = vdr
			}
			if _, dup := r.vdrByFold[foldName(vdr.name)]; !dup {
				r.vdrByFold[foldName(vdr.name)] = vdr
			}
			at = vdr.next
		}
		return nil
	}
	if err := walk(r.gdr.zVDRHead, recZVDR, r.gdr.nzVars); err != nil {
		return err
	}
	return walk(r.gdr.rVDRHead, recRVDR, r.gdr.nrVars)
}

func (r *Reader) loadAttributes() error {
	r.adrByName = make(map[string]*adrRecord)
	r.adrByFold = make(map[string]*adrRecord)
	at := r.gdr.adrHead
	for n := int32(0); at != 0; n++ {
		if n > r.gdr.numAttr {
			return fmt.Errorf("%w: ADR chain longer than the GDR's %d attributes", ErrFormat, r.gdr.numAttr)
		}
		rec, typ, err := r.readRecord(at)
		if err != nil {
			return err
		}
		if typ != recADR {
			return fmt.Errorf("%w: ADR chain hit record type %d", ErrFormat, typ)
		}
		adr, err := r.rc.decodeADR(rec, at)
		if err != nil {
			return err
		}
		r.adrs = append(r.adrs, adr)
		if _, dup := r.adrByName[adr.name]; !dup {
			r.adrByName[adr.name] = adr
		}
		if _, dup := r.adrByFold[foldName(adr.name)]; !dup {
			r.adrByFold[foldName(adr.name)] = adr
		}
		at = adr.next
	}
	return nil
}

// readRecord reads the complete record at the given byte offset and returns
// its bytes alongside its type code.
func (r *Reader) readRecord(at int64) ([]byte, int32, error) {
	hl := int64(r.rc.headerLen())
	if at < 8 || at+hl > r.size {
		return nil, 0, fmt.Errorf("%w: record offset %d outside file of %d bytes", ErrFormat, at, r.size)
	}
	head := make([]byte, hl)
	if _, err := r.ra.ReadAt(head, at); err != nil {
		return nil, 0, fmt.Errorf("%w: at offset %d: %v", ErrFormat, at, err)
	}
	size, typ := r.rc.recordHeader(head)
	if size < hl || at+size > r.size {
		return nil, 0, fmt.Errorf("%w: record at %d claims %d bytes", ErrFormat, at, size)
	}
	rec := make([]byte, size)
	copy(rec, head)
	if _, err := r.ra.ReadAt(rec[hl:], at+hl); err != nil {
		return nil, 0, fmt.Errorf("%w: at offset %d: %v", ErrFormat, at, err)
	}
	return rec, typ, nil
}

// verifyChecksum recomputes the trailing MD5 over everything before it.
func (r *Reader) verifyChecksum() error {
	if r.size < md5.Size {
		return fmt.Errorf("%w: file too short to hold a checksum", ErrChecksum)
	}
	want := make([]byte, md5.Size)
	if _, err := r.ra.ReadAt(want, r.size-md5.Size); err != nil {
		return fmt.Errorf("%w: %v", ErrChecksum, err)
	}
	h := md5.New()
	if _, err := io.Copy(h, io.NewSectionReader(r.ra, 0, r.size-md5.Size)); err != nil {
		return fmt.Errorf("%w: %v", ErrChecksum, err)
	}
	got := h.Sum(nil)
	for i := range want {
		if want[i] != got[i] {
			return fmt.Errorf("%w: stored %x, computed %x", ErrChecksum, want, got)
		}
	}
	return nil
}

// Close releases the underlying source and any decompression temp file.
// It is idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	var err error
	if r.src != nil {
		err = r.src.Close()
		r.src = nil
	}
	if r.body != nil {
		if cerr := r.body.Close(); err == nil {
			err = cerr
		}
		if rmErr := os.Remove(r.body.Name()); err == nil {
			err = rmErr
		}
		r.body = nil
	}
	return err
}

// Info summarizes the file-level bookkeeping.
type Info struct {
	Path        string
	Version     string
	Encoding    codec.Encoding
	Majority    codec.Majority
	Checksum    bool
	Compressed  bool
	Compression codec.Compression
	NumZVars    int
	NumRVars    int
	NumAttrs    int
	Copyright   string
	// LeapSecondLastUpdated is the YYYYMMDD date of the leap second table
	// the file was written against, or 0 when unrecorded.
	LeapSecondLastUpdated int
}

func (r *Reader) Info() *Info {
	maj := codec.ColumnMajority
	if r.cdr.rowMajor() {
		maj = codec.RowMajority
	}
	return &Info{
		Path:                  r.name,
		Version:               fmt.Sprintf("%d.%d.%d", r.cdr.version, r.cdr.release, r.cdr.increment),
		Encoding:              r.cdr.encoding,
		Majority:              maj,
		Checksum:              r.cdr.checksummed(),
		Compressed:            r.compressed,
		Compression:           r.fileCType,
		NumZVars:              int(r.gdr.nzVars),
		NumRVars:              int(r.gdr.nrVars),
		NumAttrs:              int(r.gdr.numAttr),
		Copyright:             r.cdr.copyright,
		LeapSecondLastUpdated: int(r.gdr.leapSecondLastUpdated),
	}
}

// Variables lists all variable names, z variables first, each kind in
// storage order.
func (r *Reader) Variables() []string {
	names := make([]string, 0, len(r.vdrs))
	for _, v := range r.vdrs {
		names = append(names, v.name)
	}
	return names
}

// Attributes lists all attribute names in storage order.
func (r *Reader) Attributes() []string {
	names := make([]string, 0, len(r.adrs))
	for _, a := range r.adrs {
		names = append(names, a.name)
	}
	return names
}

// foldName is the lookup key for names: surrounding blanks are ignored and
// the match is case-insensitive. An exact match still wins when two names
// differ only in case.
func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *Reader) vdr(name string) (*vdrRecord, error) {
	if v, ok := r.vdrByName[name]; ok {
		return v, nil
	}
	if v, ok := r.vdrByFold[foldName(name)]; ok {
		return v, nil
	}
	return nil, opErr("variable", name, ErrNotFound)
}

func (r *Reader) adr(name string) (*adrRecord, error) {
	if a, ok := r.adrByName[name]; ok {
		return a, nil
	}
	if a, ok := r.adrByFold[foldName(name)]; ok {
		return a, nil
	}
	return nil, opErr("attribute", name, ErrNotFound)
}

// vdrByNum resolves a variable by its number within its kind. Numbers are
// only unique per kind, so a file holding both r and z variables cannot be
// addressed this way.
func (r *Reader) vdrByNum(num int) (*vdrRecord, error) {
	if r.gdr.nrVars > 0 && r.gdr.nzVars > 0 {
		return nil, opErr("variable", fmt.Sprintf("#%d", num),
			fmt.Errorf("%w: file holds both r and z variables; address them by name", ErrUsage))
	}
	for _, v := range r.vdrs {
		if int(v.num) == num {
			return v, nil
		}
	}
	return nil, opErr("variable", fmt.Sprintf("#%d", num), ErrNotFound)
}

func (r *Reader) adrByNum(num int) (*adrRecord, error) {
	for _, a := range r.adrs {
		if int(a.num) == num {
			return a, nil
		}
	}
	return nil, opErr("attribute", fmt.Sprintf("#%d", num), ErrNotFound)
}

// sortedAttrs returns the attributes ordered by attribute number, which is
// the order a rewrite of the file would assign them.
func (r *Reader) sortedAttrs() []*adrRecord {
	out := append([]*adrRecord(nil), r.adrs...)
	sort.Slice(out, func(i, j int) bool { return out[i].num < out[j].num })
	return out
}
