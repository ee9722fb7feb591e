package cdf

import (
	"fmt"

	"github.com/heliolib/gocdf/pkg/codec"
)

// AttrInfo summarizes one attribute.
type AttrInfo struct {
	Name       string
	Num        int
	Global     bool
	NumEntries int
	// MaxEntry is the highest entry number present, -1 when empty. For
	// variable attributes it covers both the r and z entry chains.
	MaxEntry int
}

// Entry is one attribute entry's decoded value. Value is a typed slice for
// numeric types and a string for character types.
type Entry struct {
	AttrName string
	Num      int
	DataType codec.DataType
	NumElems int
	Value    interface{}
}

// VarInfo summarizes one variable.
type VarInfo struct {
	Name             string
	Num              int
	Z                bool
	DataType         codec.DataType
	NumElems         int
	DimSizes         []int
	DimVarys         []bool
	RecVary          bool
	LastRecord       int
	Sparse           SparseMode
	Compression      codec.Compression
	CompressionLevel int
	BlockingFactor   int
	Pad              interface{}
}

// VarInq describes the named variable.
func (r *Reader) VarInq(name string) (*VarInfo, error) {
	v, err := r.vdr(name)
	if err != nil {
		return nil, err
	}
	info := &VarInfo{
		Name:           v.name,
		Num:            int(v.num),
		Z:              v.z,
		DataType:       v.dataType,
		NumElems:       int(v.numElems),
		RecVary:        v.recVary(),
		LastRecord:     int(v.maxRec),
		Sparse:         v.sparse,
		BlockingFactor: int(v.blockingFactor),
	}
	info.DimSizes = make([]int, len(v.dimSizes))
	info.DimVarys = make([]bool, len(v.dimSizes))
	for i := range v.dimSizes {
		info.DimSizes[i] = int(v.dimSizes[i])
		info.DimVarys[i] = v.dimVarys[i] != 0
	}
	if v.compressed() && v.cprOffset != 0 {
		cpr, err := r.readCPR(v.cprOffset)
		if err != nil {
			return nil, opErr("varinq", name, err)
		}
		info.Compression = cpr.cType
		info.CompressionLevel = cpr.level()
	}
	if v.hasPad() && len(v.padRaw) > 0 {
		pad, err := r.decodeScalar(v.padRaw, v.dataType, int(v.numElems))
		if err != nil {
			return nil, opErr("varinq", name, err)
		}
		info.Pad = pad
	}
	return info, nil
}

// VarInqNum describes the variable with the given number. Variable numbers
// are unique only within a kind, so files holding both r and z variables
// reject number addressing.
func (r *Reader) VarInqNum(num int) (*VarInfo, error) {
	v, err := r.vdrByNum(num)
	if err != nil {
		return nil, err
	}
	return r.VarInq(v.name)
}

// AttInq describes the named attribute.
func (r *Reader) AttInq(name string) (*AttrInfo, error) {
	a, err := r.adr(name)
	if err != nil {
		return nil, err
	}
	info := &AttrInfo{
		Name:   a.name,
		Num:    int(a.num),
		Global: a.scope == scopeGlobal,
	}
	info.NumEntries = int(a.ngrEntries + a.nzEntries)
	info.MaxEntry = int(a.maxGrEntry)
	if int(a.maxZEntry) > info.MaxEntry {
		info.MaxEntry = int(a.maxZEntry)
	}
	return info, nil
}

// AttInqNum describes the attribute with the given number. Attribute
// numbers are unique across the file.
func (r *Reader) AttInqNum(num int) (*AttrInfo, error) {
	a, err := r.adrByNum(num)
	if err != nil {
		return nil, err
	}
	return r.AttInq(a.name)
}

// AttGetGlobal returns entry entryNum of the named global attribute.
func (r *Reader) AttGetGlobal(name string, entryNum int) (*Entry, error) {
	a, err := r.adr(name)
	if err != nil {
		return nil, err
	}
	if a.scope != scopeGlobal {
		return nil, opErr("attget", name, fmt.Errorf("%w: %q is variable-scoped; look it up through a variable name", ErrUsage, name))
	}
	entries, err := r.walkEntries(a.agrEDRHead, recAgrEDR, a.name)
	if err != nil {
		return nil, opErr("attget", name, err)
	}
	for _, e := range entries {
		if int(e.num) == entryNum {
			return r.decodeEntry(a.name, e)
		}
	}
	return nil, opErr("attget", fmt.Sprintf("%s[%d]", name, entryNum), ErrNotFound)
}

// AttGet returns the named attribute's entry for the named variable. The
// entry is matched by the variable's number within its own kind, so a
// numeric entry index is never needed and the r/z numbering ambiguity
// cannot arise.
func (r *Reader) AttGet(attrName, varName string) (*Entry, error) {
	a, err := r.adr(attrName)
	if err != nil {
		return nil, err
	}
	if a.scope != scopeVariable {
		return nil, opErr("attget", attrName, fmt.Errorf("%w: %q is global; use AttGetGlobal", ErrUsage, attrName))
	}
	v, err := r.vdr(varName)
	if err != nil {
		return nil, err
	}
	e, err := r.findVarEntry(a, v)
	if err != nil {
		return nil, opErr("attget", attrName, err)
	}
	if e == nil {
		return nil, opErr("attget", fmt.Sprintf("%s(%s)", attrName, varName), ErrNotFound)
	}
	return r.decodeEntry(a.name, e)
}

// GlobalAttsGet returns every global attribute with all its entries, keyed
// by attribute name. Entries keep their stored entry numbers.
func (r *Reader) GlobalAttsGet() (map[string][]*Entry, error) {
	out := make(map[string][]*Entry)
	for _, a := range r.sortedAttrs() {
		if a.scope != scopeGlobal {
			continue
		}
		entries, err := r.walkEntries(a.agrEDRHead, recAgrEDR, a.name)
		if err != nil {
			return nil, opErr("attget", a.name, err)
		}
		for _, e := range entries {
			ent, err := r.decodeEntry(a.name, e)
			if err != nil {
				return nil, err
			}
			out[a.name] = append(out[a.name], ent)
		}
	}
	return out, nil
}

// VarAttsGet returns all variable-scoped attribute entries attached to the
// named variable, keyed by attribute name.
func (r *Reader) VarAttsGet(varName string) (map[string]*Entry, error) {
	v, err := r.vdr(varName)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*Entry)
	for _, a := range r.adrs {
		if a.scope != scopeVariable {
			continue
		}
		e, err := r.findVarEntry(a, v)
		if err != nil {
			return nil, opErr("attget", a.name, err)
		}
		if e == nil {
			continue
		}
		ent, err := r.decodeEntry(a.name, e)
		if err != nil {
			return nil, err
		}
		out[a.name] = ent
	}
	return out, nil
}

// findVarEntry looks for the variable's entry on the chain matching the
// variable's kind.
func (r *Reader) findVarEntry(a *adrRecord, v *vdrRecord) (*aedrRecord, error) {
	head, want := a.agrEDRHead, int32(recAgrEDR)
	if v.z {
		head, want = a.azEDRHead, recAzEDR
	}
	entries, err := r.walkEntries(head, want, a.name)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.num == v.num {
			return e, nil
		}
	}
	return nil, nil
}

func (r *Reader) walkEntries(head int64, want int32, attrName string) ([]*aedrRecord, error) {
	var out []*aedrRecord
	seen := make(map[int64]bool)
	at := head
	for at != 0 {
		if seen[at] {
			return nil, fmt.Errorf("%w: entry chain of %q loops at offset %d", ErrFormat, attrName, at)
		}
		seen[at] = true
		rec, typ, err := r.readRecord(at)
		if err != nil {
			return nil, err
		}
		if typ != want {
			return nil, fmt.Errorf("%w: entry chain of %q hit record type %d", ErrFormat, attrName, typ)
		}
		e, err := r.rc.decodeAEDR(rec, at)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		at = e.next
	}
	return out, nil
}

// decodeEntry converts an entry's raw bytes into its typed value. For
// character types NumElems is the string length and the value is a single
// string; for everything else it is the value count.
func (r *Reader) decodeEntry(attrName string, e *aedrRecord) (*Entry, error) {
	ent := &Entry{
		AttrName: attrName,
		Num:      int(e.num),
		DataType: e.dataType,
		NumElems: int(e.numElems),
	}
	if !e.dataType.Valid() {
		return nil, opErr("attget", attrName, fmt.Errorf("%w: entry %d has unknown data type code %d", ErrFormat, e.num, int32(e.dataType)))
	}
	var (
		val interface{}
		err error
	)
	if e.dataType.IsChar() {
		val, err = codec.DecodeValues(e.valueRaw, e.dataType, int(e.numElems), 1, r.order)
		if err == nil {
			val = val.([]string)[0]
		}
	} else {
		val, err = codec.DecodeValues(e.valueRaw, e.dataType, 1, int(e.numElems), r.order)
	}
	if err != nil {
		return nil, opErr("attget", attrName, fmt.Errorf("%w: entry %d: %v", ErrFormat, e.num, err))
	}
	ent.Value = val
	return ent, nil
}

// decodeScalar decodes a single stored value (a pad value or one entry
// element) into its Go representation.
func (r *Reader) decodeScalar(raw []byte, d codec.DataType, numElems int) (interface{}, error) {
	if d.IsChar() {
		vals, err := codec.DecodeValues(raw, d, numElems, 1, r.order)
		if err != nil {
			return nil, err
		}
		return vals.([]string)[0], nil
	}
	vals, err := codec.DecodeValues(raw, d, 1, 1, r.order)
	if err != nil {
		return nil, err
	}
	return scalarAt(vals, 0), nil
}

func (r *Reader) readCPR(at int64) (*cprRecord, error) {
	rec, typ, err := r.readRecord(at)
	if err != nil {
		return nil, err
	}
	if typ != recCPR {
		return nil, fmt.Errorf("%w: expected CPR at offset %d, found record type %d", ErrFormat, at, typ)
	}
	return r.rc.decodeCPR(rec)
}

// scalarAt pulls element i out of a typed slice produced by DecodeValues.
func scalarAt(vals interface{}, i int) interface{} {
	switch s := vals.(type) {
	case []int8:
		return s[i]
	case []int16:
		return s[i]
	case []int32:
		return s[i]
	case []int64:
		return s[i]
	case []uint8:
		return s[i]
	case []uint16:
		return s[i]
	case []uint32:
		return s[i]
	case []float32:
		return s[i]
	case []float64:
		return s[i]
	case []complex128:
		return s[i]
	case []string:
		return s[i]
	}
	return nil
}
