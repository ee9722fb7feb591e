// Package dataset loads a whole CDF file into memory and writes one back
// out. It resolves the ISTP-style DEPEND_0..DEPEND_3 attributes between
// variables by verbatim name lookup, nothing fuzzier.
package dataset

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/heliolib/gocdf/pkg/cdf"
	"github.com/heliolib/gocdf/pkg/codec"
	"github.com/heliolib/gocdf/pkg/epoch"
)

// Variable is one fully-read variable with its attribute entries.
type Variable struct {
	Name     string
	DataType codec.DataType
	NumElems int
	// Values is a flat row-major typed slice; Shape[0] is the record
	// count.
	Values interface{}
	Shape  []int
	// RecVary is false for variables that store one shared record.
	RecVary bool
	Sparse  cdf.SparseMode
	// Attributes holds this variable's attribute entry values by
	// attribute name.
	Attributes map[string]interface{}
	// Depends maps a dimension index to the name of the variable named
	// by its DEPEND_<i> attribute. Entries appear only when the named
	// variable exists in the same file.
	Depends map[int]string
}

// Dataset is an in-memory copy of one file.
type Dataset struct {
	Path string
	Info *cdf.Info
	// GlobalAttributes holds each global attribute's entry values in
	// entry order.
	GlobalAttributes map[string][]interface{}
	Variables        map[string]*Variable

	order []string
	epoch *epoch.Codec
}

// Load reads every variable and attribute of the file at spec.
func Load(ctx context.Context, spec string, opts cdf.Options) (*Dataset, error) {
	r, err := cdf.Open(ctx, spec, opts)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return FromReader(r)
}

// FromReader drains an open Reader into a Dataset. The reader stays open.
func FromReader(r *cdf.Reader) (*Dataset, error) {
	info := r.Info()
	d := &Dataset{
		Path:             info.Path,
		Info:             info,
		GlobalAttributes: make(map[string][]interface{}),
		Variables:        make(map[string]*Variable),
		epoch:            epoch.NewCodec(),
	}

	globals, err := r.GlobalAttsGet()
	if err != nil {
		return nil, err
	}
	for name, entries := range globals {
		vals := make([]interface{}, 0, len(entries))
		for _, e := range entries {
			vals = append(vals, e.Value)
		}
		d.GlobalAttributes[name] = vals
	}

	for _, name := range r.Variables() {
		v, err := loadVariable(r, name)
		if err != nil {
			return nil, err
		}
		d.Variables[name] = v
		d.order = append(d.order, name)
	}
	for _, v := range d.Variables {
		d.resolveDepends(v)
	}
	return d, nil
}

func loadVariable(r *cdf.Reader, name string) (*Variable, error) {
	inq, err := r.VarInq(name)
	if err != nil {
		return nil, err
	}
	res, err := r.VarGet(name)
	if err != nil {
		return nil, err
	}
	atts, err := r.VarAttsGet(name)
	if err != nil {
		return nil, err
	}
	v := &Variable{
		Name:       name,
		DataType:   inq.DataType,
		NumElems:   inq.NumElems,
		Values:     res.Values,
		Shape:      res.Shape,
		RecVary:    inq.RecVary,
		Sparse:     inq.Sparse,
		Attributes: make(map[string]interface{}, len(atts)),
	}
	for attName, e := range atts {
		v.Attributes[attName] = e.Value
	}
	return v, nil
}

// resolveDepends records DEPEND_<i> links that name a variable actually
// present in the file. Anything else is left for the caller to interpret.
func (d *Dataset) resolveDepends(v *Variable) {
	for i := 0; i <= 3; i++ {
		raw, ok := v.Attributes[fmt.Sprintf("DEPEND_%d", i)]
		if !ok {
			continue
		}
		name, ok := raw.(string)
		if !ok {
			continue
		}
		if _, ok := d.Variables[name]; !ok {
			continue
		}
		if v.Depends == nil {
			v.Depends = make(map[int]string)
		}
		v.Depends[i] = name
	}
}

// VariableNames lists the variables in file order.
func (d *Dataset) VariableNames() []string {
	return append([]string(nil), d.order...)
}

// Times converts the named variable's DEPEND_0 epoch values to time.Time.
func (d *Dataset) Times(varName string) ([]time.Time, error) {
	v, ok := d.Variables[varName]
	if !ok {
		return nil, fmt.Errorf("dataset: variable %q: %w", varName, cdf.ErrNotFound)
	}
	depName, ok := v.Depends[0]
	if !ok {
		return nil, fmt.Errorf("dataset: variable %q has no DEPEND_0: %w", varName, cdf.ErrNotFound)
	}
	return d.epoch.ToTimeSlice(d.Variables[depName].Values)
}

// Save writes the dataset to a new file. Variables keep their declared
// data types, so epoch variables survive the float64 and int64 ambiguity.
func (d *Dataset) Save(path string, opts cdf.WriterOptions) error {
	w, err := cdf.NewWriter(path, opts)
	if err != nil {
		return err
	}

	for _, name := range sortedKeys(d.GlobalAttributes) {
		if err := w.WriteGlobalAttr(name, d.GlobalAttributes[name]...); err != nil {
			w.Close()
			return err
		}
	}

	order := d.order
	if len(order) != len(d.Variables) {
		order = sortedVarKeys(d.Variables)
	}
	for _, name := range order {
		v := d.Variables[name]
		spec := cdf.VarSpec{
			Name:      v.Name,
			DataType:  v.DataType,
			Dims:      dimsOf(v.Shape),
			NoRecVary: !v.RecVary,
			Sparse:    v.Sparse,
		}
		if v.DataType.IsChar() {
			spec.NumElems = v.NumElems
		}
		if err := w.WriteVar(spec, v.Values); err != nil {
			w.Close()
			return err
		}
		for _, attName := range sortedAttKeys(v.Attributes) {
			if err := w.WriteVarAttr(attName, v.Name, v.Attributes[attName]); err != nil {
				w.Close()
				return err
			}
		}
	}
	return w.Close()
}

func dimsOf(shape []int) []int {
	if len(shape) <= 1 {
		return nil
	}
	return append([]int(nil), shape[1:]...)
}

func sortedKeys(m map[string][]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedVarKeys(m map[string]*Variable) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedAttKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
