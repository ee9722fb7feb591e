package dataset

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heliolib/gocdf/pkg/cdf"
	"github.com/heliolib/gocdf/pkg/codec"
)

// epoch2020 is 2020-01-01T00:00:00 as CDF_EPOCH milliseconds.
const epoch2020 = 63745056000000.0

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.cdf")
	w, err := cdf.NewWriter(path, cdf.WriterOptions{})
	require.NoError(t, err)

	require.NoError(t, w.WriteGlobalAttr("TITLE", "Sample data"))
	require.NoError(t, w.WriteGlobalAttr("Instrument", "MAG", "FGM"))

	epochs := []float64{epoch2020, epoch2020 + 1000, epoch2020 + 2000}
	require.NoError(t, w.WriteVar(cdf.VarSpec{Name: "Epoch", DataType: codec.Epoch}, epochs))
	require.NoError(t, w.WriteVar(cdf.VarSpec{Name: "B_gse", DataType: codec.Real8, Dims: []int{3}},
		[]float64{1, 2, 3, 4, 5, 6, 7, 8, 9}))
	require.NoError(t, w.WriteVarAttr("DEPEND_0", "B_gse", "Epoch"))
	require.NoError(t, w.WriteVarAttr("UNITS", "B_gse", "nT"))
	require.NoError(t, w.WriteVar(cdf.VarSpec{Name: "label", DataType: codec.Char, NumElems: 3, NoRecVary: true},
		[]string{"xyz"}))

	require.NoError(t, w.Close())
	return path
}

func TestLoad(t *testing.T) {
	d, err := Load(context.Background(), writeSample(t), cdf.Options{})
	require.NoError(t, err)

	assert.Equal(t, "3.9.0", d.Info.Version)
	assert.Equal(t, []string{"Epoch", "B_gse", "label"}, d.VariableNames())

	assert.Equal(t, []interface{}{"Sample data"}, d.GlobalAttributes["TITLE"])
	assert.Equal(t, []interface{}{"MAG", "FGM"}, d.GlobalAttributes["Instrument"])

	b := d.Variables["B_gse"]
	require.NotNil(t, b)
	assert.Equal(t, codec.Real8, b.DataType)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, b.Values)
	assert.Equal(t, []int{3, 3}, b.Shape)
	assert.True(t, b.RecVary)
	assert.Equal(t, "nT", b.Attributes["UNITS"])
	assert.Equal(t, map[int]string{0: "Epoch"}, b.Depends)

	lbl := d.Variables["label"]
	require.NotNil(t, lbl)
	assert.False(t, lbl.RecVary)
	assert.Equal(t, []string{"xyz"}, lbl.Values)
	assert.Nil(t, lbl.Depends)
}

func TestTimes(t *testing.T) {
	d, err := Load(context.Background(), writeSample(t), cdf.Options{})
	require.NoError(t, err)

	times, err := d.Times("B_gse")
	require.NoError(t, err)
	require.Len(t, times, 3)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), times[0])
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 2, 0, time.UTC), times[2])

	_, err = d.Times("label")
	assert.ErrorIs(t, err, cdf.ErrNotFound)
	_, err = d.Times("absent")
	assert.ErrorIs(t, err, cdf.ErrNotFound)
}

func TestSaveRoundTrip(t *testing.T) {
	d, err := Load(context.Background(), writeSample(t), cdf.Options{})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "copy.cdf")
	require.NoError(t, d.Save(out, cdf.WriterOptions{}))

	d2, err := Load(context.Background(), out, cdf.Options{})
	require.NoError(t, err)

	assert.Equal(t, d.GlobalAttributes, d2.GlobalAttributes)
	require.Len(t, d2.Variables, len(d.Variables))
	for name, v := range d.Variables {
		v2 := d2.Variables[name]
		require.NotNil(t, v2, name)
		assert.Equal(t, v.DataType, v2.DataType, name)
		assert.Equal(t, v.Values, v2.Values, name)
		assert.Equal(t, v.Shape, v2.Shape, name)
		assert.Equal(t, v.RecVary, v2.RecVary, name)
	}

	// Epoch keeps its declared type instead of collapsing to CDF_DOUBLE.
	assert.Equal(t, codec.Epoch, d2.Variables["Epoch"].DataType)
	assert.Equal(t, map[int]string{0: "Epoch"}, d2.Variables["B_gse"].Depends)
}

func TestSave_Compressed(t *testing.T) {
	d, err := Load(context.Background(), writeSample(t), cdf.Options{})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "packed.cdf")
	require.NoError(t, d.Save(out, cdf.WriterOptions{Compression: codec.GzipCompression}))

	d2, err := Load(context.Background(), out, cdf.Options{})
	require.NoError(t, err)
	assert.True(t, d2.Info.Compressed)
	assert.Equal(t, d.Variables["B_gse"].Values, d2.Variables["B_gse"].Values)
}
