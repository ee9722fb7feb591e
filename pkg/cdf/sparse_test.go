package cdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heliolib/gocdf/pkg/codec"
)

func TestSparsePad(t *testing.T) {
	r := buildFile(t, WriterOptions{}, func(w *Writer) {
		require.NoError(t, w.WriteVarRecords(VarSpec{
			Name:     "v",
			DataType: codec.Int4,
			Sparse:   SparsePad,
			Pad:      int32(-1),
		}, []int{2, 3, 6}, []int32{20, 30, 60}))
	})

	vi, err := r.VarInq("v")
	require.NoError(t, err)
	assert.Equal(t, SparsePad, vi.Sparse)
	assert.Equal(t, 6, vi.LastRecord)

	res, err := r.VarGet("v")
	require.NoError(t, err)
	assert.Equal(t, []int32{-1, -1, 20, 30, -1, -1, 60}, res.Values)
	assert.Equal(t, []int{7}, res.Shape)
}

func TestSparsePad_BeyondLastRecord(t *testing.T) {
	r := buildFile(t, WriterOptions{}, func(w *Writer) {
		require.NoError(t, w.WriteVarRecords(VarSpec{
			Name:     "v",
			DataType: codec.Int4,
			Sparse:   SparsePad,
			Pad:      int32(-9),
		}, []int{0, 1, 2, 10, 11, 12}, []int32{1, 2, 3, 11, 12, 13}))
	})

	// Records past the last physical one are virtual and synthesize from
	// the pad value, the same as the interior gap.
	res, err := r.VarGetRecords("v", 0, 15)
	require.NoError(t, err)
	assert.Equal(t, []int32{
		1, 2, 3, -9, -9, -9, -9, -9, -9, -9, 11, 12, 13, -9, -9, -9,
	}, res.Values)
	assert.Equal(t, []int{16}, res.Shape)

	// A range entirely past the data is all virtual records.
	res, err = r.VarGetRecords("v", 20, 22)
	require.NoError(t, err)
	assert.Equal(t, []int32{-9, -9, -9}, res.Values)
	assert.Equal(t, 20, res.FirstRecord)
}

func TestSparsePad_DefaultPad(t *testing.T) {
	r := buildFile(t, WriterOptions{}, func(w *Writer) {
		require.NoError(t, w.WriteVarRecords(VarSpec{
			Name:     "v",
			DataType: codec.Int2,
			Sparse:   SparsePad,
		}, []int{1}, []int16{7}))
	})

	res, err := r.VarGet("v")
	require.NoError(t, err)
	pad := codec.Int2.PadValue().(int16)
	assert.Equal(t, []int16{pad, 7}, res.Values)
}

func TestSparsePrevious(t *testing.T) {
	r := buildFile(t, WriterOptions{}, func(w *Writer) {
		require.NoError(t, w.WriteVarRecords(VarSpec{
			Name:     "v",
			DataType: codec.Int4,
			Sparse:   SparsePrevious,
			Pad:      int32(0),
		}, []int{1, 2, 5}, []int32{10, 20, 50}))
	})

	// Record 0 precedes any physical record and takes the pad; the gap
	// at 3..4 repeats record 2.
	res, err := r.VarGet("v")
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 10, 20, 20, 20, 50}, res.Values)

	// A range starting inside a gap still finds the previous physical
	// record in a block before the range.
	res, err = r.VarGetRecords("v", 3, 4)
	require.NoError(t, err)
	assert.Equal(t, []int32{20, 20}, res.Values)
	assert.Equal(t, 3, res.FirstRecord)

	// Past the last physical record the latest one keeps repeating.
	res, err = r.VarGetRecords("v", 5, 8)
	require.NoError(t, err)
	assert.Equal(t, []int32{50, 50, 50, 50}, res.Values)
}

func TestWriteVarRecords_Misuse(t *testing.T) {
	r := buildFile(t, WriterOptions{}, func(w *Writer) {
		spec := VarSpec{Name: "dense", DataType: codec.Int4}
		err := w.WriteVarRecords(spec, []int{0, 1}, []int32{1, 2})
		assert.ErrorIs(t, err, ErrUsage, "explicit record numbers need a sparse variable")

		spec = VarSpec{Name: "order", DataType: codec.Int4, Sparse: SparsePad}
		err = w.WriteVarRecords(spec, []int{3, 1}, []int32{1, 2})
		assert.ErrorIs(t, err, ErrUsage, "record numbers must increase")

		spec.Name = "neg"
		err = w.WriteVarRecords(spec, []int{-1, 1}, []int32{1, 2})
		assert.ErrorIs(t, err, ErrUsage)

		spec.Name = "count"
		err = w.WriteVarRecords(spec, []int{0, 1, 2}, []int32{1, 2})
		assert.ErrorIs(t, err, ErrUsage, "one record of values per record number")

		spec = VarSpec{Name: "nv", DataType: codec.Int4, Sparse: SparsePad, NoRecVary: true}
		err = w.WriteVarRecords(spec, []int{0}, []int32{1})
		assert.ErrorIs(t, err, ErrUsage)

		// Leave something valid behind so the reopen has content.
		require.NoError(t, w.WriteVar(VarSpec{Name: "ok", DataType: codec.Int4}, []int32{1}))
	})

	res, err := r.VarGet("ok")
	require.NoError(t, err)
	assert.Equal(t, []int32{1}, res.Values)
}

func TestVarGetRecords(t *testing.T) {
	values := make([]int32, 100)
	for i := range values {
		values[i] = int32(i)
	}
	r := buildFile(t, WriterOptions{}, func(w *Writer) {
		require.NoError(t, w.WriteVar(VarSpec{Name: "v", DataType: codec.Int4}, values))
	})

	res, err := r.VarGetRecords("v", 10, 14)
	require.NoError(t, err)
	assert.Equal(t, []int32{10, 11, 12, 13, 14}, res.Values)
	assert.Equal(t, 10, res.FirstRecord)
	assert.Equal(t, []int{5}, res.Shape)

	res, err = r.VarGetRecords("v", 99, 99)
	require.NoError(t, err)
	assert.Equal(t, []int32{99}, res.Values)

	_, err = r.VarGetRecords("v", -1, 4)
	assert.ErrorIs(t, err, ErrUsage)
	_, err = r.VarGetRecords("v", 5, 4)
	assert.ErrorIs(t, err, ErrUsage)
	_, err = r.VarGetRecords("v", 0, 100)
	assert.ErrorIs(t, err, ErrUsage)
}

func TestVXRTree_ManyBlocks(t *testing.T) {
	// One record per block forces enough index entries that the sibling
	// chain gets an interior level, which reads must traverse.
	values := make([]int32, 60)
	for i := range values {
		values[i] = int32(i * 3)
	}
	r := buildFile(t, WriterOptions{}, func(w *Writer) {
		require.NoError(t, w.WriteVar(VarSpec{
			Name:           "v",
			DataType:       codec.Int4,
			BlockingFactor: 1,
		}, values))
	})

	res, err := r.VarGet("v")
	require.NoError(t, err)
	assert.Equal(t, values, res.Values)

	res, err = r.VarGetRecords("v", 40, 45)
	require.NoError(t, err)
	assert.Equal(t, []int32{120, 123, 126, 129, 132, 135}, res.Values)
}

func TestVarGetTimeRange(t *testing.T) {
	mkEpochs := func(t *testing.T) ([]float64, []float64) {
		t.Helper()
		flux := []float64{10, 20, 30, 40, 50}
		epochs := make([]float64, 5)
		for i := range epochs {
			// 2020-01-01 through 2020-01-05.
			epochs[i] = 63745056000000.0 + float64(i)*86400000
		}
		return epochs, flux
	}
	epochs, flux := mkEpochs(t)

	r := buildFile(t, WriterOptions{}, func(w *Writer) {
		require.NoError(t, w.WriteVar(VarSpec{Name: "Epoch", DataType: codec.Epoch}, epochs))
		require.NoError(t, w.WriteVar(VarSpec{Name: "flux", DataType: codec.Real8}, flux))
		require.NoError(t, w.WriteVarAttr("DEPEND_0", "flux", "Epoch"))
	})

	res, err := r.VarGetTimeRange("flux", []float64{2020, 1, 2}, []float64{2020, 1, 4})
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 30, 40}, res.Values)
	assert.Equal(t, 1, res.FirstRecord)

	// Open-ended on both sides reads everything.
	res, err = r.VarGetTimeRange("flux", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, flux, res.Values)

	// A window past the data comes back empty rather than failing.
	res, err = r.VarGetTimeRange("flux", []float64{2021, 1, 1}, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Values)
	assert.Equal(t, []int{0}, res.Shape)

	// Raw epoch bounds of the time variable's kind work too.
	res, err = r.VarGetTimeRange("flux", epochs[3], nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{40, 50}, res.Values)

	// The epoch variable can be named explicitly instead of resolved
	// through DEPEND_0.
	res, err = r.VarGetTimeRangeVia("flux", "Epoch", []float64{2020, 1, 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{30, 40, 50}, res.Values)

	// Without DEPEND_0 the request resolves only with an explicit epoch
	// variable.
	r2 := buildFile(t, WriterOptions{}, func(w *Writer) {
		require.NoError(t, w.WriteVar(VarSpec{Name: "stamps", DataType: codec.Epoch}, epochs[:1]))
		require.NoError(t, w.WriteVar(VarSpec{Name: "lone", DataType: codec.Real8}, []float64{1}))
	})
	_, err = r2.VarGetTimeRange("lone", nil, nil)
	assert.Error(t, err)
	res, err = r2.VarGetTimeRangeVia("lone", "stamps", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, res.Values)
}
