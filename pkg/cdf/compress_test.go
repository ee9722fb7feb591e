package cdf

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heliolib/gocdf/pkg/codec"
)

func TestBlockCompression(t *testing.T) {
	// Repetitive data so both schemes actually shrink the blocks.
	values := make([]int32, 4096)
	for i := range values {
		values[i] = int32(i % 4)
	}

	for _, scheme := range []codec.Compression{codec.GzipCompression, codec.RLECompression} {
		t.Run(scheme.String(), func(t *testing.T) {
			r := buildFile(t, WriterOptions{}, func(w *Writer) {
				require.NoError(t, w.WriteVar(VarSpec{
					Name:        "v",
					DataType:    codec.Int4,
					Compression: scheme,
				}, values))
			})

			vi, err := r.VarInq("v")
			require.NoError(t, err)
			assert.Equal(t, scheme, vi.Compression)

			res, err := r.VarGet("v")
			require.NoError(t, err)
			assert.Equal(t, values, res.Values)
		})
	}
}

func TestBlockCompression_IncompressibleStaysRaw(t *testing.T) {
	// A pseudo-random payload will not shrink under RLE, so the block is
	// stored as a plain VVR and must still read back through the
	// compressed-variable path.
	values := make([]int32, 64)
	state := int32(12345)
	for i := range values {
		state = state*1103515245 + 12721
		values[i] = state | 1 // keep zero bytes rare
	}

	r := buildFile(t, WriterOptions{}, func(w *Writer) {
		require.NoError(t, w.WriteVar(VarSpec{
			Name:        "noise",
			DataType:    codec.Int4,
			Compression: codec.RLECompression,
		}, values))
	})

	res, err := r.VarGet("noise")
	require.NoError(t, err)
	assert.Equal(t, values, res.Values)
}

func TestBlockCompression_GzipLevel(t *testing.T) {
	r := buildFile(t, WriterOptions{}, func(w *Writer) {
		require.NoError(t, w.WriteVar(VarSpec{
			Name:             "v",
			DataType:         codec.Int4,
			Compression:      codec.GzipCompression,
			CompressionLevel: 9,
		}, make([]int32, 1024)))
	})

	vi, err := r.VarInq("v")
	require.NoError(t, err)
	assert.Equal(t, codec.GzipCompression, vi.Compression)
	assert.Equal(t, 9, vi.CompressionLevel)
}

func TestWholeFileCompression(t *testing.T) {
	values := make([]float64, 512)
	for i := range values {
		values[i] = float64(i / 8)
	}

	for _, scheme := range []codec.Compression{codec.GzipCompression, codec.RLECompression} {
		t.Run(scheme.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "packed.cdf")
			w, err := NewWriter(path, WriterOptions{Compression: scheme})
			require.NoError(t, err)
			require.NoError(t, w.WriteGlobalAttr("TITLE", "packed"))
			require.NoError(t, w.WriteVar(VarSpec{Name: "v", DataType: codec.Real8}, values))
			require.NoError(t, w.Close())

			// The file on disk carries the compressed magic.
			head := make([]byte, 8)
			f, err := os.Open(path)
			require.NoError(t, err)
			_, err = f.ReadAt(head, 0)
			require.NoError(t, f.Close())
			require.NoError(t, err)
			assert.Equal(t, uint32(magicV3), binary.BigEndian.Uint32(head[:4]))
			assert.Equal(t, uint32(magicCompressed), binary.BigEndian.Uint32(head[4:]))

			r, err := Open(context.Background(), path, Options{})
			require.NoError(t, err)
			defer r.Close()

			info := r.Info()
			assert.True(t, info.Compressed)
			assert.Equal(t, scheme, info.Compression)
			assert.True(t, info.Checksum, "checksum survives inside the wrapped body")

			res, err := r.VarGet("v")
			require.NoError(t, err)
			assert.Equal(t, values, res.Values)

			e, err := r.AttGetGlobal("TITLE", 0)
			require.NoError(t, err)
			assert.Equal(t, "packed", e.Value)
		})
	}
}

func TestChecksum_DetectsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sum.cdf")
	w, err := NewWriter(path, WriterOptions{})
	require.NoError(t, err)
	require.NoError(t, w.WriteVar(VarSpec{Name: "v", DataType: codec.Int4}, []int32{1, 2, 3}))
	require.NoError(t, w.Close())

	// Flip one byte inside the CDR copyright text. The control records
	// still parse; only the MD5 notices.
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	one := make([]byte, 1)
	_, err = f.ReadAt(one, 100)
	require.NoError(t, err)
	one[0] ^= 0xFF
	_, err = f.WriteAt(one, 100)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Open(context.Background(), path, Options{})
	assert.ErrorIs(t, err, ErrChecksum)

	r, err := Open(context.Background(), path, Options{SkipChecksum: true})
	require.NoError(t, err)
	defer r.Close()

	res, err := r.VarGet("v")
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3}, res.Values)
}
