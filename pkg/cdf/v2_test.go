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

func writeBytes(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

// v2rec assembles one v2 record from 4-byte big-endian fields plus raw tails.
type v2file struct{ buf []byte }

func (f *v2file) u32(vs ...uint32) {
	for _, v := range vs {
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], v)
		f.buf = append(f.buf, tmp[:]...)
	}
}

func (f *v2file) i32(vs ...int32) {
	for _, v := range vs {
		f.u32(uint32(v))
	}
}

func (f *v2file) name64(s string) {
	var field [64]byte
	copy(field[:], s)
	f.buf = append(f.buf, field[:]...)
}

// buildV2File lays out a minimal uncompressed v2.6 file with one z variable
// of two CDF_INT4 records. The writer only emits v3, so the v2 read path
// needs a fixture assembled by hand.
func buildV2File(t *testing.T) string {
	t.Helper()
	var f v2file

	// Offsets, given the fixed record sizes below.
	const (
		cdrAt = 8
		gdrAt = cdrAt + 112
		vdrAt = gdrAt + 60
		vxrAt = vdrAt + 132
		vvrAt = vxrAt + 32
		eof   = vvrAt + 16
	)

	f.u32(magicV2, magicUncompressed)

	// CDR: 40 bytes of fields plus 64 bytes of copyright.
	f.i32(112, recCDR)
	f.i32(gdrAt)
	f.i32(2, 6)                // version, release
	f.i32(int32(codec.NetworkEncoding))
	f.i32(cdrFlagSingleFile | cdrFlagRowMajor)
	f.i32(0, 0) // rfuA, rfuB
	f.i32(0)    // increment
	f.i32(0, -1)
	f.name64("legacy fixture")

	// GDR with no attributes and no r dimensions.
	f.i32(60, recGDR)
	f.i32(0)     // rVDR head
	f.i32(vdrAt) // zVDR head
	f.i32(0)     // ADR head
	f.i32(eof)
	f.i32(0, 0)  // NrVars, NumAttr
	f.i32(-1, 0) // rMaxRec, rNumDims
	f.i32(1)     // NzVars
	f.i32(0)     // UIR head
	f.i32(0, 0, -1)

	// zVDR for a dimensionless CDF_INT4 variable with two records.
	f.i32(132, recZVDR)
	f.i32(0) // next
	f.i32(int32(codec.Int4))
	f.i32(1) // maxRec
	f.i32(vxrAt, vxrAt)
	f.i32(vdrFlagRecVary)
	f.i32(int32(SparseNone))
	f.i32(0, -1, -1) // rfuB, rfuC, rfuF
	f.i32(1, 0)      // numElems, num
	f.i32(0)         // CPR offset
	f.i32(2)         // blocking factor
	f.name64("counts")
	f.i32(0) // zNumDims

	// One VXR entry covering both records.
	f.i32(32, recVXR)
	f.i32(0)    // next
	f.i32(1, 1) // NusedEntries == Nentries
	f.i32(0)    // first
	f.i32(1)    // last
	f.i32(vvrAt)

	// VVR with the two record payloads.
	f.i32(16, recVVR)
	f.i32(7, 9)

	path := filepath.Join(t.TempDir(), "legacy.cdf")
	require.NoError(t, writeBytes(path, f.buf))
	return path
}

func TestOpenV2(t *testing.T) {
	r, err := Open(context.Background(), buildV2File(t), Options{})
	require.NoError(t, err)
	defer r.Close()

	info := r.Info()
	assert.Equal(t, "2.6.0", info.Version)
	assert.Equal(t, codec.NetworkEncoding, info.Encoding)
	assert.Equal(t, codec.RowMajority, info.Majority)
	assert.False(t, info.Checksum)
	assert.Equal(t, 1, info.NumZVars)
	assert.Equal(t, 0, info.NumAttrs)
	assert.Equal(t, "legacy fixture", info.Copyright)

	assert.Equal(t, []string{"counts"}, r.Variables())

	vi, err := r.VarInq("counts")
	require.NoError(t, err)
	assert.Equal(t, codec.Int4, vi.DataType)
	assert.True(t, vi.Z)
	assert.True(t, vi.RecVary)
	assert.Equal(t, 1, vi.LastRecord)

	res, err := r.VarGet("counts")
	require.NoError(t, err)
	assert.Equal(t, []int32{7, 9}, res.Values)

	res, err = r.VarGetRecords("counts", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []int32{9}, res.Values)
}

func TestOpenV2_TruncatedRecord(t *testing.T) {
	path := buildV2File(t)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, writeBytes(path, data[:len(data)-8]))

	r, err := Open(context.Background(), path, Options{})
	if err == nil {
		defer r.Close()
		_, err = r.VarGet("counts")
	}
	assert.ErrorIs(t, err, ErrFormat)
}
