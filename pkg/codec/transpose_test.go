package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnToRow(t *testing.T) {
	// A 2x3 matrix of single-byte elements stored column-major:
	// columns (a d), (b e), (c f) for the row-major matrix [a b c; d e f].
	col := []byte{'a', 'd', 'b', 'e', 'c', 'f'}
	row := ColumnToRow(col, 1, []int{2, 3})
	assert.Equal(t, []byte{'a', 'b', 'c', 'd', 'e', 'f'}, row)

	back := RowToColumn(row, 1, []int{2, 3})
	assert.Equal(t, col, back)
}

func TestTranspose_WideElements(t *testing.T) {
	// 2x2 of 4-byte elements. Off-diagonal elements swap.
	row := []byte{
		1, 1, 1, 1, 2, 2, 2, 2,
		3, 3, 3, 3, 4, 4, 4, 4,
	}
	col := RowToColumn(row, 4, []int{2, 2})
	assert.Equal(t, []byte{
		1, 1, 1, 1, 3, 3, 3, 3,
		2, 2, 2, 2, 4, 4, 4, 4,
	}, col)

	assert.Equal(t, row, ColumnToRow(col, 4, []int{2, 2}))
}

func TestTranspose_ThreeDims(t *testing.T) {
	dims := []int{2, 3, 4}
	n := 2 * 3 * 4
	raw := make([]byte, n)
	for i := range raw {
		raw[i] = byte(i)
	}

	col := RowToColumn(raw, 1, dims)
	require.Len(t, col, n)
	assert.NotEqual(t, raw, col)
	assert.Equal(t, raw, ColumnToRow(col, 1, dims))

	// Row-major index (i,j,k) lands at column-major offset i + j*2 + k*6.
	assert.Equal(t, raw[1*12+2*4+3], col[1+2*2+3*6])
}

func TestTranspose_Passthrough(t *testing.T) {
	raw := []byte{1, 2, 3, 4}

	// Fewer than two dimensions never permute.
	assert.Equal(t, raw, ColumnToRow(raw, 1, nil))
	assert.Equal(t, raw, ColumnToRow(raw, 1, []int{4}))

	// Degenerate or oversized dimension lists pass through unchanged.
	assert.Equal(t, raw, ColumnToRow(raw, 1, []int{0, 4}))
	assert.Equal(t, raw, ColumnToRow(raw, 1, []int{3, 3}))
}
