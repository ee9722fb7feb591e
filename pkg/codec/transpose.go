package codec

// Record payloads are stored in the file in the CDF's declared majority.
// The in-memory convention of this package is row-major (last dimension
// varies fastest), so column-major files need their elements permuted on
// read and permuted back on write. The permutation works on raw bytes,
// before decode and after encode, one fixed-width element at a time.

// ColumnToRow permutes one record's payload from column-major to row-major
// element order. width is the byte width of one element, dims the declared
// dimension sizes. Payloads with fewer than two dimensions are returned
// unchanged.
func ColumnToRow(raw []byte, width int, dims []int) []byte {
	return permute(raw, width, dims, false)
}

// RowToColumn is the inverse of ColumnToRow.
func RowToColumn(raw []byte, width int, dims []int) []byte {
	return permute(raw, width, dims, true)
}

func permute(raw []byte, width int, dims []int, toColumn bool) []byte {
	if len(dims) < 2 {
		return raw
	}
	n := 1
	for _, d := range dims {
		if d <= 0 {
			return raw
		}
		n *= d
	}
	if len(raw) < n*width {
		return raw
	}

	out := make([]byte, len(raw))
	idx := make([]int, len(dims))
	for row := 0; row < n; row++ {
		// idx holds the multi-index in declared dimension order, with
		// the last dimension varying fastest as row increments.
		col := 0
		for k := len(dims) - 1; k >= 0; k-- {
			col = col*dims[k] + idx[k]
		}
		src, dst := col, row
		if toColumn {
			src, dst = row, col
		}
		copy(out[dst*width:(dst+1)*width], raw[src*width:(src+1)*width])

		for k := len(dims) - 1; k >= 0; k-- {
			idx[k]++
			if idx[k] < dims[k] {
				break
			}
			idx[k] = 0
		}
	}
	// Any trailing bytes past the dimensioned elements pass through as-is.
	copy(out[n*width:], raw[n*width:])
	return out
}
