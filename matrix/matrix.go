// Package matrix - fixed point matrices with zero-copy views.
//
// A Matrix is a cheap view over a shared []int32 mantissa buffer: transpose,
// row/column filtering and reshape never move data, they only rewrite the
// strides and filter tables. All elements of one matrix share a Q-format.
package matrix

import (
	"fmt"

	"github.com/aicam-labs/go-postprocess/fixedpoint"
)

// Matrix is a view over fixed point values stored row-major in Data.
// RowStride and ColStride give the distance in Data between consecutive
// rows and columns; the optional filters remap row/column indices before
// the strides apply, which is how filtered views stay zero-copy.
type Matrix struct {
	Rows, Cols int
	Data       []int32
	FracBits   uint8

	RowStride int
	ColStride int

	RowsFilter []int
	ColsFilter []int

	// Recyclable marks the backing buffer as reusable through Recycle.
	Recyclable bool
}

// New allocates a rows x cols matrix of zeros.
func New(rows, cols int, fracBits uint8) Matrix {
	return Matrix{
		Rows:      rows,
		Cols:      cols,
		Data:      make([]int32, rows*cols),
		FracBits:  fracBits,
		RowStride: cols,
		ColStride: 1,
	}
}

// NewRecyclable allocates a matrix whose buffer may later be reshaped
// into smaller matrices through Recycle.
func NewRecyclable(rows, cols int, fracBits uint8) Matrix {
	m := New(rows, cols, fracBits)
	m.Recyclable = true
	return m
}

// Interpret wraps an existing mantissa buffer as a rows x cols matrix
// without copying. Panics when the buffer is too small.
func Interpret(data []int32, rows, cols int, fracBits uint8) Matrix {
	if len(data) < rows*cols {
		panic(fmt.Sprintf("matrix: Interpret: buffer of %d values cannot hold %dx%d", len(data), rows, cols))
	}
	return Matrix{
		Rows:      rows,
		Cols:      cols,
		Data:      data,
		FracBits:  fracBits,
		RowStride: cols,
		ColStride: 1,
	}
}

func (m Matrix) checkIndex(op string, row, col int) {
	if row < 0 || row >= m.Rows {
		panic(fmt.Sprintf("matrix: %s: row %d out of range [0, %d)", op, row, m.Rows))
	}
	if col < 0 || col >= m.Cols {
		panic(fmt.Sprintf("matrix: %s: col %d out of range [0, %d)", op, col, m.Cols))
	}
}

// Get returns m[row, col].
func (m Matrix) Get(row, col int) fixedpoint.Number {
	m.checkIndex("Get", row, col)
	if m.RowsFilter != nil {
		row = m.RowsFilter[row]
	}
	if m.ColsFilter != nil {
		col = m.ColsFilter[col]
	}
	return fixedpoint.Interpret(m.Data[row*m.RowStride+col*m.ColStride], m.FracBits)
}

// Set assigns m[row, col] = value. The value must use the matrix format.
func (m Matrix) Set(row, col int, value fixedpoint.Number) {
	m.checkIndex("Set", row, col)
	if value.FracBits != m.FracBits {
		panic(fmt.Sprintf("matrix: Set: value format Q%d differs from matrix format Q%d",
			value.FracBits, m.FracBits))
	}
	if m.RowsFilter != nil {
		row = m.RowsFilter[row]
	}
	if m.ColsFilter != nil {
		col = m.ColsFilter[col]
	}
	m.Data[row*m.RowStride+col*m.ColStride] = value.Raw
}

// Transpose returns a zero-copy transposed view: strides, dimensions and
// filters swap, the data stays in place.
func (m Matrix) Transpose() Matrix {
	return Matrix{
		Rows:       m.Cols,
		Cols:       m.Rows,
		Data:       m.Data,
		FracBits:   m.FracBits,
		RowStride:  m.ColStride,
		ColStride:  m.RowStride,
		RowsFilter: m.ColsFilter,
		ColsFilter: m.RowsFilter,
	}
}

// FilterRows returns a zero-copy view exposing only the given rows, in
// the given order. A view can carry at most one row filter; filtering a
// transposed view redirects through the transpose.
func (m Matrix) FilterRows(indices []int) Matrix {
	if m.RowsFilter != nil {
		panic("matrix: FilterRows: rows already filtered")
	}
	if len(indices) == 0 || len(indices) > m.Rows {
		panic(fmt.Sprintf("matrix: FilterRows: filter length %d not in [1, %d]", len(indices), m.Rows))
	}

	if m.ColStride != 1 {
		return m.Transpose().FilterCols(indices).Transpose()
	}
	filtered := m
	filtered.Rows = len(indices)
	filtered.RowsFilter = indices
	filtered.Recyclable = false
	return filtered
}

// FilterCols returns a zero-copy view exposing only the given columns,
// in the given order. A view can carry at most one column filter.
func (m Matrix) FilterCols(indices []int) Matrix {
	if m.ColsFilter != nil {
		panic("matrix: FilterCols: columns already filtered")
	}
	if len(indices) == 0 || len(indices) > m.Cols {
		panic(fmt.Sprintf("matrix: FilterCols: filter length %d not in [1, %d]", len(indices), m.Cols))
	}

	if m.ColStride != 1 {
		return m.Transpose().FilterRows(indices).Transpose()
	}
	filtered := m
	filtered.Cols = len(indices)
	filtered.ColsFilter = indices
	filtered.Recyclable = false
	return filtered
}

// Reshape reinterprets an unfiltered, contiguous matrix with new
// dimensions of the same total size.
func (m Matrix) Reshape(rows, cols int) Matrix {
	if m.RowsFilter != nil || m.ColsFilter != nil {
		panic("matrix: Reshape: cannot reshape a filtered view")
	}
	if m.ColStride != 1 {
		panic("matrix: Reshape: cannot reshape a transposed view")
	}
	if rows*cols != m.Rows*m.Cols {
		panic(fmt.Sprintf("matrix: Reshape: %dx%d incompatible with %dx%d", m.Rows, m.Cols, rows, cols))
	}
	reshaped := m
	reshaped.Rows = rows
	reshaped.Cols = cols
	reshaped.RowStride = cols
	return reshaped
}

// Recycle reuses the backing buffer of a recyclable matrix for a new,
// at most equally sized matrix.
func (m Matrix) Recycle(rows, cols int) Matrix {
	if !m.Recyclable {
		panic("matrix: Recycle: matrix is not recyclable")
	}
	if rows*cols > m.Rows*m.Cols {
		panic(fmt.Sprintf("matrix: Recycle: %dx%d larger than recycled %dx%d", rows, cols, m.Rows, m.Cols))
	}
	return Matrix{
		Rows:       rows,
		Cols:       cols,
		Data:       m.Data,
		FracBits:   m.FracBits,
		RowStride:  cols,
		ColStride:  1,
		Recyclable: true,
	}
}

// Fill sets every element to value.
func (m Matrix) Fill(value fixedpoint.Number) {
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			m.Set(i, j, value)
		}
	}
}

// InitDiagonal fills a square matrix with value on the diagonal and
// zeros everywhere else.
func (m Matrix) InitDiagonal(value fixedpoint.Number) {
	if m.Rows != m.Cols {
		panic(fmt.Sprintf("matrix: InitDiagonal: matrix is not square: %dx%d", m.Rows, m.Cols))
	}
	zero := fixedpoint.FromInt(0, m.FracBits)
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			if i == j {
				m.Set(i, j, value)
			} else {
				m.Set(i, j, zero)
			}
		}
	}
}

// DeepCopyTo copies every element of m into dst, which must have the
// same dimensions.
func (m Matrix) DeepCopyTo(dst Matrix) {
	if m.Rows != dst.Rows || m.Cols != dst.Cols {
		panic(fmt.Sprintf("matrix: DeepCopyTo: %dx%d into %dx%d", m.Rows, m.Cols, dst.Rows, dst.Cols))
	}
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			dst.Set(i, j, m.Get(i, j))
		}
	}
}

// HasZeros reports whether any element is exactly zero.
func (m Matrix) HasZeros() bool {
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			if m.Get(i, j).Raw == 0 {
				return true
			}
		}
	}
	return false
}

// sameData reports whether two matrices share a backing buffer.
func sameData(a, b Matrix) bool {
	return len(a.Data) > 0 && len(b.Data) > 0 && &a.Data[0] == &b.Data[0]
}
