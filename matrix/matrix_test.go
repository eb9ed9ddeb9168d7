package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicam-labs/go-postprocess/fixedpoint"
)

func fp(n int32) fixedpoint.Number {
	return fixedpoint.FromInt(n, 10)
}

// sequential fills m with 1, 2, 3, ... row-major.
func sequential(m Matrix) {
	v := int32(1)
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			m.Set(i, j, fp(v))
			v++
		}
	}
}

func TestGetSet(t *testing.T) {
	m := New(2, 3, 10)
	m.Set(1, 2, fp(7))
	assert.Equal(t, fp(7), m.Get(1, 2))
	assert.Equal(t, fp(0), m.Get(0, 0))

	assert.Panics(t, func() { m.Get(2, 0) })
	assert.Panics(t, func() { m.Get(0, 3) })
	assert.Panics(t, func() { m.Set(0, 0, fixedpoint.FromInt(1, 8)) })
}

func TestInterpretWrapsBuffer(t *testing.T) {
	data := []int32{1, 2, 3, 4, 5, 6}
	m := Interpret(data, 2, 3, 10)
	assert.Equal(t, int32(6), m.Get(1, 2).Raw)

	// The view writes through to the caller's buffer.
	m.Set(0, 0, fp(9))
	assert.Equal(t, int32(9<<10), data[0])

	assert.Panics(t, func() { Interpret(data, 3, 3, 10) })
}

func TestTransposeIsZeroCopy(t *testing.T) {
	m := New(2, 3, 10)
	sequential(m)

	tr := m.Transpose()
	require.Equal(t, 3, tr.Rows)
	require.Equal(t, 2, tr.Cols)
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			assert.Equal(t, m.Get(i, j), tr.Get(j, i))
		}
	}

	// Writes through the transposed view land in the original.
	tr.Set(2, 1, fp(42))
	assert.Equal(t, fp(42), m.Get(1, 2))

	// Transposing twice restores the original element order.
	back := tr.Transpose()
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			assert.Equal(t, m.Get(i, j), back.Get(i, j))
		}
	}
}

func TestFilterRows(t *testing.T) {
	m := New(4, 2, 10)
	sequential(m)

	f := m.FilterRows([]int{3, 1})
	require.Equal(t, 2, f.Rows)
	assert.Equal(t, m.Get(3, 0), f.Get(0, 0))
	assert.Equal(t, m.Get(1, 1), f.Get(1, 1))

	// One filter per axis.
	assert.Panics(t, func() { f.FilterRows([]int{0}) })
	assert.Panics(t, func() { m.FilterRows(nil) })
	assert.Panics(t, func() { m.FilterRows([]int{0, 1, 2, 3, 0}) })
}

func TestFilterColsOnTransposedView(t *testing.T) {
	m := New(2, 4, 10)
	sequential(m)

	// Filtering columns of a transposed view has to redirect through the
	// transpose because the underlying stride no longer walks columns.
	tr := m.Transpose() // 4x2
	f := tr.FilterCols([]int{1})
	require.Equal(t, 4, f.Rows)
	require.Equal(t, 1, f.Cols)
	for i := 0; i < 4; i++ {
		assert.Equal(t, m.Get(1, i), f.Get(i, 0))
	}
}

func TestFilteredViewSharesData(t *testing.T) {
	m := New(3, 3, 10)
	sequential(m)
	f := m.FilterRows([]int{2})
	f.Set(0, 0, fp(99))
	assert.Equal(t, fp(99), m.Get(2, 0))
}

func TestReshape(t *testing.T) {
	m := New(2, 6, 10)
	sequential(m)

	r := m.Reshape(3, 4)
	assert.Equal(t, m.Get(0, 4), r.Get(1, 0))
	assert.Equal(t, m.Get(1, 5), r.Get(2, 3))

	assert.Panics(t, func() { m.Reshape(5, 2) })
	assert.Panics(t, func() { m.Transpose().Reshape(2, 6) })
	assert.Panics(t, func() { m.FilterRows([]int{0}).Reshape(1, 6) })
}

func TestRecycle(t *testing.T) {
	m := NewRecyclable(4, 4, 10)
	sequential(m)

	r := m.Recycle(2, 3)
	require.Equal(t, 2, r.Rows)
	require.Equal(t, 3, r.Cols)
	assert.True(t, r.Recyclable)
	// Same buffer, fresh row-major layout.
	assert.Equal(t, m.Get(0, 3), r.Get(1, 0))

	assert.Panics(t, func() { m.Recycle(5, 4) })
	assert.Panics(t, func() { New(2, 2, 10).Recycle(1, 1) })

	// Views derived from a recyclable matrix must not be recycled.
	assert.False(t, m.Transpose().Recyclable)
	assert.False(t, m.FilterRows([]int{0}).Recyclable)
}

func TestFillAndInitDiagonal(t *testing.T) {
	m := New(3, 3, 10)
	m.Fill(fp(5))
	assert.Equal(t, fp(5), m.Get(2, 2))

	m.InitDiagonal(fp(1))
	assert.Equal(t, fp(1), m.Get(1, 1))
	assert.Equal(t, fp(0), m.Get(0, 2))

	assert.Panics(t, func() { New(2, 3, 10).InitDiagonal(fp(1)) })
}

func TestDeepCopyTo(t *testing.T) {
	src := New(2, 2, 10)
	sequential(src)
	dst := New(2, 2, 10)
	src.DeepCopyTo(dst)
	assert.Equal(t, src.Get(1, 1), dst.Get(1, 1))

	// Copies are independent.
	dst.Set(0, 0, fp(50))
	assert.Equal(t, fp(1), src.Get(0, 0))

	assert.Panics(t, func() { src.DeepCopyTo(New(3, 2, 10)) })
}

func TestHasZeros(t *testing.T) {
	m := New(2, 2, 10)
	sequential(m)
	assert.False(t, m.HasZeros())
	m.Set(1, 0, fp(0))
	assert.True(t, m.HasZeros())
}
