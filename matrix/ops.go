package matrix

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/aicam-labs/go-postprocess/fixedpoint"
)

func checkSameShape(op string, a, b Matrix) {
	if a.Rows != b.Rows || a.Cols != b.Cols {
		panic(fmt.Sprintf("matrix: %s: shapes %dx%d and %dx%d differ", op, a.Rows, a.Cols, b.Rows, b.Cols))
	}
}

func checkSameFormat(op string, a, b Matrix) {
	if a.FracBits != b.FracBits {
		panic(fmt.Sprintf("matrix: %s: formats Q%d and Q%d differ", op, a.FracBits, b.FracBits))
	}
}

// Mul computes res = op1 * op2. The result buffer must not alias either
// operand and the operands must be unfiltered views.
func Mul(op1, op2, res Matrix) {
	if sameData(op1, res) || sameData(op2, res) {
		panic("matrix: Mul: result must not alias an operand")
	}
	if op1.Rows != res.Rows || op2.Cols != res.Cols {
		panic(fmt.Sprintf("matrix: Mul: result %dx%d for %dx%d * %dx%d",
			res.Rows, res.Cols, op1.Rows, op1.Cols, op2.Rows, op2.Cols))
	}
	if op1.Cols != op2.Rows {
		panic(fmt.Sprintf("matrix: Mul: inner dimensions %d and %d differ", op1.Cols, op2.Rows))
	}
	checkSameFormat("Mul", op1, res)
	if op1.RowsFilter != nil || op1.ColsFilter != nil ||
		op2.RowsFilter != nil || op2.ColsFilter != nil {
		panic("matrix: Mul: filtered operands are not supported")
	}

	for i := 0; i < op1.Rows; i++ {
		for j := 0; j < op2.Cols; j++ {
			acc := fixedpoint.FromInt(0, op1.FracBits)
			for k := 0; k < op1.Cols; k++ {
				a := fixedpoint.Interpret(op1.Data[i*op1.RowStride+k*op1.ColStride], op1.FracBits)
				b := fixedpoint.Interpret(op2.Data[k*op2.RowStride+j*op2.ColStride], op2.FracBits)
				acc = acc.Add(a.Mul(b))
			}
			res.Data[i*res.RowStride+j*res.ColStride] = acc.Raw
		}
	}
}

// Add computes res = op1 + op2 elementwise.
func Add(op1, op2, res Matrix) {
	checkSameShape("Add", op1, op2)
	checkSameShape("Add", op2, res)
	checkSameFormat("Add", op1, op2)
	checkSameFormat("Add", op2, res)
	for i := 0; i < res.Rows; i++ {
		for j := 0; j < res.Cols; j++ {
			res.Set(i, j, op1.Get(i, j).Add(op2.Get(i, j)))
		}
	}
}

// AddClampZero computes res = max(op1 + op2, 0) elementwise.
func AddClampZero(op1, op2, res Matrix) {
	checkSameShape("AddClampZero", op1, op2)
	checkSameShape("AddClampZero", op2, res)
	checkSameFormat("AddClampZero", op1, op2)
	checkSameFormat("AddClampZero", op2, res)
	for i := 0; i < res.Rows; i++ {
		for j := 0; j < res.Cols; j++ {
			res.Set(i, j, op1.Get(i, j).AddClampZero(op2.Get(i, j)))
		}
	}
}

// Sub computes res = op1 - op2 elementwise.
func Sub(op1, op2, res Matrix) {
	checkSameShape("Sub", op1, op2)
	checkSameShape("Sub", op2, res)
	checkSameFormat("Sub", op1, op2)
	checkSameFormat("Sub", op2, res)
	for i := 0; i < res.Rows; i++ {
		for j := 0; j < res.Cols; j++ {
			res.Set(i, j, op1.Get(i, j).Sub(op2.Get(i, j)))
		}
	}
}

// Div computes res = op1 / op2 elementwise. Returns an error naming the
// first zero divisor element.
func Div(op1, op2, res Matrix) error {
	checkSameShape("Div", op1, op2)
	checkSameShape("Div", op2, res)
	checkSameFormat("Div", op1, op2)
	checkSameFormat("Div", op2, res)
	for i := 0; i < res.Rows; i++ {
		for j := 0; j < res.Cols; j++ {
			b := op2.Get(i, j)
			if b.Raw == 0 {
				return errors.Errorf("matrix: Div: divisor element (%d,%d) is zero", i, j)
			}
			res.Set(i, j, op1.Get(i, j).Div(b))
		}
	}
	return nil
}

// Scale computes res = mat * scale elementwise.
func Scale(mat Matrix, scale fixedpoint.Number, res Matrix) {
	checkSameShape("Scale", mat, res)
	checkSameFormat("Scale", mat, res)
	for i := 0; i < mat.Rows; i++ {
		for j := 0; j < mat.Cols; j++ {
			res.Set(i, j, mat.Get(i, j).Mul(scale))
		}
	}
}

// InvScale computes res = mat / scale elementwise. Returns an error when
// scale is zero.
func InvScale(mat Matrix, scale fixedpoint.Number, res Matrix) error {
	checkSameShape("InvScale", mat, res)
	checkSameFormat("InvScale", mat, res)
	if scale.Raw == 0 {
		return errors.New("matrix: InvScale: scale is zero")
	}
	for i := 0; i < mat.Rows; i++ {
		for j := 0; j < mat.Cols; j++ {
			res.Set(i, j, mat.Get(i, j).Div(scale))
		}
	}
	return nil
}

// Abs computes res = |op| elementwise.
func Abs(op, res Matrix) {
	checkSameShape("Abs", op, res)
	for i := 0; i < res.Rows; i++ {
		for j := 0; j < res.Cols; j++ {
			res.Set(i, j, op.Get(i, j).Abs())
		}
	}
}

// CrossProduct computes the cross product of two 3-element vectors.
// Both 3x1 and 1x3 shapes are accepted; 1x3 operands are handled through
// their transposes. The result must not alias an operand.
func CrossProduct(op1, op2, res Matrix) {
	vector3 := func(m Matrix) bool {
		return (m.Rows == 3 && m.Cols == 1) || (m.Rows == 1 && m.Cols == 3)
	}
	if !vector3(op1) || !vector3(op2) {
		panic(fmt.Sprintf("matrix: CrossProduct: operands %dx%d and %dx%d are not 3-vectors",
			op1.Rows, op1.Cols, op2.Rows, op2.Cols))
	}
	checkSameShape("CrossProduct", op1, op2)
	checkSameShape("CrossProduct", op2, res)
	if sameData(op1, res) || sameData(op2, res) {
		panic("matrix: CrossProduct: result must not alias an operand")
	}

	if op1.Cols == 3 {
		CrossProduct(op1.Transpose(), op2.Transpose(), res.Transpose())
		return
	}

	a1, a2, a3 := op1.Get(0, 0), op1.Get(1, 0), op1.Get(2, 0)
	b1, b2, b3 := op2.Get(0, 0), op2.Get(1, 0), op2.Get(2, 0)

	res.Set(0, 0, a2.Mul(b3).Sub(a3.Mul(b2)))
	res.Set(1, 0, a3.Mul(b1).Sub(a1.Mul(b3)))
	res.Set(2, 0, a1.Mul(b2).Sub(a2.Mul(b1)))
}

// ColMean writes the per-column mean of op into the 1 x op.Cols result.
func ColMean(op, res Matrix) {
	if res.Rows != 1 {
		panic(fmt.Sprintf("matrix: ColMean: result should have 1 row, has %d", res.Rows))
	}
	if res.Cols != op.Cols {
		panic(fmt.Sprintf("matrix: ColMean: result should have %d columns, has %d", op.Cols, res.Cols))
	}
	for j := 0; j < op.Cols; j++ {
		acc := op.Get(0, j)
		for i := 1; i < op.Rows; i++ {
			acc = acc.Add(op.Get(i, j))
		}
		acc.Raw /= int32(op.Rows)
		res.Set(0, j, acc)
	}
}

// RowMean writes the per-row mean of op into the op.Rows x 1 result.
func RowMean(op, res Matrix) {
	if res.Rows != op.Rows {
		panic(fmt.Sprintf("matrix: RowMean: result should have %d rows, has %d", op.Rows, res.Rows))
	}
	if res.Cols != 1 {
		panic(fmt.Sprintf("matrix: RowMean: result should have 1 column, has %d", res.Cols))
	}
	ColMean(op.Transpose(), res.Transpose())
}

// Trace returns the sum of the diagonal of a square matrix.
func (m Matrix) Trace() fixedpoint.Number {
	if m.Rows != m.Cols {
		panic(fmt.Sprintf("matrix: Trace: matrix is not square: %dx%d", m.Rows, m.Cols))
	}
	result := m.Get(0, 0)
	for i := 1; i < m.Rows; i++ {
		result = result.Add(m.Get(i, i))
	}
	return result
}

// Norm returns the Frobenius norm of m. The sum of squares accumulates
// in the matrix format; ok is false when it overflows into a negative
// value and no norm can be extracted.
func (m Matrix) Norm() (fixedpoint.Number, bool) {
	result := fixedpoint.FromInt(0, m.FracBits)
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			result = result.Add(m.Get(i, j).Sqr())
		}
	}
	if result.Raw < 0 {
		return result, false
	}
	return result.Sqrt(), true
}

// Norm2D64 returns the norm of a 2-element vector using a 64-bit sum of
// squares, safe against the int32 overflow Norm is subject to.
func Norm2D64(x, y fixedpoint.Number) fixedpoint.Number {
	sum := int64(x.Raw)*int64(x.Raw) + int64(y.Raw)*int64(y.Raw)
	return fixedpoint.Interpret(int32(fixedpoint.ISqrt64(uint64(sum))), x.FracBits)
}

// CosineSimilarity returns the cosine of the angle between two vectors
// of identical shape. Errors on zero-norm input.
func CosineSimilarity(a, b Matrix) (fixedpoint.Number, error) {
	if a.Rows != 1 && a.Cols != 1 {
		panic(fmt.Sprintf("matrix: CosineSimilarity: %dx%d is not a vector", a.Rows, a.Cols))
	}
	if b.Rows != 1 && b.Cols != 1 {
		panic(fmt.Sprintf("matrix: CosineSimilarity: %dx%d is not a vector", b.Rows, b.Cols))
	}
	checkSameShape("CosineSimilarity", a, b)

	zero := fixedpoint.FromInt(0, a.FracBits)
	normA, okA := a.Norm()
	normB, okB := b.Norm()
	if !okA || !okB {
		return zero, errors.New("matrix: CosineSimilarity: norm overflow")
	}
	if normA.Raw == 0 || normB.Raw == 0 {
		return zero, errors.New("matrix: CosineSimilarity: zero norm vector")
	}

	dot := New(1, 1, a.FracBits)
	if a.Rows == 1 {
		Mul(a, b.Transpose(), dot)
	} else {
		Mul(a.Transpose(), b, dot)
	}
	return dot.Get(0, 0).Div(normA.Mul(normB)), nil
}

// Invert6x6 inverts a 6x6 matrix into inv using Gauss-Jordan elimination.
//
// No pivot search is performed: callers feed well-conditioned covariance
// style matrices whose diagonal stays away from zero, and the fixed pivot
// order keeps the elimination deterministic. A zero pivot aborts with an
// error instead.
func Invert6x6(mat, inv Matrix) error {
	if sameData(mat, inv) {
		panic("matrix: Invert6x6: result must not alias the input")
	}
	if mat.Rows != 6 || mat.Cols != 6 {
		panic(fmt.Sprintf("matrix: Invert6x6: matrix is %dx%d, want 6x6", mat.Rows, mat.Cols))
	}

	work := New(6, 6, mat.FracBits)
	mat.DeepCopyTo(work)

	one := fixedpoint.FromInt(1, work.FracBits)
	inv.InitDiagonal(one)

	for fd := 0; fd < work.Rows; fd++ {
		pivot := work.Get(fd, fd)
		if pivot.Raw == 0 {
			return errors.Errorf("matrix: Invert6x6: zero pivot at column %d", fd)
		}
		scaler := one.Div(pivot)

		for j := 0; j < work.Cols; j++ {
			work.Set(fd, j, work.Get(fd, j).Mul(scaler))
			inv.Set(fd, j, inv.Get(fd, j).Mul(scaler))
		}
		for i := 0; i < work.Rows; i++ {
			if i == fd {
				continue
			}
			rowScaler := work.Get(i, fd)
			for j := 0; j < work.Cols; j++ {
				work.Set(i, j, work.Get(i, j).Sub(rowScaler.Mul(work.Get(fd, j))))
				inv.Set(i, j, inv.Get(i, j).Sub(rowScaler.Mul(inv.Get(fd, j))))
			}
		}
	}
	return nil
}

// Orthogonalize3x3 writes into Q the orthonormal basis produced by the
// modified Gram-Schmidt process over the columns of mat. Errors when a
// column norm vanishes or overflows.
func Orthogonalize3x3(mat, q Matrix) error {
	if sameData(mat, q) {
		panic("matrix: Orthogonalize3x3: result must not alias the input")
	}

	r := New(3, 3, mat.FracBits)
	zero := fixedpoint.FromInt(0, mat.FracBits)
	q.Fill(zero)

	for j := 0; j < mat.Cols; j++ {
		v := New(3, 1, mat.FracBits)
		for i := 0; i < mat.Rows; i++ {
			v.Set(i, 0, mat.Get(i, j))
		}

		for i := 0; i < j; i++ {
			value := fixedpoint.FromInt(0, q.FracBits)
			for k := 0; k < q.Rows; k++ {
				value = value.Add(q.Get(k, i).Mul(mat.Get(k, j)))
			}
			r.Set(i, j, value)

			for k := 0; k < v.Rows; k++ {
				v.Set(k, 0, v.Get(k, 0).Sub(value.Mul(q.Get(k, i))))
			}
		}

		vNorm, ok := v.Norm()
		if !ok {
			return errors.Errorf("matrix: Orthogonalize3x3: norm overflow on column %d", j)
		}
		if vNorm.Raw == 0 {
			return errors.Errorf("matrix: Orthogonalize3x3: column %d has zero norm", j)
		}
		r.Set(j, j, vNorm)

		for i := 0; i < v.Rows; i++ {
			q.Set(i, j, v.Get(i, 0).Div(vNorm))
		}
	}
	return nil
}

// CompleteOrthogonalRow copies a 2x3 partial rotation into the first two
// rows of the 3x3 result and fills the third row with the cross product
// of the first two, completing a right-handed basis.
func CompleteOrthogonalRow(rot2D, result Matrix) {
	if rot2D.Rows != 2 || rot2D.Cols != 3 {
		panic(fmt.Sprintf("matrix: CompleteOrthogonalRow: input is %dx%d, want 2x3", rot2D.Rows, rot2D.Cols))
	}
	if result.Rows != 3 || result.Cols != 3 {
		panic(fmt.Sprintf("matrix: CompleteOrthogonalRow: result is %dx%d, want 3x3", result.Rows, result.Cols))
	}

	result.Set(2, 0, rot2D.Get(0, 1).Mul(rot2D.Get(1, 2)).Sub(rot2D.Get(0, 2).Mul(rot2D.Get(1, 1))))
	result.Set(2, 1, rot2D.Get(0, 2).Mul(rot2D.Get(1, 0)).Sub(rot2D.Get(0, 0).Mul(rot2D.Get(1, 2))))
	result.Set(2, 2, rot2D.Get(0, 0).Mul(rot2D.Get(1, 1)).Sub(rot2D.Get(0, 1).Mul(rot2D.Get(1, 0))))

	for j := 0; j < 3; j++ {
		result.Set(0, j, rot2D.Get(0, j))
		result.Set(1, j, rot2D.Get(1, j))
	}
}
