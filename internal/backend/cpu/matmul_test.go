package cpu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sngp-ml/sngp/internal/backend/cpu"
	"github.com/sngp-ml/sngp/internal/tensor"
)

func TestMatMul_KnownValues(t *testing.T) {
	// [2, 3] @ [3, 2] = [2, 2]
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := fromSlice(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	c := a.MatMul(b)
	assert.True(t, c.Shape().Equal(tensor.Shape{2, 2}))
	assert.Equal(t, []float32{58, 64, 139, 154}, c.Data())
}

func TestMatMul_Identity(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	eye := fromSlice(t, []float32{1, 0, 0, 1}, tensor.Shape{2, 2})

	assert.Equal(t, a.Data(), a.MatMul(eye).Data())
	assert.Equal(t, a.Data(), eye.MatMul(a).Data())
}

func TestMatMul_VectorForms(t *testing.T) {
	// Row vector times column vector gives a 1x1 inner product.
	row := fromSlice(t, []float32{1, 2, 3}, tensor.Shape{1, 3})
	col := fromSlice(t, []float32{4, 5, 6}, tensor.Shape{3, 1})

	inner := row.MatMul(col)
	assert.True(t, inner.Shape().Equal(tensor.Shape{1, 1}))
	assert.Equal(t, float32(32), inner.Item())
}

func TestMatMul_Float64(t *testing.T) {
	backend := cpu.New()

	a, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	assert.NoError(t, err)
	b, err := tensor.FromSlice([]float64{5, 6, 7, 8}, tensor.Shape{2, 2}, backend)
	assert.NoError(t, err)

	c := a.MatMul(b)
	assert.Equal(t, []float64{19, 22, 43, 50}, c.Data())
}

func TestDot_Flattened(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := fromSlice(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2})

	dot := a.Dot(b)
	assert.Equal(t, float32(70), dot.Item())
}

func TestMatMul_ShapeMismatchPanics(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := fromSlice(t, []float32{1, 2, 3}, tensor.Shape{3, 1})

	assert.Panics(t, func() { a.MatMul(b) })
}
