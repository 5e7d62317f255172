package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngp-ml/sngp/internal/backend/cpu"
	"github.com/sngp-ml/sngp/internal/tensor"
)

func TestFromSlice_RoundTrip(t *testing.T) {
	backend := cpu.New()

	data := []float32{1, 2, 3, 4, 5, 6}
	x, err := tensor.FromSlice(data, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)

	assert.True(t, x.Shape().Equal(tensor.Shape{2, 3}))
	assert.Equal(t, tensor.Float32, x.DType())
	assert.Equal(t, data, x.Data())
	assert.Equal(t, float32(6), x.At(1, 2))
}

func TestFromSlice_ShapeMismatch(t *testing.T) {
	backend := cpu.New()

	_, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{2, 2}, backend)
	assert.Error(t, err)
}

func TestTensor_SetAt(t *testing.T) {
	backend := cpu.New()

	x := tensor.Zeros[float32](tensor.Shape{2, 2}, backend)
	x.Set(3.5, 1, 0)
	assert.Equal(t, float32(3.5), x.At(1, 0))
	assert.Equal(t, float32(0), x.At(0, 0))
}

func TestTensor_CloneIsDeep(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	y := x.Clone()
	y.Set(99, 0, 0)

	assert.Equal(t, float32(1), x.At(0, 0))
	assert.Equal(t, float32(99), y.At(0, 0))
}

func TestTensor_AssignCopiesInPlace(t *testing.T) {
	backend := cpu.New()

	dst := tensor.Zeros[float32](tensor.Shape{2, 2}, backend)
	src, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	// Keep a view of the destination buffer, then assign over it.
	view := dst.Data()
	dst.Assign(src)

	assert.Equal(t, []float32{1, 2, 3, 4}, view)
}

func TestEye_Identity(t *testing.T) {
	backend := cpu.New()

	eye := tensor.Eye[float32](3, backend)
	assert.True(t, eye.Shape().Equal(tensor.Shape{3, 3}))
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i == j {
				assert.Equal(t, float32(1), eye.At(i, j))
			} else {
				assert.Equal(t, float32(0), eye.At(i, j))
			}
		}
	}
}

func TestFull_Fills(t *testing.T) {
	backend := cpu.New()

	x := tensor.Full[float64](tensor.Shape{4}, 2.5, backend)
	for _, v := range x.Data() {
		assert.Equal(t, 2.5, v)
	}
}

func TestItem_RequiresSingleElement(t *testing.T) {
	backend := cpu.New()

	x := tensor.Full[float32](tensor.Shape{1}, 7, backend)
	assert.Equal(t, float32(7), x.Item())

	y := tensor.Zeros[float32](tensor.Shape{2}, backend)
	assert.Panics(t, func() { y.Item() })
}
