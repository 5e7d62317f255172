package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sngp-ml/sngp/internal/backend/cpu"
	"github.com/sngp-ml/sngp/internal/tensor"
)

func TestConv2D_ForwardKnownValues(t *testing.T) {
	backend := cpu.New()
	conv := NewConv2D[Backend](1, 1, 2, 2, 1, 0, false, backend)

	conv.Weight().Assign(newTensor(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2}, backend))

	input := newTensor(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{1, 1, 3, 3}, backend)
	out := conv.Forward(input)

	assert.True(t, out.Shape().Equal(tensor.Shape{1, 1, 2, 2}))
	assert.Equal(t, []float32{12, 16, 24, 28}, out.Data())
}

func TestConv2D_BiasBroadcast(t *testing.T) {
	backend := cpu.New()
	conv := NewConv2D[Backend](1, 2, 2, 2, 1, 0, true, backend)

	conv.Weight().Assign(tensor.Zeros[float32](tensor.Shape{2, 1, 2, 2}, backend))
	conv.Parameters()[1].Assign(newTensor(t, []float32{5, -5}, tensor.Shape{2}, backend))

	input := tensor.Ones[float32](tensor.Shape{1, 1, 3, 3}, backend)
	out := conv.Forward(input)

	// Zero kernel leaves only the per-channel bias.
	assert.Equal(t, float32(5), out.At(0, 0, 0, 0))
	assert.Equal(t, float32(-5), out.At(0, 1, 1, 1))
}

func TestConv2D_ComputeOutputSize(t *testing.T) {
	backend := cpu.New()
	conv := NewConv2D[Backend](3, 32, 3, 3, 2, 0, false, backend)

	assert.Equal(t, [2]int{114, 114}, conv.ComputeOutputSize(229, 229))
	assert.Equal(t, [2]int{3, 3}, conv.ComputeOutputSize(7, 7))
}

func TestConv2D_InvalidConfigPanics(t *testing.T) {
	backend := cpu.New()

	assert.Panics(t, func() { NewConv2D[Backend](0, 1, 3, 3, 1, 0, false, backend) })
	assert.Panics(t, func() { NewConv2D[Backend](1, 1, 3, 3, 0, 0, false, backend) })
	assert.Panics(t, func() { NewConv2D[Backend](1, 1, 3, 3, 1, -1, false, backend) })
}
