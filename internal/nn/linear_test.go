package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngp-ml/sngp/internal/backend/cpu"
	"github.com/sngp-ml/sngp/internal/tensor"
)

type Backend = *cpu.CPUBackend

func newTensor(t *testing.T, data []float32, shape tensor.Shape, backend Backend) *tensor.Tensor[float32, Backend] {
	t.Helper()
	x, err := tensor.FromSlice(data, shape, backend)
	require.NoError(t, err)
	return x
}

func randomInput(t *testing.T, shape tensor.Shape, backend Backend, seed int64) *tensor.Tensor[float32, Backend] {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	data := make([]float32, shape.NumElements())
	for i := range data {
		data[i] = float32(rng.NormFloat64())
	}
	return newTensor(t, data, shape, backend)
}

func TestLinear_KnownValues(t *testing.T) {
	backend := cpu.New()
	linear := NewLinear[Backend](3, 2, backend)

	// W [2, 3], b [2]
	linear.Weight().Assign(newTensor(t, []float32{1, 0, 0, 0, 1, 0}, tensor.Shape{2, 3}, backend))
	linear.Bias().Assign(newTensor(t, []float32{10, 20}, tensor.Shape{2}, backend))

	input := newTensor(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	out := linear.Forward(input)

	assert.True(t, out.Shape().Equal(tensor.Shape{2, 2}))
	assert.Equal(t, []float32{11, 22, 14, 25}, out.Data())
}

func TestLinear_NoBias(t *testing.T) {
	backend := cpu.New()
	linear := NewLinearNoBias[Backend](2, 2, backend)

	linear.Weight().Assign(newTensor(t, []float32{2, 0, 0, 3}, tensor.Shape{2, 2}, backend))

	input := newTensor(t, []float32{1, 1}, tensor.Shape{1, 2}, backend)
	out := linear.Forward(input)

	assert.Equal(t, []float32{2, 3}, out.Data())
	assert.Nil(t, linear.Bias())
	assert.Len(t, linear.Parameters(), 1)
}

func TestLinear_ShapeMismatchPanics(t *testing.T) {
	backend := cpu.New()
	linear := NewLinear[Backend](3, 2, backend)

	input := newTensor(t, []float32{1, 2}, tensor.Shape{1, 2}, backend)
	assert.Panics(t, func() { linear.Forward(input) })
}

func TestParameter_TrainableAndState(t *testing.T) {
	backend := cpu.New()

	w := NewParameter("w", tensor.Ones[float32](tensor.Shape{2}, backend))
	assert.True(t, w.Trainable())
	assert.Equal(t, AggregationNone, w.Aggregation())

	s := NewState("s", tensor.Zeros[float32](tensor.Shape{2}, backend), AggregationMean)
	assert.False(t, s.Trainable())
	assert.Equal(t, AggregationMean, s.Aggregation())
	assert.Equal(t, "s", s.Name())
}

func TestParameter_AssignKeepsIdentity(t *testing.T) {
	backend := cpu.New()

	p := NewState("state", tensor.Zeros[float32](tensor.Shape{2}, backend), AggregationNone)
	held := p.Tensor()

	p.Assign(tensor.Ones[float32](tensor.Shape{2}, backend))

	// Holders of the tensor observe the new value; the identity is stable.
	assert.Equal(t, []float32{1, 1}, held.Data())
	assert.Same(t, held, p.Tensor())
}
