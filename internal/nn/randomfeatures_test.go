package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngp-ml/sngp/internal/backend/cpu"
	"github.com/sngp-ml/sngp/internal/tensor"
)

func TestRandomFourierFeatures_GaussianShapesAndBounds(t *testing.T) {
	backend := cpu.New()

	layer, err := NewRandomFourierFeatures(16, RandomFeatureConfig[Backend]{
		NumInducing: 64,
		Kernel:      KernelGaussian,
		Seed:        1,
	}, backend)
	require.NoError(t, err)

	input := randomInput(t, tensor.Shape{4, 16}, backend, 1)
	out := layer.Forward(input)

	assert.True(t, out.Shape().Equal(tensor.Shape{4, 64}))
	for _, v := range out.Data() {
		assert.LessOrEqual(t, float64(v), 1.0+1e-6)
		assert.GreaterOrEqual(t, float64(v), -1.0-1e-6)
	}
}

func TestRandomFourierFeatures_LinearPassthrough(t *testing.T) {
	backend := cpu.New()

	layer, err := NewRandomFourierFeatures(8, RandomFeatureConfig[Backend]{
		Kernel: KernelLinear,
	}, backend)
	require.NoError(t, err)

	input := randomInput(t, tensor.Shape{3, 8}, backend, 2)
	out := layer.Forward(input)

	assert.Equal(t, input.Data(), out.Data())
	assert.Equal(t, 8, layer.OutFeatures())
	assert.Nil(t, layer.Weight())
}

func TestRandomFourierFeatures_FrozenAndDeterministic(t *testing.T) {
	backend := cpu.New()

	cfg := RandomFeatureConfig[Backend]{NumInducing: 32, Kernel: KernelGaussian, Seed: 5}
	a, err := NewRandomFourierFeatures(8, cfg, backend)
	require.NoError(t, err)
	b, err := NewRandomFourierFeatures(8, cfg, backend)
	require.NoError(t, err)

	// Same seed, same projection.
	assert.Equal(t, a.Weight().Tensor().Data(), b.Weight().Tensor().Data())
	assert.Equal(t, a.Bias().Tensor().Data(), b.Bias().Tensor().Data())

	// Nothing to train.
	assert.Empty(t, a.Parameters())
	assert.False(t, a.Weight().Trainable())
	assert.False(t, a.Bias().Trainable())

	input := randomInput(t, tensor.Shape{2, 8}, backend, 3)
	assert.Equal(t, a.Forward(input).Data(), b.Forward(input).Data())
}

func TestRandomFourierFeatures_BiasRange(t *testing.T) {
	backend := cpu.New()

	layer, err := NewRandomFourierFeatures(4, RandomFeatureConfig[Backend]{
		NumInducing: 128,
		Kernel:      KernelGaussian,
		Seed:        9,
	}, backend)
	require.NoError(t, err)

	for _, v := range layer.Bias().Tensor().Data() {
		assert.GreaterOrEqual(t, float64(v), 0.0)
		assert.Less(t, float64(v), 2*math.Pi)
	}
}

func TestRandomFourierFeatures_CustomKernel(t *testing.T) {
	backend := cpu.New()

	identity := func(x *tensor.Tensor[float32, Backend]) *tensor.Tensor[float32, Backend] { return x }
	layer, err := NewRandomFourierFeatures(4, RandomFeatureConfig[Backend]{
		NumInducing:  4,
		Kernel:       KernelCustom,
		Initializer:  onesInitializer{},
		ActivationFn: identity,
	}, backend)
	require.NoError(t, err)

	input := newTensor(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 4}, backend)
	out := layer.Forward(input)

	// Ones weights sum the inputs; the bias is still uniform random.
	bias := layer.Bias().Tensor().Data()
	for j := 0; j < 4; j++ {
		assert.InDelta(t, 4.0+float64(bias[j]), float64(out.At(0, j)), 1e-5)
	}
}

func TestRandomFourierFeatures_InvalidConfig(t *testing.T) {
	backend := cpu.New()

	_, err := NewRandomFourierFeatures(8, RandomFeatureConfig[Backend]{
		NumInducing: 16,
		Kernel:      KernelType("rbf"),
	}, backend)
	assert.Error(t, err)

	_, err = NewRandomFourierFeatures(0, RandomFeatureConfig[Backend]{
		NumInducing: 16,
		Kernel:      KernelGaussian,
	}, backend)
	assert.Error(t, err)

	_, err = NewRandomFourierFeatures(8, RandomFeatureConfig[Backend]{
		NumInducing: 0,
		Kernel:      KernelGaussian,
	}, backend)
	assert.Error(t, err)
}

// onesInitializer fills the projection with ones, making outputs easy to
// predict in tests.
type onesInitializer struct{}

func (onesInitializer) Sample(rows, cols int) []float32 {
	out := make([]float32, rows*cols)
	for i := range out {
		out[i] = 1
	}
	return out
}
