package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngp-ml/sngp/internal/backend/cpu"
	"github.com/sngp-ml/sngp/internal/tensor"
)

func newWrappedConv(t *testing.T, cfg SpectralNormConfig) (*SpectralNormConv2D[Backend], Backend) {
	t.Helper()
	backend := cpu.New()
	conv := NewConv2D[Backend](1, 2, 3, 3, 1, 0, false, backend)
	wrapped, err := NewSpectralNormConv2D(conv, cfg, backend)
	require.NoError(t, err)
	return wrapped, backend
}

func squaredNorm(data []float32) float64 {
	var sum float64
	for _, v := range data {
		sum += float64(v) * float64(v)
	}
	return sum
}

func TestSpectralNorm_ConfigValidation(t *testing.T) {
	backend := cpu.New()
	conv := NewConv2D[Backend](1, 1, 3, 3, 1, 0, false, backend)

	_, err := NewSpectralNormConv2D[Backend](nil, DefaultSpectralNormConfig(), backend)
	assert.Error(t, err)

	_, err = NewSpectralNormConv2D(conv, SpectralNormConfig{Iteration: -1, NormMultiplier: 0.95}, backend)
	assert.Error(t, err)

	_, err = NewSpectralNormConv2D(conv, SpectralNormConfig{Iteration: 1, NormMultiplier: 0}, backend)
	assert.Error(t, err)
}

func TestSpectralNorm_BuildShapes(t *testing.T) {
	wrapped, _ := newWrappedConv(t, DefaultSpectralNormConfig())

	wrapped.Build(tensor.Shape{4, 1, 8, 8})

	assert.True(t, wrapped.V().Tensor().Shape().Equal(tensor.Shape{1, 1, 8, 8}))
	assert.True(t, wrapped.U().Tensor().Shape().Equal(tensor.Shape{1, 2, 6, 6}))
}

func TestSpectralNorm_LegacyModePinsBatch(t *testing.T) {
	wrapped, backend := newWrappedConv(t, SpectralNormConfig{
		Iteration:      1,
		NormMultiplier: 0.95,
		LegacyMode:     true,
	})

	input := randomInput(t, tensor.Shape{2, 1, 8, 8}, backend, 1)
	wrapped.Forward(input, true)

	assert.True(t, wrapped.U().Tensor().Shape().Equal(tensor.Shape{2, 2, 6, 6}))

	other := randomInput(t, tensor.Shape{3, 1, 8, 8}, backend, 2)
	assert.Panics(t, func() { wrapped.Forward(other, true) })
}

func TestSpectralNorm_SingularVectorsUnitNorm(t *testing.T) {
	wrapped, backend := newWrappedConv(t, DefaultSpectralNormConfig())

	input := randomInput(t, tensor.Shape{1, 1, 8, 8}, backend, 3)
	wrapped.Forward(input, true)

	assert.InDelta(t, 1.0, squaredNorm(wrapped.U().Tensor().Data()), 1e-4)
	assert.InDelta(t, 1.0, squaredNorm(wrapped.V().Tensor().Data()), 1e-4)
}

func TestSpectralNorm_WeightRestoredAfterForward(t *testing.T) {
	// Use a small norm multiplier so the rescaling branch is exercised.
	wrapped, backend := newWrappedConv(t, SpectralNormConfig{Iteration: 2, NormMultiplier: 0.01})

	before := append([]float32(nil), wrapped.Layer().Weight().Tensor().Data()...)

	input := randomInput(t, tensor.Shape{1, 1, 8, 8}, backend, 4)
	wrapped.Forward(input, true)

	assert.Equal(t, before, wrapped.Layer().Weight().Tensor().Data())
}

func TestSpectralNorm_NoRescaleUnderBudget(t *testing.T) {
	// With a huge norm multiplier the estimate never exceeds the budget, so
	// the wrapped output must equal the plain convolution output.
	wrapped, backend := newWrappedConv(t, SpectralNormConfig{Iteration: 1, NormMultiplier: 1e6})

	input := randomInput(t, tensor.Shape{1, 1, 8, 8}, backend, 5)

	plain := wrapped.Layer().Forward(input)
	gated := wrapped.Forward(input, true)

	assert.Equal(t, plain.Data(), gated.Data())
}

func TestSpectralNorm_RescaleScalesOutputUniformly(t *testing.T) {
	wrapped, backend := newWrappedConv(t, SpectralNormConfig{Iteration: 3, NormMultiplier: 0.5})

	input := randomInput(t, tensor.Shape{1, 1, 8, 8}, backend, 6)

	// Warm up the power iteration so sigma is a stable estimate.
	for i := 0; i < 10; i++ {
		wrapped.Forward(input, true)
	}
	sigma := wrapped.SigmaEstimate()
	require.Greater(t, sigma, float32(0.5))

	plain := wrapped.Layer().Forward(input)
	gated := wrapped.Forward(input, false)

	// The kernel scaling is linear, so every output element scales by c/sigma.
	scale := 0.5 / float64(sigma)
	plainData := plain.Data()
	for i, v := range gated.Data() {
		assert.InDelta(t, float64(plainData[i])*scale, float64(v), 5e-3)
	}
}

func TestSpectralNorm_EstimateConverges(t *testing.T) {
	wrapped, backend := newWrappedConv(t, SpectralNormConfig{Iteration: 1, NormMultiplier: 0.95})

	input := randomInput(t, tensor.Shape{1, 1, 8, 8}, backend, 7)

	var prev float32
	for i := 0; i < 40; i++ {
		wrapped.Forward(input, true)
		prev = wrapped.SigmaEstimate()
	}
	wrapped.Forward(input, true)

	assert.InDelta(t, float64(prev), float64(wrapped.SigmaEstimate()), 1e-3)
	assert.Greater(t, wrapped.SigmaEstimate(), float32(0))
}

func TestSpectralNorm_InferenceKeepsEstimates(t *testing.T) {
	wrapped, backend := newWrappedConv(t, DefaultSpectralNormConfig())

	input := randomInput(t, tensor.Shape{1, 1, 8, 8}, backend, 8)
	wrapped.Forward(input, true)

	u := append([]float32(nil), wrapped.U().Tensor().Data()...)
	v := append([]float32(nil), wrapped.V().Tensor().Data()...)

	wrapped.Forward(input, false)

	assert.Equal(t, u, wrapped.U().Tensor().Data())
	assert.Equal(t, v, wrapped.V().Tensor().Data())
}

func TestSpectralNorm_OutputShapeMatchesConv(t *testing.T) {
	backend := cpu.New()
	conv := NewConv2D[Backend](3, 32, 3, 3, 2, 0, false, backend)
	wrapped, err := NewSpectralNormConv2D(conv, SpectralNormConfig{Iteration: 1, NormMultiplier: 6.0}, backend)
	require.NoError(t, err)

	input := randomInput(t, tensor.Shape{1, 3, 32, 32}, backend, 9)
	out := wrapped.Forward(input, true)

	assert.True(t, out.Shape().Equal(tensor.Shape{1, 32, 15, 15}))
	assert.False(t, math.IsNaN(float64(wrapped.SigmaEstimate())))
}

func TestSpectralNorm_ParametersExcludeSingularVectors(t *testing.T) {
	wrapped, backend := newWrappedConv(t, DefaultSpectralNormConfig())

	input := randomInput(t, tensor.Shape{1, 1, 8, 8}, backend, 10)
	wrapped.Forward(input, true)

	params := wrapped.Parameters()
	assert.Len(t, params, 1)
	assert.True(t, params[0].Trainable())
	assert.False(t, wrapped.U().Trainable())
	assert.False(t, wrapped.V().Trainable())
}
