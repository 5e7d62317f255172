package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sngp-ml/sngp/internal/backend/cpu"
	"github.com/sngp-ml/sngp/internal/tensor"
)

func TestLayerNorm_ZeroMeanUnitVariance(t *testing.T) {
	backend := cpu.New()
	ln := NewLayerNorm[Backend](3, 1e-12, backend)

	input := newTensor(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	out := ln.Forward(input)

	// First row [1, 2, 3]: mean 2, population std sqrt(2/3).
	expected := []float32{-1.2247449, 0, 1.2247449}
	for i := 0; i < 3; i++ {
		assert.InDelta(t, expected[i], out.At(0, i), 1e-4)
		// Second row has the same centered values.
		assert.InDelta(t, expected[i], out.At(1, i), 1e-4)
	}
}

func TestLayerNorm_GammaBeta(t *testing.T) {
	backend := cpu.New()
	ln := NewLayerNorm[Backend](2, 1e-12, backend)

	ln.Gamma.Assign(newTensor(t, []float32{2, 2}, tensor.Shape{2}, backend))
	ln.Beta.Assign(newTensor(t, []float32{1, -1}, tensor.Shape{2}, backend))

	input := newTensor(t, []float32{-1, 1}, tensor.Shape{1, 2}, backend)
	out := ln.Forward(input)

	// Normalized input is [-1, 1]; scaled and shifted.
	assert.InDelta(t, -1.0, out.At(0, 0), 1e-4)
	assert.InDelta(t, 1.0, out.At(0, 1), 1e-4)
}

func TestLayerNorm_Parameters(t *testing.T) {
	backend := cpu.New()
	ln := NewLayerNorm[Backend](4, 1e-12, backend)

	params := ln.Parameters()
	assert.Len(t, params, 2)
	assert.True(t, params[0].Trainable())
}
