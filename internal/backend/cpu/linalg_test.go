package cpu_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sngp-ml/sngp/internal/backend/cpu"
	"github.com/sngp-ml/sngp/internal/tensor"
)

func TestL2Normalize_UnitNorm(t *testing.T) {
	a := fromSlice(t, []float32{3, 4}, tensor.Shape{2})

	n := a.L2Normalize()
	assertAllClose(t, []float32{0.6, 0.8}, n.Data(), 1e-6)
}

func TestL2Normalize_FlattensAcrossDims(t *testing.T) {
	// The norm is global, not per-row.
	a := fromSlice(t, []float32{1, 1, 1, 1}, tensor.Shape{2, 2})

	n := a.L2Normalize()
	norm := 0.0
	for _, v := range n.Data() {
		norm += float64(v * v)
	}
	assert.InDelta(t, 1.0, norm, 1e-6)
	assertAllClose(t, []float32{0.5, 0.5, 0.5, 0.5}, n.Data(), 1e-6)
}

func TestL2Normalize_ZeroTensor(t *testing.T) {
	a := fromSlice(t, []float32{0, 0, 0}, tensor.Shape{3})

	n := a.L2Normalize()
	assert.Equal(t, []float32{0, 0, 0}, n.Data())
}

func TestInverse_KnownMatrix(t *testing.T) {
	// [[4, 7], [2, 6]] has inverse [[0.6, -0.7], [-0.2, 0.4]].
	a := fromSlice(t, []float32{4, 7, 2, 6}, tensor.Shape{2, 2})

	inv := a.Inverse()
	assertAllClose(t, []float32{0.6, -0.7, -0.2, 0.4}, inv.Data(), 1e-5)
}

func TestInverse_TimesOriginalIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(13))

	// Diagonally dominant, hence well conditioned.
	n := 6
	data := make([]float32, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			data[i*n+j] = float32(rng.NormFloat64()) * 0.1
			if i == j {
				data[i*n+j] += float32(n)
			}
		}
	}
	a := fromSlice(t, data, tensor.Shape{n, n})

	product := a.MatMul(a.Inverse())
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, product.At(i, j), 1e-4)
		}
	}
}

func TestInverse_Float64(t *testing.T) {
	backend := cpu.New()

	a, err := tensor.FromSlice([]float64{2, 0, 0, 4}, tensor.Shape{2, 2}, backend)
	assert.NoError(t, err)

	inv := a.Inverse()
	assert.InDelta(t, 0.5, inv.At(0, 0), 1e-12)
	assert.InDelta(t, 0.25, inv.At(1, 1), 1e-12)
	assert.InDelta(t, 0.0, inv.At(0, 1), 1e-12)
}

func TestInverse_NonSquarePanics(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	assert.Panics(t, func() { a.Inverse() })
}

func TestEye_Backend(t *testing.T) {
	backend := cpu.New()

	eye := tensor.New[float32](backend.Eye(3, tensor.Float32), backend)
	assert.True(t, eye.Shape().Equal(tensor.Shape{3, 3}))
	trace := float32(0)
	for i := 0; i < 3; i++ {
		trace += eye.At(i, i)
	}
	assert.Equal(t, float32(3), trace)
	assert.Equal(t, float32(3), eye.Sum().Item())
}

func TestRsqrt(t *testing.T) {
	a := fromSlice(t, []float32{4, 16, 64}, tensor.Shape{3})

	out := a.Rsqrt().Data()
	assertAllClose(t, []float32{0.5, 0.25, 1.0 / 8.0}, out, 1e-6)
	assert.False(t, math.IsNaN(float64(out[0])))
}
