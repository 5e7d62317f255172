package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// column extracts column j of a flattened row-major [rows, cols] matrix.
func column(data []float32, rows, cols, j int) []float64 {
	col := make([]float64, rows)
	for i := 0; i < rows; i++ {
		col[i] = float64(data[i*cols+j])
	}
	return col
}

func dot64(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func TestOrthogonalRandomFeatures_ColumnsOrthogonal(t *testing.T) {
	init := NewOrthogonalRandomFeatures(1.0, 42)
	init.RandomNorm = false

	rows, cols := 16, 8
	data := init.Sample(rows, cols)
	require.Len(t, data, rows*cols)

	// With fixed norms every column has norm sqrt(rows) and distinct columns
	// are exactly orthogonal.
	for j := 0; j < cols; j++ {
		cj := column(data, rows, cols, j)
		assert.InDelta(t, float64(rows), dot64(cj, cj), 1e-3)
		for k := j + 1; k < cols; k++ {
			assert.InDelta(t, 0.0, dot64(cj, column(data, rows, cols, k)), 1e-3)
		}
	}
}

func TestOrthogonalRandomFeatures_StddevScales(t *testing.T) {
	base := NewOrthogonalRandomFeatures(1.0, 7)
	base.RandomNorm = false
	scaled := NewOrthogonalRandomFeatures(2.0, 7)
	scaled.RandomNorm = false

	a := base.Sample(8, 4)
	b := scaled.Sample(8, 4)

	for i := range a {
		assert.InDelta(t, float64(a[i])*2.0, float64(b[i]), 1e-5)
	}
}

func TestOrthogonalRandomFeatures_WideMatrixBlocks(t *testing.T) {
	init := NewOrthogonalRandomFeatures(1.0, 3)
	init.RandomNorm = false

	// rows < cols exercises the block-concatenation path.
	rows, cols := 4, 10
	data := init.Sample(rows, cols)
	require.Len(t, data, rows*cols)

	// Columns within one square block stay orthogonal.
	for j := 0; j < rows; j++ {
		cj := column(data, rows, cols, j)
		assert.InDelta(t, float64(rows), dot64(cj, cj), 1e-3)
		for k := j + 1; k < rows; k++ {
			assert.InDelta(t, 0.0, dot64(cj, column(data, rows, cols, k)), 1e-3)
		}
	}
}

func TestOrthogonalRandomFeatures_ChiNormsVary(t *testing.T) {
	init := NewOrthogonalRandomFeatures(1.0, 11)

	rows, cols := 32, 6
	data := init.Sample(rows, cols)

	norms := make([]float64, cols)
	for j := 0; j < cols; j++ {
		cj := column(data, rows, cols, j)
		norms[j] = math.Sqrt(dot64(cj, cj))
	}

	// Chi-distributed norms concentrate around sqrt(rows) but are not all
	// identical.
	varied := false
	for j := 1; j < cols; j++ {
		if math.Abs(norms[j]-norms[0]) > 1e-6 {
			varied = true
		}
	}
	assert.True(t, varied)
	for _, n := range norms {
		assert.Greater(t, n, 0.0)
		assert.InDelta(t, math.Sqrt(float64(rows)), n, math.Sqrt(float64(rows)))
	}
}

func TestOrthogonalRandomFeatures_SeededDeterminism(t *testing.T) {
	a := NewOrthogonalRandomFeatures(1.0, 99).Sample(8, 8)
	b := NewOrthogonalRandomFeatures(1.0, 99).Sample(8, 8)
	assert.Equal(t, a, b)

	c := NewOrthogonalRandomFeatures(1.0, 100).Sample(8, 8)
	assert.NotEqual(t, a, c)
}
