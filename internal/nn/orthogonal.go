package nn

import (
	"math"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Initializer produces the flattened, row-major contents of a [rows, cols]
// weight matrix. Implementations back the random-feature projection; custom
// kernels supply their own.
type Initializer interface {
	Sample(rows, cols int) []float32
}

// OrthogonalRandomFeatures generates a random matrix W = stddev * Q @ S,
// where Q has orthonormal columns and S is a diagonal matrix of column norms
// drawn from a chi(df=rows) distribution. The result imitates a random
// Gaussian matrix but with exactly orthogonal columns, which lowers the
// Monte-Carlo variance of the kernel approximation.
//
// When rows < cols, multiple square orthogonal blocks are sampled,
// concatenated along the columns and truncated to the target width.
type OrthogonalRandomFeatures struct {
	// Stddev is the overall scale of the random matrix.
	Stddev float64
	// RandomNorm selects chi-distributed column norms. When false the norms
	// are fixed to sqrt(rows), the expectation of the squared column norm of
	// a standard Gaussian matrix.
	RandomNorm bool

	rng *exprand.Rand
}

// NewOrthogonalRandomFeatures creates a seeded orthogonal random-feature
// initializer with the given scale and chi-distributed column norms.
func NewOrthogonalRandomFeatures(stddev float64, seed uint64) *OrthogonalRandomFeatures {
	return &OrthogonalRandomFeatures{
		Stddev:     stddev,
		RandomNorm: true,
		rng:        exprand.New(exprand.NewSource(seed)),
	}
}

// Sample returns the flattened [rows, cols] random feature matrix.
func (o *OrthogonalRandomFeatures) Sample(rows, cols int) []float32 {
	var ortho *mat.Dense
	if rows < cols {
		blocks := make([]*mat.Dense, 0, (cols+rows-1)/rows)
		for sampled := 0; sampled < cols; sampled += rows {
			blocks = append(blocks, o.sampleOrthogonal(rows, rows))
		}
		ortho = mat.NewDense(rows, cols, nil)
		for b, block := range blocks {
			for j := 0; j < rows; j++ {
				col := b*rows + j
				if col >= cols {
					break
				}
				for i := 0; i < rows; i++ {
					ortho.Set(i, col, block.At(i, j))
				}
			}
		}
	} else {
		ortho = o.sampleOrthogonal(rows, cols)
	}

	norms := o.columnNorms(rows, cols)

	out := make([]float32, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[i*cols+j] = float32(o.Stddev * ortho.At(i, j) * norms[j])
		}
	}
	return out
}

// sampleOrthogonal draws a [rows, cols] matrix with orthonormal columns
// (rows >= cols) as the Q factor of a random Gaussian matrix, with column
// signs fixed by the diagonal of R so the distribution is uniform over the
// Stiefel manifold.
func (o *OrthogonalRandomFeatures) sampleOrthogonal(rows, cols int) *mat.Dense {
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: o.rng}

	a := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			a.Set(i, j, normal.Rand())
		}
	}

	var qr mat.QR
	qr.Factorize(a)

	var q mat.Dense
	qr.QTo(&q)
	var r mat.Dense
	qr.RTo(&r)

	out := mat.NewDense(rows, cols, nil)
	for j := 0; j < cols; j++ {
		sign := 1.0
		if r.At(j, j) < 0 {
			sign = -1.0
		}
		for i := 0; i < rows; i++ {
			out.Set(i, j, q.At(i, j)*sign)
		}
	}
	return out
}

// columnNorms samples one norm per column: sqrt of a chi-squared draw with
// rows degrees of freedom, or the fixed expectation sqrt(rows).
func (o *OrthogonalRandomFeatures) columnNorms(rows, cols int) []float64 {
	norms := make([]float64, cols)
	if !o.RandomNorm {
		fixed := math.Sqrt(float64(rows))
		for j := range norms {
			norms[j] = fixed
		}
		return norms
	}

	chi2 := distuv.ChiSquared{K: float64(rows), Src: o.rng}
	for j := range norms {
		norms[j] = math.Sqrt(chi2.Rand())
	}
	return norms
}
