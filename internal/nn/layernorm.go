package nn

import (
	"github.com/sngp-ml/sngp/internal/tensor"
)

// LayerNorm applies Layer Normalization over the last dimension.
//
// Formula: Y = gamma * (X - mean(X)) / sqrt(var(X) + eps) + beta
//
// The GP head uses this as its input normalization, which additionally makes
// the kernel length-scale redundant (see RandomFeatureGaussianProcess).
type LayerNorm[B tensor.Backend] struct {
	Gamma   *Parameter[B] // learnable scale [features]
	Beta    *Parameter[B] // learnable shift [features]
	Epsilon float32
	backend B
}

// NewLayerNorm creates a new LayerNorm layer over the given feature size.
// Gamma is initialized to ones, beta to zeros.
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	return &LayerNorm[B]{
		Gamma:   NewParameter("gamma", Ones(tensor.Shape{normalizedShape}, backend)),
		Beta:    NewParameter("beta", Zeros(tensor.Shape{normalizedShape}, backend)),
		Epsilon: epsilon,
		backend: backend,
	}
}

// Forward applies LayerNorm to the input tensor.
//
// Shapes: [..., features] -> [..., features].
func (l *LayerNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	mean := x.MeanDim(-1, true)
	xCentered := x.Sub(mean)

	variance := xCentered.Mul(xCentered).MeanDim(-1, true)
	rsqrt := variance.AddScalar(l.Epsilon).Rsqrt()

	xNorm := xCentered.Mul(rsqrt)

	// gamma/beta are [features]; right-aligned broadcasting matches the
	// trailing dimension of any input rank.
	return xNorm.Mul(l.Gamma.Tensor()).Add(l.Beta.Tensor())
}

// Parameters returns the learnable parameters (gamma and beta).
func (l *LayerNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.Gamma, l.Beta}
}
