// Package nn implements the neural-network layers of the sngp library:
// spectral normalization for convolution kernels and the random-feature
// Gaussian process head with its Laplace covariance estimator, plus the
// small set of supporting layers they compose (Linear, LayerNorm, Conv2D).
//
// Layers are forward-only: parameters are persistent state cells updated by
// explicit assignment, and there is no gradient tape. Training/inference
// behavior is selected per call by a boolean flag supplied by the caller.
package nn

import (
	"github.com/sngp-ml/sngp/internal/tensor"
)

// Module is the base interface for single-input single-output layers.
//
// Layers with richer call contracts (mode flags, multiple outputs, error
// returns) expose their own Forward signatures instead; Module covers the
// plain feed-forward building blocks.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module.
	// Returns an empty slice for modules without trainable parameters.
	Parameters() []*Parameter[B]
}
