package nn

import (
	"math"
	"math/rand"

	"github.com/sngp-ml/sngp/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out))).
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	t := tensor.Zeros[float32](shape, backend)
	data := t.Data()
	for i := range data {
		//nolint:gosec // math/rand for weight initialization, not security-critical
		data[i] = float32((rand.Float64()*2.0 - 1.0) * bound)
	}

	return t
}

// Zeros creates a tensor filled with zeros. Commonly used for bias and
// precision-matrix initialization.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}

// Ones creates a tensor filled with ones.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Ones[float32](shape, backend)
}

// Randn creates a tensor with values from the standard normal distribution.
func Randn[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Randn[float32](shape, backend)
}
