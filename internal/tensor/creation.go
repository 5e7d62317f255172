package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	dtype := inferDataType(dummy)

	raw, err := NewRaw(shape, dtype, b.Device())
	if err != nil {
		panic(err) // Shape validation should prevent this
	}

	// Data is already zero-initialized by make()
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, T(1), b)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full[float32](Shape{3, 3}, 3.14, backend)
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Eye creates a 2D identity matrix.
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	t := Zeros[T, B](Shape{n, n}, b)
	data := t.Data()
	for i := 0; i < n; i++ {
		data[i*n+i] = 1
	}
	return t
}

// Randn creates a tensor with random values from a normal distribution (mean=0, std=1).
// Uses the Box-Muller transform.
// Note: uses math/rand (not crypto/rand) - appropriate for statistical purposes.
//
// Example:
//
//	t := tensor.Randn[float32](Shape{100, 100}, backend)
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return RandnSource[T, B](shape, b, nil)
}

// RandnSource is Randn with an explicit random source for reproducibility.
// A nil source falls back to the shared math/rand generator.
func RandnSource[T DType, B Backend](shape Shape, b B, rng *rand.Rand) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	uniform := rand.Float64
	if rng != nil {
		uniform = rng.Float64
	}

	for i := 0; i < len(data); i += 2 {
		u1 := uniform() //nolint:gosec // G404: statistical sampling, not security-critical
		u2 := uniform() //nolint:gosec // G404: statistical sampling, not security-critical
		z0 := math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
		z1 := math.Sqrt(-2.0*math.Log(u1)) * math.Sin(2.0*math.Pi*u2)
		data[i] = T(z0)
		if i+1 < len(data) {
			data[i+1] = T(z1)
		}
	}
	return t
}

// Rand creates a tensor with random values uniformly distributed in [0, 1).
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = T(rand.Float64()) //nolint:gosec // G404: statistical sampling
	}
	return t
}
