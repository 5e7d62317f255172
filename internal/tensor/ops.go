package tensor

// Typed wrappers over the Backend operation set. Each method dispatches to
// the tensor's backend and re-wraps the raw result.

// Add performs element-wise addition with broadcasting.
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Mul(t.raw, other.raw), t.backend)
}

// Div performs element-wise division with broadcasting.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Div(t.raw, other.raw), t.backend)
}

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw), t.backend)
}

// Transpose permutes the tensor's dimensions.
// With no axes, all dimensions are reversed (2D matrix transpose).
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Transpose(t.raw, axes...), t.backend)
}

// Reshape returns a tensor with the same data but a different shape.
func (t *Tensor[T, B]) Reshape(dims ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Reshape(t.raw, Shape(dims)), t.backend)
}

// MulScalar multiplies each element by a scalar value.
func (t *Tensor[T, B]) MulScalar(scalar T) *Tensor[T, B] {
	return New[T, B](t.backend.MulScalar(t.raw, scalar), t.backend)
}

// AddScalar adds a scalar value to each element.
func (t *Tensor[T, B]) AddScalar(scalar T) *Tensor[T, B] {
	return New[T, B](t.backend.AddScalar(t.raw, scalar), t.backend)
}

// DivScalar divides each element by a scalar value.
func (t *Tensor[T, B]) DivScalar(scalar T) *Tensor[T, B] {
	return New[T, B](t.backend.DivScalar(t.raw, scalar), t.backend)
}

// Exp computes the exponential (e^x) of each element.
func (t *Tensor[T, B]) Exp() *Tensor[T, B] {
	return New[T, B](t.backend.Exp(t.raw), t.backend)
}

// Sqrt computes the square root of each element.
func (t *Tensor[T, B]) Sqrt() *Tensor[T, B] {
	return New[T, B](t.backend.Sqrt(t.raw), t.backend)
}

// Rsqrt computes the reciprocal square root (1/sqrt(x)) of each element.
func (t *Tensor[T, B]) Rsqrt() *Tensor[T, B] {
	return New[T, B](t.backend.Rsqrt(t.raw), t.backend)
}

// Cos computes the cosine of each element.
func (t *Tensor[T, B]) Cos() *Tensor[T, B] {
	return New[T, B](t.backend.Cos(t.raw), t.backend)
}

// Sigmoid computes the logistic sigmoid of each element.
func (t *Tensor[T, B]) Sigmoid() *Tensor[T, B] {
	return New[T, B](t.backend.Sigmoid(t.raw), t.backend)
}

// Sum reduces the tensor to the sum of all its elements (single-element result).
func (t *Tensor[T, B]) Sum() *Tensor[T, B] {
	return New[T, B](t.backend.Sum(t.raw), t.backend)
}

// MeanDim computes the mean along a dimension.
// Negative dims index from the end (-1 is the last dimension).
func (t *Tensor[T, B]) MeanDim(dim int, keepDim bool) *Tensor[T, B] {
	return New[T, B](t.backend.MeanDim(t.raw, dim, keepDim), t.backend)
}

// L2Normalize divides the tensor by its global (flattened) L2 norm.
func (t *Tensor[T, B]) L2Normalize() *Tensor[T, B] {
	return New[T, B](t.backend.L2Normalize(t.raw), t.backend)
}

// Inverse computes the dense matrix inverse of a square 2D tensor.
func (t *Tensor[T, B]) Inverse() *Tensor[T, B] {
	return New[T, B](t.backend.Inverse(t.raw), t.backend)
}

// Dot computes the flattened inner product of two tensors with equal element
// counts, returned as a single-element tensor.
func (t *Tensor[T, B]) Dot(other *Tensor[T, B]) *Tensor[T, B] {
	n := t.NumElements()
	a := t.backend.Reshape(t.raw, Shape{1, n})
	b := t.backend.Reshape(other.raw, Shape{n, 1})
	return New[T, B](t.backend.MatMul(a, b), t.backend)
}
