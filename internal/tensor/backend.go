package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// The operation set is the tensor-valued boundary the sngp layers expect from
// a host framework: dense matrix algebra, a convolution operator and its
// transpose, the elementwise functions used by the likelihood weights, and
// the dense inversion behind the lazy covariance update.
type Backend interface {
	// Element-wise binary operations (NumPy-style broadcasting)
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix operations
	MatMul(a, b *RawTensor) *RawTensor

	// Convolutional operations.
	// Conv2D: input [N, C_in, H, W], kernel [C_out, C_in, K_h, K_w].
	// Conv2DTranspose applies the adjoint of Conv2D: input [N, C_out, H_out, W_out]
	// is scattered back to outputShape [N, C_in, H, W] through the same kernel.
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor
	Conv2DTranspose(input, kernel *RawTensor, outputShape Shape, stride, padding int) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Scalar operations (element-wise with scalar)
	MulScalar(x *RawTensor, scalar any) *RawTensor
	AddScalar(x *RawTensor, scalar any) *RawTensor
	DivScalar(x *RawTensor, scalar any) *RawTensor

	// Math operations (element-wise)
	Exp(x *RawTensor) *RawTensor     // exponential
	Sqrt(x *RawTensor) *RawTensor    // square root
	Rsqrt(x *RawTensor) *RawTensor   // reciprocal square root (1/sqrt(x))
	Cos(x *RawTensor) *RawTensor     // cosine
	Sigmoid(x *RawTensor) *RawTensor // logistic sigmoid

	// Reduction operations
	Sum(x *RawTensor) *RawTensor                            // total sum (single-element result)
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor // mean along dimension

	// L2Normalize divides the tensor by its global (flattened) L2 norm.
	// The power-iteration update is defined in terms of this operation.
	L2Normalize(x *RawTensor) *RawTensor

	// Linear-algebra constructors and solvers
	Eye(n int, dtype DataType) *RawTensor // identity matrix [n, n]
	Inverse(x *RawTensor) *RawTensor      // dense matrix inversion of a square 2D tensor

	// Metadata
	Name() string
	Device() Device
}
