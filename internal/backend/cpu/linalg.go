package cpu

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/sngp-ml/sngp/internal/tensor"
)

// L2Normalize divides the tensor by its global (flattened) L2 norm.
// A zero tensor is returned unchanged: there is no direction to normalize.
func (cpu *CPUBackend) L2Normalize(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("l2normalize: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		l2NormalizeData(result.AsFloat32(), x.AsFloat32())
	case tensor.Float64:
		l2NormalizeData(result.AsFloat64(), x.AsFloat64())
	default:
		panic(fmt.Sprintf("l2normalize: unsupported dtype %s", x.DType()))
	}

	return result
}

func l2NormalizeData[T float32 | float64](dst, src []T) {
	var sumSq float64
	for _, v := range src {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		copy(dst, src)
		return
	}
	inv := 1.0 / math.Sqrt(sumSq)
	for i, v := range src {
		dst[i] = T(float64(v) * inv)
	}
}

// Eye returns an [n, n] identity matrix.
func (cpu *CPUBackend) Eye(n int, dtype tensor.DataType) *tensor.RawTensor {
	result, err := tensor.NewRaw(tensor.Shape{n, n}, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("eye: %v", err))
	}

	switch dtype {
	case tensor.Float32:
		data := result.AsFloat32()
		for i := 0; i < n; i++ {
			data[i*n+i] = 1
		}
	case tensor.Float64:
		data := result.AsFloat64()
		for i := 0; i < n; i++ {
			data[i*n+i] = 1
		}
	default:
		panic(fmt.Sprintf("eye: unsupported dtype %s", dtype))
	}

	return result
}

// Inverse computes the dense inverse of a square 2D tensor via gonum.
// The factorization runs in float64 regardless of the tensor dtype; float32
// inputs are widened before and narrowed after.
//
// This is the single expensive operation in the library. Callers are expected
// to gate it (see the covariance layer's update-pending flag) rather than
// invoke it per call.
func (cpu *CPUBackend) Inverse(x *tensor.RawTensor) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) != 2 || shape[0] != shape[1] {
		panic(fmt.Sprintf("inverse: requires a square 2D tensor, got %v", shape))
	}
	n := shape[0]

	src := make([]float64, n*n)
	switch x.DType() {
	case tensor.Float32:
		for i, v := range x.AsFloat32() {
			src[i] = float64(v)
		}
	case tensor.Float64:
		copy(src, x.AsFloat64())
	default:
		panic(fmt.Sprintf("inverse: unsupported dtype %s", x.DType()))
	}

	var inv mat.Dense
	if err := inv.Inverse(mat.NewDense(n, n, src)); err != nil {
		panic(fmt.Sprintf("inverse: singular or ill-conditioned matrix: %v", err))
	}

	result, err := tensor.NewRaw(shape, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("inverse: %v", err))
	}

	invData := inv.RawMatrix().Data
	switch x.DType() {
	case tensor.Float32:
		dst := result.AsFloat32()
		for i, v := range invData {
			dst[i] = float32(v)
		}
	case tensor.Float64:
		copy(result.AsFloat64(), invData)
	}

	return result
}
