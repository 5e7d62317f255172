package cpu

import (
	"fmt"

	"github.com/sngp-ml/sngp/internal/tensor"
)

// binaryOp applies fn element-wise over a and b with NumPy-style broadcasting.
func (cpu *CPUBackend) binaryOp(name string, a, b *tensor.RawTensor, fn func(x, y float64) float64) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", name, a.DType(), b.DType()))
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result, err := tensor.NewRaw(outShape, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	switch a.DType() {
	case tensor.Float32:
		if needsBroadcast {
			broadcastApply(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), outShape, a.Shape(), b.Shape(), fn)
		} else {
			vectorApply(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), fn)
		}
	case tensor.Float64:
		if needsBroadcast {
			broadcastApply(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), outShape, a.Shape(), b.Shape(), fn)
		} else {
			vectorApply(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), fn)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}

	return result
}

// vectorApply is the fast path for equal shapes.
func vectorApply[T float32 | float64](dst, a, b []T, fn func(x, y float64) float64) {
	for i := range dst {
		dst[i] = T(fn(float64(a[i]), float64(b[i])))
	}
}

// broadcastApply maps every output index back to (possibly size-1) source
// dimensions. Dimensions of size 1 contribute stride 0, which realizes the
// broadcast without materializing the expanded operand.
func broadcastApply[T float32 | float64](dst, a, b []T, outShape, aShape, bShape tensor.Shape, fn func(x, y float64) float64) {
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)
	outStrides := outShape.ComputeStrides()

	n := outShape.NumElements()
	for i := 0; i < n; i++ {
		aIdx, bIdx := 0, 0
		rem := i
		for d := 0; d < len(outShape); d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			aIdx += coord * aStrides[d]
			bIdx += coord * bStrides[d]
		}
		dst[i] = T(fn(float64(a[aIdx]), float64(b[bIdx])))
	}
}

// broadcastStrides aligns shape against outShape (right-aligned) and returns
// per-output-dimension strides, with zero stride for broadcast dimensions.
func broadcastStrides(shape, outShape tensor.Shape) []int {
	strides := make([]int, len(outShape))
	srcStrides := shape.ComputeStrides()
	offset := len(outShape) - len(shape)
	for d := range outShape {
		srcDim := d - offset
		if srcDim < 0 || shape[srcDim] == 1 {
			strides[d] = 0
		} else {
			strides[d] = srcStrides[srcDim]
		}
	}
	return strides
}

// Add performs element-wise addition with broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("add", a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("sub", a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("mul", a, b, func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("div", a, b, func(x, y float64) float64 { return x / y })
}
