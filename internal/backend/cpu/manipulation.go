package cpu

import (
	"fmt"

	"github.com/sngp-ml/sngp/internal/tensor"
)

// Reshape returns a tensor with the same data but a different shape.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: invalid shape: %v", err))
	}

	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: incompatible shapes: %v -> %v (different number of elements)",
			t.Shape(), newShape))
	}

	result, err := tensor.NewRaw(newShape, t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}

	copy(result.Data(), t.Data())
	return result
}

// Transpose permutes the tensor's dimensions.
// With no axes, all dimensions are reversed.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}

	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: axes length %d != ndim %d", len(axes), ndim))
	}

	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("transpose: invalid axis %d for %dD tensor", ax, ndim))
		}
		if seen[ax] {
			panic(fmt.Sprintf("transpose: duplicate axis %d", ax))
		}
		seen[ax] = true
	}

	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		newShape[i] = shape[ax]
	}

	result, err := tensor.NewRaw(newShape, t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("transpose: %v", err))
	}

	srcStrides := shape.ComputeStrides()
	dstStrides := newShape.ComputeStrides()
	n := t.NumElements()

	switch t.DType() {
	case tensor.Float32:
		transposeData(result.AsFloat32(), t.AsFloat32(), axes, srcStrides, dstStrides, newShape, n)
	case tensor.Float64:
		transposeData(result.AsFloat64(), t.AsFloat64(), axes, srcStrides, dstStrides, newShape, n)
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", t.DType()))
	}

	return result
}

func transposeData[T float32 | float64](dst, src []T, axes, srcStrides, dstStrides []int, newShape tensor.Shape, n int) {
	for i := 0; i < n; i++ {
		// Decompose destination index into coordinates, then map back through
		// the axis permutation to the source offset.
		srcIdx := 0
		rem := i
		for d := 0; d < len(newShape); d++ {
			coord := rem / dstStrides[d]
			rem %= dstStrides[d]
			srcIdx += coord * srcStrides[axes[d]]
		}
		dst[i] = src[srcIdx]
	}
}
