package cpu

import (
	"fmt"

	"github.com/sngp-ml/sngp/internal/tensor"
)

// Sum reduces the tensor to the sum of all elements, returned as a [1] tensor.
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(tensor.Shape{1}, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("sum: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		var sum float32
		for _, v := range x.AsFloat32() {
			sum += v
		}
		result.AsFloat32()[0] = sum
	case tensor.Float64:
		var sum float64
		for _, v := range x.AsFloat64() {
			sum += v
		}
		result.AsFloat64()[0] = sum
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s", x.DType()))
	}

	return result
}

// MeanDim computes the mean along a dimension.
// Negative dims index from the end (-1 is the last dimension).
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("meandim: invalid dim %d for %dD tensor", dim, ndim))
	}

	outShape := make(tensor.Shape, 0, ndim)
	for i, d := range shape {
		if i == dim {
			if keepDim {
				outShape = append(outShape, 1)
			}
			continue
		}
		outShape = append(outShape, d)
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}

	result, err := tensor.NewRaw(outShape, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("meandim: %v", err))
	}

	// outer iterates over dimensions before dim, inner over dimensions after.
	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	reduceN := shape[dim]
	inner := 1
	for i := dim + 1; i < ndim; i++ {
		inner *= shape[i]
	}

	switch x.DType() {
	case tensor.Float32:
		meanDimData(result.AsFloat32(), x.AsFloat32(), outer, reduceN, inner)
	case tensor.Float64:
		meanDimData(result.AsFloat64(), x.AsFloat64(), outer, reduceN, inner)
	default:
		panic(fmt.Sprintf("meandim: unsupported dtype %s", x.DType()))
	}

	return result
}

func meanDimData[T float32 | float64](dst, src []T, outer, reduceN, inner int) {
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			var sum float64
			for r := 0; r < reduceN; r++ {
				sum += float64(src[o*reduceN*inner+r*inner+i])
			}
			dst[o*inner+i] = T(sum / float64(reduceN))
		}
	}
}
