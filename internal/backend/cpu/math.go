package cpu

import (
	"fmt"
	"math"

	"github.com/sngp-ml/sngp/internal/tensor"
)

// unaryOp applies fn to every element of x.
func (cpu *CPUBackend) unaryOp(name string, x *tensor.RawTensor, fn func(float64) float64) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		for i := range src {
			dst[i] = float32(fn(float64(src[i])))
		}
	case tensor.Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		for i := range src {
			dst[i] = fn(src[i])
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}

	return result
}

// Exp computes e^x element-wise.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("exp", x, math.Exp)
}

// Sqrt computes the square root element-wise.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("sqrt", x, math.Sqrt)
}

// Rsqrt computes 1/sqrt(x) element-wise.
func (cpu *CPUBackend) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("rsqrt", x, func(v float64) float64 { return 1.0 / math.Sqrt(v) })
}

// Cos computes the cosine element-wise.
func (cpu *CPUBackend) Cos(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("cos", x, math.Cos)
}

// Sigmoid computes the logistic sigmoid element-wise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("sigmoid", x, func(v float64) float64 { return 1.0 / (1.0 + math.Exp(-v)) })
}
