package cpu

import (
	"fmt"

	"github.com/sngp-ml/sngp/internal/tensor"
)

// scalarOp applies fn(x, scalar) to every element of x.
func (cpu *CPUBackend) scalarOp(name string, x *tensor.RawTensor, scalar any, fn func(x, s float64) float64) *tensor.RawTensor {
	s, err := toFloat64(scalar)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		for i := range src {
			dst[i] = float32(fn(float64(src[i]), s))
		}
	case tensor.Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		for i := range src {
			dst[i] = fn(src[i], s)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}

	return result
}

func toFloat64(scalar any) (float64, error) {
	switch v := scalar.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("unsupported scalar type %T", scalar)
	}
}

// MulScalar multiplies each element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("mulscalar", x, scalar, func(x, s float64) float64 { return x * s })
}

// AddScalar adds a scalar to each element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("addscalar", x, scalar, func(x, s float64) float64 { return x + s })
}

// DivScalar divides each element by a scalar.
func (cpu *CPUBackend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("divscalar", x, scalar, func(x, s float64) float64 { return x / s })
}
