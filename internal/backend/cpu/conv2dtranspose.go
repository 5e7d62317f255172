package cpu

import (
	"fmt"

	"github.com/sngp-ml/sngp/internal/tensor"
)

// Conv2DTranspose applies the adjoint of Conv2D (transposed convolution).
//
// Input shape:  [N, C_out, H_out, W_out] (i.e. a tensor in Conv2D's output space)
// Kernel shape: [C_out, C_in, K_h, K_w] (the same kernel as the forward conv)
// Output shape: outputShape, [N, C_in, H, W]
//
// For each input position the kernel is scattered back onto the output map,
// so that <Conv2D(v, W), u> == <v, Conv2DTranspose(u, W)> for all u, v. The
// power-iteration update relies on this adjoint identity.
//
// Reference: "A guide to convolution arithmetic for deep learning"
// (Dumoulin & Visin, 2016).
func (cpu *CPUBackend) Conv2DTranspose(input, kernel *tensor.RawTensor, outputShape tensor.Shape, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2dtranspose: input must be 4D [N,C_out,H_out,W_out], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2dtranspose: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kernelShape)))
	}
	if len(outputShape) != 4 {
		panic(fmt.Sprintf("conv2dtranspose: output shape must be 4D [N,C_in,H,W], got %v", outputShape))
	}
	if inputShape[1] != kernelShape[0] {
		panic(fmt.Sprintf("conv2dtranspose: input channels %d != kernel output channels %d", inputShape[1], kernelShape[0]))
	}
	if outputShape[1] != kernelShape[1] {
		panic(fmt.Sprintf("conv2dtranspose: output channels %d != kernel input channels %d", outputShape[1], kernelShape[1]))
	}
	if outputShape[0] != inputShape[0] {
		panic(fmt.Sprintf("conv2dtranspose: batch mismatch %d vs %d", outputShape[0], inputShape[0]))
	}

	n := inputShape[0]
	cOut := inputShape[1]
	hOut := inputShape[2]
	wOut := inputShape[3]
	cIn := outputShape[1]
	h := outputShape[2]
	w := outputShape[3]
	kh := kernelShape[2]
	kw := kernelShape[3]

	output, err := tensor.NewRaw(outputShape, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2dtranspose: failed to create output tensor: %v", err))
	}

	switch input.DType() {
	case tensor.Float32:
		conv2dTransposeKernel(output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(),
			n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding)
	case tensor.Float64:
		conv2dTransposeKernel(output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(),
			n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding)
	default:
		panic(fmt.Sprintf("conv2dtranspose: unsupported dtype %s", input.DType()))
	}

	return output
}

// conv2dTransposeKernel scatters each input value through the kernel onto
// the output map. Output positions outside [0,H)x[0,W) are dropped, mirroring
// the zero padding of the forward convolution.
func conv2dTransposeKernel[T float32 | float64](outputData, inputData, kernelData []T,
	n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding int,
) {
	for batch := 0; batch < n; batch++ {
		for co := 0; co < cOut; co++ {
			for oy := 0; oy < hOut; oy++ {
				for ox := 0; ox < wOut; ox++ {
					v := inputData[batch*cOut*hOut*wOut+co*hOut*wOut+oy*wOut+ox]
					if v == 0 {
						continue
					}
					hStart := oy*stride - padding
					wStart := ox*stride - padding

					for ci := 0; ci < cIn; ci++ {
						for i := 0; i < kh; i++ {
							y := hStart + i
							if y < 0 || y >= h {
								continue
							}
							for j := 0; j < kw; j++ {
								x := wStart + j
								if x < 0 || x >= w {
									continue
								}
								outputData[batch*cIn*h*w+ci*h*w+y*w+x] +=
									v * kernelData[co*cIn*kh*kw+ci*kh*kw+i*kw+j]
							}
						}
					}
				}
			}
		}
	}
}
