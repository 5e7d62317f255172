package cpu

import (
	"fmt"

	"github.com/sngp-ml/sngp/internal/tensor"
)

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape:  [N, C_in, H, W]
// Kernel shape: [C_out, C_in, K_h, K_w]
// Output shape: [N, C_out, H_out, W_out]
//
// where:
//
//	H_out = (H + 2*padding - K_h) / stride + 1
//	W_out = (W + 2*padding - K_w) / stride + 1
//
// Im2col converts the convolution into a single large matrix product,
// which is cache-friendly and reuses the GEMM path.
//
// Reference: "High Performance Convolutional Neural Networks for Document
// Processing" (Chellapilla et al., 2006).
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kernelShape)))
	}

	n := inputShape[0]
	cIn := inputShape[1]
	h := inputShape[2]
	w := inputShape[3]
	cOut := kernelShape[0]
	kh := kernelShape[2]
	kw := kernelShape[3]

	if cIn != kernelShape[1] {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", cIn, kernelShape[1]))
	}

	hOut := (h+2*padding-kh)/stride + 1
	wOut := (w+2*padding-kw)/stride + 1

	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions: out_h=%d, out_w=%d (check stride/padding)", hOut, wOut))
	}

	output, err := tensor.NewRaw(tensor.Shape{n, cOut, hOut, wOut}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2d: failed to create output tensor: %v", err))
	}

	switch input.DType() {
	case tensor.Float32:
		conv2dKernel(output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(),
			n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding)
	case tensor.Float64:
		conv2dKernel(output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(),
			n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding)
	default:
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}

	return output
}

// conv2dKernel runs im2col followed by a kernel/column product, writing the
// result in [N, C_out, H_out, W_out] layout.
func conv2dKernel[T float32 | float64](outputData, inputData, kernelData []T,
	n, cIn, h, w, cOut, kh, kw, hOut, wOut, stride, padding int,
) {
	colWidth := cIn * kh * kw
	colHeight := n * hOut * wOut
	colBuf := make([]T, colHeight*colWidth)

	im2col(colBuf, inputData, n, cIn, h, w, kh, kw, hOut, wOut, stride, padding)

	// kernelData is already in [C_out, C_in*K_h*K_w] layout (row-major).
	// result[c, j] = sum_k kernel[c, k] * colBuf[j, k]
	for c := 0; c < cOut; c++ {
		for j := 0; j < colHeight; j++ {
			var sum T
			for k := 0; k < colWidth; k++ {
				sum += kernelData[c*colWidth+k] * colBuf[j*colWidth+k]
			}
			// j decomposes as (batch, outH, outW)
			batch := j / (hOut * wOut)
			pos := j % (hOut * wOut)
			outputData[batch*cOut*hOut*wOut+c*hOut*wOut+pos] = sum
		}
	}
}

// im2col transforms the input tensor into a column matrix
// [N*H_out*W_out, C_in*K_h*K_w]: one row per output position, one column per
// kernel weight. Out-of-bounds positions contribute zero (padding).
func im2col[T float32 | float64](colBuf, inputData []T, n, c, h, w, kh, kw, hOut, wOut, stride, padding int) {
	colWidth := c * kh * kw
	colIdx := 0

	for batch := 0; batch < n; batch++ {
		for outH := 0; outH < hOut; outH++ {
			for outW := 0; outW < wOut; outW++ {
				hStart := outH*stride - padding
				wStart := outW*stride - padding
				bufIdx := colIdx * colWidth

				for ch := 0; ch < c; ch++ {
					for i := 0; i < kh; i++ {
						for j := 0; j < kw; j++ {
							y := hStart + i
							x := wStart + j

							if y >= 0 && y < h && x >= 0 && x < w {
								colBuf[bufIdx] = inputData[batch*c*h*w+ch*h*w+y*w+x]
							} else {
								colBuf[bufIdx] = 0
							}
							bufIdx++
						}
					}
				}
				colIdx++
			}
		}
	}
}
