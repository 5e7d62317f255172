// Copyright 2025 The SNGP Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/sngp-ml/sngp/internal/nn"
	"github.com/sngp-ml/sngp/tensor"
)

// SpectralNormConfig configures a spectral normalization wrapper.
type SpectralNormConfig = nn.SpectralNormConfig

// DefaultSpectralNormConfig returns the standard configuration: one power
// iteration per forward pass and a norm multiplier of 0.95.
func DefaultSpectralNormConfig() SpectralNormConfig {
	return nn.DefaultSpectralNormConfig()
}

// SpectralNormConv2D wraps a Conv2D layer and bounds the spectral norm of
// its convolution operator via power iteration.
//
// Example:
//
//	conv := nn.NewConv2D(3, 32, 3, 3, 2, 0, false, backend)
//	sn, err := nn.NewSpectralNormConv2D(conv, nn.DefaultSpectralNormConfig(), backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out := sn.Forward(input, true)
type SpectralNormConv2D[B tensor.Backend] = nn.SpectralNormConv2D[B]

// NewSpectralNormConv2D wraps layer with spectral normalization. The bound
// applies to the convolution kernel; a bias on the wrapped layer is left
// untouched.
func NewSpectralNormConv2D[B tensor.Backend](layer *Conv2D[B], cfg SpectralNormConfig, backend B) (*SpectralNormConv2D[B], error) {
	return nn.NewSpectralNormConv2D[B](layer, cfg, backend)
}
