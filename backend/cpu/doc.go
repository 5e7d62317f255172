// Copyright 2025 The SNGP Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Im2col algorithm for convolutions and their transpose
//   - gonum BLAS matrix multiplication and dense inversion
//   - Float32 and Float64 support
//   - NumPy-compatible broadcasting
//
// # Basic Usage
//
//	import (
//	    "github.com/sngp-ml/sngp/backend/cpu"
//	    "github.com/sngp-ml/sngp/tensor"
//	    "github.com/sngp-ml/sngp/nn"
//	)
//
//	backend := cpu.New()
//	x := tensor.Randn[float32](tensor.Shape{8, 64}, backend)
//	gp, _ := nn.NewRandomFeatureGaussianProcess(64, nn.DefaultGPConfig[*cpu.Backend](10), backend)
//	out, _ := gp.Forward(x, false)
package cpu
