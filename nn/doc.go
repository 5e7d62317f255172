// Copyright 2025 The SNGP Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public API for the neural network layers.
//
// # Overview
//
// The package centers on two distance-aware building blocks:
//
//   - SpectralNormConv2D bounds the spectral norm of a convolution layer
//     with power iteration, keeping the wrapped network bi-Lipschitz.
//   - RandomFeatureGaussianProcess replaces a dense output layer with a
//     random-feature Gaussian process whose posterior covariance is
//     estimated online by LaplaceRandomFeatureCovariance.
//
// Together they form the SNGP (spectral-normalized neural Gaussian process)
// recipe for single-forward-pass uncertainty estimation.
//
// Supporting layers (Linear, LayerNorm, Conv2D) and the Parameter type are
// exported for composing the blocks into models.
//
// # Training Loop Shape
//
// Layers are forward-only; the caller owns optimization. Pass training=true
// while fitting so the spectral norm estimate and the covariance precision
// matrix track the weights, call ResetCovarianceMatrix at the start of the
// final epoch, then pass training=false to read calibrated covariances.
package nn
