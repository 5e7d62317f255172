// Copyright 2025 The SNGP Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/sngp-ml/sngp/internal/nn"
	"github.com/sngp-ml/sngp/tensor"
)

// KernelType selects the random-feature mapping of the GP layer.
type KernelType = nn.KernelType

// Kernel types.
const (
	KernelGaussian KernelType = nn.KernelGaussian
	KernelLinear   KernelType = nn.KernelLinear
	KernelCustom   KernelType = nn.KernelCustom
)

// Likelihood selects the observation model of the covariance estimator.
type Likelihood = nn.Likelihood

// Likelihoods.
const (
	LikelihoodGaussian       Likelihood = nn.LikelihoodGaussian
	LikelihoodBinaryLogistic Likelihood = nn.LikelihoodBinaryLogistic
	LikelihoodPoisson        Likelihood = nn.LikelihoodPoisson
)

// Initializer samples a weight matrix for the random-feature projection.
type Initializer = nn.Initializer

// Activation is an elementwise nonlinearity applied to projected features.
type Activation[B tensor.Backend] = nn.Activation[B]

// OrthogonalRandomFeatures samples random matrices with orthogonal columns
// rescaled to match the Gaussian column-norm distribution.
type OrthogonalRandomFeatures = nn.OrthogonalRandomFeatures

// NewOrthogonalRandomFeatures creates the sampler. With randomNorm left at
// its default (true), column norms are drawn from the chi distribution.
func NewOrthogonalRandomFeatures(stddev float64, seed uint64) *OrthogonalRandomFeatures {
	return nn.NewOrthogonalRandomFeatures(stddev, seed)
}

// RandomFeatureConfig configures a RandomFourierFeatures layer.
type RandomFeatureConfig[B tensor.Backend] = nn.RandomFeatureConfig[B]

// RandomFourierFeatures is a frozen randomized feature embedding whose inner
// products approximate a kernel.
type RandomFourierFeatures[B tensor.Backend] = nn.RandomFourierFeatures[B]

// NewRandomFourierFeatures creates a random feature projection layer.
func NewRandomFourierFeatures[B tensor.Backend](inFeatures int, cfg RandomFeatureConfig[B], backend B) (*RandomFourierFeatures[B], error) {
	return nn.NewRandomFourierFeatures[B](inFeatures, cfg, backend)
}

// LaplaceRandomFeatureCovariance maintains the running precision estimate
// behind the GP posterior covariance.
type LaplaceRandomFeatureCovariance[B tensor.Backend] = nn.LaplaceRandomFeatureCovariance[B]

// NewLaplaceRandomFeatureCovariance creates the estimator.
func NewLaplaceRandomFeatureCovariance[B tensor.Backend](featureDim int, momentum, ridgePenalty float32, likelihood Likelihood, backend B) (*LaplaceRandomFeatureCovariance[B], error) {
	return nn.NewLaplaceRandomFeatureCovariance[B](featureDim, momentum, ridgePenalty, likelihood, backend)
}

// GPConfig configures a RandomFeatureGaussianProcess head.
type GPConfig[B tensor.Backend] = nn.GPConfig[B]

// DefaultGPConfig returns the standard GP head configuration for the given
// number of outputs: 1024 inducing points, Gaussian kernel, input
// normalization, covariance momentum 0.999 and ridge penalty 1e-6.
func DefaultGPConfig[B tensor.Backend](units int) GPConfig[B] {
	return nn.DefaultGPConfig[B](units)
}

// GPOutput bundles the outputs of a GP forward pass.
type GPOutput[B tensor.Backend] = nn.GPOutput[B]

// RandomFeatureGaussianProcess is a Gaussian process output head based on a
// low-rank random-feature approximation of the kernel.
//
// Example:
//
//	gp, err := nn.NewRandomFeatureGaussianProcess(64, nn.DefaultGPConfig[*cpu.Backend](10), backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := gp.Forward(features, true) // training step: accumulates covariance
type RandomFeatureGaussianProcess[B tensor.Backend] = nn.RandomFeatureGaussianProcess[B]

// NewRandomFeatureGaussianProcess builds a GP head for inputs of dimension
// inFeatures.
func NewRandomFeatureGaussianProcess[B tensor.Backend](inFeatures int, cfg GPConfig[B], backend B) (*RandomFeatureGaussianProcess[B], error) {
	return nn.NewRandomFeatureGaussianProcess[B](inFeatures, cfg, backend)
}
