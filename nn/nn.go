// Copyright 2025 The SNGP Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/sngp-ml/sngp/internal/nn"
	"github.com/sngp-ml/sngp/tensor"
)

// Module is the interface implemented by all layers.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter is a named tensor with trainability and replica-aggregation
// metadata.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// Aggregation describes how a state parameter is combined across replicas.
type Aggregation = nn.Aggregation

// Aggregation policies.
const (
	AggregationNone             Aggregation = nn.AggregationNone
	AggregationMean             Aggregation = nn.AggregationMean
	AggregationOnlyFirstReplica Aggregation = nn.AggregationOnlyFirstReplica
)

// NewParameter creates a trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// NewState creates a non-trainable state parameter with the given
// aggregation policy.
func NewState[B tensor.Backend](name string, t *tensor.Tensor[float32, B], agg Aggregation) *Parameter[B] {
	return nn.NewState(name, t, agg)
}

// Basic layers

// Linear is a fully connected layer: y = x @ W^T + b.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a linear layer with bias.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear[B](inFeatures, outFeatures, backend)
}

// NewLinearNoBias creates a linear layer without bias.
func NewLinearNoBias[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinearNoBias[B](inFeatures, outFeatures, backend)
}

// LayerNorm normalizes the last dimension to zero mean and unit variance.
type LayerNorm[B tensor.Backend] = nn.LayerNorm[B]

// NewLayerNorm creates a layer normalization layer.
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	return nn.NewLayerNorm[B](normalizedShape, epsilon, backend)
}

// Conv2D is a 2D convolution layer over NCHW inputs.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a 2D convolution layer.
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelH, kernelW, stride, padding int, useBias bool, backend B) *Conv2D[B] {
	return nn.NewConv2D[B](inChannels, outChannels, kernelH, kernelW, stride, padding, useBias, backend)
}
