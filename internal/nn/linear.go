package nn

import (
	"fmt"

	"github.com/sngp-ml/sngp/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features] (optional)
//
// Weights are initialized with Xavier initialization, biases to zeros.
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B] // [out_features, in_features]
	bias        *Parameter[B] // [out_features] or nil
	backend     B
}

// NewLinear creates a new Linear layer with a bias term.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return newLinear(inFeatures, outFeatures, true, backend)
}

// NewLinearNoBias creates a new Linear layer without a bias term.
// The GP head uses this for its output projection, carrying the output bias
// as a separate parameter.
func NewLinearNoBias[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return newLinear(inFeatures, outFeatures, false, backend)
}

func newLinear[B tensor.Backend](inFeatures, outFeatures int, useBias bool, backend B) *Linear[B] {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("linear: invalid features in=%d, out=%d", inFeatures, outFeatures))
	}

	weightShape := tensor.Shape{outFeatures, inFeatures}
	weight := NewParameter("weight", Xavier(inFeatures, outFeatures, weightShape, backend))

	var bias *Parameter[B]
	if useBias {
		bias = NewParameter("bias", Zeros(tensor.Shape{outFeatures}, backend))
	}

	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      weight,
		bias:        bias,
		backend:     backend,
	}
}

// Forward computes y = x @ W.T + b.
//
// Input shape: [batch_size, in_features]
// Output shape: [batch_size, out_features]
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) != 2 {
		panic(fmt.Sprintf("Linear.Forward: expected 2D input [batch, features], got shape %v", inputShape))
	}
	if inputShape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, inputShape[1]))
	}

	w := l.weight.Tensor() // [out_features, in_features]

	// [batch, in] @ [in, out] = [batch, out]
	output := input.MatMul(w.Transpose())

	if l.bias != nil {
		b := l.bias.Tensor().Reshape(1, l.outFeatures)
		output = output.Add(b)
	}

	return output
}

// Parameters returns the trainable parameters of this layer.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	if l.bias != nil {
		return []*Parameter[B]{l.weight, l.bias}
	}
	return []*Parameter[B]{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] {
	return l.weight
}

// Bias returns the bias parameter, or nil for a bias-free layer.
func (l *Linear[B]) Bias() *Parameter[B] {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}
