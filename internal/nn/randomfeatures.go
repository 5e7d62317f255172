package nn

import (
	"fmt"
	"math"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sngp-ml/sngp/internal/tensor"
)

// KernelType selects the random-feature mapping of the GP layer.
type KernelType string

// Supported kernel types.
const (
	// KernelGaussian approximates the RBF kernel with orthogonal random
	// features and a cosine activation (Monte-Carlo Fourier features).
	KernelGaussian KernelType = "gaussian"
	// KernelLinear is the identity mapping: the GP operates directly on the
	// input features.
	KernelLinear KernelType = "linear"
	// KernelCustom uses a caller-supplied initializer and activation.
	KernelCustom KernelType = "custom"
)

// Activation is an elementwise nonlinearity applied to the projected features.
type Activation[B tensor.Backend] func(*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

// RandomFeatureConfig configures a RandomFourierFeatures layer.
type RandomFeatureConfig[B tensor.Backend] struct {
	// NumInducing is the dimensionality of the random feature space.
	NumInducing int
	// Kernel selects the projection policy.
	Kernel KernelType
	// Initializer overrides the weight sampler (KernelCustom). Defaults to
	// orthogonal random features with unit scale.
	Initializer Initializer
	// ActivationFn overrides the nonlinearity (KernelCustom). Defaults to cosine.
	ActivationFn Activation[B]
	// Seed drives the weight and bias sampling.
	Seed uint64
}

// RandomFourierFeatures maps an input vector of dimension m to a feature
// vector in the inducing-point space: feature = activation(x @ W + b), with
// W sampled once at construction and b uniform in [0, 2pi). Both are frozen;
// the mapping is a fixed randomized embedding, not a trainable layer.
//
// With the default Gaussian kernel, inner products of the features
// approximate the RBF kernel in expectation.
type RandomFourierFeatures[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	kernel      KernelType

	weight     *Parameter[B] // [in_features, num_inducing], frozen
	bias       *Parameter[B] // [num_inducing], frozen
	activation Activation[B]

	backend B
}

// NewRandomFourierFeatures creates a random feature projection layer.
// The kernel type is validated at construction; KernelLinear ignores
// NumInducing and passes the input through unchanged.
func NewRandomFourierFeatures[B tensor.Backend](inFeatures int, cfg RandomFeatureConfig[B], backend B) (*RandomFourierFeatures[B], error) {
	if inFeatures <= 0 {
		return nil, fmt.Errorf("randomfeatures: invalid input dimension %d", inFeatures)
	}

	switch cfg.Kernel {
	case KernelLinear:
		return &RandomFourierFeatures[B]{
			inFeatures:  inFeatures,
			outFeatures: inFeatures,
			kernel:      KernelLinear,
			backend:     backend,
		}, nil
	case KernelGaussian, KernelCustom:
		// Dense random projection below.
	default:
		return nil, fmt.Errorf("randomfeatures: kernel type must be one of (%s, %s, %s), got %q",
			KernelGaussian, KernelLinear, KernelCustom, cfg.Kernel)
	}

	if cfg.NumInducing <= 0 {
		return nil, fmt.Errorf("randomfeatures: invalid inducing dimension %d", cfg.NumInducing)
	}

	init := cfg.Initializer
	if init == nil {
		init = NewOrthogonalRandomFeatures(1.0, cfg.Seed)
	}
	activation := cfg.ActivationFn
	if activation == nil {
		activation = func(t *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] { return t.Cos() }
	}

	weightData := init.Sample(inFeatures, cfg.NumInducing)
	weightTensor, err := tensor.FromSlice(weightData, tensor.Shape{inFeatures, cfg.NumInducing}, backend)
	if err != nil {
		return nil, fmt.Errorf("randomfeatures: initializer produced bad weight: %w", err)
	}

	biasTensor := sampleUniformBias[B](cfg.NumInducing, cfg.Seed, backend)

	return &RandomFourierFeatures[B]{
		inFeatures:  inFeatures,
		outFeatures: cfg.NumInducing,
		kernel:      cfg.Kernel,
		weight:      NewState("random_feature.weight", weightTensor, AggregationNone),
		bias:        NewState("random_feature.bias", biasTensor, AggregationNone),
		activation:  activation,
		backend:     backend,
	}, nil
}

// sampleUniformBias draws the phase vector b ~ U[0, 2pi)^n.
func sampleUniformBias[B tensor.Backend](n int, seed uint64, backend B) *tensor.Tensor[float32, B] {
	uniform := distuv.Uniform{
		Min: 0,
		Max: 2 * math.Pi,
		Src: exprand.New(exprand.NewSource(seed)),
	}

	t := tensor.Zeros[float32](tensor.Shape{n}, backend)
	data := t.Data()
	for i := range data {
		data[i] = float32(uniform.Rand())
	}
	return t
}

// Forward projects a [batch, in_features] input into the feature space.
//
// Output shape: [batch, out_features].
func (r *RandomFourierFeatures[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) != 2 {
		panic(fmt.Sprintf("randomfeatures: expected 2D input [batch, features], got shape %v", inputShape))
	}
	if inputShape[1] != r.inFeatures {
		panic(fmt.Sprintf("randomfeatures: expected input with %d features, got %d", r.inFeatures, inputShape[1]))
	}

	if r.kernel == KernelLinear {
		return input
	}

	projected := input.MatMul(r.weight.Tensor()).Add(r.bias.Tensor().Reshape(1, r.outFeatures))
	return r.activation(projected)
}

// Parameters returns the trainable parameters. The projection is frozen, so
// there are none.
func (r *RandomFourierFeatures[B]) Parameters() []*Parameter[B] {
	return nil
}

// OutFeatures returns the feature-space dimensionality.
func (r *RandomFourierFeatures[B]) OutFeatures() int {
	return r.outFeatures
}

// Kernel returns the kernel type of this projection.
func (r *RandomFourierFeatures[B]) Kernel() KernelType {
	return r.kernel
}

// Weight returns the frozen projection matrix, or nil for the linear kernel.
func (r *RandomFourierFeatures[B]) Weight() *Parameter[B] {
	return r.weight
}

// Bias returns the frozen phase vector, or nil for the linear kernel.
func (r *RandomFourierFeatures[B]) Bias() *Parameter[B] {
	return r.bias
}
