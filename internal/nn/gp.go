package nn

import (
	"fmt"
	"math"

	"github.com/sngp-ml/sngp/internal/tensor"
)

// GPConfig configures a RandomFeatureGaussianProcess output head.
type GPConfig[B tensor.Backend] struct {
	// Units is the number of output dimensions (logits).
	Units int
	// NumInducing is the random-feature dimensionality.
	NumInducing int
	// Kernel selects the random-feature mapping.
	Kernel KernelType
	// KernelScale is the kernel length scale. Inputs are rescaled by
	// 1/sqrt(KernelScale) when NormalizeInput is false.
	KernelScale float64
	// OutputBias is the initial value of the (trainable) output bias.
	OutputBias float32
	// NormalizeInput applies layer normalization to the inputs before the
	// random-feature projection.
	NormalizeInput bool
	// ScaleRandomFeatures multiplies the features by sqrt(2/NumInducing) so
	// their inner products match the Monte-Carlo kernel estimate.
	ScaleRandomFeatures bool
	// CovMomentum is the precision-matrix EMA momentum; <= 0 selects exact
	// summation over batches.
	CovMomentum float32
	// CovRidgePenalty is the ridge factor added before inverting the
	// precision matrix.
	CovRidgePenalty float32
	// Likelihood selects the observation model of the covariance estimator.
	Likelihood Likelihood
	// ReturnGPCov enables the posterior covariance output. When false the
	// covariance estimator is not built at all.
	ReturnGPCov bool
	// ReturnRandomFeatures includes the projected features in the output.
	ReturnRandomFeatures bool
	// L2Regularization is the penalty factor on the output weights, exposed
	// through RegularizationLoss.
	L2Regularization float32
	// Seed drives the random-feature sampling.
	Seed uint64
	// CustomInitializer and CustomActivation configure KernelCustom.
	CustomInitializer Initializer
	CustomActivation  Activation[B]
}

// DefaultGPConfig returns the standard configuration for a GP head with the
// given number of outputs.
func DefaultGPConfig[B tensor.Backend](units int) GPConfig[B] {
	return GPConfig[B]{
		Units:               units,
		NumInducing:         1024,
		Kernel:              KernelGaussian,
		KernelScale:         1.0,
		OutputBias:          0.0,
		NormalizeInput:      true,
		ScaleRandomFeatures: true,
		CovMomentum:         0.999,
		CovRidgePenalty:     1e-6,
		Likelihood:          LikelihoodGaussian,
		ReturnGPCov:         true,
	}
}

// GPOutput bundles the outputs of a RandomFeatureGaussianProcess forward
// pass. Covariance and RandomFeatures are nil unless the corresponding
// config flags are set.
type GPOutput[B tensor.Backend] struct {
	// Logits is the posterior-mean prediction, [batch, units].
	Logits *tensor.Tensor[float32, B]
	// Covariance is the predictive covariance over the batch, [batch, batch].
	Covariance *tensor.Tensor[float32, B]
	// RandomFeatures is the projected feature matrix, [batch, num_inducing].
	RandomFeatures *tensor.Tensor[float32, B]
}

// RandomFeatureGaussianProcess is a Gaussian process output head based on a
// low-rank random-feature expansion of the kernel. The posterior mean is a
// trainable linear readout of the frozen random features; the posterior
// covariance comes from a Laplace approximation maintained by
// LaplaceRandomFeatureCovariance.
//
// Pipeline: input -> [layernorm | kernel-scale] -> random features ->
// [sqrt(2/D) scaling] -> linear readout + bias, with the covariance
// estimator observing the scaled features.
type RandomFeatureGaussianProcess[B tensor.Backend] struct {
	cfg        GPConfig[B]
	inFeatures int

	inputNorm     *LayerNorm[B]
	randomFeature *RandomFourierFeatures[B]
	outputLayer   *Linear[B]
	outputBias    *Parameter[B]
	covLayer      *LaplaceRandomFeatureCovariance[B]

	featureScale float32

	backend B
}

// NewRandomFeatureGaussianProcess builds a GP head for inputs of dimension
// inFeatures. The kernel type, likelihood, and ridge penalty are validated
// here so Forward never has to.
func NewRandomFeatureGaussianProcess[B tensor.Backend](inFeatures int, cfg GPConfig[B], backend B) (*RandomFeatureGaussianProcess[B], error) {
	if inFeatures <= 0 {
		return nil, fmt.Errorf("gp: invalid input dimension %d", inFeatures)
	}
	if cfg.Units <= 0 {
		return nil, fmt.Errorf("gp: invalid output dimension %d", cfg.Units)
	}

	randomFeature, err := NewRandomFourierFeatures(inFeatures, RandomFeatureConfig[B]{
		NumInducing:  cfg.NumInducing,
		Kernel:       cfg.Kernel,
		Initializer:  cfg.CustomInitializer,
		ActivationFn: cfg.CustomActivation,
		Seed:         cfg.Seed,
	}, backend)
	if err != nil {
		return nil, err
	}
	featureDim := randomFeature.OutFeatures()

	gp := &RandomFeatureGaussianProcess[B]{
		cfg:           cfg,
		inFeatures:    inFeatures,
		randomFeature: randomFeature,
		outputLayer:   NewLinearNoBias[B](featureDim, cfg.Units, backend),
		featureScale:  1.0,
		backend:       backend,
	}

	if cfg.NormalizeInput {
		gp.inputNorm = NewLayerNorm[B](inFeatures, 1e-12, backend)
	}
	if cfg.ScaleRandomFeatures {
		gp.featureScale = float32(math.Sqrt(2.0 / float64(featureDim)))
	}

	bias := tensor.Full[float32](tensor.Shape{cfg.Units}, cfg.OutputBias, backend)
	gp.outputBias = NewParameter("gp_output_bias", bias)

	if cfg.ReturnGPCov {
		gp.covLayer, err = NewLaplaceRandomFeatureCovariance[B](
			featureDim, cfg.CovMomentum, cfg.CovRidgePenalty, cfg.Likelihood, backend)
		if err != nil {
			return nil, err
		}
	}

	return gp, nil
}

// Forward computes the GP posterior mean and, when enabled, the posterior
// covariance over the batch. input is [batch, in_features].
//
// During training the covariance estimator accumulates the batch into its
// precision matrix and the returned Covariance is an identity placeholder.
func (g *RandomFeatureGaussianProcess[B]) Forward(input *tensor.Tensor[float32, B], training bool) (*GPOutput[B], error) {
	shape := input.Shape()
	if len(shape) != 2 || shape[1] != g.inFeatures {
		return nil, fmt.Errorf("gp: expected input of shape [batch, %d], got %v", g.inFeatures, shape)
	}

	gpInput := input
	if g.inputNorm != nil {
		gpInput = g.inputNorm.Forward(gpInput)
	} else if g.cfg.KernelScale > 0 {
		// Fold the kernel length scale into the inputs: k(x, x') with scale s
		// equals the unit-scale kernel evaluated at x / sqrt(s).
		gpInput = gpInput.MulScalar(float32(1.0 / math.Sqrt(g.cfg.KernelScale)))
	}

	features := g.randomFeature.Forward(gpInput)
	if g.featureScale != 1.0 {
		features = features.MulScalar(g.featureScale)
	}

	logits := g.outputLayer.Forward(features).Add(g.outputBias.Tensor().Reshape(1, g.cfg.Units))

	out := &GPOutput[B]{Logits: logits}
	if g.cfg.ReturnRandomFeatures {
		out.RandomFeatures = features
	}
	if g.covLayer != nil {
		cov, err := g.covLayer.Forward(features, logits, training)
		if err != nil {
			return nil, err
		}
		out.Covariance = cov
	}
	return out, nil
}

// ResetCovarianceMatrix clears the accumulated precision estimate. Call this
// at the start of each epoch when using exact-sum accumulation, or before the
// final estimation epoch when using momentum.
func (g *RandomFeatureGaussianProcess[B]) ResetCovarianceMatrix() {
	if g.covLayer != nil {
		g.covLayer.ResetPrecisionMatrix()
	}
}

// RegularizationLoss returns the L2 penalty on the output weights,
// l2 * sum(w^2). Zero when L2Regularization is zero.
func (g *RandomFeatureGaussianProcess[B]) RegularizationLoss() float32 {
	if g.cfg.L2Regularization == 0 {
		return 0
	}
	w := g.outputLayer.Weight().Tensor()
	return g.cfg.L2Regularization * w.Mul(w).Sum().Item()
}

// Parameters returns the trainable parameters: the output weights and bias.
// The random-feature projection and the covariance state are frozen.
func (g *RandomFeatureGaussianProcess[B]) Parameters() []*Parameter[B] {
	params := []*Parameter[B]{g.outputBias}
	params = append(params, g.outputLayer.Parameters()...)
	if g.inputNorm != nil {
		params = append(params, g.inputNorm.Parameters()...)
	}
	return params
}

// RandomFeatureLayer returns the frozen feature projection.
func (g *RandomFeatureGaussianProcess[B]) RandomFeatureLayer() *RandomFourierFeatures[B] {
	return g.randomFeature
}

// CovarianceLayer returns the Laplace estimator, or nil when the posterior
// covariance output is disabled.
func (g *RandomFeatureGaussianProcess[B]) CovarianceLayer() *LaplaceRandomFeatureCovariance[B] {
	return g.covLayer
}

// OutputLayer returns the trainable linear readout.
func (g *RandomFeatureGaussianProcess[B]) OutputLayer() *Linear[B] {
	return g.outputLayer
}

// OutputBias returns the trainable output bias.
func (g *RandomFeatureGaussianProcess[B]) OutputBias() *Parameter[B] {
	return g.outputBias
}
