package nn

import (
	"fmt"

	"github.com/sngp-ml/sngp/internal/tensor"
)

// Likelihood selects the observation model used when accumulating the
// feature precision matrix.
type Likelihood string

// Supported likelihoods.
const (
	LikelihoodGaussian       Likelihood = "gaussian"
	LikelihoodBinaryLogistic Likelihood = "binary_logistic"
	LikelihoodPoisson        Likelihood = "poisson"
)

// LaplaceRandomFeatureCovariance maintains a running estimate of the
// random-feature precision matrix and derives a Laplace approximation of
// the GP posterior covariance from it.
//
// During training, each Forward call folds the batch's (likelihood-weighted)
// feature second moment into the precision matrix and returns an identity
// placeholder. During inference, Forward returns the predictive covariance
// ridge * phi C phi^T, inverting the precision matrix lazily: the inverse is
// recomputed only on the first inference call after a training update.
type LaplaceRandomFeatureCovariance[B tensor.Backend] struct {
	featureDim   int
	momentum     float32
	ridgePenalty float32
	likelihood   Likelihood

	precision  *Parameter[B] // [d, d]
	covariance *Parameter[B] // [d, d]

	// updatePending is set by training steps and cleared when the covariance
	// cache is rebuilt.
	updatePending bool

	backend B
}

// NewLaplaceRandomFeatureCovariance creates the estimator for a feature
// space of dimension featureDim.
//
// momentum > 0 maintains an exponential moving average of per-example
// precision; momentum <= 0 accumulates the exact sum over all batches seen.
// ridgePenalty stabilizes the inversion and must be positive.
func NewLaplaceRandomFeatureCovariance[B tensor.Backend](featureDim int, momentum, ridgePenalty float32, likelihood Likelihood, backend B) (*LaplaceRandomFeatureCovariance[B], error) {
	if featureDim <= 0 {
		return nil, fmt.Errorf("laplace: invalid feature dimension %d", featureDim)
	}
	if ridgePenalty <= 0 {
		return nil, fmt.Errorf("laplace: ridge penalty must be positive, got %g", ridgePenalty)
	}
	switch likelihood {
	case LikelihoodGaussian, LikelihoodBinaryLogistic, LikelihoodPoisson:
	default:
		return nil, fmt.Errorf("laplace: likelihood must be one of (%s, %s, %s), got %q",
			LikelihoodGaussian, LikelihoodBinaryLogistic, LikelihoodPoisson, likelihood)
	}

	precision := tensor.Zeros[float32](tensor.Shape{featureDim, featureDim}, backend)
	covariance := tensor.Eye[float32](featureDim, backend)

	return &LaplaceRandomFeatureCovariance[B]{
		featureDim:   featureDim,
		momentum:     momentum,
		ridgePenalty: ridgePenalty,
		likelihood:   likelihood,
		precision:    NewState("laplace_covariance.precision_matrix", precision, AggregationOnlyFirstReplica),
		covariance:   NewState("laplace_covariance.covariance_matrix", covariance, AggregationOnlyFirstReplica),
		backend:      backend,
	}, nil
}

// Forward either updates the precision estimate (training) or evaluates the
// predictive covariance (inference).
//
// features is [batch, d]. logits is required for non-Gaussian likelihoods
// and must be univariate, [batch, 1]. The returned tensor is [batch, batch]
// in both modes; during training it is the identity, a placeholder of the
// right shape rather than a meaningful covariance.
func (l *LaplaceRandomFeatureCovariance[B]) Forward(features, logits *tensor.Tensor[float32, B], training bool) (*tensor.Tensor[float32, B], error) {
	shape := features.Shape()
	if len(shape) != 2 || shape[1] != l.featureDim {
		return nil, fmt.Errorf("laplace: expected features of shape [batch, %d], got %v", l.featureDim, shape)
	}
	batch := shape[0]

	if training {
		updated, err := l.updatedPrecision(features, logits)
		if err != nil {
			return nil, err
		}
		l.precision.Assign(updated)
		l.updatePending = true
		return tensor.Eye[float32](batch, l.backend), nil
	}

	if l.updatePending {
		l.covariance.Assign(l.invertPrecision())
		l.updatePending = false
	}
	return l.predictiveCovariance(features), nil
}

// updatedPrecision computes the next precision state from a training batch.
func (l *LaplaceRandomFeatureCovariance[B]) updatedPrecision(features, logits *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	adjusted := features

	if l.likelihood != LikelihoodGaussian {
		if logits == nil {
			return nil, fmt.Errorf("laplace: logits are required when likelihood=%s", l.likelihood)
		}
		logitsShape := logits.Shape()
		if len(logitsShape) != 2 || logitsShape[1] != 1 {
			return nil, fmt.Errorf("laplace: likelihood=%s supports only univariate logits, got shape %v", l.likelihood, logitsShape)
		}

		var multiplier *tensor.Tensor[float32, B]
		switch l.likelihood {
		case LikelihoodBinaryLogistic:
			prob := logits.Sigmoid()
			multiplier = prob.Mul(prob.MulScalar(-1.0).AddScalar(1.0))
		case LikelihoodPoisson:
			multiplier = logits.Exp()
		}
		// [batch, 1] broadcasts across the feature dimension.
		adjusted = features.Mul(multiplier.Sqrt())
	}

	batchPrecision := adjusted.Transpose().MatMul(adjusted)

	if l.momentum > 0 {
		batch := features.Shape()[0]
		perExample := batchPrecision.DivScalar(float32(batch))
		return l.precision.Tensor().MulScalar(l.momentum).Add(perExample.MulScalar(1.0 - l.momentum)), nil
	}
	return l.precision.Tensor().Add(batchPrecision), nil
}

// invertPrecision computes C = (ridge * I + P)^-1.
func (l *LaplaceRandomFeatureCovariance[B]) invertPrecision() *tensor.Tensor[float32, B] {
	ridge := tensor.Eye[float32](l.featureDim, l.backend).MulScalar(l.ridgePenalty)
	return l.precision.Tensor().Add(ridge).Inverse()
}

// predictiveCovariance evaluates ridge * phi C phi^T for a [batch, d] phi.
func (l *LaplaceRandomFeatureCovariance[B]) predictiveCovariance(features *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	covFeature := l.covariance.Tensor().MatMul(features.Transpose()).MulScalar(l.ridgePenalty)
	return features.MatMul(covFeature)
}

// ResetPrecisionMatrix zeroes the accumulated precision so a fresh estimation
// epoch can start. The covariance cache is left untouched until the next
// training step marks it stale.
func (l *LaplaceRandomFeatureCovariance[B]) ResetPrecisionMatrix() {
	l.precision.Assign(tensor.Zeros[float32](tensor.Shape{l.featureDim, l.featureDim}, l.backend))
}

// CovarianceMatrix returns the cached feature-space covariance, rebuilding it
// first if training updates have landed since the last inversion.
func (l *LaplaceRandomFeatureCovariance[B]) CovarianceMatrix() *tensor.Tensor[float32, B] {
	if l.updatePending {
		l.covariance.Assign(l.invertPrecision())
		l.updatePending = false
	}
	return l.covariance.Tensor()
}

// PrecisionMatrix returns the current precision estimate.
func (l *LaplaceRandomFeatureCovariance[B]) PrecisionMatrix() *tensor.Tensor[float32, B] {
	return l.precision.Tensor()
}

// UpdatePending reports whether the covariance cache is stale.
func (l *LaplaceRandomFeatureCovariance[B]) UpdatePending() bool {
	return l.updatePending
}

// Parameters returns the trainable parameters. Both matrices are estimator
// state, not weights, so there are none.
func (l *LaplaceRandomFeatureCovariance[B]) Parameters() []*Parameter[B] {
	return nil
}

// States returns the non-trainable state parameters for checkpointing and
// replica synchronization.
func (l *LaplaceRandomFeatureCovariance[B]) States() []*Parameter[B] {
	return []*Parameter[B]{l.precision, l.covariance}
}
