package nn

import (
	"errors"
	"fmt"

	"github.com/sngp-ml/sngp/internal/tensor"
)

// SpectralNormConfig configures a SpectralNormConv2D wrapper.
type SpectralNormConfig struct {
	// Iteration is the number of power-iteration steps performed per forward
	// call when estimating the kernel's dominant singular value. Zero reuses
	// the stored singular-vector estimates without refinement.
	Iteration int
	// NormMultiplier is the threshold c for the estimated singular value:
	// the kernel is rescaled by c/sigma only when sigma exceeds c. Under
	// persistent normalization the singular value converges to this value.
	NormMultiplier float32
	// LegacyMode sizes the singular-vector estimates with a leading dimension
	// equal to the batch size instead of 1. Kept for backward compatibility
	// only; the wrapper then rejects forward calls whose batch size differs
	// from the one it was built with.
	LegacyMode bool
}

// DefaultSpectralNormConfig returns the standard configuration:
// one power-iteration step, norm multiplier 0.95, legacy mode off.
func DefaultSpectralNormConfig() SpectralNormConfig {
	return SpectralNormConfig{
		Iteration:      1,
		NormMultiplier: 0.95,
	}
}

// SpectralNormConv2D wraps a Conv2D layer and bounds the spectral norm of
// its kernel, treating the convolution and its transpose as the linear
// operator pair for power iteration.
//
// Per forward call the wrapper estimates the kernel's dominant singular value
// sigma, applies the convolution with the kernel scaled by c/sigma when sigma
// exceeds the norm multiplier c, and then restores the unscaled kernel, so an
// external optimizer always sees the original parameter. The scaling is a
// forward-pass-only projection, not a reparameterization.
//
// The singular-vector estimates u and v persist across calls. They are only
// refined when the forward call runs in training mode; inference reuses the
// stored estimates unchanged.
type SpectralNormConv2D[B tensor.Backend] struct {
	layer   *Conv2D[B]
	cfg     SpectralNormConfig
	backend B

	built    bool
	uvDim    int
	vShape   tensor.Shape // [uvDim, in_channels, H, W], the conv's input space
	uShape   tensor.Shape // [uvDim, out_channels, H_out, W_out], the conv's output space
	u        *Parameter[B]
	v        *Parameter[B]
	lastNorm float32
}

// NewSpectralNormConv2D wraps layer with spectral normalization.
// Construction fails, with no state created, when the wrapped layer is
// missing or the configuration is out of range.
func NewSpectralNormConv2D[B tensor.Backend](layer *Conv2D[B], cfg SpectralNormConfig, backend B) (*SpectralNormConv2D[B], error) {
	if layer == nil {
		return nil, errors.New("spectralnorm: wrapped layer must be a Conv2D instance")
	}
	if cfg.Iteration < 0 {
		return nil, fmt.Errorf("spectralnorm: iteration must be >= 0, got %d", cfg.Iteration)
	}
	if cfg.NormMultiplier <= 0 {
		return nil, fmt.Errorf("spectralnorm: norm multiplier must be > 0, got %v", cfg.NormMultiplier)
	}

	return &SpectralNormConv2D[B]{
		layer:   layer,
		cfg:     cfg,
		backend: backend,
	}, nil
}

// Build allocates the persistent singular-vector estimates for the given
// input shape. Forward builds lazily on first use; calling Build directly is
// only needed to fix the estimate shapes ahead of time.
func (s *SpectralNormConv2D[B]) Build(inputShape tensor.Shape) {
	if s.built {
		return
	}
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("spectralnorm: expected 4D input shape [N,C,H,W], got %v", inputShape))
	}
	if inputShape[1] != s.layer.InChannels() {
		panic(fmt.Sprintf("spectralnorm: input channels %d != conv channels %d", inputShape[1], s.layer.InChannels()))
	}

	s.uvDim = 1
	if s.cfg.LegacyMode {
		s.uvDim = inputShape[0]
	}

	outSize := s.layer.ComputeOutputSize(inputShape[2], inputShape[3])
	s.vShape = tensor.Shape{s.uvDim, s.layer.InChannels(), inputShape[2], inputShape[3]}
	s.uShape = tensor.Shape{s.uvDim, s.layer.OutChannels(), outSize[0], outSize[1]}

	s.v = NewState("v", Randn(s.vShape, s.backend), AggregationMean)
	s.u = NewState("u", Randn(s.uShape, s.backend), AggregationMean)
	s.built = true
}

// Forward applies the wrapped convolution with a spectrally-gated kernel.
//
// When training is true, the stored u and v estimates are refined with
// cfg.Iteration power-iteration steps before the singular value is computed;
// otherwise the stored estimates are used as-is.
//
// The wrapped layer's weight parameter holds the rescaled kernel only for
// the duration of the call and is restored before returning.
func (s *SpectralNormConv2D[B]) Forward(input *tensor.Tensor[float32, B], training bool) *tensor.Tensor[float32, B] {
	if !s.built {
		s.Build(input.Shape())
	}
	if s.cfg.LegacyMode && input.Shape()[0] != s.uvDim {
		panic(fmt.Sprintf("spectralnorm: legacy mode built for batch %d, got %d", s.uvDim, input.Shape()[0]))
	}

	sigma, uHat, vHat := s.estimate(training)

	s.u.Assign(uHat)
	s.v.Assign(vHat)
	s.lastNorm = sigma

	weight := s.layer.Weight()
	original := weight.Tensor().Clone()

	// Rescale only when the estimate exceeds the budget. A non-positive
	// sigma means the kernel response is degenerate; its spectral norm is
	// already within any positive budget, so the ratio is never formed.
	if sigma > 0 && s.cfg.NormMultiplier/sigma < 1 {
		weight.Assign(weight.Tensor().MulScalar(s.cfg.NormMultiplier / sigma))
	}

	output := s.layer.Forward(input)

	// Restore the ungated kernel so gradient updates apply to the original
	// parameter (Alg 1 of Yoshida & Miyato, 2017).
	weight.Assign(original)

	return output
}

// estimate runs the power iteration and returns the singular-value estimate
// together with the (possibly refined) singular vectors.
func (s *SpectralNormConv2D[B]) estimate(training bool) (float32, *tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	uHat := s.u.Tensor()
	vHat := s.v.Tensor()
	kernel := s.layer.Weight().Tensor().Raw()
	stride := s.layer.Stride()
	padding := s.layer.Padding()

	if training {
		for i := 0; i < s.cfg.Iteration; i++ {
			// v <- normalize(conv_transpose(u, W))
			vRaw := s.backend.Conv2DTranspose(uHat.Raw(), kernel, s.vShape, stride, padding)
			vHat = tensor.New[float32, B](s.backend.L2Normalize(vRaw), s.backend)

			// u <- normalize(conv(v, W))
			uRaw := s.backend.Conv2D(vHat.Raw(), kernel, stride, padding)
			uHat = tensor.New[float32, B](s.backend.L2Normalize(uRaw), s.backend)
		}
	}

	// sigma = <conv(v, W), u>, both flattened.
	vw := tensor.New[float32, B](s.backend.Conv2D(vHat.Raw(), kernel, stride, padding), s.backend)
	sigma := vw.Dot(uHat).Item()

	return sigma, uHat, vHat
}

// Layer returns the wrapped convolution.
func (s *SpectralNormConv2D[B]) Layer() *Conv2D[B] {
	return s.layer
}

// U returns the persistent left singular-vector estimate.
// Nil until the wrapper is built.
func (s *SpectralNormConv2D[B]) U() *Parameter[B] {
	return s.u
}

// V returns the persistent right singular-vector estimate.
// Nil until the wrapper is built.
func (s *SpectralNormConv2D[B]) V() *Parameter[B] {
	return s.v
}

// SigmaEstimate returns the singular-value estimate from the most recent
// forward call.
func (s *SpectralNormConv2D[B]) SigmaEstimate() float32 {
	return s.lastNorm
}

// Parameters returns the wrapped layer's trainable parameters. The singular
// vectors are persistent state, not optimizer targets.
func (s *SpectralNormConv2D[B]) Parameters() []*Parameter[B] {
	return s.layer.Parameters()
}
