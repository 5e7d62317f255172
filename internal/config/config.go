// Package config loads YAML configuration for the demo CLI.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Seed         uint64             `yaml:"seed"`
	SpectralNorm SpectralNormConfig `yaml:"spectral_norm"`
	GP           GPConfig           `yaml:"gp"`
}

// SpectralNormConfig configures the spectral normalization demo.
type SpectralNormConfig struct {
	Iteration      int     `yaml:"iteration"`
	NormMultiplier float32 `yaml:"norm_multiplier"`
	LegacyMode     bool    `yaml:"legacy_mode"`
}

// GPConfig configures the Gaussian process demo.
type GPConfig struct {
	Units                int     `yaml:"units"`
	NumInducing          int     `yaml:"num_inducing"`
	Kernel               string  `yaml:"kernel"`
	KernelScale          float64 `yaml:"kernel_scale"`
	OutputBias           float32 `yaml:"output_bias"`
	NormalizeInput       bool    `yaml:"normalize_input"`
	ScaleRandomFeatures  bool    `yaml:"scale_random_features"`
	CovMomentum          float32 `yaml:"cov_momentum"`
	CovRidgePenalty      float32 `yaml:"cov_ridge_penalty"`
	Likelihood           string  `yaml:"likelihood"`
	ReturnGPCov          bool    `yaml:"return_gp_cov"`
	ReturnRandomFeatures bool    `yaml:"return_random_features"`
	L2Regularization     float32 `yaml:"l2_regularization"`
}

// Default returns the standard configuration.
func Default() Config {
	return Config{
		Seed: 42,
		SpectralNorm: SpectralNormConfig{
			Iteration:      1,
			NormMultiplier: 0.95,
		},
		GP: GPConfig{
			Units:               10,
			NumInducing:         1024,
			Kernel:              "gaussian",
			KernelScale:         1.0,
			NormalizeInput:      true,
			ScaleRandomFeatures: true,
			CovMomentum:         0.999,
			CovRidgePenalty:     1e-6,
			Likelihood:          "gaussian",
			ReturnGPCov:         true,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges that the layer constructors would otherwise reject
// at build time, so config errors surface with file context.
func (c *Config) Validate() error {
	if c.SpectralNorm.Iteration < 0 {
		return fmt.Errorf("spectral_norm.iteration must be non-negative, got %d", c.SpectralNorm.Iteration)
	}
	if c.SpectralNorm.NormMultiplier <= 0 {
		return fmt.Errorf("spectral_norm.norm_multiplier must be positive, got %g", c.SpectralNorm.NormMultiplier)
	}
	if c.GP.Units <= 0 {
		return fmt.Errorf("gp.units must be positive, got %d", c.GP.Units)
	}
	if c.GP.NumInducing <= 0 {
		return fmt.Errorf("gp.num_inducing must be positive, got %d", c.GP.NumInducing)
	}
	if c.GP.CovRidgePenalty <= 0 {
		return fmt.Errorf("gp.cov_ridge_penalty must be positive, got %g", c.GP.CovRidgePenalty)
	}
	switch c.GP.Kernel {
	case "gaussian", "linear":
	default:
		return fmt.Errorf("gp.kernel must be gaussian or linear, got %q", c.GP.Kernel)
	}
	switch c.GP.Likelihood {
	case "gaussian", "binary_logistic", "poisson":
	default:
		return fmt.Errorf("gp.likelihood must be gaussian, binary_logistic or poisson, got %q", c.GP.Likelihood)
	}
	return nil
}
