package train

import (
	"fmt"
	"log/slog"

	"github.com/FlavioCFOliveira/scgneuron/internal/opt"
	"github.com/FlavioCFOliveira/scgneuron/internal/samples"
)

// Config holds the trainer options.
type Config struct {
	// MaxEpoch is the maximum number of SCG epochs per run.
	MaxEpoch int
	// PerformanceGoal stops training once the mean training error falls below it.
	PerformanceGoal float64

	// Percentages of the samples used for training, validation and testing.
	// Only the training subset feeds the optimizer.
	TrainRatio      int
	ValidationRatio int
	TestRatio       int

	// NewInputNormalizer and NewTargetNormalizer build the normalizers
	// applied in place at the start of every run. Nil means samples.NewMinMax.
	NewInputNormalizer  func() samples.Normalizer
	NewTargetNormalizer func() samples.Normalizer

	// Sampler splits the samples. Nil means samples.RandomSplit{}.
	Sampler samples.Sampler

	// Optimizer overrides the SCG optimizer built from MaxEpoch and PerformanceGoal.
	// An injected optimizer applies its own stop conditions; MaxEpoch and
	// PerformanceGoal are then only validated and reported by the Trainer
	// getters.
	Optimizer opt.Optimizer

	Logger *slog.Logger
}

// DefaultConfig returns one epoch, a goal of 1e-2 and all samples for training.
func DefaultConfig() Config {
	return Config{
		MaxEpoch:        1,
		PerformanceGoal: 1e-2,
		TrainRatio:      100,
		ValidationRatio: 0,
		TestRatio:       0,
	}
}

// Validate checks the options.
func (c Config) Validate() error {
	if c.MaxEpoch <= 0 {
		return fmt.Errorf("max epoch %d must be positive: %w", c.MaxEpoch, ErrInvalidArgument)
	}
	if !(c.PerformanceGoal > 0) {
		return fmt.Errorf("performance goal %v must be positive: %w", c.PerformanceGoal, ErrInvalidArgument)
	}
	return samples.CheckRatios(c.TrainRatio, c.ValidationRatio, c.TestRatio)
}

func defaultNormalizer() samples.Normalizer {
	return samples.NewMinMax()
}

func (c Config) withDefaults() Config {
	if c.NewInputNormalizer == nil {
		c.NewInputNormalizer = defaultNormalizer
	}
	if c.NewTargetNormalizer == nil {
		c.NewTargetNormalizer = defaultNormalizer
	}
	if c.Sampler == nil {
		c.Sampler = samples.RandomSplit{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Optimizer == nil {
		scg := opt.NewSCG(c.MaxEpoch, c.PerformanceGoal)
		scg.Logger = c.Logger
		c.Optimizer = scg
	}
	return c
}
