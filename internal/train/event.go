// Package train runs Scaled Conjugate Gradient training of a network in the
// background and reports its progress to registered listeners.
package train

import (
	"fmt"

	"github.com/FlavioCFOliveira/scgneuron/internal/weights"
)

var (
	ErrNilArgument     = weights.ErrNilArgument
	ErrInvalidArgument = weights.ErrInvalidArgument
)

// TrainerEvent reports the epoch reached and the mean training-set error
// at that point.
type TrainerEvent struct {
	epoch       int
	performance float64
}

// NewTrainerEvent fails for a negative epoch.
func NewTrainerEvent(epoch int, performance float64) (TrainerEvent, error) {
	if epoch < 0 {
		return TrainerEvent{}, fmt.Errorf("epoch %d: %w", epoch, ErrInvalidArgument)
	}
	return TrainerEvent{epoch: epoch, performance: performance}, nil
}

func (e TrainerEvent) Epoch() int { return e.epoch }

func (e TrainerEvent) Performance() float64 { return e.performance }

func (e TrainerEvent) String() string {
	return fmt.Sprintf("epoch %d: performance %.6g", e.epoch, e.performance)
}
