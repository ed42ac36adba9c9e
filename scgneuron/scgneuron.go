// Package scgneuron is the public entry point: feed-forward sigmoid networks
// trained in the background with Scaled Conjugate Gradient.
package scgneuron

import (
	"io"

	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/scgneuron/internal/activations"
	"github.com/FlavioCFOliveira/scgneuron/internal/eval"
	"github.com/FlavioCFOliveira/scgneuron/internal/network"
	"github.com/FlavioCFOliveira/scgneuron/internal/opt"
	"github.com/FlavioCFOliveira/scgneuron/internal/samples"
	"github.com/FlavioCFOliveira/scgneuron/internal/train"
)

// Re-export common types and functions for easier access
type (
	Network       = network.Network
	Initializer   = network.Initializer
	Activation    = activations.Activation
	Trainer       = train.Trainer
	Task          = train.Task
	Config        = train.Config
	Listener      = train.Listener
	LogListener   = train.LogListener
	ListenerFuncs = train.ListenerFuncs
	EarlyStopping = train.EarlyStopping
	CSVLogger     = train.CSVLogger
	TrainerEvent  = train.TrainerEvent
	Normalizer    = samples.Normalizer
	Dataset       = samples.Dataset
	Optimizer     = opt.Optimizer
	SCG           = opt.SCG
)

// Task outcomes
const (
	Running   = train.Running
	Completed = train.Completed
	Canceled  = train.Canceled
	Failed    = train.Failed
)

var (
	ErrNilArgument     = network.ErrNilArgument
	ErrInvalidArgument = network.ErrInvalidArgument
	ErrIndexRange      = network.ErrIndexRange
	ErrTrainingFailed  = train.ErrTrainingFailed
)

// Activations
var (
	Sigmoid = activations.Sigmoid{}
	Tanh    = activations.Tanh{}
	ReLU    = activations.ReLU{}
	Linear  = activations.Linear{}
)

// Network creation
func NewNetwork(numInputs int, hidden []int, numOutputs int, init Initializer) (*Network, error) {
	return network.New(numInputs, hidden, numOutputs, init)
}

func Load(filename string) (*Network, error) {
	return network.Load(filename)
}

func Decode(r io.Reader) (*Network, error) {
	return network.Decode(r)
}

// Initializers
func Const(weight, bias float64) Initializer {
	return network.Const(weight, bias)
}

func RandomRange(min, max float64, seed uint64) (Initializer, error) {
	return network.RandomRange(min, max, rand.NewSource(seed))
}

// Output runs a forward pass and returns the output layer activations.
func Output(n *Network, input []float64) ([]float64, error) {
	return eval.Output(n, input)
}

// Performance is the cross-entropy error of n on a single sample.
func Performance(n *Network, input, target []float64) (float64, error) {
	return eval.Performance(n, input, target)
}

func MeanPerformance(n *Network, inputs, targets [][]float64) (float64, error) {
	return eval.MeanPerformance(n, inputs, targets)
}

// Training
func DefaultConfig() Config {
	return train.DefaultConfig()
}

func NewTrainer(cfg Config) (*Trainer, error) {
	return train.New(cfg)
}

func NewSCG(maxEpoch int, performanceGoal float64) *SCG {
	return opt.NewSCG(maxEpoch, performanceGoal)
}

// Listeners
func NewEarlyStopping(patience int, threshold float64, stop func()) *EarlyStopping {
	return train.NewEarlyStopping(patience, threshold, stop)
}

func NewCSVLogger(filename string, append bool) *CSVLogger {
	return train.NewCSVLogger(filename, append)
}

// Data
func NewMinMax() Normalizer {
	return samples.NewMinMax()
}

func NewSymmetric() Normalizer {
	return samples.NewSymmetric()
}

func LoadCSV(filename string, targetCols []int, hasHeader bool) (*Dataset, error) {
	return samples.LoadCSV(filename, targetCols, hasHeader)
}
