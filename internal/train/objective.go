package train

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/FlavioCFOliveira/scgneuron/internal/eval"
	"github.com/FlavioCFOliveira/scgneuron/internal/loss"
	"github.com/FlavioCFOliveira/scgneuron/internal/network"
	"github.com/FlavioCFOliveira/scgneuron/internal/weights"
)

// parallelThreshold is the training set size from which evaluations are
// spread over several goroutines.
const parallelThreshold = 64

// trainingSet is the mean cross-entropy over a set of samples as a function
// of the network parameters.
type trainingSet struct {
	net     *network.Network
	inputs  [][]float64
	targets [][]float64
	workers int
}

func newTrainingSet(n *network.Network, inputs, targets [][]float64) *trainingSet {
	return &trainingSet{
		net:     n,
		inputs:  inputs,
		targets: targets,
		workers: min(len(inputs)/parallelThreshold+1, runtime.NumCPU()),
	}
}

// partial is the sum of errors and gradients over one chunk of samples.
type partial struct {
	perf float64
	grad *weights.Weights
	err  error
}

// run evaluates fn over contiguous chunks, one goroutine per chunk, and
// returns the per-chunk results in chunk order so the reduction is
// deterministic.
func (ts *trainingSet) run(fn func(start, end int) partial) []partial {
	numSamples := len(ts.inputs)
	numWorkers := max(1, min(ts.workers, numSamples))
	if numWorkers == 1 {
		return []partial{fn(0, numSamples)}
	}

	chunkSize := (numSamples + numWorkers - 1) / numWorkers
	parts := make([]partial, numWorkers)
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := min(start+chunkSize, numSamples)
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(i, start, end int) {
			defer wg.Done()
			parts[i] = fn(start, end)
		}(i, start, end)
	}
	wg.Wait()
	return parts
}

func (ts *trainingSet) Gradient(w *weights.Weights) (*weights.Weights, float64, error) {
	if len(ts.inputs) == 0 {
		return nil, 0, fmt.Errorf("empty training set: %w", ErrInvalidArgument)
	}
	parts := ts.run(func(start, end int) partial {
		sum, err := weights.New(w.Shape())
		if err != nil {
			return partial{err: err}
		}
		var perf float64
		for i := start; i < end; i++ {
			resp, err := eval.Forward(ts.net, w, ts.inputs[i])
			if err != nil {
				return partial{err: fmt.Errorf("sample %d: %w", i, err)}
			}
			e, err := loss.Error(resp.Outputs(), ts.targets[i])
			if err != nil {
				return partial{err: fmt.Errorf("sample %d: %w", i, err)}
			}
			g, err := eval.Backward(ts.net, w, ts.inputs[i], ts.targets[i], resp)
			if err != nil {
				return partial{err: fmt.Errorf("sample %d: %w", i, err)}
			}
			if _, err := sum.Add(g); err != nil {
				return partial{err: err}
			}
			perf += e
		}
		return partial{perf: perf, grad: sum}
	})

	var total *weights.Weights
	var perf float64
	for _, p := range parts {
		if p.err != nil {
			return nil, 0, p.err
		}
		if p.grad == nil {
			continue
		}
		perf += p.perf
		if total == nil {
			total = p.grad
		} else if _, err := total.Add(p.grad); err != nil {
			return nil, 0, err
		}
	}

	scale := 1 / float64(len(ts.inputs))
	return total.Multiply(scale), perf * scale, nil
}

func (ts *trainingSet) Performance(w *weights.Weights) (float64, error) {
	if len(ts.inputs) == 0 {
		return 0, fmt.Errorf("empty training set: %w", ErrInvalidArgument)
	}
	parts := ts.run(func(start, end int) partial {
		var perf float64
		for i := start; i < end; i++ {
			resp, err := eval.Forward(ts.net, w, ts.inputs[i])
			if err != nil {
				return partial{err: fmt.Errorf("sample %d: %w", i, err)}
			}
			e, err := loss.Error(resp.Outputs(), ts.targets[i])
			if err != nil {
				return partial{err: fmt.Errorf("sample %d: %w", i, err)}
			}
			perf += e
		}
		return partial{perf: perf}
	})

	var perf float64
	for _, p := range parts {
		if p.err != nil {
			return 0, p.err
		}
		perf += p.perf
	}
	return perf / float64(len(ts.inputs)), nil
}
