package train

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/scgneuron/internal/eval"
	"github.com/FlavioCFOliveira/scgneuron/internal/network"
	"github.com/FlavioCFOliveira/scgneuron/internal/opt"
	"github.com/FlavioCFOliveira/scgneuron/internal/weights"
)

// recorder collects events as "name:kind:epoch" strings.
type recorder struct {
	name string
	mu   *sync.Mutex
	log  *[]string
}

func newRecorder(name string) *recorder {
	return &recorder{name: name, mu: &sync.Mutex{}, log: &[]string{}}
}

func (r *recorder) add(kind string, e TrainerEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.log = append(*r.log, fmt.Sprintf("%s:%s:%d", r.name, kind, e.Epoch()))
}

func (r *recorder) OnTrainingEpochComplete(e TrainerEvent) { r.add("epoch", e) }
func (r *recorder) OnTrainingComplete(e TrainerEvent)      { r.add("complete", e) }
func (r *recorder) OnTrainingCanceled(e TrainerEvent)      { r.add("canceled", e) }

func (r *recorder) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), *r.log...)
}

func (r *recorder) count(kind string) int {
	n := 0
	for _, e := range r.events() {
		if strings.Split(e, ":")[1] == kind {
			n++
		}
	}
	return n
}

func scenario(t *testing.T) (*network.Network, [][]float64, [][]float64) {
	t.Helper()
	n, err := network.New(3, []int{2, 3}, 1, network.Const(0.1, 0.1))
	require.NoError(t, err)
	inputs := [][]float64{{0, 0, 0}, {1, 1, 1}, {0.5, 0.5, 0.5}}
	targets := [][]float64{{1}, {0}, {0.5}}
	return n, inputs, targets
}

func newTrainer(t *testing.T, maxEpoch int) *Trainer {
	t.Helper()
	cfg := DefaultConfig()
	cfg.MaxEpoch = maxEpoch
	tr, err := New(cfg)
	require.NoError(t, err)
	return tr
}

func TestTrainingScenario(t *testing.T) {
	n, inputs, targets := scenario(t)
	original := n.Copy()
	before, err := eval.MeanPerformance(n, inputs, targets)
	require.NoError(t, err)

	tr := newTrainer(t, 10)
	rec := newRecorder("a")
	require.NoError(t, tr.RegisterListener(rec))
	require.NoError(t, tr.StartTrain(n, inputs, targets))

	trained, err := tr.TrainedNetwork()
	require.NoError(t, err)
	require.NotNil(t, trained)
	assert.True(t, tr.TrainingFinished())
	assert.Equal(t, Completed, tr.CurrentTask().Outcome())

	after, err := eval.MeanPerformance(trained, inputs, targets)
	require.NoError(t, err)
	assert.Less(t, after, before)

	assert.True(t, n.Equal(original), "the caller's network must not be modified")
	assert.Equal(t, n.String(), trained.String())

	weightChanged, biasChanged := false, false
	for l := 0; l <= trained.NumHiddenLayers(); l++ {
		p, q := original.Params(), trained.Params()
		rows, cols := p.LayerWeights(l).Dims()
		for to := 0; to < rows; to++ {
			for from := 0; from < cols; from++ {
				if p.LayerWeights(l).At(to, from) != q.LayerWeights(l).At(to, from) {
					weightChanged = true
				}
			}
			if p.LayerBiases(l)[to] != q.LayerBiases(l)[to] {
				biasChanged = true
			}
		}
	}
	assert.True(t, weightChanged, "at least one weight must change")
	assert.True(t, biasChanged, "at least one bias must change")

	events := rec.events()
	require.NotEmpty(t, events)
	assert.Equal(t, 1, rec.count("complete"))
	assert.Equal(t, 0, rec.count("canceled"))
	assert.Equal(t, fmt.Sprintf("a:complete:%d", rec.count("epoch")), events[len(events)-1])
	for i := 0; i < rec.count("epoch"); i++ {
		assert.Equal(t, fmt.Sprintf("a:epoch:%d", i+1), events[i])
	}
}

func TestTwoEpochsGiveTwoEvents(t *testing.T) {
	n, inputs, targets := scenario(t)
	tr := newTrainer(t, 2)
	rec := newRecorder("a")
	require.NoError(t, tr.RegisterListener(rec))

	require.NoError(t, tr.StartTrain(n, inputs, targets))
	_, err := tr.TrainedNetwork()
	require.NoError(t, err)

	assert.Equal(t, []string{"a:epoch:1", "a:epoch:2", "a:complete:2"}, rec.events())
}

func TestListenersInRegistrationOrder(t *testing.T) {
	n, inputs, targets := scenario(t)
	tr := newTrainer(t, 2)

	shared := newRecorder("first")
	second := &recorder{name: "second", mu: shared.mu, log: shared.log}
	removed := newRecorder("removed")
	require.NoError(t, tr.RegisterListener(shared))
	require.NoError(t, tr.RegisterListener(removed))
	require.NoError(t, tr.RegisterListener(second))
	require.NoError(t, tr.RemoveListener(removed))

	require.NoError(t, tr.StartTrain(n, inputs, targets))
	_, err := tr.TrainedNetwork()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"first:epoch:1", "second:epoch:1",
		"first:epoch:2", "second:epoch:2",
		"first:complete:2", "second:complete:2",
	}, shared.events())
	assert.Empty(t, removed.events())
}

func TestListenerRegistrationErrors(t *testing.T) {
	tr := newTrainer(t, 1)
	assert.ErrorIs(t, tr.RegisterListener(nil), ErrNilArgument)
	assert.ErrorIs(t, tr.RemoveListener(nil), ErrNilArgument)
	assert.NoError(t, tr.RemoveListener(newRecorder("never registered")))
}

// taggedListener holds a slice by value, so its values cannot be compared.
type taggedListener struct {
	BaseListener
	tags []string
}

// boxedListener is a comparable type whose interface field may hold an
// uncomparable value.
type boxedListener struct {
	BaseListener
	payload any
}

func TestUncomparableListeners(t *testing.T) {
	tr := newTrainer(t, 1)
	rec := newRecorder("a")
	require.NoError(t, tr.RegisterListener(rec))

	assert.ErrorIs(t, tr.RegisterListener(taggedListener{tags: []string{"a"}}), ErrInvalidArgument)
	assert.ErrorIs(t, tr.RemoveListener(taggedListener{tags: []string{"b"}}), ErrInvalidArgument)
	assert.ErrorIs(t, tr.RegisterListener(boxedListener{payload: []int{1}}), ErrInvalidArgument)
	assert.ErrorIs(t, tr.RemoveListener(boxedListener{payload: map[string]int{}}), ErrInvalidArgument)

	require.NoError(t, tr.RegisterListener(&taggedListener{tags: []string{"c"}}))
	require.NoError(t, tr.RegisterListener(boxedListener{payload: 1}))
	assert.NoError(t, tr.RemoveListener(boxedListener{payload: 2}))
	assert.NoError(t, tr.RemoveListener(rec))
	assert.Len(t, tr.snapshot(), 2)
}

func TestStopTrainingImmediately(t *testing.T) {
	n, inputs, targets := scenario(t)
	tr := newTrainer(t, 1_000_000)
	rec := newRecorder("a")
	require.NoError(t, tr.RegisterListener(rec))

	require.NoError(t, tr.StartTrain(n, inputs, targets))
	tr.StopTraining()

	trained, err := tr.TrainedNetwork()
	require.NoError(t, err)
	require.NotNil(t, trained)
	assert.Equal(t, n.String(), trained.String())
	assert.Equal(t, Canceled, tr.CurrentTask().Outcome())
	assert.Equal(t, 1, rec.count("canceled"))
	assert.Equal(t, 0, rec.count("complete"))
}

func TestStartTrainCancelsPrevious(t *testing.T) {
	n, inputs, targets := scenario(t)
	tr := newTrainer(t, 1_000_000)
	rec := newRecorder("a")
	require.NoError(t, tr.RegisterListener(rec))

	require.NoError(t, tr.StartTrain(n, inputs, targets))
	first := tr.CurrentTask()

	_, inputs2, targets2 := scenario(t)
	require.NoError(t, tr.StartTrain(n, inputs2, targets2))
	second := tr.CurrentTask()
	assert.NotSame(t, first, second)
	tr.StopTraining()

	_, err := tr.TrainedNetwork()
	require.NoError(t, err)

	select {
	case <-first.Done():
	default:
		t.Fatal("the previous task must finish before the next one")
	}
	assert.Equal(t, Canceled, first.Outcome())
	assert.Equal(t, Canceled, second.Outcome())
	assert.Equal(t, 2, rec.count("canceled"))
}

func TestTrainedNetworkBeforeStart(t *testing.T) {
	tr := newTrainer(t, 1)
	n, err := tr.TrainedNetwork()
	assert.NoError(t, err)
	assert.Nil(t, n)
	assert.True(t, tr.TrainingFinished())
	assert.Nil(t, tr.CurrentTask())
	tr.StopTraining()
}

func TestStartTrainValidation(t *testing.T) {
	n, _, _ := scenario(t)

	tests := []struct {
		name    string
		net     *network.Network
		inputs  [][]float64
		targets [][]float64
		err     error
	}{
		{"nil network", nil, [][]float64{{0, 0, 0}}, [][]float64{{1}}, ErrNilArgument},
		{"nil inputs", n, nil, [][]float64{{1}}, ErrNilArgument},
		{"nil targets", n, [][]float64{{0, 0, 0}}, nil, ErrNilArgument},
		{"nil row", n, [][]float64{nil}, [][]float64{{1}}, ErrNilArgument},
		{"count mismatch", n, [][]float64{{0, 0, 0}}, [][]float64{{1}, {0}}, ErrInvalidArgument},
		{"input size", n, [][]float64{{0, 0}}, [][]float64{{1}}, ErrInvalidArgument},
		{"target size", n, [][]float64{{0, 0, 0}}, [][]float64{{1, 0}}, ErrInvalidArgument},
		{"no samples", n, [][]float64{}, [][]float64{}, ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTrainer(t, 1)
			assert.ErrorIs(t, tr.StartTrain(tt.net, tt.inputs, tt.targets), tt.err)
			assert.Nil(t, tr.CurrentTask(), "nothing must be dispatched")
		})
	}
}

func TestStartTrainNoTrainingSamples(t *testing.T) {
	n, inputs, targets := scenario(t)
	cfg := DefaultConfig()
	cfg.TrainRatio, cfg.TestRatio = 10, 90
	tr, err := New(cfg)
	require.NoError(t, err)

	assert.ErrorIs(t, tr.StartTrain(n, inputs, targets), ErrInvalidArgument)
	assert.Equal(t, [][]float64{{1}, {0}, {0.5}}, targets)
}

func TestStartTrainNormalizesInPlace(t *testing.T) {
	n, err := network.New(1, []int{2}, 1, network.Const(0.1, 0.1))
	require.NoError(t, err)
	inputs := [][]float64{{-10}, {10}, {0}}
	targets := [][]float64{{4}, {2}, {3}}

	tr := newTrainer(t, 1)
	require.NoError(t, tr.StartTrain(n, inputs, targets))
	_, err = tr.TrainedNetwork()
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{0}, {1}, {0.5}}, inputs)
	assert.Equal(t, [][]float64{{1}, {0}, {0.5}}, targets)
}

type panicOptimizer struct{}

func (panicOptimizer) Minimize(context.Context, opt.Objective, *weights.Weights, opt.EpochFunc) (opt.Result, error) {
	panic("diverged")
}

type errOptimizer struct{ err error }

// errOptimizer reports one epoch, then fails.
func (o errOptimizer) Minimize(ctx context.Context, obj opt.Objective, w0 *weights.Weights, onEpoch opt.EpochFunc) (opt.Result, error) {
	w := w0.Clone().Multiply(2)
	onEpoch(1, 0.5, w)
	return opt.Result{}, o.err
}

func TestFailedTraining(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		optimizer opt.Optimizer
		scale     float64
		cause     error
	}{
		{"panic", panicOptimizer{}, 1, nil},
		{"error after an epoch", errOptimizer{err: boom}, 2, boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, inputs, targets := scenario(t)
			cfg := DefaultConfig()
			cfg.Optimizer = tt.optimizer
			tr, err := New(cfg)
			require.NoError(t, err)
			rec := newRecorder("a")
			require.NoError(t, tr.RegisterListener(rec))

			require.NoError(t, tr.StartTrain(n, inputs, targets))
			trained, err := tr.TrainedNetwork()
			assert.ErrorIs(t, err, ErrTrainingFailed)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
			require.NotNil(t, trained, "a failed task still exposes a network")
			assert.Equal(t, Failed, tr.CurrentTask().Outcome())

			w, err := trained.Weight(0, 0, 0)
			require.NoError(t, err)
			assert.InDelta(t, 0.1*tt.scale, w, 1e-12)
			assert.Equal(t, 1, rec.count("canceled"))
			assert.Equal(t, 0, rec.count("complete"))
		})
	}
}

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1, cfg.MaxEpoch)
	assert.Equal(t, 1e-2, cfg.PerformanceGoal)
	assert.Equal(t, 100, cfg.TrainRatio)
	assert.NoError(t, cfg.Validate())

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero max epoch", func(c *Config) { c.MaxEpoch = 0 }},
		{"negative goal", func(c *Config) { c.PerformanceGoal = -1 }},
		{"zero goal", func(c *Config) { c.PerformanceGoal = 0 }},
		{"zero train ratio", func(c *Config) { c.TrainRatio, c.TestRatio = 0, 100 }},
		{"negative validation", func(c *Config) { c.TrainRatio, c.ValidationRatio, c.TestRatio = 90, -10, 20 }},
		{"sum not 100", func(c *Config) { c.TrainRatio, c.ValidationRatio = 80, 10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.modify(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidArgument)
			_, err := New(c)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestTrainerGetters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxEpoch = 7
	cfg.PerformanceGoal = 0.5
	cfg.TrainRatio, cfg.ValidationRatio, cfg.TestRatio = 60, 30, 10
	tr, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, 7, tr.MaxEpoch())
	assert.Equal(t, 0.5, tr.PerformanceGoal())
	assert.Equal(t, 60, tr.TrainRatio())
	assert.Equal(t, 30, tr.ValidationRatio())
	assert.Equal(t, 10, tr.TestRatio())
}

func TestInjectedOptimizerOwnsStopConditions(t *testing.T) {
	n, inputs, targets := scenario(t)
	cfg := DefaultConfig()
	cfg.Optimizer = opt.NewSCG(3, 1e-9)
	tr, err := New(cfg)
	require.NoError(t, err)
	rec := newRecorder("a")
	require.NoError(t, tr.RegisterListener(rec))

	require.NoError(t, tr.StartTrain(n, inputs, targets))
	_, err = tr.TrainedNetwork()
	require.NoError(t, err)

	assert.Equal(t, 1, tr.MaxEpoch())
	assert.Equal(t, 1e-2, tr.PerformanceGoal())
	assert.Equal(t, 3, rec.count("epoch"))
	assert.Equal(t, []string{"a:complete:3"}, rec.events()[3:])
}
