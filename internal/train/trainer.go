package train

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/FlavioCFOliveira/scgneuron/internal/network"
	"github.com/FlavioCFOliveira/scgneuron/internal/samples"
)

// Trainer runs at most one training task at a time on a background
// goroutine and relays its events to the registered listeners.
//
// All methods are safe for concurrent use.
type Trainer struct {
	cfg Config

	// startMu serializes StartTrain so tasks are chained in call order.
	startMu sync.Mutex
	current atomic.Pointer[Task]

	lmu       sync.Mutex
	listeners []Listener
}

// New creates a trainer. The configuration is validated.
func New(cfg Config) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Trainer{cfg: cfg.withDefaults()}, nil
}

// MaxEpoch and PerformanceGoal report the configured values. They do not
// reflect the stop conditions of an optimizer set in Config.Optimizer.
func (t *Trainer) MaxEpoch() int            { return t.cfg.MaxEpoch }
func (t *Trainer) PerformanceGoal() float64 { return t.cfg.PerformanceGoal }
func (t *Trainer) TrainRatio() int          { return t.cfg.TrainRatio }
func (t *Trainer) ValidationRatio() int     { return t.cfg.ValidationRatio }
func (t *Trainer) TestRatio() int           { return t.cfg.TestRatio }

// RegisterListener appends l to the listeners. Events are delivered in
// registration order.
//
// l must be comparable so RemoveListener can find it again; listeners holding
// slices, maps or funcs by value fail with ErrInvalidArgument. Register a
// pointer to such a type instead.
func (t *Trainer) RegisterListener(l Listener) error {
	if err := checkListener(l); err != nil {
		return err
	}
	t.lmu.Lock()
	defer t.lmu.Unlock()
	next := make([]Listener, len(t.listeners), len(t.listeners)+1)
	copy(next, t.listeners)
	t.listeners = append(next, l)
	return nil
}

// RemoveListener removes the first registration of l.
func (t *Trainer) RemoveListener(l Listener) error {
	if err := checkListener(l); err != nil {
		return err
	}
	t.lmu.Lock()
	defer t.lmu.Unlock()
	if i := slices.Index(t.listeners, l); i >= 0 {
		t.listeners = slices.Delete(slices.Clone(t.listeners), i, i+1)
	}
	return nil
}

func checkListener(l Listener) error {
	if l == nil {
		return fmt.Errorf("listener: %w", ErrNilArgument)
	}
	if !reflect.ValueOf(l).Comparable() {
		return fmt.Errorf("listener of type %T is not comparable: %w", l, ErrInvalidArgument)
	}
	return nil
}

// snapshot returns the listener list. The slice is never modified in place.
func (t *Trainer) snapshot() []Listener {
	t.lmu.Lock()
	defer t.lmu.Unlock()
	return t.listeners
}

// StartTrain validates the arguments, normalizes inputs and targets in place,
// cancels any running task and starts training a copy of n. It does not wait
// for training; use TrainedNetwork for the result.
func (t *Trainer) StartTrain(n *network.Network, inputs, targets [][]float64) error {
	if err := checkStartTrain(n, inputs, targets); err != nil {
		return err
	}

	train, _, _, err := t.cfg.Sampler.Split(len(inputs), t.cfg.TrainRatio, t.cfg.ValidationRatio, t.cfg.TestRatio)
	if err != nil {
		return fmt.Errorf("failed to split samples: %w", err)
	}
	if len(train) == 0 {
		return fmt.Errorf("%d samples leave no training samples at %d%%: %w", len(inputs), t.cfg.TrainRatio, ErrInvalidArgument)
	}

	t.startMu.Lock()
	defer t.startMu.Unlock()

	t.StopTraining()

	if err := t.cfg.NewInputNormalizer().NormalizeAll(inputs); err != nil {
		return fmt.Errorf("failed to normalize inputs: %w", err)
	}
	if err := t.cfg.NewTargetNormalizer().NormalizeAll(targets); err != nil {
		return fmt.Errorf("failed to normalize targets: %w", err)
	}

	netCopy := n.Copy()
	objective := newTrainingSet(netCopy, copyRows(inputs, train), copyRows(targets, train))
	task := newTask(netCopy, objective, t.cfg.Optimizer, t.snapshot, t.cfg.Logger)

	var prevDone <-chan struct{}
	if prev := t.current.Swap(task); prev != nil {
		prevDone = prev.Done()
	}
	t.cfg.Logger.Info("training task dispatched",
		"task", task.ID(),
		"network", netCopy.String(),
		"samples", len(inputs),
		"train_samples", len(train),
		"max_epoch", t.cfg.MaxEpoch,
	)
	go task.run(prevDone)
	return nil
}

func checkStartTrain(n *network.Network, inputs, targets [][]float64) error {
	if n == nil || inputs == nil || targets == nil {
		return fmt.Errorf("network, inputs and targets: %w", ErrNilArgument)
	}
	if len(inputs) != len(targets) {
		return fmt.Errorf("got %d inputs and %d targets: %w", len(inputs), len(targets), ErrInvalidArgument)
	}
	for i := range inputs {
		if inputs[i] == nil || targets[i] == nil {
			return fmt.Errorf("sample %d: %w", i, ErrNilArgument)
		}
		if len(inputs[i]) != n.NumInputs() {
			return fmt.Errorf("input %d has %d values, network %s needs %d: %w", i, len(inputs[i]), n, n.NumInputs(), ErrInvalidArgument)
		}
		if len(targets[i]) != n.NumOutputs() {
			return fmt.Errorf("target %d has %d values, network %s needs %d: %w", i, len(targets[i]), n, n.NumOutputs(), ErrInvalidArgument)
		}
	}
	return nil
}

func copyRows(data [][]float64, indices []int) [][]float64 {
	rows := samples.Subset(data, indices)
	for i, r := range rows {
		rows[i] = slices.Clone(r)
	}
	return rows
}

// StopTraining signals the running task to stop and returns immediately.
func (t *Trainer) StopTraining() {
	if task := t.current.Load(); task != nil {
		task.Cancel()
	}
}

// TrainingFinished reports whether no task is running.
func (t *Trainer) TrainingFinished() bool {
	task := t.current.Load()
	if task == nil {
		return true
	}
	select {
	case <-task.Done():
		return true
	default:
		return false
	}
}

// TrainedNetwork blocks until the latest task is done and returns a copy of
// its network. It returns nil, nil when StartTrain was never called.
func (t *Trainer) TrainedNetwork() (*network.Network, error) {
	task := t.current.Load()
	if task == nil {
		return nil, nil
	}
	return task.Wait()
}

// CurrentTask returns the latest task, nil before the first StartTrain.
func (t *Trainer) CurrentTask() *Task {
	return t.current.Load()
}
