package train

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/FlavioCFOliveira/scgneuron/internal/network"
	"github.com/FlavioCFOliveira/scgneuron/internal/opt"
	"github.com/FlavioCFOliveira/scgneuron/internal/weights"
)

// ErrTrainingFailed wraps any error or panic raised by the optimizer.
var ErrTrainingFailed = errors.New("training failed")

// Outcome is the state of a Task.
type Outcome int

const (
	Running Outcome = iota
	Completed
	Canceled
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Canceled:
		return "canceled"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Task is one optimizer run over a private copy of a network.
//
// Exactly one of OnTrainingComplete (Completed) or OnTrainingCanceled
// (Canceled, Failed) is delivered per task, before Done is closed.
type Task struct {
	id        string
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	optimizer opt.Optimizer
	net       *network.Network
	objective opt.Objective
	listeners func() []Listener
	log       *slog.Logger

	mu        sync.Mutex
	outcome   Outcome
	committed *weights.Weights
	epoch     int
	perf      float64
	result    *network.Network
	err       error
}

func newTask(n *network.Network, objective opt.Objective, optimizer opt.Optimizer, listeners func() []Listener, log *slog.Logger) *Task {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	return &Task{
		id:        id,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		optimizer: optimizer,
		net:       n,
		objective: objective,
		listeners: listeners,
		log:       log.With("task", id),
		committed: n.Params(),
	}
}

// ID identifies the task in logs.
func (t *Task) ID() string { return t.id }

// Cancel asks the optimizer to stop at its next checkpoint. It does not wait.
func (t *Task) Cancel() { t.cancel() }

// Done is closed once the task reached a terminal state and its final
// listener call returned.
func (t *Task) Done() <-chan struct{} { return t.done }

func (t *Task) Outcome() Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome
}

// Wait blocks until the task is done and returns a copy of the trained
// network. The network is never nil; for a Failed task the error wraps
// ErrTrainingFailed and the network holds the last committed parameters.
func (t *Task) Wait() (*network.Network, error) {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result.Copy(), t.err
}

// run waits for prev to finish, then runs the optimizer.
func (t *Task) run(prev <-chan struct{}) {
	defer close(t.done)
	defer t.cancel()
	if prev != nil {
		<-prev
	}
	t.log.Debug("training task started", "network", t.net.String())

	res, err := t.minimize()

	t.mu.Lock()
	committed, epoch, perf := t.committed, t.epoch, t.perf
	if res.Weights != nil {
		committed, epoch, perf = res.Weights, res.Epochs, res.Performance
	}
	result := t.net.Copy()
	if serr := result.SetParams(committed); serr != nil && err == nil {
		err = serr
	}
	switch {
	case err != nil:
		t.outcome = Failed
		t.err = fmt.Errorf("%w: %w", ErrTrainingFailed, err)
	case res.Canceled():
		t.outcome = Canceled
	default:
		t.outcome = Completed
	}
	t.result = result
	outcome := t.outcome
	t.mu.Unlock()

	event := TrainerEvent{epoch: epoch, performance: perf}
	switch outcome {
	case Completed:
		t.log.Info("training complete", "epoch", epoch, "performance", perf, "reason", res.Reason)
	case Canceled:
		t.log.Info("training canceled", "epoch", epoch, "performance", perf)
	case Failed:
		t.log.Error("training failed", "epoch", epoch, "performance", perf, "error", err)
	}
	t.notifyFinal(outcome, event)
}

func (t *Task) minimize() (res opt.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.optimizer.Minimize(t.ctx, t.objective, t.net.Params(), t.onEpoch)
}

func (t *Task) onEpoch(epoch int, perf float64, w *weights.Weights) {
	t.mu.Lock()
	t.committed, t.epoch, t.perf = w, epoch, perf
	t.mu.Unlock()

	event := TrainerEvent{epoch: epoch, performance: perf}
	for _, l := range t.listeners() {
		l.OnTrainingEpochComplete(event)
	}
}

func (t *Task) notifyFinal(outcome Outcome, event TrainerEvent) {
	for _, l := range t.listeners() {
		t.notifyOne(l, outcome, event)
	}
}

// notifyOne delivers the final event to l. A panic is logged so the
// remaining listeners still get their event.
func (t *Task) notifyOne(l Listener, outcome Outcome, event TrainerEvent) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("listener panicked on final event", "listener", fmt.Sprintf("%T", l), "panic", r)
		}
	}()
	if outcome == Completed {
		l.OnTrainingComplete(event)
	} else {
		l.OnTrainingCanceled(event)
	}
}
