package opt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/scgneuron/internal/weights"
)

// quadratic is sum(c_i * (w_i - m_i)^2) over the flat parameters.
type quadratic struct {
	c, m      []float64
	gradCalls int
	perfCalls int
	// onGradient runs after every gradient evaluation
	onGradient func(calls int)
	err        error
}

func newQuadratic(shape weights.Shape) *quadratic {
	n := shape.NumParams()
	q := &quadratic{c: make([]float64, n), m: make([]float64, n)}
	for i := 0; i < n; i++ {
		q.c[i] = 1 + float64(i%3)
		q.m[i] = 0.5 - 0.1*float64(i)
	}
	return q
}

func (q *quadratic) value(w *weights.Weights) float64 {
	var sum float64
	for i, v := range w.Data() {
		d := v - q.m[i]
		sum += q.c[i] * d * d
	}
	return sum
}

func (q *quadratic) Gradient(w *weights.Weights) (*weights.Weights, float64, error) {
	q.gradCalls++
	if q.onGradient != nil {
		q.onGradient(q.gradCalls)
	}
	if q.err != nil && q.gradCalls > 1 {
		return nil, 0, q.err
	}
	g := w.Clone()
	for i, v := range w.Data() {
		g.Data()[i] = 2 * q.c[i] * (v - q.m[i])
	}
	return g, q.value(w), nil
}

func (q *quadratic) Performance(w *weights.Weights) (float64, error) {
	q.perfCalls++
	return q.value(w), nil
}

func testShape() weights.Shape {
	return weights.Shape{Inputs: 1, Hidden: []int{1}, Outputs: 1}
}

func zeroWeights(t *testing.T) *weights.Weights {
	t.Helper()
	w, err := weights.New(testShape())
	require.NoError(t, err)
	return w
}

func TestSCGMinimizesQuadratic(t *testing.T) {
	q := newQuadratic(testShape())
	w0 := zeroWeights(t)
	start := q.value(w0)

	var perfs []float64
	s := NewSCG(200, 1e-12)
	res, err := s.Minimize(context.Background(), q, w0, func(epoch int, perf float64, _ *weights.Weights) {
		assert.Equal(t, len(perfs)+1, epoch)
		perfs = append(perfs, perf)
	})
	require.NoError(t, err)

	assert.NotEqual(t, ReasonMaxEpoch, res.Reason)
	assert.False(t, res.Canceled())
	assert.Less(t, res.Performance, 1e-6)
	assert.Less(t, res.Performance, start)
	assert.Equal(t, len(perfs), res.Epochs)
	assert.InDeltaSlice(t, q.m, res.Weights.Data(), 1e-3)

	for i := 1; i < len(perfs); i++ {
		assert.LessOrEqual(t, perfs[i], perfs[i-1], "performance must never increase")
	}
	assert.Equal(t, 0.0, w0.Norm(), "initial weights must not be modified")
}

func TestSCGStopsAtMaxEpoch(t *testing.T) {
	q := newQuadratic(testShape())
	events := 0
	res, err := NewSCG(2, 1e-30).Minimize(context.Background(), q, zeroWeights(t), func(int, float64, *weights.Weights) {
		events++
	})
	require.NoError(t, err)

	assert.Equal(t, ReasonMaxEpoch, res.Reason)
	assert.Equal(t, 2, res.Epochs)
	assert.Equal(t, 2, events)
}

func TestSCGStopsAtPerformanceGoal(t *testing.T) {
	q := newQuadratic(testShape())
	res, err := NewSCG(1000, 1e-2).Minimize(context.Background(), q, zeroWeights(t), nil)
	require.NoError(t, err)

	assert.Equal(t, ReasonPerformanceGoal, res.Reason)
	assert.Less(t, res.Performance, 1e-2)
}

func TestSCGZeroGradientAtStart(t *testing.T) {
	q := newQuadratic(testShape())
	w0, err := weights.FromSlice(testShape(), q.m)
	require.NoError(t, err)

	res, err := NewSCG(10, 1e-30).Minimize(context.Background(), q, w0, func(int, float64, *weights.Weights) {
		t.Error("no epoch expected at the optimum")
	})
	require.NoError(t, err)
	assert.Equal(t, ReasonMinGradient, res.Reason)
	assert.Equal(t, 0, res.Epochs)
	assert.True(t, res.Weights.Equal(w0))
}

func TestSCGCanceledBeforeFirstEpoch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := newQuadratic(testShape())
	w0 := zeroWeights(t)
	res, err := NewSCG(10, 1e-30).Minimize(ctx, q, w0, func(int, float64, *weights.Weights) {
		t.Error("no epoch expected after cancellation")
	})
	require.NoError(t, err)

	assert.True(t, res.Canceled())
	assert.Equal(t, 0, res.Epochs)
	assert.True(t, res.Weights.Equal(w0))
	assert.Equal(t, 1, q.gradCalls)
}

func TestSCGCanceledMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := newQuadratic(testShape())
	q.onGradient = func(calls int) {
		if calls == 4 {
			cancel()
		}
	}
	events := 0
	res, err := NewSCG(100, 1e-30).Minimize(ctx, q, zeroWeights(t), func(int, float64, *weights.Weights) {
		events++
	})
	require.NoError(t, err)

	assert.True(t, res.Canceled())
	assert.Less(t, res.Epochs, 100)
	assert.Equal(t, events, res.Epochs)
	assert.Equal(t, 4, q.gradCalls, "no evaluation after the cancellation is observed")
	assert.LessOrEqual(t, q.value(res.Weights), q.value(zeroWeights(t)))
}

func TestSCGObjectiveError(t *testing.T) {
	boom := errors.New("boom")
	q := newQuadratic(testShape())
	q.err = boom

	w0 := zeroWeights(t)
	res, err := NewSCG(10, 1e-30).Minimize(context.Background(), q, w0, nil)
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, res.Weights)
	assert.True(t, res.Weights.Equal(w0))
}

func TestSCGNilArguments(t *testing.T) {
	_, err := NewSCG(1, 1).Minimize(context.Background(), nil, zeroWeights(t), nil)
	assert.ErrorIs(t, err, weights.ErrNilArgument)
}

func TestReasonString(t *testing.T) {
	assert.Equal(t, "canceled", ReasonCanceled.String())
	assert.Equal(t, "max-epoch", ReasonMaxEpoch.String())
	assert.Equal(t, "none", Reason(42).String())
}
