package opt

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/FlavioCFOliveira/scgneuron/internal/weights"
)

const (
	DefaultMinGradient = 1e-7
	DefaultSigma       = 1e-5
	DefaultLambda      = 1e-7
)

// SCG is Møller's Scaled Conjugate Gradient (Neural Networks 6, 1993).
//
// Each epoch estimates the curvature along the conjugate direction p from a
// gradient difference, damps it with the trust-region term lambda, takes the
// step alpha*p and keeps it only when the performance does not increase.
type SCG struct {
	MaxEpoch        int
	PerformanceGoal float64
	MinGradient     float64
	Sigma           float64
	LambdaInit      float64
	Logger          *slog.Logger
}

// NewSCG returns an SCG with the default constants.
func NewSCG(maxEpoch int, performanceGoal float64) *SCG {
	return &SCG{
		MaxEpoch:        maxEpoch,
		PerformanceGoal: performanceGoal,
		MinGradient:     DefaultMinGradient,
		Sigma:           DefaultSigma,
		LambdaInit:      DefaultLambda,
	}
}

func (s *SCG) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Minimize runs SCG from w0 until MaxEpoch epochs are done, the gradient norm
// drops to MinGradient, the performance falls below PerformanceGoal or ctx is
// canceled. The context is polled after every objective evaluation.
//
// On an objective error the returned Result still carries the last committed
// parameters.
func (s *SCG) Minimize(ctx context.Context, obj Objective, w0 *weights.Weights, onEpoch EpochFunc) (Result, error) {
	if obj == nil || w0 == nil {
		return Result{}, fmt.Errorf("objective and initial weights: %w", weights.ErrNilArgument)
	}
	log := s.logger()

	w := w0.Clone()
	res := Result{Weights: w}

	grad, perf, err := obj.Gradient(w)
	if err != nil {
		return res, fmt.Errorf("failed to evaluate initial gradient: %w", err)
	}
	res.Performance = perf
	if ctx.Err() != nil {
		res.Reason = ReasonCanceled
		return res, nil
	}

	r := grad.Multiply(-1)
	p := r.Clone()
	restart := w.Len()
	lambda, lambdaBar := s.LambdaInit, 0.0
	success := true
	var delta float64

	if r.Norm() <= s.MinGradient {
		res.Reason = ReasonMinGradient
		return res, nil
	}

	for epoch := 0; epoch < s.MaxEpoch; epoch++ {
		pNorm2 := p.SquaredNorm()
		if pNorm2 == 0 {
			res.Reason = ReasonMinGradient
			break
		}

		if success {
			// second order information from E'(w + sigma_k p) - E'(w)
			sigmaK := s.Sigma / math.Sqrt(pNorm2)
			trial, err := w.Clone().AddScaled(sigmaK, p)
			if err != nil {
				return res, err
			}
			trialGrad, _, err := obj.Gradient(trial)
			if err != nil {
				return res, fmt.Errorf("failed to evaluate gradient at epoch %d: %w", epoch+1, err)
			}
			if ctx.Err() != nil {
				res.Reason = ReasonCanceled
				return res, nil
			}
			// E'(w) == -r
			if _, err := trialGrad.Add(r); err != nil {
				return res, err
			}
			trialGrad.Multiply(1 / sigmaK)
			if delta, err = p.Dot(trialGrad); err != nil {
				return res, err
			}
		}

		delta += (lambda - lambdaBar) * pNorm2
		if delta <= 0 {
			// make the Hessian approximation positive definite
			lambdaBar = 2 * (lambda - delta/pNorm2)
			delta = -delta + lambda*pNorm2
			lambda = lambdaBar
		}

		mu, err := p.Dot(r)
		if err != nil {
			return res, err
		}
		alpha := mu / delta
		candidate, err := w.Clone().AddScaled(alpha, p)
		if err != nil {
			return res, err
		}
		candPerf, err := obj.Performance(candidate)
		if err != nil {
			return res, fmt.Errorf("failed to evaluate performance at epoch %d: %w", epoch+1, err)
		}
		if ctx.Err() != nil {
			res.Reason = ReasonCanceled
			return res, nil
		}

		comparison := 2 * delta * (perf - candPerf) / (mu * mu)
		accepted := comparison >= 0
		restarted := false
		if accepted {
			w = candidate
			perf = candPerf
			res.Weights, res.Performance = w, perf

			newGrad, _, err := obj.Gradient(w)
			if err != nil {
				return res, fmt.Errorf("failed to evaluate gradient at epoch %d: %w", epoch+1, err)
			}
			if ctx.Err() != nil {
				res.Reason = ReasonCanceled
				return res, nil
			}
			newR := newGrad.Multiply(-1)

			lambdaBar = 0
			success = true
			if (epoch+1)%restart == 0 {
				p = newR.Clone()
				restarted = true
			} else {
				// Polak-Ribiere
				rDot, err := r.Dot(newR)
				if err != nil {
					return res, err
				}
				beta := (newR.SquaredNorm() - rDot) / mu
				if _, err := p.Multiply(beta).Add(newR); err != nil {
					return res, err
				}
			}
			r = newR

			if comparison >= 0.75 {
				lambda /= 4
			}
		} else {
			success = false
			lambdaBar = lambda
		}
		if comparison < 0.25 {
			lambda += delta * (1 - comparison) / pNorm2
		}

		res.Epochs = epoch + 1
		rNorm := r.Norm()
		log.Debug("scg epoch finished",
			"epoch", epoch+1,
			"performance", perf,
			"lambda", lambda,
			"delta", delta,
			"alpha", alpha,
			"comparison", comparison,
			"accepted", accepted,
			"restart", restarted,
			"gradient_norm", rNorm,
		)
		if onEpoch != nil {
			onEpoch(epoch+1, perf, w)
		}

		if rNorm <= s.MinGradient {
			res.Reason = ReasonMinGradient
			break
		}
		if perf < s.PerformanceGoal {
			res.Reason = ReasonPerformanceGoal
			break
		}
	}

	if res.Reason == ReasonNone {
		res.Reason = ReasonMaxEpoch
	}
	return res, nil
}
