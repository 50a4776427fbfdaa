// Package saga runs a fixed sequence of steps where each completed step may
// register a compensating action. It replaces ad hoc cleanup in failure
// handlers with an explicit, ordered plan. There is no atomicity: a crash
// between steps leaves whatever the completed steps produced.
package saga

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophdrive/internal/logging"
)

// Step is one unit of a saga.
type Step struct {
	// Name identifies the step in logs and errors.
	Name string
	// Action performs the step.
	Action func(ctx context.Context) error
	// Compensate undoes a completed Action. Optional.
	Compensate func(ctx context.Context) error
	// BestEffort steps never fail the saga; their errors are only logged.
	BestEffort bool
}

// StepError reports which step failed. It unwraps to the step's error.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("%s: %v", e.Step, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

// Saga is an ordered list of steps.
type Saga struct {
	name   string
	steps  []Step
	logger logging.Logger
}

func New(name string, logger logging.Logger, steps ...Step) *Saga {
	return &Saga{name: name, steps: steps, logger: logger.With("saga", name)}
}

// Run executes the steps in order. When a step fails, compensations of the
// already completed steps run in reverse order; their failures are logged and
// otherwise ignored, and the original failure is returned as a *StepError.
func (s *Saga) Run(ctx context.Context) error {
	done := make([]Step, 0, len(s.steps))

	for _, step := range s.steps {
		err := step.Action(ctx)
		if err == nil {
			done = append(done, step)
			continue
		}

		if step.BestEffort {
			s.logger.Warn(ctx, "best-effort step failed", "step", step.Name, "error", err)
			continue
		}

		s.logger.Error(ctx, "step failed, compensating", "step", step.Name, "error", err)
		s.compensate(ctx, done)
		return &StepError{Step: step.Name, Err: err}
	}

	return nil
}

func (s *Saga) compensate(ctx context.Context, done []Step) {
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			s.logger.Error(ctx, "compensation failed", "step", step.Name, "error", err)
		}
	}
}
