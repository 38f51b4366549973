// Package pipeline provides the stage infrastructure and shared types for
// frame sampling, normalization and dispatch.
package pipeline

import (
	"context"
)

// Stage is one step of the frame pipeline. Stages hold no session state;
// the orchestrator passes everything they need in In.
type Stage[In, Out any] interface {
	Execute(ctx context.Context, input In) (Out, error)
}

// StageFunc lets a plain function stand in for a Stage.
type StageFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

// Execute calls f.
func (f StageFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}
