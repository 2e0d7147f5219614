// Package pipeline provides the frame types and stage contracts of the GIF encoding pipeline.
package pipeline

import (
	"context"
)

// Stage represents a processing stage in the pipeline.
// Each stage takes an input and produces an output.
type Stage[In, Out any] interface {
	// Execute runs the stage with the given input and returns the output.
	Execute(ctx context.Context, input In) (Out, error)
}

// StageFunc is a function adapter for Stage interface.
type StageFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

// Execute implements Stage interface.
func (f StageFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}

// BufferedStage is a stage that needs to see later frames before it can
// emit earlier ones. Push may return zero or more outputs; Flush releases
// everything still held once the input ends.
type BufferedStage[In, Out any] interface {
	Push(ctx context.Context, input In) ([]Out, error)
	Flush(ctx context.Context) ([]Out, error)
}
