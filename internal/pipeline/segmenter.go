package pipeline

import "context"

// Segmenter runs a background-removal model. Input is a 1x3xNxN NCHW
// tensor; output is an NxN foreground mask of arbitrary scale.
type Segmenter interface {
	Predict(ctx context.Context, input []float32) ([]float32, error)
	// Close releases the model.
	Close() error
}

// Loader opens a Segmenter for the model file at path.
type Loader func(path string) (Segmenter, error)
