package forms

import (
	"context"
	"errors"

	"expenseweb/internal/core"
)

// Recorder receives the outcome of every submission.
type Recorder interface {
	Record(ctx context.Context, a core.Activity) error
}

// MultiRecorder fans an activity out to several recorders. Every recorder is
// tried; the errors are joined.
type MultiRecorder []Recorder

func (m MultiRecorder) Record(ctx context.Context, a core.Activity) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, core.Activity) error { return nil }
