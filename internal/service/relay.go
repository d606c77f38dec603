package service

import (
	"context"
	"errors"

	"glassfactory-chat/pkg/events"
)

// FanOutRelay hands every event to each relay in turn. A failing relay does
// not stop the others; their errors are joined.
type FanOutRelay []EventRelay

func (f FanOutRelay) Publish(ctx context.Context, event events.Event) error {
	var errs []error
	for _, r := range f {
		if err := r.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
