package event

import "context"

type Repository interface {
	Append(ctx context.Context, evs ...*Event) error
	ListAfter(ctx context.Context, afterSeq uint64, limit int) ([]Event, error)
}

// Publisher fans committed events out to observers. Publishing happens after
// commit; a failure never undoes the operation.
type Publisher interface {
	Publish(ctx context.Context, evs []Event) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, []Event) error { return nil }
