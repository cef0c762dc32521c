package score

import "context"

type Repository interface {
	// Get returns a zero score for unknown users.
	Get(ctx context.Context, user string) (*Score, error)
	Save(ctx context.Context, s *Score) error
}
