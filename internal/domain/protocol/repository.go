package protocol

import "context"

type Repository interface {
	// GetForUpdate returns the state row, creating it on first use, and locks it.
	GetForUpdate(ctx context.Context) (*State, error)
	Get(ctx context.Context) (*State, error)
	Save(ctx context.Context, s *State) error
}
