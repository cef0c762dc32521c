package blacklist

import "context"

type Repository interface {
	// Add reports false when the user was already listed.
	Add(ctx context.Context, user string, reason Reason) (bool, error)
	// Remove reports false when the user was not listed.
	Remove(ctx context.Context, user string) (bool, error)
	Contains(ctx context.Context, user string) (bool, error)
}
