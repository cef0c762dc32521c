package token

import "context"

// Service is the token transfer collaborator. Transfer either moves the full
// amount or returns an error; callers abort the enclosing operation on error.
type Service interface {
	Transfer(ctx context.Context, from, to string, amount int64) error
	Mint(ctx context.Context, to string, amount int64) error
	Approve(ctx context.Context, owner string, amount int64) error
	// BalanceOf returns an empty account for unknown addresses.
	BalanceOf(ctx context.Context, addr string) (*Account, error)
}
