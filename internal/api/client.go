// Package api is the remote boundary of the estore client.
//
// The backend is consumed through a fixed set of named calls; every
// response arrives in the envelope {code, message, success, data}. This
// package converts envelope failures into typed errors and keeps the
// session proof (a bearer token) invisible to everything above it.
package api

import "context"

// Client is the RPC surface the synchronization layer consumes. All
// durable state lives behind these calls; the client never touches
// storage directly.
type Client interface {
	// Login authenticates and stores the session proof for later calls.
	// The session must be re-probed afterwards; login returns no user.
	Login(ctx context.Context, req LoginRequest) error

	// Logout invalidates the session proof on the backend.
	Logout(ctx context.Context) error

	// Register creates a new account. Like Login it returns no user.
	Register(ctx context.Context, req RegisterRequest) error

	// GetMe probes the current session. A nil user with a nil error means
	// "no authenticated user" and is not a failure.
	GetMe(ctx context.Context) (*User, error)

	// UpdateUser updates the caller's profile and returns the new state.
	UpdateUser(ctx context.Context, req UpdateUserRequest) (*User, error)

	// GetAllUsers returns the full account roster (admin only).
	GetAllUsers(ctx context.Context) ([]User, error)

	// SearchProducts returns listings matching keyword, newest first.
	// An empty keyword returns the full listing.
	SearchProducts(ctx context.Context, keyword string) ([]Product, error)

	// GetProduct fetches one listing by ID.
	GetProduct(ctx context.Context, productID uint) (*Product, error)

	// CreateProduct creates a listing and returns it with its new ID.
	CreateProduct(ctx context.Context, payload ProductPayload) (*Product, error)

	// UpdateProduct overwrites a listing and returns the new state.
	UpdateProduct(ctx context.Context, productID uint, payload ProductPayload) (*Product, error)

	// DeleteProduct removes a listing.
	DeleteProduct(ctx context.Context, productID uint) error
}
