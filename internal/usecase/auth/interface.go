package auth

import (
	"context"

	"library-service/internal/domain/user"
)

// Service defines the interface for authentication business logic.
type Service interface {
	// Login verifies credentials and returns the authenticated user.
	Login(ctx context.Context, in LoginRequest) (*user.User, error)

	// Register creates a new identity after the business rules pass.
	Register(ctx context.Context, in RegisterRequest) error
}
