package library

import (
	"context"

	domain "library-service/internal/domain/library"
)

// Service defines the interface for book circulation business logic.
type Service interface {
	// ListIssuable lists books the user can issue: available copies, not
	// already checked out by the user, optionally filtered by title.
	ListIssuable(ctx context.Context, userID int64, query string) ([]domain.Book, error)

	// ListReturnable lists exactly the books the user currently has checked out.
	ListReturnable(ctx context.Context, userID int64) ([]domain.Book, error)

	// IssueBook checks a book out to the user.
	IssueBook(ctx context.Context, in IssueRequest) error

	// ReturnBook returns a previously issued book.
	ReturnBook(ctx context.Context, in ReturnRequest) error

	// History returns one page of the user's issuance history,
	// newest issue date first.
	History(ctx context.Context, in HistoryRequest) (*HistoryResponse, error)
}
