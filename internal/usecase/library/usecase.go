package library

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "library-service/internal/domain/library"
	pkgerrors "library-service/pkg/errors"
	"library-service/pkg/security"
)

// BookRepository defines the interface for catalog data access.
type BookRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Book, error)
	ListAvailable(ctx context.Context, excludeIDs []int64, title string) ([]domain.Book, error)
	ListByIDs(ctx context.Context, ids []int64) ([]domain.Book, error)
}

// IssueRepository defines the interface for issuance data access. IssueBook
// and ReturnBook run as single atomic transactions so concurrent requests
// against the same book cannot corrupt the quantity counter.
type IssueRepository interface {
	OpenBookIDs(ctx context.Context, userID int64) ([]int64, error)
	HistoryByUser(ctx context.Context, userID, offset, limit int64) ([]domain.IssuedItem, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	IssueBook(ctx context.Context, userID, bookID int64) error
	ReturnBook(ctx context.Context, userID, bookID int64) error
}

// Usecase implements the business logic for book circulation.
type Usecase struct {
	books    BookRepository
	issues   IssueRepository
	log      *zap.Logger
	validate *validator.Validate
}

// New creates a new instance of Usecase with the provided repositories and logger.
func New(books BookRepository, issues IssueRepository, log *zap.Logger) *Usecase {
	return &Usecase{books: books, issues: issues, log: log, validate: validator.New()}
}

// ListIssuable lists books with available copies that the user has not
// already checked out, optionally filtered by a title substring.
func (uc *Usecase) ListIssuable(ctx context.Context, userID int64, query string) ([]domain.Book, error) {
	query, err := security.ValidateSearchQuery(query)
	if err != nil {
		uc.log.Warn("rejected title search query", zap.Int64("user_id", userID), zap.Error(err))
		return nil, pkgerrors.NewValidationError("q", err.Error())
	}

	openIDs, err := uc.issues.OpenBookIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	return uc.books.ListAvailable(ctx, openIDs, security.SanitizeSearchString(query))
}

// ListReturnable lists exactly the books the user currently has checked out.
func (uc *Usecase) ListReturnable(ctx context.Context, userID int64) ([]domain.Book, error) {
	openIDs, err := uc.issues.OpenBookIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	return uc.books.ListByIDs(ctx, openIDs)
}

// IssueBook checks a book out to the user. The availability and duplicate
// checks happen inside the repository transaction.
func (uc *Usecase) IssueBook(ctx context.Context, in IssueRequest) error {
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("issue validate failed", zap.Error(err))
		return pkgerrors.NewValidationError("book_id", "Select a book to issue")
	}

	return uc.issues.IssueBook(ctx, in.UserID, in.BookID)
}

// ReturnBook returns a previously issued book. The open-issuance check
// happens inside the repository transaction.
func (uc *Usecase) ReturnBook(ctx context.Context, in ReturnRequest) error {
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("return validate failed", zap.Error(err))
		return pkgerrors.NewValidationError("book_id", "Select a book to return")
	}

	return uc.issues.ReturnBook(ctx, in.UserID, in.BookID)
}

// History returns one page of the user's issuance history, newest issue date
// first, 10 rows per page. Out-of-range pages are clamped rather than erroring.
func (uc *Usecase) History(ctx context.Context, in HistoryRequest) (*HistoryResponse, error) {
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("history validate failed", zap.Error(err))
		return nil, pkgerrors.NewValidationError("user", "invalid user")
	}

	total, err := uc.issues.CountByUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	pagination := domain.NewPagination(total, in.Page, HistoryPageSize)

	items, err := uc.issues.HistoryByUser(ctx, in.UserID, pagination.Offset(), pagination.Limit)
	if err != nil {
		return nil, err
	}

	return &HistoryResponse{
		Items:      items,
		Pagination: pagination,
	}, nil
}
