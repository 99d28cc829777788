package library

import domain "library-service/internal/domain/library"

// HistoryPageSize is the number of issuance rows per history page.
const HistoryPageSize = 10

// IssueRequest represents the issue form: a single hidden book id.
type IssueRequest struct {
	UserID int64 `validate:"required,gt=0"`
	BookID int64 `validate:"required,gt=0"`
}

// ReturnRequest represents the return form: a single hidden book id.
type ReturnRequest struct {
	UserID int64 `validate:"required,gt=0"`
	BookID int64 `validate:"required,gt=0"`
}

// HistoryRequest represents a paginated history listing request. Page values
// below 1 and past the end are clamped.
type HistoryRequest struct {
	UserID int64 `validate:"required,gt=0"`
	Page   int64
}

// HistoryResponse represents one page of a user's issuance history.
type HistoryResponse struct {
	Items      []domain.IssuedItem
	Pagination *domain.Pagination
}
