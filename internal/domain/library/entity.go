package library

import "time"

// Book represents a title in the catalog with a count of available copies.
type Book struct {
	ID       int64
	Title    string
	Author   string
	Quantity int64 // copies currently available, never negative
}

// Available reports whether at least one copy can be issued.
func (b *Book) Available() bool {
	return b.Quantity > 0
}

// IssuedItem links a user and a book for one issuance. A nil ReturnDate
// means the book is currently checked out; rows are never deleted.
type IssuedItem struct {
	ID         int64
	UserID     int64
	BookID     int64
	Book       Book // denormalized for rendering history rows
	IssueDate  time.Time
	ReturnDate *time.Time
}

// Open reports whether the issuance has not been returned yet.
func (i *IssuedItem) Open() bool {
	return i.ReturnDate == nil
}
