package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"library-service/internal/domain/library"
	pkgerrors "library-service/pkg/errors"
)

// IssueRepoPG implements issuance queries and the transactional issue/return
// state transitions using GORM.
type IssueRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

// NewIssueRepoPG creates a new instance of IssueRepoPG.
func NewIssueRepoPG(db *gorm.DB, log *zap.Logger) *IssueRepoPG {
	return &IssueRepoPG{db: db, log: log, now: time.Now}
}

func toDomainIssuedItem(m *IssuedItemSchema) library.IssuedItem {
	return library.IssuedItem{
		ID:         m.ID,
		UserID:     m.UserID,
		BookID:     m.BookID,
		Book:       toDomainBook(&m.Book),
		IssueDate:  m.IssueDate,
		ReturnDate: m.ReturnDate,
	}
}

// today truncates the clock to a calendar date in UTC.
func (r *IssueRepoPG) today() time.Time {
	y, m, d := r.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// lockBook loads the book row inside tx, holding a row lock on engines that
// support SELECT ... FOR UPDATE. SQLite serializes writers on its own.
func lockBook(tx *gorm.DB, bookID int64) (*BookSchema, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var book BookSchema
	if err := q.First(&book, bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NewNotFoundError("book", "Book not found")
		}
		return nil, fmt.Errorf("failed to lock book: %w", err)
	}
	return &book, nil
}

// OpenBookIDs returns the IDs of books the user currently has checked out.
func (r *IssueRepoPG) OpenBookIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&IssuedItemSchema{}).
		Where("user_id = ? AND return_date IS NULL", userID).
		Pluck("book_id", &ids).Error
	if err != nil {
		r.log.Error("failed to list open book ids from db", zap.Error(err), zap.Int64("user_id", userID))
		return nil, fmt.Errorf("failed to list open issuances: %w", err)
	}
	return ids, nil
}

// HistoryByUser returns a page of the user's issuances ordered newest
// issue date first.
func (r *IssueRepoPG) HistoryByUser(ctx context.Context, userID, offset, limit int64) ([]library.IssuedItem, error) {
	var models []IssuedItemSchema
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID).
		Order("issue_date DESC, id DESC").
		Offset(int(offset)).
		Limit(int(limit)).
		Find(&models).Error
	if err != nil {
		r.log.Error("failed to list issue history from db", zap.Error(err), zap.Int64("user_id", userID))
		return nil, fmt.Errorf("failed to list issue history: %w", err)
	}

	items := make([]library.IssuedItem, len(models))
	for i := range models {
		items[i] = toDomainIssuedItem(&models[i])
	}

	return items, nil
}

// CountByUser returns the total number of issuance rows for the user.
func (r *IssueRepoPG) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&IssuedItemSchema{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		r.log.Error("failed to count issue history in db", zap.Error(err), zap.Int64("user_id", userID))
		return 0, fmt.Errorf("failed to count issue history: %w", err)
	}
	return count, nil
}

// IssueBook atomically checks a book out to a user: it locks the book row,
// rejects unknown books, exhausted inventory, and duplicate open issuances,
// then decrements the quantity and creates the open issuance row.
func (r *IssueRepoPG) IssueBook(ctx context.Context, userID, bookID int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		book, err := lockBook(tx, bookID)
		if err != nil {
			return err
		}

		var open int64
		if err := tx.Model(&IssuedItemSchema{}).
			Where("user_id = ? AND book_id = ? AND return_date IS NULL", userID, bookID).
			Count(&open).Error; err != nil {
			return fmt.Errorf("failed to check open issuance: %w", err)
		}
		if open > 0 {
			return pkgerrors.NewAlreadyExistsError("issuance", "Book already issued")
		}

		if book.Quantity == 0 {
			return pkgerrors.NewUnavailableError("Book not available")
		}

		if err := tx.Model(book).
			Update("quantity", gorm.Expr("quantity - 1")).Error; err != nil {
			return fmt.Errorf("failed to decrement quantity: %w", err)
		}

		item := IssuedItemSchema{
			UserID:    userID,
			BookID:    bookID,
			IssueDate: r.today(),
		}
		if err := tx.Omit("Book").Create(&item).Error; err != nil {
			return fmt.Errorf("failed to create issuance: %w", err)
		}

		return nil
	})
	if err != nil {
		if pkgerrors.IsUserFacing(err) {
			r.log.Warn("issue rejected", zap.Int64("user_id", userID), zap.Int64("book_id", bookID), zap.Error(err))
		} else {
			r.log.Error("issue transaction failed", zap.Int64("user_id", userID), zap.Int64("book_id", bookID), zap.Error(err))
		}
		return err
	}

	r.log.Info("book issued", zap.Int64("user_id", userID), zap.Int64("book_id", bookID))
	return nil
}

// ReturnBook atomically returns a book: it locks the book row, closes the
// matching open issuance, and only then credits the quantity back. A return
// with no matching open issuance changes nothing.
func (r *IssueRepoPG) ReturnBook(ctx context.Context, userID, bookID int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		book, err := lockBook(tx, bookID)
		if err != nil {
			return err
		}

		var item IssuedItemSchema
		if err := tx.Where("user_id = ? AND book_id = ? AND return_date IS NULL", userID, bookID).
			First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NewNotFoundError("issuance", "Book not issued to you")
			}
			return fmt.Errorf("failed to find open issuance: %w", err)
		}

		today := r.today()
		if err := tx.Model(&item).Update("return_date", &today).Error; err != nil {
			return fmt.Errorf("failed to close issuance: %w", err)
		}

		if err := tx.Model(book).
			Update("quantity", gorm.Expr("quantity + 1")).Error; err != nil {
			return fmt.Errorf("failed to increment quantity: %w", err)
		}

		return nil
	})
	if err != nil {
		if pkgerrors.IsUserFacing(err) {
			r.log.Warn("return rejected", zap.Int64("user_id", userID), zap.Int64("book_id", bookID), zap.Error(err))
		} else {
			r.log.Error("return transaction failed", zap.Int64("user_id", userID), zap.Int64("book_id", bookID), zap.Error(err))
		}
		return err
	}

	r.log.Info("book returned", zap.Int64("user_id", userID), zap.Int64("book_id", bookID))
	return nil
}
