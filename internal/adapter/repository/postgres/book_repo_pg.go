package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"library-service/internal/domain/library"
)

// BookRepoPG implements catalog queries using GORM.
type BookRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewBookRepoPG creates a new instance of BookRepoPG.
func NewBookRepoPG(db *gorm.DB, log *zap.Logger) *BookRepoPG {
	return &BookRepoPG{db: db, log: log}
}

func toDomainBook(m *BookSchema) library.Book {
	return library.Book{
		ID:       m.ID,
		Title:    m.Title,
		Author:   m.Author,
		Quantity: m.Quantity,
	}
}

// GetByID retrieves a book by ID. Returns (nil, nil) when no such book exists.
func (r *BookRepoPG) GetByID(ctx context.Context, id int64) (*library.Book, error) {
	var model BookSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("book not found", zap.Int64("id", id))
			return nil, nil
		}
		r.log.Error("failed to get book from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	book := toDomainBook(&model)
	return &book, nil
}

// ListAvailable lists books with at least one available copy, excluding the
// given book IDs and optionally filtering by a sanitized title substring.
func (r *BookRepoPG) ListAvailable(ctx context.Context, excludeIDs []int64, title string) ([]library.Book, error) {
	q := r.db.WithContext(ctx).Where("quantity > 0")
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}
	if title != "" {
		q = q.Where("title LIKE ?", "%"+title+"%")
	}

	var models []BookSchema
	if err := q.Order("title").Find(&models).Error; err != nil {
		r.log.Error("failed to list available books from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list available books: %w", err)
	}

	books := make([]library.Book, len(models))
	for i := range models {
		books[i] = toDomainBook(&models[i])
	}

	return books, nil
}

// ListByIDs retrieves the books with the given IDs; an empty id list yields
// an empty result.
func (r *BookRepoPG) ListByIDs(ctx context.Context, ids []int64) ([]library.Book, error) {
	if len(ids) == 0 {
		return []library.Book{}, nil
	}

	var models []BookSchema
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("title").Find(&models).Error; err != nil {
		r.log.Error("failed to list books by ids from db", zap.Error(err), zap.Int("count", len(ids)))
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	books := make([]library.Book, len(models))
	for i := range models {
		books[i] = toDomainBook(&models[i])
	}

	return books, nil
}
