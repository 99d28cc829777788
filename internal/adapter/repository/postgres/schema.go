package postgres

import (
	"time"

	"gorm.io/gorm"
)

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"size:150;not null;uniqueIndex"`
	Email        string `gorm:"size:254;not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	FirstName    string `gorm:"size:150"`
	LastName     string `gorm:"size:150"`
	CreatedAt    time.Time
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// BookSchema represents the database schema for the books table.
type BookSchema struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Title     string `gorm:"size:200;not null"`
	Author    string `gorm:"size:200"`
	Quantity  int64  `gorm:"not null;default:0"` // available copies, never negative
	CreatedAt time.Time
}

// TableName specifies the table name for the BookSchema model.
func (BookSchema) TableName() string {
	return "books"
}

// IssuedItemSchema represents the database schema for the issued_items table.
// Rows are created on issue and closed on return, never deleted.
type IssuedItemSchema struct {
	ID         int64      `gorm:"primaryKey;autoIncrement"`
	UserID     int64      `gorm:"index;not null"`
	BookID     int64      `gorm:"index;not null"`
	Book       BookSchema `gorm:"foreignKey:BookID"`
	IssueDate  time.Time  `gorm:"type:date;not null;index"`
	ReturnDate *time.Time `gorm:"type:date;index"` // null while checked out
}

// TableName specifies the table name for the IssuedItemSchema model.
func (IssuedItemSchema) TableName() string {
	return "issued_items"
}

// Migrate creates or updates the schema for all tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserSchema{}, &BookSchema{}, &IssuedItemSchema{})
}
