package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string
	Profile      datatypes.JSON
	CreatedAt    time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }

// BookModel carries a composite primary key (id, user_id): the same
// external id may appear once per user, and the database rejects a
// duplicate atomically regardless of any check-then-insert race.
type BookModel struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"primaryKey;index"`
	Title     string `gorm:"not null"`
	Author    string
	Summary   string
	Image     string
	Link      string
	Rating    int
	CreatedAt time.Time `gorm:"not null"`
}

func (BookModel) TableName() string { return "books" }
