package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"bookgasm/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations. TranslateError is
// enabled so constraint violations surface as gorm.ErrDuplicatedKey.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&UserModel{}, &BookModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// CreateUser inserts a user and returns the row as stored.
func (s *GormStore) CreateUser(u domain.User) (domain.User, error) {
	model := userToModel(u)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	if err := s.db.Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.User{}, ErrDuplicateEmail
		}
		return domain.User{}, err
	}
	return userFromModel(model), nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// ListBooks returns the user's books in storage order, filtered by a
// case-insensitive title substring when titleSearch is non-empty.
func (s *GormStore) ListBooks(userID, titleSearch string) ([]domain.Book, error) {
	tx := s.db.Where("user_id = ?", userID)
	if titleSearch != "" {
		tx = tx.Where("title ILIKE ?", "%"+titleSearch+"%")
	}
	return s.findBooks(tx)
}

// ListBooksSorted returns all of the user's books ordered by the sort key:
// rating descending or title ascending.
func (s *GormStore) ListBooksSorted(userID, sortKey string) ([]domain.Book, error) {
	var order string
	switch sortKey {
	case SortByRating:
		order = "rating DESC"
	case SortByTitle:
		order = "title ASC"
	default:
		return nil, fmt.Errorf("unknown sort key %q", sortKey)
	}
	return s.findBooks(s.db.Where("user_id = ?", userID).Order(order))
}

func (s *GormStore) findBooks(tx *gorm.DB) ([]domain.Book, error) {
	var models []BookModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Book, 0, len(models))
	for _, m := range models {
		res = append(res, bookFromModel(m))
	}
	return res, nil
}

// HasBook reports whether the user already tracks the given book id.
func (s *GormStore) HasBook(id, userID string) (bool, error) {
	var count int64
	err := s.db.Model(&BookModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateBook inserts a book. The composite primary key rejects a
// duplicate (id, user_id) pair; that case is reported as ErrDuplicateBook.
func (s *GormStore) CreateBook(b domain.Book) error {
	model := bookToModel(b)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	if err := s.db.Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateBook
		}
		return err
	}
	return nil
}

// DeleteBook removes at most one row matching both id and owner.
// A missing row is not an error.
func (s *GormStore) DeleteBook(id, userID string) error {
	return s.db.Delete(&BookModel{}, "id = ? AND user_id = ?", id, userID).Error
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Profile:      datatypes.JSON(u.Profile),
		CreatedAt:    u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Profile:      []byte(m.Profile),
		CreatedAt:    m.CreatedAt,
	}
}

func bookToModel(b domain.Book) BookModel {
	return BookModel{
		ID:        b.ID,
		UserID:    b.UserID,
		Title:     b.Title,
		Author:    b.Author,
		Summary:   b.Summary,
		Image:     b.Image,
		Link:      b.Link,
		Rating:    b.Rating,
		CreatedAt: b.CreatedAt,
	}
}

func bookFromModel(m BookModel) domain.Book {
	return domain.Book{
		ID:        m.ID,
		UserID:    m.UserID,
		Title:     m.Title,
		Author:    m.Author,
		Summary:   m.Summary,
		Image:     m.Image,
		Link:      m.Link,
		Rating:    m.Rating,
		CreatedAt: m.CreatedAt,
	}
}
