package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"tacowasa/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Tx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

// FindOrCreate looks a user up by username, creating it when absent.
func (r *UserRepository) FindOrCreate(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	db := r.db.WithContext(ctx)
	err := db.Where("username = ?", username).First(&user).Error
	switch {
	case err == nil:
		return &user, nil
	case err == gorm.ErrRecordNotFound:
		user = model.User{Username: username}
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		return &user, nil
	default:
		return nil, fmt.Errorf("find user: %w", err)
	}
}

func (r *UserRepository) FindByID(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SetIconURI records the stored avatar path for a user.
func (r *UserRepository) SetIconURI(ctx context.Context, userID uint, iconURI string) error {
	if err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).Update("icon_uri", iconURI).Error; err != nil {
		return fmt.Errorf("update icon uri: %w", err)
	}
	return nil
}
