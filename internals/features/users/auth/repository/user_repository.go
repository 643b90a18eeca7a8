package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	userModel "churchhub_backend/internals/features/users/model"
)

func FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*userModel.User, error) {
	var user userModel.User
	if err := db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*userModel.User, error) {
	var user userModel.User
	if err := db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActiveFlag loads only the columns the auth middleware needs per request.
func FindActiveFlag(ctx context.Context, db *gorm.DB, id uuid.UUID) (*userModel.User, error) {
	var user userModel.User
	if err := db.WithContext(ctx).
		Select("id", "role", "is_active").
		First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
