package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	RoleGovernment = "government"
	RoleFarmer     = "farmer"
)

// User is an API account. Government users may mutate; farmers read.
type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	Role      string    `gorm:"size:20;not null" json:"role"`
	Address   string    `gorm:"size:42" json:"address"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// LoginInput is the credential payload.
type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SeedOperator creates the initial government account when it does not exist
// yet. hashed is the bcrypt digest of the operator password.
func (s *Store) SeedOperator(ctx context.Context, username string, hashed []byte) error {
	existing, err := s.FindUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	user := &User{Username: username, Password: string(hashed), Role: RoleGovernment}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	return nil
}

// FindUserByUsername returns (nil, nil) when no such user exists.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	return &user, nil
}
