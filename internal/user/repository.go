package user

import (
	"context"
	"errors"

	"social-backend/internal/shared/db"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByPhone(ctx context.Context, phone string) (*User, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

type repo struct{ store *db.Store }

func NewRepository(s *db.Store) Repository { return &repo{store: s} }

func (r *repo) Create(ctx context.Context, u *User) error {
	return r.store.Base.WithContext(ctx).Create(u).Error
}

func (r *repo) FindByID(ctx context.Context, id int64) (*User, error) {
	var u User
	if err := r.store.Base.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repo) FindByPhone(ctx context.Context, phone string) (*User, error) {
	var u User
	if err := r.store.Base.WithContext(ctx).Where("phone_number = ?", phone).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repo) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	_, err := r.FindByPhone(ctx, phone)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *repo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.store.Base.WithContext(ctx).Model(&User{}).
		Where("id = ?", id).
		UpdateColumn("password", hash).Error
}
