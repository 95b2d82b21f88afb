package post

import (
	"context"
	"errors"

	"social-backend/internal/shared/db"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, p *Post) error
	FindByID(ctx context.Context, id int64) (*Post, error)
	Exists(ctx context.Context, id int64) (bool, error)
	ListAll(ctx context.Context) ([]Post, error)
	ListByUser(ctx context.Context, userID int64) ([]Post, error)
	UpdateBody(ctx context.Context, p *Post) error
	Delete(ctx context.Context, id int64) error
	WithTx(tx *gorm.DB) Repository
}

type repo struct{ db *gorm.DB }

func NewRepository(s *db.Store) Repository { return &repo{db: s.Base} }

func (r *repo) WithTx(tx *gorm.DB) Repository { return &repo{db: tx} }

func (r *repo) Create(ctx context.Context, p *Post) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repo) FindByID(ctx context.Context, id int64) (*Post, error) {
	var p Post
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := r.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *repo) ListAll(ctx context.Context) ([]Post, error) {
	var out []Post
	err := r.db.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Find(&out).Error
	return out, err
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]Post, error) {
	var out []Post
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&out).Error
	return out, err
}

// UpdateBody writes content and image only; owner and creation time are immutable.
func (r *repo) UpdateBody(ctx context.Context, p *Post) error {
	return r.db.WithContext(ctx).Model(&Post{}).
		Where("id = ?", p.ID).
		Select("content", "image").
		Updates(map[string]any{"content": p.Content, "image": p.Image}).Error
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&Post{}, id).Error
}
