package comment

import (
	"context"

	"social-backend/internal/shared/db"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, c *Comment) error
	ListByPost(ctx context.Context, postID int64) ([]Comment, error)
	ListByUser(ctx context.Context, userID int64) ([]Comment, error)
	DeleteByPost(ctx context.Context, postID int64) (int64, error)
	// WithTx binds the repository to an open transaction.
	WithTx(tx *gorm.DB) Repository
}

type repo struct{ db *gorm.DB }

func NewRepository(s *db.Store) Repository { return &repo{db: s.Base} }

func (r *repo) WithTx(tx *gorm.DB) Repository { return &repo{db: tx} }

func (r *repo) Create(ctx context.Context, c *Comment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *repo) ListByPost(ctx context.Context, postID int64) ([]Comment, error) {
	var out []Comment
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).
		Order("created_at ASC").Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]Comment, error) {
	var out []Comment
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&out).Error
	return out, err
}

func (r *repo) DeleteByPost(ctx context.Context, postID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&Comment{})
	return res.RowsAffected, res.Error
}
