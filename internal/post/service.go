package post

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"social-backend/internal/comment"
	"social-backend/internal/kafka"
	"social-backend/internal/sanitize"
	"social-backend/internal/shared/apperr"
	"social-backend/internal/shared/metrics"
	"social-backend/internal/shared/validate"

	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, userID int64, in CreateReq) (*Post, error)
	GetAll(ctx context.Context) ([]Post, error)
	GetByUser(ctx context.Context, userID int64) ([]Post, error)
	GetByID(ctx context.Context, id int64) (*Post, error)
	Update(ctx context.Context, userID, postID int64, in UpdateReq) (*Post, error)
	Delete(ctx context.Context, userID, postID int64) error
	CreateWithComment(ctx context.Context, userID int64, in CreateWithCommentReq) (*CreateWithCommentResult, error)
}

// Transactor runs fn inside one database transaction.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	tx       Transactor
	posts    Repository
	comments comment.Repository
	events   kafka.Publisher
}

func NewService(tx Transactor, posts Repository, comments comment.Repository, events kafka.Publisher) Service {
	if events == nil {
		events = kafka.Nop{}
	}
	return &service{tx: tx, posts: posts, comments: comments, events: events}
}

func (s *service) Create(ctx context.Context, userID int64, in CreateReq) (*Post, error) {
	if err := validate.Text("content", in.Content, MaxContentLen); err != nil {
		return nil, err
	}
	p := &Post{
		UserID:    userID,
		Content:   sanitize.RichText(in.Content),
		Image:     sanitize.OptURL(in.Image),
		CreatedAt: time.Now(),
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, apperr.Internal("insert post", err)
	}
	metrics.Inc("post_created")
	s.events.PostCreated(ctx, event(p))
	return p, nil
}

func (s *service) GetAll(ctx context.Context) ([]Post, error) {
	out, err := s.posts.ListAll(ctx)
	if err != nil {
		return nil, apperr.Internal("list posts", err)
	}
	return out, nil
}

func (s *service) GetByUser(ctx context.Context, userID int64) ([]Post, error) {
	out, err := s.posts.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("list posts by user", err)
	}
	return out, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*Post, error) {
	p, err := s.posts.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("post not found")
	}
	if err != nil {
		return nil, apperr.Internal("find post", err)
	}
	return p, nil
}

// ownedPost loads the post and checks that userID owns it.
func (s *service) ownedPost(ctx context.Context, userID, postID int64) (*Post, error) {
	p, err := s.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, apperr.Forbidden("you can only modify your own posts")
	}
	return p, nil
}

func (s *service) Update(ctx context.Context, userID, postID int64, in UpdateReq) (*Post, error) {
	p, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if err := validate.Text("content", in.Content, MaxContentLen); err != nil {
		return nil, err
	}
	p.Content = sanitize.RichText(in.Content)
	p.Image = sanitize.OptURL(in.Image)
	if err := s.posts.UpdateBody(ctx, p); err != nil {
		return nil, apperr.Internal("update post", err)
	}
	return p, nil
}

// Delete removes the post and its comments in one transaction.
func (s *service) Delete(ctx context.Context, userID, postID int64) error {
	if _, err := s.ownedPost(ctx, userID, postID); err != nil {
		return err
	}
	var removed int64
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		n, err := s.comments.WithTx(tx).DeleteByPost(ctx, postID)
		if err != nil {
			return err
		}
		removed = n
		return s.posts.WithTx(tx).Delete(ctx, postID)
	})
	if err != nil {
		return apperr.Internal("delete post", err)
	}
	metrics.Inc("post_deleted")
	slog.DebugContext(ctx, "post deleted", "post_id", postID, "comments_removed", removed)
	return nil
}

// CreateWithComment inserts a post and its first comment atomically.
// Both contents are validated before anything is written.
func (s *service) CreateWithComment(ctx context.Context, userID int64, in CreateWithCommentReq) (*CreateWithCommentResult, error) {
	if err := validate.Text("postContent", in.PostContent, MaxContentLen); err != nil {
		return nil, err
	}
	if err := validate.Text("commentContent", in.CommentContent, comment.MaxContentLen); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &Post{
		UserID:    userID,
		Content:   sanitize.RichText(in.PostContent),
		Image:     sanitize.OptURL(in.PostImage),
		CreatedAt: now,
	}
	c := &comment.Comment{
		UserID:    userID,
		Content:   sanitize.RichText(in.CommentContent),
		CreatedAt: now,
	}

	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.posts.WithTx(tx).Create(ctx, p); err != nil {
			return err
		}
		c.PostID = p.ID
		return s.comments.WithTx(tx).Create(ctx, c)
	})
	if err != nil {
		return nil, apperr.Internal("create post with comment", err)
	}

	metrics.Inc("post_created")
	metrics.Inc("comment_created")
	s.events.PostCreated(ctx, event(p))
	s.events.CommentCreated(ctx, comment.Event(c))
	return &CreateWithCommentResult{PostID: p.ID, CommentID: c.ID}, nil
}

func event(p *Post) kafka.PostCreated {
	return kafka.PostCreated{PostID: p.ID, UserID: p.UserID, CreatedAt: p.CreatedAt}
}
