package comment

import (
	"context"
	"time"

	"social-backend/internal/kafka"
	"social-backend/internal/sanitize"
	"social-backend/internal/shared/apperr"
	"social-backend/internal/shared/metrics"
	"social-backend/internal/shared/validate"
)

type Service interface {
	Create(ctx context.Context, userID, postID int64, content string) (*Comment, error)
	GetByPost(ctx context.Context, postID int64) ([]Comment, error)
	GetByUser(ctx context.Context, userID int64) ([]Comment, error)
}

// PostLookup reports whether a post exists.
type PostLookup interface {
	Exists(ctx context.Context, postID int64) (bool, error)
}

type service struct {
	repo   Repository
	posts  PostLookup
	events kafka.Publisher
}

func NewService(r Repository, posts PostLookup, events kafka.Publisher) Service {
	if events == nil {
		events = kafka.Nop{}
	}
	return &service{repo: r, posts: posts, events: events}
}

func (s *service) Create(ctx context.Context, userID, postID int64, content string) (*Comment, error) {
	if err := validate.Text("content", content, MaxContentLen); err != nil {
		return nil, err
	}
	ok, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return nil, apperr.Internal("look up post", err)
	}
	if !ok {
		return nil, apperr.NotFound("post not found")
	}

	c := &Comment{
		UserID:    userID,
		PostID:    postID,
		Content:   sanitize.RichText(content),
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, apperr.Internal("insert comment", err)
	}
	metrics.Inc("comment_created")
	s.events.CommentCreated(ctx, Event(c))
	return c, nil
}

func (s *service) GetByPost(ctx context.Context, postID int64) ([]Comment, error) {
	out, err := s.repo.ListByPost(ctx, postID)
	if err != nil {
		return nil, apperr.Internal("list comments by post", err)
	}
	return out, nil
}

func (s *service) GetByUser(ctx context.Context, userID int64) ([]Comment, error) {
	out, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("list comments by user", err)
	}
	return out, nil
}

func Event(c *Comment) kafka.CommentCreated {
	return kafka.CommentCreated{CommentID: c.ID, PostID: c.PostID, UserID: c.UserID, CreatedAt: c.CreatedAt}
}
