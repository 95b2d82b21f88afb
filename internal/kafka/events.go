package kafka

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"social-backend/internal/shared/metrics"
)

const publishTimeout = 3 * time.Second

type PostCreated struct {
	PostID    int64     `json:"postId"`
	UserID    int64     `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

type CommentCreated struct {
	CommentID int64     `json:"commentId"`
	PostID    int64     `json:"postId"`
	UserID    int64     `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Publisher announces committed writes. Delivery is best effort: failures are
// logged and counted, never returned to the caller.
type Publisher interface {
	PostCreated(ctx context.Context, e PostCreated)
	CommentCreated(ctx context.Context, e CommentCreated)
}

type Nop struct{}

func (Nop) PostCreated(context.Context, PostCreated)       {}
func (Nop) CommentCreated(context.Context, CommentCreated) {}

type Events struct {
	posts    Writer
	comments Writer
}

func NewEvents(posts, comments Writer) *Events {
	return &Events{posts: posts, comments: comments}
}

func (e *Events) PostCreated(ctx context.Context, ev PostCreated) {
	e.publish(ctx, e.posts, strconv.FormatInt(ev.PostID, 10), ev)
}

// CommentCreated is keyed by post id so a post's comments stay ordered in one partition.
func (e *Events) CommentCreated(ctx context.Context, ev CommentCreated) {
	e.publish(ctx, e.comments, strconv.FormatInt(ev.PostID, 10), ev)
}

func (e *Events) publish(ctx context.Context, w Writer, key string, v any) {
	// the request may already be finished; the write should not be cut short by it
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := w.WriteJSON(ctx, key, v); err != nil {
		metrics.PublishErrors.WithLabelValues(w.Topic()).Inc()
		slog.WarnContext(ctx, "publish event failed", "topic", w.Topic(), "key", key, "err", err)
	}
}

func (e *Events) Close() error {
	return errors.Join(e.posts.Close(), e.comments.Close())
}
