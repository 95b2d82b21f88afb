package kafka

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeWriter struct {
	topic string
	keys  []string
	vals  []any
	err   error
}

func (f *fakeWriter) WriteJSON(ctx context.Context, key string, v any) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	f.keys = append(f.keys, key)
	f.vals = append(f.vals, v)
	return f.err
}
func (f *fakeWriter) Topic() string { return f.topic }
func (f *fakeWriter) Close() error  { return nil }

func TestEventsRouteToTopics(t *testing.T) {
	posts := &fakeWriter{topic: "posts.created"}
	comments := &fakeWriter{topic: "comments.created"}
	ev := NewEvents(posts, comments)

	ev.PostCreated(context.Background(), PostCreated{PostID: 3, UserID: 1, CreatedAt: time.Now()})
	ev.CommentCreated(context.Background(), CommentCreated{CommentID: 9, PostID: 3, UserID: 2})

	if len(posts.keys) != 1 || posts.keys[0] != "3" {
		t.Fatalf("posts writes = %v", posts.keys)
	}
	if len(comments.keys) != 1 || comments.keys[0] != "3" {
		t.Fatalf("comment events must be keyed by post id, got %v", comments.keys)
	}
}

func TestPublishSurvivesCanceledRequest(t *testing.T) {
	posts := &fakeWriter{topic: "posts.created"}
	ev := NewEvents(posts, &fakeWriter{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ev.PostCreated(ctx, PostCreated{PostID: 1})
	if len(posts.keys) != 1 {
		t.Fatalf("event dropped after request cancel")
	}
}

func TestPublishErrorIsSwallowed(t *testing.T) {
	ev := NewEvents(&fakeWriter{topic: "p", err: errors.New("broker down")}, &fakeWriter{topic: "c"})
	ev.PostCreated(context.Background(), PostCreated{PostID: 1})
}
