package kafka

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	kgo "github.com/segmentio/kafka-go"
)

type Writer interface {
	WriteJSON(ctx context.Context, key string, v any) error
	Topic() string
	Close() error
}

type WriterConfig struct {
	Brokers      string // comma separated
	Topic        string
	RequiredAcks string // none | one | all
	Async        bool
}

type writer struct {
	w *kgo.Writer
}

// NewWriter builds a writer for a single topic. Acks default to "one".
func NewWriter(cfg WriterConfig) Writer {
	var acks kgo.RequiredAcks
	switch strings.ToLower(strings.TrimSpace(cfg.RequiredAcks)) {
	case "none":
		acks = kgo.RequireNone
	case "all":
		acks = kgo.RequireAll
	default:
		acks = kgo.RequireOne
	}
	var addrs []string
	for _, a := range strings.Split(cfg.Brokers, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	return &writer{w: &kgo.Writer{
		Addr:                   kgo.TCP(addrs...),
		Topic:                  cfg.Topic,
		Balancer:               &kgo.Hash{},
		RequiredAcks:           acks,
		Async:                  cfg.Async,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}}
}

func (wr *writer) WriteJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return wr.w.WriteMessages(ctx, kgo.Message{Key: []byte(key), Value: b, Time: time.Now()})
}

func (wr *writer) Topic() string { return wr.w.Topic }

func (wr *writer) Close() error { return wr.w.Close() }
