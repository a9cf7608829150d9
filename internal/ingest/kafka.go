package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/ksedova/fulltext/pkg/config"
	"github.com/ksedova/fulltext/pkg/kafka"
)

// KafkaSource consumes {"docId": int, "text": string} messages from a
// document-ingest topic, committing each message's offset once the document
// has been queued in the buffer that Next reads from (pkg/kafka.Consumer
// commits after its handler returns nil), so a commit can precede the
// caller's receipt of the document. It treats a sustained gap with no new message
// (idleTimeout) as the end of a catch-up run, so a builder invocation
// converges instead of blocking forever on an empty topic.
type KafkaSource struct {
	reader      *kafka.Consumer
	idleTimeout time.Duration
	logger      *slog.Logger

	docs   chan Document
	runErr chan error
}

type kafkaRecord struct {
	DocID int32  `json:"docId"`
	Text  string `json:"text"`
}

// NewKafkaSource builds a Consumer for topic and wires it to feed this
// source's Next method.
func NewKafkaSource(cfg config.KafkaConfig, topic string, idleTimeout time.Duration, logger *slog.Logger) *KafkaSource {
	if logger == nil {
		logger = slog.Default()
	}
	s := &KafkaSource{
		idleTimeout: idleTimeout,
		logger:      logger.With("component", "kafka-source", "topic", topic),
		docs:        make(chan Document, 64),
		runErr:      make(chan error, 1),
	}
	s.reader = kafka.NewConsumer(cfg, topic, s.handle)
	return s
}

// Run starts the underlying consume loop in the background. Cancel ctx to
// stop it; the source then reports exhaustion via Next once its internal
// buffer drains.
func (s *KafkaSource) Run(ctx context.Context) {
	go func() {
		s.runErr <- s.reader.Start(ctx)
		close(s.docs)
	}()
}

func (s *KafkaSource) handle(ctx context.Context, key []byte, value []byte) error {
	rec, err := kafka.DecodeJSON[kafkaRecord](value)
	if err != nil {
		s.logger.Warn("skipping malformed message", "error", err)
		return nil
	}
	select {
	case s.docs <- Document{DocID: rec.DocID, Text: rec.Text}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next reports exhaustion once idleTimeout passes with no new message. The
// background consume loop started by Run keeps running past that point;
// callers that treat an idle timeout as "caught up" should cancel ctx
// afterward to stop it.
func (s *KafkaSource) Next(ctx context.Context) (Document, bool, error) {
	timer := time.NewTimer(s.idleTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Document{}, false, ctx.Err()
	case doc, ok := <-s.docs:
		if !ok {
			if err := <-s.runErr; err != nil {
				return Document{}, false, err
			}
			return Document{}, false, nil
		}
		return doc, true, nil
	case <-timer.C:
		return Document{}, false, nil
	}
}
