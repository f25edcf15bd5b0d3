package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mpapenbr/lapracer/log"
	"github.com/mpapenbr/lapracer/pkg/model"
)

const DefaultSubject = "lapracer.completion"

var tracer = otel.Tracer("lapracer-notify")

// Publisher is the part of *nats.Conn used for publishing.
type Publisher interface {
	Publish(subject string, data []byte) error
}

var _ Publisher = (*nats.Conn)(nil)

// NatsNotifier publishes the JSON encoded record to "<subject>.<blockId>"
// (or just subject without block id). Records are not stored, whoever
// needs them has to subscribe.
type NatsNotifier struct {
	pub     Publisher
	subject string
	log     *log.Logger
}

type NatsOption func(n *NatsNotifier)

func WithSubject(subject string) NatsOption {
	return func(n *NatsNotifier) {
		n.subject = subject
	}
}

func WithLogger(l *log.Logger) NatsOption {
	return func(n *NatsNotifier) {
		n.log = l
	}
}

func NewNatsNotifier(pub Publisher, opts ...NatsOption) *NatsNotifier {
	ret := &NatsNotifier{
		pub:     pub,
		subject: DefaultSubject,
		log:     log.Default().Named("notify.nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (n *NatsNotifier) Subject(rec *model.CompletionRecord) string {
	if rec.BlockID == "" {
		return n.subject
	}
	return fmt.Sprintf("%s.%s", n.subject, rec.BlockID)
}

func (n *NatsNotifier) NotifyCompletion(ctx context.Context, rec *model.CompletionRecord) error {
	_, span := tracer.Start(ctx, "publish completion")
	defer span.End()
	span.SetAttributes(
		attribute.String("sessionId", rec.SessionID),
		attribute.String("blockId", rec.BlockID),
		attribute.Int("score", rec.Score),
	)

	data, err := json.Marshal(rec)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	subject := n.Subject(rec)
	if err := n.pub.Publish(subject, data); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	n.log.Debug("completion published", log.String("subject", subject))
	return nil
}
