// Package notify delivers completion records to the embedding environment.
package notify

import (
	"context"
	"errors"

	"github.com/mpapenbr/lapracer/log"
	"github.com/mpapenbr/lapracer/pkg/model"
)

// Notifier receives the completion record of a session. It is called at most
// once per session.
type Notifier interface {
	NotifyCompletion(ctx context.Context, rec *model.CompletionRecord) error
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, rec *model.CompletionRecord) error

func (f Func) NotifyCompletion(ctx context.Context, rec *model.CompletionRecord) error {
	return f(ctx, rec)
}

// Multi forwards to all notifiers, errors are joined.
type Multi []Notifier

func (m Multi) NotifyCompletion(ctx context.Context, rec *model.CompletionRecord) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyCompletion(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes the record to the log. Used when no message broker is configured.
type LogNotifier struct {
	log *log.Logger
}

func NewLogNotifier(l *log.Logger) *LogNotifier {
	return &LogNotifier{log: l}
}

func (n *LogNotifier) NotifyCompletion(_ context.Context, rec *model.CompletionRecord) error {
	n.log.Info("race completed",
		log.String("type", rec.Type),
		log.String("blockId", rec.BlockID),
		log.String("sessionId", rec.SessionID),
		log.Bool("completed", rec.Completed),
		log.Int("score", rec.Score),
		log.Int("timeSpentSeconds", rec.TimeSpentSeconds))
	return nil
}
