package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mpapenbr/lapracer/log"
	"github.com/mpapenbr/lapracer/pkg/model"
)

type published struct {
	subject string
	data    []byte
}

type recordingPublisher struct {
	msgs []published
	err  error
}

func (p *recordingPublisher) Publish(subject string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{subject, data})
	return nil
}

func sampleRecord() *model.CompletionRecord {
	return &model.CompletionRecord{
		Type:             model.CompletionMessageType,
		BlockID:          "b-1",
		SessionID:        "s-1",
		Completed:        true,
		Score:            734,
		TimeSpentSeconds: 26,
	}
}

func TestNatsNotifier(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewNatsNotifier(pub, WithSubject("race.done"))
	require.NoError(t, n.NotifyCompletion(context.Background(), sampleRecord()))

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "race.done.b-1", pub.msgs[0].subject)
	assert.JSONEq(t, `{
		"type": "BLOCK_COMPLETION",
		"blockId": "b-1",
		"sessionId": "s-1",
		"completed": true,
		"score": 734,
		"timeSpentSeconds": 26
	}`, string(pub.msgs[0].data))

	rec := sampleRecord()
	rec.BlockID = ""
	assert.Equal(t, "race.done", n.Subject(rec))
	assert.Equal(t, DefaultSubject, NewNatsNotifier(pub).Subject(rec))
}

func TestNatsNotifier_PublishError(t *testing.T) {
	errBroken := errors.New("broken")
	n := NewNatsNotifier(&recordingPublisher{err: errBroken})
	err := n.NotifyCompletion(context.Background(), sampleRecord())
	assert.ErrorIs(t, err, errBroken)
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := NewLogNotifier(log.FromZap(zap.New(core)))
	require.NoError(t, n.NotifyCompletion(context.Background(), sampleRecord()))

	entries := logs.FilterMessage("race completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(734), fields["score"])
	assert.Equal(t, "b-1", fields["blockId"])
	assert.Equal(t, true, fields["completed"])
}

func TestMulti(t *testing.T) {
	var got []*model.CompletionRecord
	errFirst := errors.New("first")
	m := Multi{
		Func(func(_ context.Context, _ *model.CompletionRecord) error { return errFirst }),
		Func(func(_ context.Context, rec *model.CompletionRecord) error {
			got = append(got, rec)
			return nil
		}),
	}
	err := m.NotifyCompletion(context.Background(), sampleRecord())
	assert.ErrorIs(t, err, errFirst)
	require.Len(t, got, 1, "later notifiers run despite earlier errors")
	assert.Equal(t, 734, got[0].Score)
}
