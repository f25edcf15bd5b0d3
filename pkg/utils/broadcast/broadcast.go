package broadcast

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/lapracer/log"
)

// BroadcastServer fans out values from a source channel to all subscribers.
// Every subscriber channel holds at most one pending value. A listener that
// falls behind gets the latest value, older ones are dropped.
type BroadcastServer[T any] interface {
	Subscribe() <-chan T
	CancelSubscription(<-chan T)
	Close()
}

type broadcastServer[T any] struct {
	name           string
	sessionID      string
	source         <-chan T
	listeners      []chan T
	addListener    chan chan T
	removeListener chan (<-chan T)
	ctx            context.Context
	cancel         context.CancelFunc
	log            *log.Logger
	numRcv         atomic.Int64
	numSnd         atomic.Int64
	numSkip        atomic.Int64
	numListener    atomic.Int64
	registration   metric.Registration
}

type Option[T any] func(*broadcastServer[T])

// WithTelemetry registers observable gauges tagged with the given session id.
func WithTelemetry[T any](sessionID string) Option[T] {
	return func(b *broadcastServer[T]) {
		b.sessionID = sessionID
	}
}

func WithLogger[T any](l *log.Logger) Option[T] {
	return func(b *broadcastServer[T]) {
		b.log = l
	}
}

func (b *broadcastServer[T]) Subscribe() <-chan T {
	ch := make(chan T, 1)
	select {
	case b.addListener <- ch:
	case <-b.ctx.Done():
		close(ch)
	}
	return ch
}

func (b *broadcastServer[T]) CancelSubscription(ch <-chan T) {
	select {
	case b.removeListener <- ch:
	case <-b.ctx.Done():
	}
}

func (b *broadcastServer[T]) Close() {
	b.log.Debug("Closing broadcast server",
		log.String("name", b.name),
		log.Int64("rcv", b.numRcv.Load()),
		log.Int64("snd", b.numSnd.Load()),
		log.Int64("skip", b.numSkip.Load()))
	b.cancel()
}

//nolint:whitespace // false positive
func NewBroadcastServer[T any](
	name string,
	source <-chan T,
	opts ...Option[T],
) BroadcastServer[T] {
	ctx, cancel := context.WithCancel(context.Background())
	b := &broadcastServer[T]{
		name:           name,
		source:         source,
		addListener:    make(chan chan T),
		removeListener: make(chan (<-chan T)),
		ctx:            ctx,
		cancel:         cancel,
		log:            log.Default().Named("broadcast"),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.sessionID != "" {
		b.setupMetrics()
	}
	go b.serve()
	return b
}

func (b *broadcastServer[T]) setupMetrics() {
	meter := otel.GetMeterProvider().Meter(fmt.Sprintf("lapracer.broadcast.%s", b.name))
	attrs := metric.WithAttributes(
		attribute.String("name", b.name),
		attribute.String("session", b.sessionID),
	)
	type data struct {
		name  string
		desc  string
		value *atomic.Int64
	}
	gauges := []data{
		{"lapracer.broadcast.rcv", "Number of received messages", &b.numRcv},
		{"lapracer.broadcast.snd", "Number of sent messages", &b.numSnd},
		{"lapracer.broadcast.skip", "Number of replaced messages", &b.numSkip},
		{"lapracer.broadcast.listener", "Number of listeners", &b.numListener},
	}
	type observed struct {
		gauge metric.Int64ObservableGauge
		value *atomic.Int64
	}
	observables := make([]metric.Observable, 0, len(gauges))
	registered := make([]observed, 0, len(gauges))
	for _, d := range gauges {
		g, err := meter.Int64ObservableGauge(d.name,
			metric.WithDescription(d.desc),
			metric.WithUnit("{count}"))
		if err != nil {
			b.log.Error("failed to register metric",
				log.String("metric", d.name), log.ErrorField(err))
			continue
		}
		observables = append(observables, g)
		registered = append(registered, observed{g, d.value})
	}
	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for _, r := range registered {
			o.ObserveInt64(r.gauge, r.value.Load(), attrs)
		}
		return nil
	}, observables...)
	if err != nil {
		b.log.Error("failed to register metric callback", log.ErrorField(err))
		return
	}
	b.registration = reg
}

func (b *broadcastServer[T]) serve() {
	defer func() {
		b.cancel()
		if b.registration != nil {
			if err := b.registration.Unregister(); err != nil {
				b.log.Warn("could not unregister metrics", log.ErrorField(err))
			}
		}
		for _, listener := range b.listeners {
			close(listener)
		}
		b.listeners = nil
	}()
	for {
		select {
		case <-b.ctx.Done():
			return
		case ch := <-b.addListener:
			b.listeners = append(b.listeners, ch)
			b.numListener.Store(int64(len(b.listeners)))
		case ch := <-b.removeListener:
			idx := slices.IndexFunc(b.listeners, func(l chan T) bool { return l == ch })
			if idx >= 0 {
				close(b.listeners[idx])
				b.listeners = slices.Delete(b.listeners, idx, idx+1)
				b.numListener.Store(int64(len(b.listeners)))
			}
		case msg, ok := <-b.source:
			if !ok {
				return
			}
			b.numRcv.Add(1)
			for _, listener := range b.listeners {
				b.offer(listener, msg)
			}
		}
	}
}

// offer puts msg into the listener's slot, replacing a value not yet consumed
func (b *broadcastServer[T]) offer(listener chan T, msg T) {
	for {
		select {
		case listener <- msg:
			b.numSnd.Add(1)
			return
		default:
		}
		select {
		case <-listener:
			b.numSkip.Add(1)
		default:
		}
	}
}
