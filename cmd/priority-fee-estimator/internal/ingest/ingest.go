// Package ingest drains a stream of transaction events into the fee
// tracker. The stream transport stays behind the Source interface; decoding
// Geyser payloads into events is the source's problem, not this package's.
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/dyxushuai/atlas-priority-fee-estimator/cmd/priority-fee-estimator/internal/daemon/interfaces"
	"github.com/dyxushuai/atlas-priority-fee-estimator/cmd/priority-fee-estimator/internal/feetracker"
	"github.com/dyxushuai/atlas-priority-fee-estimator/protocol"
)

// Event is one transaction observation from the stream.
type Event struct {
	Slot uint64
	// Accounts are the accounts the transaction writes.
	Accounts []protocol.Account
	// Fee is the priority fee in micro-lamports.
	Fee    uint64
	IsVote bool
}

// Consumer receives every event the runner drains.
type Consumer interface {
	Consume(Event)
}

// TrackerConsumer adapts the fee tracker to the Consumer interface.
type TrackerConsumer struct {
	Tracker *feetracker.Tracker
}

func (c TrackerConsumer) Consume(event Event) {
	c.Tracker.Push(event.Slot, event.Accounts, event.Fee, event.IsVote)
}

// Source produces a stream of events. Subscribe returns a channel that the
// source closes when the stream breaks; the runner resubscribes with
// backoff.
type Source interface {
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// Runner connects a Source to one or more Consumers and keeps the
// subscription alive.
type Runner struct {
	source    Source
	consumers []Consumer
	logger    *logrus.Entry

	eventsTotal     prometheus.Counter
	reconnectsTotal prometheus.Counter
}

func NewRunner(source Source, consumers []Consumer, logger *logrus.Entry, daemon interfaces.Daemon) *Runner {
	r := &Runner{
		source:    source,
		consumers: consumers,
		logger:    logger,
		eventsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: daemon.MetricsNamespace(), Subsystem: "ingest",
			Name: "events_total",
			Help: "Number of transaction events drained from the stream",
		}),
		reconnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: daemon.MetricsNamespace(), Subsystem: "ingest",
			Name: "reconnects_total",
			Help: "Number of times the stream subscription was re-established",
		}),
	}
	daemon.MetricsRegistry().MustRegister(r.eventsTotal, r.reconnectsTotal)
	return r
}

// Run drains the source until ctx is done. Subscription failures and broken
// streams are retried with capped exponential backoff; a subscription that
// stayed healthy for a while resets the backoff.
func (r *Runner) Run(ctx context.Context) error {
	policy := newBackoffPolicy()
	for {
		start := time.Now()
		err := r.drainOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Since(start) > time.Minute {
			policy.Reset()
		}
		wait := policy.NextBackOff()
		r.reconnectsTotal.Inc()
		r.logger.WithError(err).WithField("retry_in", wait.String()).
			Warn("event stream broken, resubscribing")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

var errStreamClosed = errors.New("event stream closed")

func (r *Runner) drainOnce(ctx context.Context) error {
	events, err := r.source.Subscribe(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("subscribed to event stream")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return errStreamClosed
			}
			r.eventsTotal.Inc()
			for _, consumer := range r.consumers {
				consumer.Consume(event)
			}
		}
	}
}

func newBackoffPolicy() *backoff.ExponentialBackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 30 * time.Second
	// Keep retrying until the context is cancelled.
	policy.MaxElapsedTime = 0
	return policy
}
