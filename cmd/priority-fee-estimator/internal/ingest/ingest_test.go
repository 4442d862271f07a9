package ingest

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyxushuai/atlas-priority-fee-estimator/cmd/priority-fee-estimator/internal/daemon/interfaces"
	"github.com/dyxushuai/atlas-priority-fee-estimator/cmd/priority-fee-estimator/internal/feetracker"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

// channelSource replays scripted subscriptions.
type channelSource struct {
	mu            sync.Mutex
	subscriptions []func(ctx context.Context) (<-chan Event, error)
}

func (s *channelSource) Subscribe(ctx context.Context) (<-chan Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subscriptions) == 0 {
		return nil, errors.New("no more subscriptions scripted")
	}
	next := s.subscriptions[0]
	s.subscriptions = s.subscriptions[1:]
	return next(ctx)
}

type countingConsumer struct {
	mu     sync.Mutex
	events []Event
}

func (c *countingConsumer) Consume(event Event) {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
}

func (c *countingConsumer) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestRunnerDrainsAndResubscribes(t *testing.T) {
	consumer := &countingConsumer{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	finished := make(chan struct{})
	source := &channelSource{
		subscriptions: []func(ctx context.Context) (<-chan Event, error){
			// First subscription delivers two events then breaks.
			func(context.Context) (<-chan Event, error) {
				events := make(chan Event, 2)
				events <- Event{Slot: 1, Fee: 10}
				events <- Event{Slot: 2, Fee: 20}
				close(events)
				return events, nil
			},
			// Second subscription fails outright.
			func(context.Context) (<-chan Event, error) {
				return nil, errors.New("connection refused")
			},
			// Third delivers one more event, then the test shuts down.
			func(context.Context) (<-chan Event, error) {
				events := make(chan Event, 1)
				events <- Event{Slot: 3, Fee: 30}
				close(events)
				close(finished)
				return events, nil
			},
			func(context.Context) (<-chan Event, error) {
				cancel()
				return nil, context.Canceled
			},
		},
	}

	runner := NewRunner(source, []Consumer{consumer}, testLogger(), interfaces.MakeNoOpDeamon())
	err := runner.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	<-finished
	assert.Equal(t, 3, consumer.len())
}

func TestTrackerConsumer(t *testing.T) {
	tracker, err := feetracker.New(10, testLogger())
	require.NoError(t, err)

	consumer := TrackerConsumer{Tracker: tracker}
	consumer.Consume(Event{Slot: 7, Fee: 42})
	consumer.Consume(Event{Slot: 8, Fee: 43})

	assert.Equal(t, 2, tracker.LiveSlotCount())
}

func TestTCPSourceDeliversEvents(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		lines := `{"slot":9,"fee":1234,"isVote":false}
not json at all
{"slot":10,"fee":5678,"isVote":true}
`
		_, _ = conn.Write([]byte(lines))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	source := NewTCPSource(listener.Addr().String(), testLogger())
	events, err := source.Subscribe(ctx)
	require.NoError(t, err)

	first := <-events
	assert.Equal(t, uint64(9), first.Slot)
	assert.Equal(t, uint64(1234), first.Fee)
	assert.False(t, first.IsVote)

	// The malformed line is skipped, not fatal.
	second := <-events
	assert.Equal(t, uint64(10), second.Slot)
	assert.True(t, second.IsVote)

	_, open := <-events
	assert.False(t, open)
}
