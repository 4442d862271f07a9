package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/dyxushuai/atlas-priority-fee-estimator/protocol"
)

// wireEvent is the newline-delimited JSON encoding of one event on the
// stream.
type wireEvent struct {
	Slot     uint64             `json:"slot"`
	Accounts []protocol.Account `json:"accounts"`
	Fee      uint64             `json:"fee"`
	IsVote   bool               `json:"isVote"`
}

// TCPSource subscribes to a newline-delimited JSON event feed over TCP.
type TCPSource struct {
	addr   string
	logger *logrus.Entry
}

func NewTCPSource(addr string, logger *logrus.Entry) *TCPSource {
	return &TCPSource{addr: addr, logger: logger}
}

func (s *TCPSource) Subscribe(ctx context.Context) (<-chan Event, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return nil, err
	}

	events := make(chan Event)
	done := make(chan struct{})
	go func() {
		// Unblocks the scanner when the subscription is cancelled.
		select {
		case <-ctx.Done():
		case <-done:
		}
		conn.Close()
	}()
	go func() {
		defer close(events)
		defer close(done)
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			var wire wireEvent
			if err := json.Unmarshal(scanner.Bytes(), &wire); err != nil {
				// A malformed line drops one event, not the stream.
				s.logger.WithError(err).Warn("skipping malformed event")
				continue
			}
			select {
			case events <- Event{Slot: wire.Slot, Accounts: wire.Accounts, Fee: wire.Fee, IsVote: wire.IsVote}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			s.logger.WithError(err).Warn("event stream read failed")
		}
	}()
	return events, nil
}
