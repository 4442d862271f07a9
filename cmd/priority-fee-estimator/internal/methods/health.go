package methods

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"

	"github.com/dyxushuai/atlas-priority-fee-estimator/cmd/priority-fee-estimator/internal/feetracker"
	"github.com/dyxushuai/atlas-priority-fee-estimator/protocol"
)

// NewHealthCheck returns the getHealth handler. The server is healthy once
// at least one slot of fee data is live.
func NewHealthCheck(tracker *feetracker.Tracker) jrpc2.Handler {
	return handler.New(func(ctx context.Context) (protocol.GetHealthResponse, error) {
		count := tracker.LiveSlotCount()
		if count == 0 {
			return protocol.GetHealthResponse{}, jrpc2.Errorf(jrpc2.InternalError, "no fee data ingested yet")
		}
		return protocol.GetHealthResponse{Status: "healthy", LiveSlots: count}, nil
	})
}
