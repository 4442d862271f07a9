package internal

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyxushuai/atlas-priority-fee-estimator/cmd/priority-fee-estimator/internal/config"
	"github.com/dyxushuai/atlas-priority-fee-estimator/cmd/priority-fee-estimator/internal/daemon/interfaces"
	"github.com/dyxushuai/atlas-priority-fee-estimator/cmd/priority-fee-estimator/internal/feetracker"
	"github.com/dyxushuai/atlas-priority-fee-estimator/protocol"
)

func newTestServer(t *testing.T) (*feetracker.Tracker, *httptest.Server) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	entry := logrus.NewEntry(logger)

	tracker, err := feetracker.New(10, entry)
	require.NoError(t, err)

	cfg := &config.Config{
		MaxAccountsPerRequest: 100,
		MaxLookbackSlots:      150,
		RecommendedFeeFloor:   10_000,
	}
	handler := NewJSONRPCHandler(cfg, HandlerParams{
		Tracker: tracker,
		Logger:  entry,
		Daemon:  interfaces.MakeNoOpDeamon(),
	})
	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
		handler.Close()
	})
	return tracker, server
}

func call(t *testing.T, url, method string, params any) map[string]json.RawMessage {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope
}

func TestJSONRPCGetPriorityFeeEstimate(t *testing.T) {
	tracker, server := newTestServer(t)
	for fee := uint64(0); fee <= 100; fee++ {
		tracker.Push(1, nil, fee, false)
	}

	envelope := call(t, server.URL, protocol.GetPriorityFeeEstimateMethodName,
		protocol.GetPriorityFeeEstimateRequest{})
	require.Contains(t, envelope, "result")

	var response protocol.GetPriorityFeeEstimateResponse
	require.NoError(t, json.Unmarshal(envelope["result"], &response))
	require.NotNil(t, response.PriorityFeeEstimate)
	assert.Equal(t, 50.0, *response.PriorityFeeEstimate)
}

func TestJSONRPCInvalidParams(t *testing.T) {
	_, server := newTestServer(t)

	envelope := call(t, server.URL, protocol.GetPriorityFeeEstimateMethodName,
		protocol.GetPriorityFeeEstimateRequest{AccountKeys: []string{"0OIl"}})
	require.Contains(t, envelope, "error")

	var rpcError struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(envelope["error"], &rpcError))
	assert.Equal(t, -32602, rpcError.Code)
}

func TestJSONRPCHealth(t *testing.T) {
	tracker, server := newTestServer(t)
	tracker.Push(5, nil, 7, false)

	envelope := call(t, server.URL, protocol.GetHealthMethodName, nil)
	require.Contains(t, envelope, "result")

	var response protocol.GetHealthResponse
	require.NoError(t, json.Unmarshal(envelope["result"], &response))
	assert.Equal(t, "healthy", response.Status)
	assert.Equal(t, 1, response.LiveSlots)
}

func TestJSONRPCDetailedEndToEnd(t *testing.T) {
	tracker, server := newTestServer(t)
	var account protocol.Account
	account[0] = 7
	tracker.Push(1, []protocol.Account{account}, 10, false)
	tracker.Push(2, nil, 20, false)

	envelope := call(t, server.URL, protocol.GetPriorityFeeEstimateDetailedMethodName,
		protocol.GetPriorityFeeEstimateRequest{AccountKeys: []string{account.String()}})
	require.Contains(t, envelope, "result")

	var response protocol.GetPriorityFeeEstimateDetailedResponse
	require.NoError(t, json.Unmarshal(envelope["result"], &response))
	assert.Contains(t, response.Details, "Global")
	assert.Contains(t, response.Details, account.String())
	assert.Equal(t, 2, response.Details["Global"].Count)
	assert.Equal(t, 1, response.Details[account.String()].Count)
	assert.Equal(t, 20.0, response.PriorityFeeLevels.UnsafeMax)
}
