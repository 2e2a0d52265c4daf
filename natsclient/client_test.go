package natsclient

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	assert.Equal(t, "nats://localhost:4222", client.URL())
	assert.Equal(t, StatusDisconnected, client.Status())
	assert.Equal(t, int32(0), client.Failures())
	assert.Equal(t, time.Second, client.Backoff())
	assert.False(t, client.IsHealthy())
}

func TestNewClient_Options(t *testing.T) {
	client, err := NewClient("nats://localhost:4222",
		WithMaxReconnects(3),
		WithReconnectWait(time.Second),
		WithCircuitBreakerThreshold(2),
		WithMaxBackoff(10*time.Second),
		WithName("test-client"),
		WithTimeout(time.Second),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, client.maxReconnects)
	assert.Equal(t, time.Second, client.reconnectWait)
	assert.Equal(t, int32(2), client.circuitThreshold)
	assert.Equal(t, 10*time.Second, client.maxBackoff)
	assert.Equal(t, "test-client", client.clientName)
}

func TestNewClient_OptionDefaultClamping(t *testing.T) {
	client, err := NewClient("nats://localhost:4222",
		WithCircuitBreakerThreshold(0),
		WithMaxBackoff(time.Millisecond),
	)
	require.NoError(t, err)

	assert.Equal(t, int32(5), client.circuitThreshold, "invalid threshold should fall back to default")
	assert.Equal(t, time.Minute, client.maxBackoff, "sub-second backoff should fall back to default")
}

func TestConnectionStatus_String(t *testing.T) {
	tests := []struct {
		status ConnectionStatus
		want   string
	}{
		{StatusDisconnected, "disconnected"},
		{StatusConnecting, "connecting"},
		{StatusConnected, "connected"},
		{StatusReconnecting, "reconnecting"},
		{StatusCircuitOpen, "circuit_open"},
		{ConnectionStatus(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestClient_CircuitBreakerOpensAfterThreshold(t *testing.T) {
	client, err := NewClient("nats://localhost:4222",
		WithCircuitBreakerThreshold(3),
	)
	require.NoError(t, err)

	client.recordFailure()
	client.recordFailure()
	assert.NotEqual(t, StatusCircuitOpen, client.Status(),
		"circuit should stay closed below threshold")

	client.recordFailure()
	assert.Equal(t, StatusCircuitOpen, client.Status(),
		"circuit should open at threshold")

	// Connect attempts are rejected while the circuit is open
	err = client.Connect(context.Background())
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestClient_CircuitBreakerBackoffGrowth(t *testing.T) {
	client, err := NewClient("nats://localhost:4222",
		WithCircuitBreakerThreshold(1),
		WithMaxBackoff(4*time.Second),
	)
	require.NoError(t, err)

	initial := client.Backoff()
	assert.Equal(t, time.Second, initial)

	client.recordFailure()
	assert.Equal(t, 2*time.Second, client.Backoff())

	// Further failures while open keep doubling up to the cap
	client.recordFailure()
	assert.Equal(t, 4*time.Second, client.Backoff())

	client.recordFailure()
	assert.Equal(t, 4*time.Second, client.Backoff(), "backoff should be capped at max")
}

func TestClient_ResetCircuit(t *testing.T) {
	client, err := NewClient("nats://localhost:4222",
		WithCircuitBreakerThreshold(1),
	)
	require.NoError(t, err)

	client.recordFailure()
	require.Equal(t, StatusCircuitOpen, client.Status())

	client.resetCircuit()
	assert.Equal(t, StatusDisconnected, client.Status())
	assert.Equal(t, int32(0), client.Failures())
	assert.Equal(t, time.Second, client.Backoff())
}

func TestClient_WaitForConnectionTimeout(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = client.WaitForConnection(ctx)
	assert.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_OperationsWhenNotConnected(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	ctx := context.Background()

	err = client.Publish(ctx, "flowpipe.sink.test", []byte("data"))
	assert.ErrorIs(t, err, ErrNotConnected)

	err = client.Subscribe(ctx, "flowpipe.sink.test", func(context.Context, []byte) {})
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = client.RTT()
	assert.ErrorIs(t, err, ErrNotConnected)

	err = client.Flush()
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = client.GetKeyValueBucket(ctx, "bucket")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestClient_CloseIdempotent(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	ctx := context.Background()
	assert.NoError(t, client.Close(ctx))
	assert.NoError(t, client.Close(ctx), "second close should be a no-op")
}

func TestClient_GetStatus(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	status := client.GetStatus()
	require.NotNil(t, status)
	assert.Equal(t, StatusDisconnected, status.Status)
	assert.Equal(t, int32(0), status.FailureCount)
	assert.True(t, status.LastFailureTime.IsZero())
}

func TestClient_ConnectionOptions(t *testing.T) {
	client, err := NewClient("nats://localhost:4222",
		WithCredentials("user", "pass"),
		WithName("flowpipe-node"),
		WithCompression(true),
	)
	require.NoError(t, err)

	opts := client.ConnectionOptions()
	// Base options plus credentials, name, and compression
	assert.GreaterOrEqual(t, len(opts), 12)
}

func TestIsAlreadyExistsError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bucket in use", errors.New("bucket name already in use"), true},
		{"already exists", errors.New("stream already exists"), true},
		{"stream in use", errors.New("stream name already in use"), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isAlreadyExistsError(tt.err))
		})
	}
}

func TestKVErrorHelpers(t *testing.T) {
	assert.True(t, IsKVNotFoundError(ErrKVKeyNotFound))
	assert.True(t, IsKVNotFoundError(errors.New("nats: key not found")))
	assert.True(t, IsKVNotFoundError(fmt.Errorf("API error 10037")))
	assert.False(t, IsKVNotFoundError(nil))
	assert.False(t, IsKVNotFoundError(errors.New("timeout")))

	assert.True(t, IsKVConflictError(ErrKVRevisionMismatch))
	assert.True(t, IsKVConflictError(ErrKVKeyExists))
	assert.True(t, IsKVConflictError(errors.New("wrong last sequence: 5")))
	assert.True(t, IsKVConflictError(errors.New("key exists")))
	assert.False(t, IsKVConflictError(nil))
	assert.False(t, IsKVConflictError(errors.New("timeout")))
}

func TestDefaultKVOptions(t *testing.T) {
	opts := DefaultKVOptions()
	assert.Equal(t, 10, opts.MaxRetries)
	assert.Equal(t, 10*time.Millisecond, opts.RetryDelay)
	assert.Equal(t, 5*time.Second, opts.Timeout)
	assert.Equal(t, 1024*1024, opts.MaxValueSize)
	assert.True(t, opts.UseExponentialBackoff)
}
