//go:build integration

package natsclient

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVStore_BasicOperations(t *testing.T) {
	testClient := NewTestClient(t, WithKV())
	client := testClient.Client

	ctx := context.Background()

	bucket, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket: "test-basic-ops",
	})
	require.NoError(t, err)

	store := client.NewKVStore(bucket)

	// Create
	rev, err := store.Create(ctx, "alpha", []byte(`{"n":1}`))
	require.NoError(t, err)
	assert.Greater(t, rev, uint64(0))

	// Create again fails
	_, err = store.Create(ctx, "alpha", []byte(`{"n":2}`))
	assert.ErrorIs(t, err, ErrKVKeyExists)

	// Get
	entry, err := store.Get(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"n":1}`), entry.Value)
	assert.Equal(t, rev, entry.Revision)

	// CAS update with correct revision
	rev2, err := store.Update(ctx, "alpha", []byte(`{"n":2}`), rev)
	require.NoError(t, err)
	assert.Greater(t, rev2, rev)

	// CAS update with stale revision fails
	_, err = store.Update(ctx, "alpha", []byte(`{"n":3}`), rev)
	assert.ErrorIs(t, err, ErrKVRevisionMismatch)

	// Delete
	require.NoError(t, store.Delete(ctx, "alpha"))
	_, err = store.Get(ctx, "alpha")
	assert.ErrorIs(t, err, ErrKVKeyNotFound)
}

func TestKVStore_UpdateWithRetry_Contention(t *testing.T) {
	testClient := NewTestClient(t, WithKV())
	client := testClient.Client

	ctx := context.Background()

	bucket, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:  "test-update-retry",
		History: 5,
	})
	require.NoError(t, err)

	store := client.NewKVStore(bucket)

	// Concurrent increments must all land despite CAS conflicts
	var wg sync.WaitGroup
	writers := 5
	incrementsPerWriter := 10

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < incrementsPerWriter; j++ {
				err := store.UpdateJSON(ctx, "counter", func(current map[string]any) error {
					n, _ := current["n"].(float64)
					current["n"] = n + 1
					return nil
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	entry, err := store.Get(ctx, "counter")
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal(entry.Value, &result))
	assert.Equal(t, float64(writers*incrementsPerWriter), result["n"])
}

func TestClient_PublishSubscribe(t *testing.T) {
	testClient := NewTestClient(t)
	client := testClient.Client

	ctx := context.Background()

	received := make(chan []byte, 1)
	err := client.Subscribe(ctx, "flowpipe.sink.test", func(_ context.Context, data []byte) {
		received <- data
	})
	require.NoError(t, err)

	err = client.Publish(ctx, "flowpipe.sink.test", []byte("hello"))
	require.NoError(t, err)
	require.NoError(t, client.Flush())

	select {
	case data := <-received:
		assert.Equal(t, []byte("hello"), data)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestClient_ListKeyValueBuckets(t *testing.T) {
	testClient := NewTestClient(t, WithKVBuckets("bucket-one", "bucket-two"))
	client := testClient.Client

	ctx := context.Background()

	names, err := client.ListKeyValueBuckets(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, "bucket-one")
	assert.Contains(t, names, "bucket-two")
}
