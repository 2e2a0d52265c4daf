package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// Test data structure for worker pool tests
type testWork struct {
	id    int
	key   uint64
	delay time.Duration
	fail  bool
}

func TestNewPool(t *testing.T) {
	processor := func(ctx context.Context, _ testWork) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}

	// Test with valid parameters
	pool := NewPool(5, 100, processor)
	if pool.workers != 5 {
		t.Errorf("Expected 5 workers, got %d", pool.workers)
	}
	if pool.queueSize != 100 {
		t.Errorf("Expected queue size 100, got %d", pool.queueSize)
	}

	// Test with zero workers (should default)
	pool = NewPool(0, 100, processor)
	if pool.workers != 4 {
		t.Errorf("Expected default 4 workers, got %d", pool.workers)
	}

	// Test with zero queue size (should default)
	pool = NewPool(5, 0, processor)
	if pool.queueSize != 256 {
		t.Errorf("Expected default queue size 256, got %d", pool.queueSize)
	}
}

func TestNewPool_NilProcessor(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for nil processor")
		}
	}()
	NewPool[testWork](5, 100, nil)
}

func TestPool_StartStop(t *testing.T) {
	var processedCount int64
	processor := func(_ context.Context, _ testWork) error {
		atomic.AddInt64(&processedCount, 1)
		return nil
	}

	pool := NewPool(2, 10, processor)

	ctx := context.Background()
	err := pool.Start(ctx)
	if err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}

	// Test that we can't start twice
	err = pool.Start(ctx)
	if err == nil {
		t.Error("Expected error when starting pool twice")
	}

	// Submit some work
	for i := 0; i < 5; i++ {
		err := pool.Submit(testWork{id: i})
		if err != nil {
			t.Errorf("Failed to submit work %d: %v", i, err)
		}
	}

	// Give workers time to process
	time.Sleep(100 * time.Millisecond)

	err = pool.Stop(5 * time.Second)
	if err != nil {
		t.Fatalf("Failed to stop pool: %v", err)
	}

	processed := atomic.LoadInt64(&processedCount)
	if processed != 5 {
		t.Errorf("Expected 5 processed items, got %d", processed)
	}

	// Test that we can't submit after stopping
	err = pool.Submit(testWork{id: 999})
	if err == nil {
		t.Error("Expected error when submitting to stopped pool")
	}
}

func TestPool_KeyedOrdering(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[uint64][]int)

	processor := func(_ context.Context, work testWork) error {
		mu.Lock()
		seen[work.key] = append(seen[work.key], work.id)
		mu.Unlock()
		return nil
	}

	pool := NewPool(4, 100, processor)

	ctx := context.Background()
	if err := pool.Start(ctx); err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}

	// Interleave submissions across keys; per-key order must survive
	// the fan-out across workers.
	keys := []uint64{7, 11, 13}
	perKey := 20
	for i := 0; i < perKey; i++ {
		for _, k := range keys {
			if err := pool.SubmitKeyed(k, testWork{id: i, key: k}); err != nil {
				t.Fatalf("Failed to submit keyed work: %v", err)
			}
		}
	}

	if err := pool.Stop(5 * time.Second); err != nil {
		t.Fatalf("Failed to stop pool: %v", err)
	}

	for _, k := range keys {
		got := seen[k]
		if len(got) != perKey {
			t.Fatalf("key %d: expected %d items, got %d", k, perKey, len(got))
		}
		for i, id := range got {
			if id != i {
				t.Errorf("key %d: item %d processed out of order (got id %d)", k, i, id)
			}
		}
	}
}

func TestPool_QueueFull(t *testing.T) {
	processor := func(_ context.Context, work testWork) error {
		// Slow processor to fill queue
		time.Sleep(work.delay)
		return nil
	}

	pool := NewPool(1, 2, processor) // Small queue

	ctx := context.Background()
	err := pool.Start(ctx)
	if err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}
	defer pool.Stop(5 * time.Second)

	submitted := 0
	dropped := 0

	// Route everything to the single worker so the queue actually fills
	for i := 0; i < 5; i++ {
		err := pool.SubmitKeyed(0, testWork{
			id:    i,
			delay: 200 * time.Millisecond,
		})
		if err != nil {
			dropped++
		} else {
			submitted++
		}
	}

	if dropped == 0 {
		t.Error("Expected some work to be dropped due to full queue")
	}

	if submitted == 0 {
		t.Error("Expected some work to be submitted successfully")
	}

	stats := pool.Stats()
	if stats.Dropped == 0 {
		t.Error("Stats should show dropped work items")
	}
}

func TestPool_ProcessingErrors(t *testing.T) {
	var successCount, errorCount int64

	processor := func(_ context.Context, work testWork) error {
		if work.fail {
			atomic.AddInt64(&errorCount, 1)
			return errors.New("simulated error")
		}
		atomic.AddInt64(&successCount, 1)
		return nil
	}

	pool := NewPool(2, 10, processor)

	ctx := context.Background()
	err := pool.Start(ctx)
	if err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}

	// Submit mix of successful and failing work
	for i := 0; i < 10; i++ {
		work := testWork{
			id:   i,
			fail: i%2 == 0, // Half will fail
		}
		err := pool.Submit(work)
		if err != nil {
			t.Errorf("Failed to submit work %d: %v", i, err)
		}
	}

	if err := pool.Stop(5 * time.Second); err != nil {
		t.Fatalf("Failed to stop pool: %v", err)
	}

	success := atomic.LoadInt64(&successCount)
	errCount := atomic.LoadInt64(&errorCount)

	if success != 5 {
		t.Errorf("Expected 5 successful processes, got %d", success)
	}
	if errCount != 5 {
		t.Errorf("Expected 5 failed processes, got %d", errCount)
	}

	stats := pool.Stats()
	if stats.Processed != 10 {
		t.Errorf("Expected 10 processed items in stats, got %d", stats.Processed)
	}
	if stats.Failed != 5 {
		t.Errorf("Expected 5 failed items in stats, got %d", stats.Failed)
	}
}

func TestPool_ContextCancellation(t *testing.T) {
	var processedCount int64

	processor := func(ctx context.Context, work testWork) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			time.Sleep(work.delay)
			atomic.AddInt64(&processedCount, 1)
			return nil
		}
	}

	pool := NewPool(2, 10, processor)

	ctx, cancel := context.WithCancel(context.Background())
	err := pool.Start(ctx)
	if err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}

	for i := 0; i < 5; i++ {
		err := pool.Submit(testWork{
			id:    i,
			delay: 50 * time.Millisecond,
		})
		if err != nil {
			t.Errorf("Failed to submit work %d: %v", i, err)
		}
	}

	// Cancel context quickly
	time.Sleep(10 * time.Millisecond)
	cancel()

	err = pool.Stop(5 * time.Second)
	if err != nil {
		t.Fatalf("Failed to stop pool: %v", err)
	}

	// Some work might be processed before cancellation
	processed := atomic.LoadInt64(&processedCount)
	t.Logf("Processed %d items before cancellation", processed)
}

func TestPool_ConcurrentSubmissions(t *testing.T) {
	var processedCount int64

	processor := func(_ context.Context, _ testWork) error {
		atomic.AddInt64(&processedCount, 1)
		return nil
	}

	pool := NewPool(5, 100, processor)

	ctx := context.Background()
	err := pool.Start(ctx)
	if err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}

	var wg sync.WaitGroup
	submitters := 10
	workPerSubmitter := 10

	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func(submitterID int) {
			defer wg.Done()
			for j := 0; j < workPerSubmitter; j++ {
				work := testWork{
					id: submitterID*workPerSubmitter + j,
				}
				err := pool.Submit(work)
				if err != nil {
					t.Errorf("Submitter %d failed to submit work %d: %v", submitterID, j, err)
				}
			}
		}(i)
	}

	wg.Wait()

	if err := pool.Stop(5 * time.Second); err != nil {
		t.Fatalf("Failed to stop pool: %v", err)
	}

	processed := atomic.LoadInt64(&processedCount)
	expected := int64(submitters * workPerSubmitter)
	if processed != expected {
		t.Errorf("Expected %d processed items, got %d", expected, processed)
	}
}

func TestPool_Stats(t *testing.T) {
	processor := func(ctx context.Context, _ testWork) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
			return nil
		}
	}

	pool := NewPool(3, 50, processor)

	stats := pool.Stats()
	if stats.Workers != 3 {
		t.Errorf("Expected 3 workers in stats, got %d", stats.Workers)
	}
	if stats.QueueSize != 50 {
		t.Errorf("Expected queue size 50 in stats, got %d", stats.QueueSize)
	}
	if stats.Submitted != 0 {
		t.Errorf("Expected 0 submitted initially, got %d", stats.Submitted)
	}

	ctx := context.Background()
	err := pool.Start(ctx)
	if err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}
	defer pool.Stop(5 * time.Second)

	for i := 0; i < 10; i++ {
		_ = pool.Submit(testWork{id: i})
	}

	time.Sleep(50 * time.Millisecond) // Give some time for processing
	stats = pool.Stats()

	if stats.Submitted != 10 {
		t.Errorf("Expected 10 submitted in stats, got %d", stats.Submitted)
	}

	if stats.Processed <= 0 || stats.Processed > stats.Submitted {
		t.Errorf("Invalid processed count in stats: %d (submitted: %d)", stats.Processed, stats.Submitted)
	}
}
