package pipestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/flowpipe/errors"
	"github.com/c360/flowpipe/natsclient"
)

// BucketName is the KV bucket pipeline definitions live in.
const BucketName = "flowpipe_pipelines"

// Store persists pipeline definitions in NATS KV. Updates are
// compare-and-swap on the KV revision, so two writers racing on the same
// definition cannot silently clobber each other.
type Store struct {
	kv *natsclient.KVStore
}

// NewStore creates the pipeline bucket if needed and returns a store
// bound to it.
func NewStore(client *natsclient.Client) (*Store, error) {
	if client == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "pipestore", "NewStore", "client presence")
	}

	ctx := context.Background()
	bucket, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      BucketName,
		Description: "Pipeline definitions",
		History:     10,
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "pipestore", "NewStore", "create KV bucket")
	}

	return &Store{kv: client.NewKVStore(bucket)}, nil
}

// Create stores a new definition. The definition is validated first and
// the write fails if the ID is already taken.
func (s *Store) Create(ctx context.Context, p *Pipeline) error {
	if p == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "pipestore", "Create", "definition presence")
	}

	p.Version = 1
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := p.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return errors.WrapFatal(err, "pipestore", "Create", "marshal definition")
	}

	if _, err := s.kv.Create(ctx, p.ID, data); err != nil {
		if natsclient.IsKVConflictError(err) {
			return errors.WrapInvalid(err, "pipestore", "Create",
				fmt.Sprintf("pipeline %q already exists", p.ID))
		}
		return errors.WrapTransient(err, "pipestore", "Create", "create in KV")
	}
	return nil
}

// Get retrieves a definition by ID.
func (s *Store) Get(ctx context.Context, id string) (*Pipeline, error) {
	p, _, err := s.getWithRevision(ctx, id)
	return p, err
}

func (s *Store) getWithRevision(ctx context.Context, id string) (*Pipeline, uint64, error) {
	if id == "" {
		return nil, 0, errors.WrapInvalid(errors.ErrInvalidConfig, "pipestore", "Get", "id presence")
	}

	entry, err := s.kv.Get(ctx, id)
	if err != nil {
		if natsclient.IsKVNotFoundError(err) {
			return nil, 0, errors.WrapInvalid(err, "pipestore", "Get",
				fmt.Sprintf("pipeline %q not found", id))
		}
		return nil, 0, errors.WrapTransient(err, "pipestore", "Get", "get from KV")
	}

	var p Pipeline
	if err := json.Unmarshal(entry.Value, &p); err != nil {
		return nil, 0, errors.WrapFatal(err, "pipestore", "Get", "unmarshal definition")
	}
	return &p, entry.Revision, nil
}

// Update replaces an existing definition. The caller's Version must match
// the stored one; the write itself is a KV compare-and-swap, so even a
// racing writer that passed the version check loses cleanly.
func (s *Store) Update(ctx context.Context, p *Pipeline) error {
	if p == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "pipestore", "Update", "definition presence")
	}

	current, revision, err := s.getWithRevision(ctx, p.ID)
	if err != nil {
		return err
	}
	if current.Version != p.Version {
		return errors.WrapInvalid(
			fmt.Errorf("version mismatch: stored %d, submitted %d", current.Version, p.Version),
			"pipestore", "Update", "optimistic concurrency check")
	}

	p.Version++
	p.UpdatedAt = time.Now().UTC()
	p.CreatedAt = current.CreatedAt

	if err := p.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return errors.WrapFatal(err, "pipestore", "Update", "marshal definition")
	}

	if _, err := s.kv.Update(ctx, p.ID, data, revision); err != nil {
		if natsclient.IsKVConflictError(err) {
			return errors.WrapInvalid(err, "pipestore", "Update", "definition changed concurrently")
		}
		return errors.WrapTransient(err, "pipestore", "Update", "update in KV")
	}
	return nil
}

// Delete removes a definition by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "pipestore", "Delete", "id presence")
	}
	if err := s.kv.Delete(ctx, id); err != nil {
		return errors.WrapTransient(err, "pipestore", "Delete", "delete from KV")
	}
	return nil
}

// List retrieves every stored definition.
func (s *Store) List(ctx context.Context) ([]*Pipeline, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return nil, errors.WrapTransient(err, "pipestore", "List", "list KV keys")
	}

	pipelines := make([]*Pipeline, 0, len(keys))
	for _, key := range keys {
		p, err := s.Get(ctx, key)
		if err != nil {
			return nil, errors.Wrap(err, "pipestore", "List",
				fmt.Sprintf("get pipeline %q", key))
		}
		pipelines = append(pipelines, p)
	}
	return pipelines, nil
}

// Watch streams changes to stored definitions, for callers keeping a
// local view current.
func (s *Store) Watch(ctx context.Context) (jetstream.KeyWatcher, error) {
	w, err := s.kv.Watch(ctx, ">")
	if err != nil {
		return nil, errors.WrapTransient(err, "pipestore", "Watch", "create watcher")
	}
	return w, nil
}
