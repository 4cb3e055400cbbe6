package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/arrebarritra/inviwo/errors"
	"github.com/arrebarritra/inviwo/natsclient"
)

// Record wraps a document with identity, revision and audit metadata for
// storage
type Record struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Revision implements optimistic concurrency: updates must carry the
	// revision they read.
	Revision int64 `json:"revision"`

	Document *Document `json:"document"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists workspace records in a NATS KV bucket
type Store struct {
	bucket jetstream.KeyValue
	kv     *natsclient.KVStore
}

// BucketName is the KV bucket holding workspace records
const BucketName = "inviwo_workspaces"

// NewStore creates the workspace store, creating the bucket if needed
func NewStore(ctx context.Context, client *natsclient.Client) (*Store, error) {
	if client == nil {
		return nil, errors.WrapInvalid(fmt.Errorf("nil client"),
			"workspace", "NewStore", "argument check")
	}

	bucket, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      BucketName,
		Description: "Serialized processor networks",
		History:     10,
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "workspace", "NewStore", "create KV bucket")
	}
	return &Store{bucket: bucket, kv: client.NewKVStore(bucket)}, nil
}

// Create stores a new record. An empty ID gets a generated one. Fails
// when the ID already exists.
func (s *Store) Create(ctx context.Context, rec *Record) error {
	if rec == nil || rec.Document == nil {
		return errors.WrapInvalid(fmt.Errorf("nil record or document"),
			"workspace", "Create", "argument check")
	}
	if err := rec.Document.Validate(); err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	rec.Revision = 1
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	data, err := json.Marshal(rec)
	if err != nil {
		return errors.WrapFatal(err, "workspace", "Create", "record encoding")
	}
	if _, err := s.kv.Create(ctx, rec.ID, data); err != nil {
		return errors.WrapTransient(err, "workspace", "Create", "KV create")
	}
	return nil
}

// Get retrieves a record by ID
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, errors.WrapInvalid(fmt.Errorf("empty id"),
			"workspace", "Get", "argument check")
	}

	entry, err := s.kv.Get(ctx, id)
	if err != nil {
		return nil, errors.WrapTransient(err, "workspace", "Get", "KV get")
	}

	var rec Record
	if err := json.Unmarshal(entry.Value, &rec); err != nil {
		return nil, errors.WrapFatal(err, "workspace", "Get", "record decoding")
	}
	return &rec, nil
}

// Update overwrites a record. The stored revision must match the
// record's; a mismatch means someone else updated in between.
func (s *Store) Update(ctx context.Context, rec *Record) error {
	if rec == nil || rec.ID == "" || rec.Document == nil {
		return errors.WrapInvalid(fmt.Errorf("incomplete record"),
			"workspace", "Update", "argument check")
	}
	if err := rec.Document.Validate(); err != nil {
		return err
	}

	current, err := s.Get(ctx, rec.ID)
	if err != nil {
		return err
	}
	if current.Revision != rec.Revision {
		return errors.WrapTransient(
			fmt.Errorf("%w: stored revision %d, submitted %d",
				errors.ErrVersionConflict, current.Revision, rec.Revision),
			"workspace", "Update", "revision check")
	}

	rec.Revision++
	rec.CreatedAt = current.CreatedAt
	rec.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(rec)
	if err != nil {
		return errors.WrapFatal(err, "workspace", "Update", "record encoding")
	}
	if _, err := s.kv.Put(ctx, rec.ID, data); err != nil {
		return errors.WrapTransient(err, "workspace", "Update", "KV put")
	}
	return nil
}

// Delete removes a record by ID
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.WrapInvalid(fmt.Errorf("empty id"),
			"workspace", "Delete", "argument check")
	}
	if err := s.kv.Delete(ctx, id); err != nil {
		return errors.WrapTransient(err, "workspace", "Delete", "KV delete")
	}
	return nil
}

// List retrieves all stored records
func (s *Store) List(ctx context.Context) ([]*Record, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return nil, errors.WrapTransient(err, "workspace", "List", "KV keys")
	}

	records := make([]*Record, 0, len(keys))
	for _, key := range keys {
		rec, err := s.Get(ctx, key)
		if err != nil {
			return nil, errors.WrapTransient(err, "workspace", "List",
				fmt.Sprintf("get record %s", key))
		}
		records = append(records, rec)
	}
	return records, nil
}
