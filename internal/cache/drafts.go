// Package cache keeps in-progress edit drafts in Redis between HTTP requests.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/pimtask/internal/draft"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultDraftTTL is how long an untouched draft is kept
	DefaultDraftTTL = 24 * time.Hour

	draftKeyPrefix  = "pimtask:draft:"
	deleteKeyPrefix = "pimtask:delete:"
)

// ErrDraftNotFound is returned when a draft expired or never existed
var ErrDraftNotFound = errors.New("draft not found")

// DraftRecord is a stored edit: the draft plus what the session needs to resume it
type DraftRecord struct {
	Draft      *draft.Draft `json:"draft"`
	OriginalID *uuid.UUID   `json:"original_id,omitempty"`
	State      string       `json:"state"`
	LastError  string       `json:"last_error,omitempty"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// DraftStore is the storage for draft records and pending delete requests
type DraftStore interface {
	Save(ctx context.Context, rec *DraftRecord) error
	Load(ctx context.Context, uid uuid.UUID) (*DraftRecord, error)
	Remove(ctx context.Context, uid uuid.UUID) error
	RequestDelete(ctx context.Context, taskID uuid.UUID) error
	DeletePending(ctx context.Context, taskID uuid.UUID) (bool, error)
	TakeDeleteRequest(ctx context.Context, taskID uuid.UUID) (bool, error)
	CancelDeleteRequest(ctx context.Context, taskID uuid.UUID) error
}

// RedisDraftStore implements DraftStore on Redis
type RedisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient parses redisURL and verifies the connection
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisDraftStore creates a draft store. A non-positive ttl uses DefaultDraftTTL.
func NewRedisDraftStore(client *redis.Client, ttl time.Duration) *RedisDraftStore {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &RedisDraftStore{client: client, ttl: ttl}
}

// Save writes rec and refreshes its expiry
func (s *RedisDraftStore) Save(ctx context.Context, rec *DraftRecord) error {
	if rec == nil || rec.Draft == nil {
		return fmt.Errorf("draft record is empty")
	}
	rec.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	if err := s.client.Set(ctx, draftKey(rec.Draft.UID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Load reads the record for uid
func (s *RedisDraftStore) Load(ctx context.Context, uid uuid.UUID) (*DraftRecord, error) {
	data, err := s.client.Get(ctx, draftKey(uid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	rec := &DraftRecord{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	if rec.Draft == nil {
		return nil, ErrDraftNotFound
	}
	return rec, nil
}

// Remove discards the record for uid
func (s *RedisDraftStore) Remove(ctx context.Context, uid uuid.UUID) error {
	if err := s.client.Del(ctx, draftKey(uid)).Err(); err != nil {
		return fmt.Errorf("failed to remove draft: %w", err)
	}
	return nil
}

// RequestDelete records the first step of a two-step delete
func (s *RedisDraftStore) RequestDelete(ctx context.Context, taskID uuid.UUID) error {
	if err := s.client.Set(ctx, deleteKey(taskID), "1", s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to record delete request: %w", err)
	}
	return nil
}

// DeletePending reports whether a delete request awaits confirmation
func (s *RedisDraftStore) DeletePending(ctx context.Context, taskID uuid.UUID) (bool, error) {
	n, err := s.client.Exists(ctx, deleteKey(taskID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read delete request: %w", err)
	}
	return n > 0, nil
}

// TakeDeleteRequest consumes a pending delete request, reporting whether one existed
func (s *RedisDraftStore) TakeDeleteRequest(ctx context.Context, taskID uuid.UUID) (bool, error) {
	n, err := s.client.Del(ctx, deleteKey(taskID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to take delete request: %w", err)
	}
	return n > 0, nil
}

// CancelDeleteRequest withdraws a pending delete request
func (s *RedisDraftStore) CancelDeleteRequest(ctx context.Context, taskID uuid.UUID) error {
	if err := s.client.Del(ctx, deleteKey(taskID)).Err(); err != nil {
		return fmt.Errorf("failed to cancel delete request: %w", err)
	}
	return nil
}

func draftKey(uid uuid.UUID) string {
	return draftKeyPrefix + uid.String()
}

func deleteKey(taskID uuid.UUID) string {
	return deleteKeyPrefix + taskID.String()
}

var _ DraftStore = (*RedisDraftStore)(nil)
