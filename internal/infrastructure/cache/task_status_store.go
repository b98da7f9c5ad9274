package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/crm/backend/internal/domain/task"
)

const taskStatusKeyPrefix = "task:status:"

// RedisTaskStatusStore mirrors task progress into Redis so that status
// polling does not hit the database. Entries expire after the TTL; the
// task row remains the source of truth.
type RedisTaskStatusStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTaskStatusStore creates a store with an existing Redis client
func NewRedisTaskStatusStore(client *redis.Client, ttl time.Duration) *RedisTaskStatusStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisTaskStatusStore{
		client: client,
		ttl:    ttl,
	}
}

// Put stores the status snapshot for a task
func (s *RedisTaskStatusStore) Put(ctx context.Context, t *task.Task) error {
	snapshot := task.SnapshotOf(t)
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal task status: %w", err)
	}

	if err := s.client.Set(ctx, taskStatusKeyPrefix+t.ID.String(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache task status: %w", err)
	}
	return nil
}

// Get returns the cached snapshot, or nil when missing
func (s *RedisTaskStatusStore) Get(ctx context.Context, taskID uuid.UUID) (*task.StatusSnapshot, error) {
	data, err := s.client.Get(ctx, taskStatusKeyPrefix+taskID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read task status: %w", err)
	}

	var snapshot task.StatusSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task status: %w", err)
	}
	return &snapshot, nil
}

// Delete drops the cached snapshot
func (s *RedisTaskStatusStore) Delete(ctx context.Context, taskID uuid.UUID) error {
	return s.client.Del(ctx, taskStatusKeyPrefix+taskID.String()).Err()
}

// Ensure RedisTaskStatusStore implements StatusStore
var _ task.StatusStore = (*RedisTaskStatusStore)(nil)

// InMemoryTaskStatusStore is a StatusStore for tests and single-instance
// deployments without Redis. Entries never expire.
type InMemoryTaskStatusStore struct {
	mu        sync.RWMutex
	snapshots map[uuid.UUID]*task.StatusSnapshot
}

// NewInMemoryTaskStatusStore creates an in-memory status store
func NewInMemoryTaskStatusStore() *InMemoryTaskStatusStore {
	return &InMemoryTaskStatusStore{
		snapshots: make(map[uuid.UUID]*task.StatusSnapshot),
	}
}

// Put stores the status snapshot for a task
func (s *InMemoryTaskStatusStore) Put(_ context.Context, t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[t.ID] = task.SnapshotOf(t)
	return nil
}

// Get returns the cached snapshot, or nil when missing
func (s *InMemoryTaskStatusStore) Get(_ context.Context, taskID uuid.UUID) (*task.StatusSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.snapshots[taskID]
	if !ok {
		return nil, nil
	}
	copied := *snapshot
	return &copied, nil
}

// Delete drops the cached snapshot
func (s *InMemoryTaskStatusStore) Delete(_ context.Context, taskID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, taskID)
	return nil
}

// Ensure InMemoryTaskStatusStore implements StatusStore
var _ task.StatusStore = (*InMemoryTaskStatusStore)(nil)
