package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ytakahashi/device-tasks/internal/kv"
	"github.com/ytakahashi/device-tasks/internal/models"
)

// LocalCache is the on-device mirror of the remote task set, stored as one
// JSON array under kv.TasksKey. Order is insertion order.
type LocalCache struct {
	store kv.Store
}

func NewLocalCache(store kv.Store) *LocalCache {
	return &LocalCache{store: store}
}

// Load returns the cached tasks. A cache that was never written is empty.
func (c *LocalCache) Load(ctx context.Context) ([]models.Task, error) {
	raw, err := c.store.Get(ctx, kv.TasksKey)
	if errors.Is(err, kv.ErrNotFound) || (err == nil && raw == "") {
		return []models.Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load local tasks: %w", err)
	}

	tasks := []models.Task{}
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode local tasks: %w", err)
	}
	return tasks, nil
}

// Save overwrites the cache with tasks.
func (c *LocalCache) Save(ctx context.Context, tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to encode local tasks: %w", err)
	}
	if err := c.store.Set(ctx, kv.TasksKey, string(data)); err != nil {
		return fmt.Errorf("failed to save local tasks: %w", err)
	}
	return nil
}
