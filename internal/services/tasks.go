// Package services owns all task data access: the local cache, the remote
// collection, CRUD, the merge sync and the live subscription.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ytakahashi/device-tasks/internal/kv"
	"github.com/ytakahashi/device-tasks/internal/models"
	"github.com/ytakahashi/device-tasks/internal/remote"
)

// ErrEmptyTitle is returned by Create for blank titles.
var ErrEmptyTitle = errors.New("task title must not be empty")

// DeviceResolver yields the identifier scoping all task queries.
type DeviceResolver interface {
	Resolve(ctx context.Context) string
}

type TaskService struct {
	remote   remote.Store
	cache    *LocalCache
	resolver DeviceResolver
	now      func() time.Time
}

func NewTaskService(store remote.Store, local kv.Store, resolver DeviceResolver) *TaskService {
	return &TaskService{
		remote:   store,
		cache:    NewLocalCache(local),
		resolver: resolver,
		now:      time.Now,
	}
}

// DeviceID resolves the current device identifier.
func (s *TaskService) DeviceID(ctx context.Context) string {
	return s.resolver.Resolve(ctx)
}

// LocalTasks returns the cached task list without touching the network.
func (s *TaskService) LocalTasks(ctx context.Context) ([]models.Task, error) {
	return s.cache.Load(ctx)
}

// Create inserts a task for this device. The title is validated trimmed
// but stored as given. The local cache is left to the live subscription.
func (s *TaskService) Create(ctx context.Context, title string) (models.Task, error) {
	if strings.TrimSpace(title) == "" {
		return models.Task{}, ErrEmptyTitle
	}

	task, err := s.remote.Add(ctx, models.NewTask{
		Title:     title,
		CreatedAt: s.now(),
		DeviceID:  s.resolver.Resolve(ctx),
	})
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// Delete removes the remote document with id. The local cache is left to
// the live subscription.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	return s.remote.Delete(ctx, id)
}

// Sync merges the local cache with the remote set by id union, writes the
// result to the cache and returns it.
//
// Local tasks unknown remotely are uploaded as new documents. The new
// document id is not written back over the local id, so the uploaded task
// shows up under both ids and is uploaded again by the next Sync until the
// cache is replaced by a live update. Uploads issued before a failure stay
// committed.
func (s *TaskService) Sync(ctx context.Context) ([]models.Task, error) {
	merged, err := s.sync(ctx)
	if err != nil {
		log.Printf("Failed to sync tasks: %v", err)
		return nil, err
	}
	return merged, nil
}

func (s *TaskService) sync(ctx context.Context) ([]models.Task, error) {
	deviceID := s.resolver.Resolve(ctx)

	local, err := s.cache.Load(ctx)
	if err != nil {
		return nil, err
	}

	remoteTasks, err := s.remote.Query(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query remote tasks: %w", err)
	}

	remoteIDs := models.IDs(remoteTasks)
	uploaded := 0
	for _, task := range local {
		if _, ok := remoteIDs[task.ID]; ok {
			continue
		}
		if _, err := s.remote.Add(ctx, models.NewTask{
			Title:     task.Title,
			CreatedAt: task.CreatedAt,
			DeviceID:  deviceID,
		}); err != nil {
			return nil, fmt.Errorf("failed to upload task %s: %w", task.ID, err)
		}
		uploaded++
	}

	localIDs := models.IDs(local)
	merged := append([]models.Task{}, local...)
	downloaded := 0
	for _, task := range remoteTasks {
		if _, ok := localIDs[task.ID]; ok {
			continue
		}
		merged = append(merged, task)
		downloaded++
	}

	if err := s.cache.Save(ctx, merged); err != nil {
		return nil, err
	}

	log.Printf("Synced tasks for device %s: %d uploaded, %d downloaded, %d total", deviceID, uploaded, downloaded, len(merged))
	return merged, nil
}
