package services

import (
	"context"
	"errors"
	"log"
	"sync"

	"google.golang.org/api/iterator"

	"github.com/ytakahashi/device-tasks/internal/models"
	"github.com/ytakahashi/device-tasks/internal/remote"
)

// Subscription streams the full remote task list for one device. Each list
// is mirrored into the local cache before it is delivered.
type Subscription struct {
	updates chan []models.Task
	cancel  context.CancelFunc
	snaps   remote.Snapshots
	once    sync.Once

	mu  sync.Mutex
	err error
}

// Subscribe starts a live query for this device's tasks. The stream ends
// when Cancel is called, ctx is done, or the remote store fails. In every
// case the live query is stopped and Updates is closed.
func (s *TaskService) Subscribe(ctx context.Context) *Subscription {
	deviceID := s.resolver.Resolve(ctx)
	ctx, cancel := context.WithCancel(ctx)

	sub := &Subscription{
		updates: make(chan []models.Task),
		cancel:  cancel,
		snaps:   s.remote.Watch(ctx, deviceID),
	}
	go sub.run(ctx, s.cache)
	return sub
}

// run owns the snapshot iterator; Stop is only called from here since
// Next and Stop must not race.
func (sub *Subscription) run(ctx context.Context, cache *LocalCache) {
	defer close(sub.updates)
	defer sub.snaps.Stop()

	for {
		tasks, err := sub.snaps.Next()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, iterator.Done) {
				log.Printf("Task subscription ended: %v", err)
				sub.mu.Lock()
				sub.err = err
				sub.mu.Unlock()
			}
			return
		}

		if err := cache.Save(ctx, tasks); err != nil {
			log.Printf("Failed to mirror tasks locally: %v", err)
		}

		select {
		case sub.updates <- tasks:
		case <-ctx.Done():
			return
		}
	}
}

// Updates delivers each new task list. It is closed when the stream ends.
func (sub *Subscription) Updates() <-chan []models.Task {
	return sub.updates
}

// Cancel detaches the live query and ends the stream. Repeated calls are
// ignored.
func (sub *Subscription) Cancel() {
	sub.once.Do(sub.cancel)
}

// Err returns the remote error that ended the stream, if any.
func (sub *Subscription) Err() error {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.err
}
