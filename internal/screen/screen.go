// Package screen holds the task screen's view state and wires user actions
// to the task service.
package screen

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/ytakahashi/device-tasks/internal/models"
	"github.com/ytakahashi/device-tasks/internal/services"
)

// ErrSyncInProgress is returned when a sync is requested while one is running.
var ErrSyncInProgress = errors.New("sync already in progress")

// TaskService is the part of services.TaskService the screen uses.
type TaskService interface {
	Create(ctx context.Context, title string) (models.Task, error)
	Delete(ctx context.Context, id string) error
	Sync(ctx context.Context) ([]models.Task, error)
	Subscribe(ctx context.Context) *services.Subscription
}

// State is a snapshot of what the screen shows.
type State struct {
	Tasks   []models.Task `json:"tasks"`
	Input   string        `json:"input"`
	Syncing bool          `json:"syncing"`
}

type Screen struct {
	svc TaskService

	mu       sync.Mutex
	tasks    []models.Task
	input    string
	syncing  bool
	sub      *services.Subscription
	done     chan struct{}
	onChange func(State)
}

func New(svc TaskService) *Screen {
	return &Screen{svc: svc}
}

// OnChange registers a hook called after every state change. fn runs with
// the screen locked and must not call back into it.
func (s *Screen) OnChange(fn func(State)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Mount subscribes to live updates and runs the initial sync. A failed
// initial sync is logged; the screen still mounts.
func (s *Screen) Mount(ctx context.Context) {
	sub := s.svc.Subscribe(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.sub = sub
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		for tasks := range sub.Updates() {
			s.update(func() { s.tasks = tasks })
		}
	}()

	s.Sync(ctx)
}

// Unmount cancels the live subscription and waits for it to drain.
func (s *Screen) Unmount() {
	s.mu.Lock()
	sub, done := s.sub, s.done
	s.sub, s.done = nil, nil
	s.mu.Unlock()

	if sub == nil {
		return
	}
	sub.Cancel()
	<-done
}

// State returns a copy of the current view state.
func (s *Screen) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Screen) stateLocked() State {
	return State{
		Tasks:   append([]models.Task{}, s.tasks...),
		Input:   s.input,
		Syncing: s.syncing,
	}
}

func (s *Screen) SetInput(text string) {
	s.update(func() { s.input = text })
}

// Add submits the current input. Blank input does nothing and failures
// leave the state unchanged; both are logged by Submit.
func (s *Screen) Add(ctx context.Context) {
	s.mu.Lock()
	title := s.input
	s.mu.Unlock()

	s.Submit(ctx, title)
}

// Submit creates a task titled title. Blank titles return
// services.ErrEmptyTitle without a service call. On success the input is
// cleared if it still holds title. The list itself refreshes through the
// live subscription.
func (s *Screen) Submit(ctx context.Context, title string) error {
	if strings.TrimSpace(title) == "" {
		log.Printf("Ignoring blank task title")
		return services.ErrEmptyTitle
	}

	if _, err := s.svc.Create(ctx, title); err != nil {
		log.Printf("Failed to add task: %v", err)
		return err
	}
	s.update(func() {
		if s.input == title {
			s.input = ""
		}
	})
	return nil
}

// Delete removes the task with id. Failures are logged.
func (s *Screen) Delete(ctx context.Context, id string) {
	if err := s.svc.Delete(ctx, id); err != nil {
		log.Printf("Failed to delete task %s: %v", id, err)
	}
}

// Sync runs a merge sync and shows its result. While it runs the syncing
// flag is set and further calls return ErrSyncInProgress.
func (s *Screen) Sync(ctx context.Context) error {
	s.mu.Lock()
	if s.syncing {
		s.mu.Unlock()
		return ErrSyncInProgress
	}
	s.syncing = true
	s.notifyLocked()
	s.mu.Unlock()

	tasks, err := s.svc.Sync(ctx)

	s.update(func() {
		s.syncing = false
		if err == nil {
			s.tasks = tasks
		}
	})
	if err != nil {
		log.Printf("Failed to sync: %v", err)
	}
	return err
}

func (s *Screen) update(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
	s.notifyLocked()
}

func (s *Screen) notifyLocked() {
	if s.onChange != nil {
		s.onChange(s.stateLocked())
	}
}
