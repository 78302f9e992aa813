package remote

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/ytakahashi/device-tasks/internal/models"
)

// Memory is an in-process Store with Firestore-like semantics: generated
// document ids, deviceId filtering, and full-result snapshots pushed to
// watchers on every change. Bursts of changes may be coalesced into one
// snapshot.
type Memory struct {
	mu       sync.Mutex
	docs     []models.Task
	watchers map[*memoryWatch]struct{}

	// NewID assigns document ids. Defaults to random UUIDs.
	NewID func() string

	// Error injection for tests. Set directly before use, or through
	// SetAddErr while other goroutines are calling the store.
	AddErr    error
	QueryErr  error
	DeleteErr error

	// Call counters
	Adds    int
	Deletes int
}

func NewMemory() *Memory {
	return &Memory{
		watchers: make(map[*memoryWatch]struct{}),
		NewID:    uuid.NewString,
	}
}

// Put stores task as-is under its own id without counting as an Add.
func (m *Memory) Put(task models.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, task)
	m.notifyLocked(task.DeviceID)
}

// All returns every stored document regardless of device.
func (m *Memory) All() []models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Task(nil), m.docs...)
}

// SetAddErr makes subsequent Adds fail with err, or succeed again if nil.
func (m *Memory) SetAddErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddErr = err
}

// WatchCount reports how many watches are still attached.
func (m *Memory) WatchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watchers)
}

func (m *Memory) Add(ctx context.Context, task models.NewTask) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddErr != nil {
		return models.Task{}, m.AddErr
	}

	doc := models.Task{
		ID:        m.NewID(),
		Title:     task.Title,
		CreatedAt: task.CreatedAt,
		DeviceID:  task.DeviceID,
	}
	m.docs = append(m.docs, doc)
	m.Adds++
	m.notifyLocked(doc.DeviceID)
	return doc, nil
}

func (m *Memory) Query(ctx context.Context, deviceID string) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	return m.filterLocked(deviceID), nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.Deletes++

	for i, doc := range m.docs {
		if doc.ID == id {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			m.notifyLocked(doc.DeviceID)
			return nil
		}
	}
	return nil
}

func (m *Memory) Watch(ctx context.Context, deviceID string) Snapshots {
	w := &memoryWatch{
		store:    m,
		deviceID: deviceID,
		ctx:      ctx,
		ready:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	m.mu.Lock()
	m.watchers[w] = struct{}{}
	w.push(m.filterLocked(deviceID))
	m.mu.Unlock()
	return w
}

func (m *Memory) Close() error {
	m.mu.Lock()
	watchers := make([]*memoryWatch, 0, len(m.watchers))
	for w := range m.watchers {
		watchers = append(watchers, w)
	}
	m.mu.Unlock()

	for _, w := range watchers {
		w.Stop()
	}
	return nil
}

func (m *Memory) filterLocked(deviceID string) []models.Task {
	tasks := []models.Task{}
	for _, doc := range m.docs {
		if doc.DeviceID == deviceID {
			tasks = append(tasks, doc)
		}
	}
	return tasks
}

func (m *Memory) notifyLocked(deviceID string) {
	var snapshot []models.Task
	for w := range m.watchers {
		if w.deviceID != deviceID {
			continue
		}
		if snapshot == nil {
			snapshot = m.filterLocked(deviceID)
		}
		w.push(snapshot)
	}
}

type memoryWatch struct {
	store    *Memory
	deviceID string
	ctx      context.Context

	mu      sync.Mutex
	pending []models.Task
	ready   chan struct{}

	done     chan struct{}
	stopOnce sync.Once
}

// push replaces any undelivered snapshot with tasks.
func (w *memoryWatch) push(tasks []models.Task) {
	w.mu.Lock()
	w.pending = tasks
	w.mu.Unlock()

	select {
	case w.ready <- struct{}{}:
	default:
	}
}

func (w *memoryWatch) Next() ([]models.Task, error) {
	select {
	case <-w.done:
		return nil, iterator.Done
	default:
	}

	select {
	case <-w.ready:
		w.mu.Lock()
		tasks := append([]models.Task(nil), w.pending...)
		w.mu.Unlock()
		return tasks, nil
	case <-w.done:
		return nil, iterator.Done
	case <-w.ctx.Done():
		return nil, w.ctx.Err()
	}
}

func (w *memoryWatch) Stop() {
	w.stopOnce.Do(func() {
		w.store.mu.Lock()
		delete(w.store.watchers, w)
		w.store.mu.Unlock()
		close(w.done)
	})
}
