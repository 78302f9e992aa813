package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/iterator"

	"github.com/ytakahashi/device-tasks/internal/models"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("r-%d", n)
	}
}

func TestMemory_AddQueryDelete(t *testing.T) {
	m := NewMemory()
	m.NewID = sequentialIDs()
	ctx := context.Background()
	now := time.Now()

	a, err := m.Add(ctx, models.NewTask{Title: "Buy milk", CreatedAt: now, DeviceID: "dev-1"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if a.ID != "r-1" {
		t.Errorf("expected id r-1, got %q", a.ID)
	}
	if _, err := m.Add(ctx, models.NewTask{Title: "Other device", CreatedAt: now, DeviceID: "dev-2"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := m.Add(ctx, models.NewTask{Title: "Walk dog", CreatedAt: now, DeviceID: "dev-1"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	tasks, err := m.Query(ctx, "dev-1")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks for dev-1, got %d", len(tasks))
	}

	if err := m.Delete(ctx, "r-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := m.Delete(ctx, "does-not-exist"); err != nil {
		t.Errorf("deleting a missing document should succeed, got %v", err)
	}

	tasks, _ = m.Query(ctx, "dev-1")
	if len(tasks) != 1 || tasks[0].ID != "r-3" {
		t.Errorf("expected only r-3 left, got %+v", tasks)
	}
	if len(m.All()) != 2 {
		t.Errorf("expected other device's task untouched, got %+v", m.All())
	}
}

func TestMemory_WatchDeliversFullResultSets(t *testing.T) {
	m := NewMemory()
	m.NewID = sequentialIDs()
	ctx := context.Background()
	m.Put(models.Task{ID: "1", Title: "Existing", DeviceID: "dev-1"})

	snaps := m.Watch(ctx, "dev-1")
	defer snaps.Stop()

	initial, err := snaps.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(initial) != 1 || initial[0].ID != "1" {
		t.Fatalf("expected initial load with task 1, got %+v", initial)
	}

	if _, err := m.Add(ctx, models.NewTask{Title: "New", DeviceID: "dev-1"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	updated, err := snaps.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(updated) != 2 {
		t.Errorf("expected full list of 2, got %+v", updated)
	}
}

func TestMemory_WatchStop(t *testing.T) {
	m := NewMemory()
	snaps := m.Watch(context.Background(), "dev-1")
	if _, err := snaps.Next(); err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	snaps.Stop()
	snaps.Stop()

	if _, err := snaps.Next(); err != iterator.Done {
		t.Errorf("expected iterator.Done after Stop, got %v", err)
	}
	if _, err := m.Add(context.Background(), models.NewTask{Title: "after", DeviceID: "dev-1"}); err != nil {
		t.Fatalf("Add after Stop failed: %v", err)
	}
	if n := m.WatchCount(); n != 0 {
		t.Errorf("expected watch detached after Stop, got %d", n)
	}
}

func TestMemory_WatchIgnoresOtherDevices(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	snaps := m.Watch(ctx, "dev-1")
	defer snaps.Stop()
	if _, err := snaps.Next(); err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	if _, err := m.Add(context.Background(), models.NewTask{Title: "elsewhere", DeviceID: "dev-2"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := snaps.Next(); err != context.DeadlineExceeded {
		t.Errorf("expected no snapshot for another device, got %v", err)
	}
}

func TestMemory_InjectedErrors(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	boom := errors.New("unavailable")
	m.AddErr, m.QueryErr, m.DeleteErr = boom, boom, boom

	if _, err := m.Add(ctx, models.NewTask{Title: "x", DeviceID: "dev-1"}); err != boom {
		t.Errorf("expected Add error, got %v", err)
	}
	if _, err := m.Query(ctx, "dev-1"); err != boom {
		t.Errorf("expected Query error, got %v", err)
	}
	if err := m.Delete(ctx, "x"); err != boom {
		t.Errorf("expected Delete error, got %v", err)
	}
	if m.Adds != 0 || m.Deletes != 0 || len(m.All()) != 0 {
		t.Errorf("expected failed calls to leave the store untouched, got %d adds, %d deletes", m.Adds, m.Deletes)
	}
}

func TestMemory_SetAddErrWhileAdding(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	boom := errors.New("unavailable")

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				m.SetAddErr(boom)
			} else {
				m.SetAddErr(nil)
			}
		}(i)
		go func() {
			defer wg.Done()
			_, err := m.Add(ctx, models.NewTask{Title: "t", DeviceID: "dev-1"})
			if err != nil && err != boom {
				t.Errorf("unexpected error: %v", err)
			}
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(m.All()) != succeeded || m.Adds != succeeded {
		t.Errorf("expected %d stored tasks, got %d (Adds=%d)", succeeded, len(m.All()), m.Adds)
	}
}
