package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ytakahashi/device-tasks/internal/kv"
	"github.com/ytakahashi/device-tasks/internal/models"
)

func TestLocalCache_EncodesDatesAsISOStrings(t *testing.T) {
	store := kv.NewMemory()
	cache := NewLocalCache(store)
	ctx := context.Background()

	saved := []models.Task{task("b", "second"), task("a", "first")}
	if err := cache.Save(ctx, saved); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, _ := store.Get(ctx, kv.TasksKey)
	if !strings.Contains(raw, `"createdAt":"2024-01-02T03:04:05Z"`) {
		t.Errorf("expected ISO-8601 createdAt in %s", raw)
	}

	loaded, err := cache.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 2 || loaded[0].ID != "b" || loaded[1].ID != "a" {
		t.Errorf("expected storage order preserved, got %+v", loaded)
	}
	if !loaded[0].CreatedAt.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("expected createdAt decoded, got %v", loaded[0].CreatedAt)
	}
}

func TestLocalCache_EmptyAndCorrupt(t *testing.T) {
	store := kv.NewMemory()
	cache := NewLocalCache(store)
	ctx := context.Background()

	tasks, err := cache.Load(ctx)
	if err != nil || len(tasks) != 0 {
		t.Errorf("expected empty cache, got %v (%v)", tasks, err)
	}

	store.Set(ctx, kv.TasksKey, "{not json")
	if _, err := cache.Load(ctx); err == nil {
		t.Error("expected decode error for corrupt cache")
	}
}
