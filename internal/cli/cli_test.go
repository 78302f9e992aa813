package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ytakahashi/device-tasks/internal/services"
)

func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var out bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--remote", "memory", "--local", "sqlite", "--data-dir", dataDir}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_ListEmpty(t *testing.T) {
	out, err := run(t, t.TempDir(), "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "No tasks found") {
		t.Errorf("expected empty-state message, got %q", out)
	}
}

func TestCLI_DefaultsToList(t *testing.T) {
	out, err := run(t, t.TempDir())
	if err != nil {
		t.Fatalf("root failed: %v", err)
	}
	if !strings.HasPrefix(out, "Tasks") {
		t.Errorf("expected rendered list, got %q", out)
	}
}

func TestCLI_AddRejectsBlankTitle(t *testing.T) {
	_, err := run(t, t.TempDir(), "add", " ")
	if !errors.Is(err, services.ErrEmptyTitle) {
		t.Errorf("expected ErrEmptyTitle, got %v", err)
	}
}

func TestCLI_AddPrintsID(t *testing.T) {
	out, err := run(t, t.TempDir(), "add", "Buy", "milk")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if strings.TrimSpace(out) == "" {
		t.Error("expected the new task id")
	}
}

func TestCLI_DeviceIDIsStable(t *testing.T) {
	dir := t.TempDir()

	first, err := run(t, dir, "device-id")
	if err != nil {
		t.Fatalf("device-id failed: %v", err)
	}
	second, err := run(t, dir, "device-id")
	if err != nil {
		t.Fatalf("device-id failed: %v", err)
	}

	id1 := strings.Fields(first)[0]
	id2 := strings.Fields(second)[0]
	if id1 != id2 {
		t.Errorf("expected stable id, got %q then %q", id1, id2)
	}
	if !strings.Contains(second, "cached") {
		t.Errorf("expected second resolution from cache, got %q", second)
	}
}

func TestCLI_SyncRendersList(t *testing.T) {
	out, err := run(t, t.TempDir(), "sync")
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if !strings.Contains(out, "No tasks found") {
		t.Errorf("expected rendered empty list, got %q", out)
	}
}

func TestCLI_UnknownBackend(t *testing.T) {
	if _, err := run(t, t.TempDir(), "--remote", "mongo", "list"); err == nil {
		t.Error("expected error for unknown remote backend")
	}
}
