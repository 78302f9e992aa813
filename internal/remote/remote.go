// Package remote is the shared document store holding every device's tasks.
// Callers construct a store explicitly and Close it when done.
package remote

import (
	"context"

	"github.com/ytakahashi/device-tasks/internal/models"
)

// DefaultCollection is the collection task documents live in.
const DefaultCollection = "tasks"

// Store is a document collection of tasks partitioned by deviceId.
type Store interface {
	// Add inserts a new document and returns it with its assigned id.
	Add(ctx context.Context, task models.NewTask) (models.Task, error)

	// Query returns every task whose deviceId equals deviceID.
	Query(ctx context.Context, deviceID string) ([]models.Task, error)

	// Delete removes the document with the given id. Deleting a missing
	// document is not an error.
	Delete(ctx context.Context, id string) error

	// Watch starts a standing query for deviceID.
	Watch(ctx context.Context, deviceID string) Snapshots

	Close() error
}

// Snapshots is a standing query. Every Next returns the full current result
// set; the first call returns the initial load.
type Snapshots interface {
	// Next blocks until the result set changes. It returns iterator.Done
	// once Stop has been called.
	Next() ([]models.Task, error)

	// Stop detaches the query.
	Stop()
}
