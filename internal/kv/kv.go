// Package kv provides the on-device string-keyed persistence used for the
// task cache and the device identifier.
package kv

import (
	"context"
	"errors"
)

// Keys used by the application.
const (
	TasksKey    = "@tasks"
	DeviceIDKey = "@device_id"
)

// ErrNotFound is returned by Get when the key has never been set.
var ErrNotFound = errors.New("key not found")

// Store is a string-keyed get/set store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}
