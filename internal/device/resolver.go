// Package device resolves the stable identifier that scopes every task query
// to one installation.
package device

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"time"

	"github.com/ytakahashi/device-tasks/internal/kv"
)

// Source says where a resolved identifier came from.
type Source int

const (
	// SourceCached means the identifier was already persisted locally.
	SourceCached Source = iota
	// SourcePlatform means the OS installation id was used and persisted.
	SourcePlatform
	// SourceGenerated means a random identifier was generated and persisted.
	SourceGenerated
	// SourceFallback means resolution failed and an unpersisted random
	// identifier was returned instead.
	SourceFallback
)

func (s Source) String() string {
	switch s {
	case SourceCached:
		return "cached"
	case SourcePlatform:
		return "platform"
	case SourceGenerated:
		return "generated"
	case SourceFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Resolution is reported to the observer after every Resolve call.
type Resolution struct {
	ID     string
	Source Source
	Err    error // set only for SourceFallback
}

// Platform queries the operating system for an installation identifier.
// An empty string with a nil error means the platform has none.
type Platform interface {
	InstallationID(ctx context.Context) (string, error)
}

// Resolver produces the device identifier. It never returns an error.
type Resolver struct {
	store    kv.Store
	platform Platform
	generate func() string
	observe  func(Resolution)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithGenerator replaces the random identifier generator.
func WithGenerator(fn func() string) Option {
	return func(r *Resolver) { r.generate = fn }
}

// WithObserver registers a hook called with the outcome of every resolution.
func WithObserver(fn func(Resolution)) Option {
	return func(r *Resolver) { r.observe = fn }
}

// NewResolver creates a resolver persisting to store. platform may be nil.
func NewResolver(store kv.Store, platform Platform, opts ...Option) *Resolver {
	r := &Resolver{
		store:    store,
		platform: platform,
		generate: GenerateID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the persisted identifier, resolving and persisting one on
// first use. Any failure is logged and masked with a fresh random identifier.
func (r *Resolver) Resolve(ctx context.Context) string {
	id, source, err := r.resolve(ctx)
	if err != nil {
		log.Printf("Failed to resolve device id: %v", err)
		id = r.generate()
		source = SourceFallback
	}
	if r.observe != nil {
		r.observe(Resolution{ID: id, Source: source, Err: err})
	}
	return id
}

func (r *Resolver) resolve(ctx context.Context) (string, Source, error) {
	id, err := r.store.Get(ctx, kv.DeviceIDKey)
	if err == nil && id != "" {
		return id, SourceCached, nil
	}
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return "", SourceFallback, err
	}

	source := SourcePlatform
	id = ""
	if r.platform != nil {
		id, err = r.platform.InstallationID(ctx)
		if err != nil {
			return "", SourceFallback, fmt.Errorf("failed to query platform id: %w", err)
		}
	}
	if id == "" {
		id = r.generate()
		source = SourceGenerated
	}

	if err := r.store.Set(ctx, kv.DeviceIDKey, id); err != nil {
		return "", SourceFallback, err
	}
	return id, source, nil
}

// GenerateID returns a base36 millisecond timestamp followed by a random
// base36 suffix. It is not a security boundary.
func GenerateID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + strconv.FormatUint(rand.Uint64(), 36)
}
