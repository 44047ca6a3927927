// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package storage persists completed simulation runs for the HTTP API. The
// in-memory backend is the only implementation today; the Backend interface
// leaves room for a durable store behind the same surface.
package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/luxfi/adsim/core"
	"github.com/luxfi/adsim/pkg/analytics"
)

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is one completed simulation run.
type RunRecord struct {
	ID        uuid.UUID          `json:"id"`
	CreatedAt time.Time          `json:"created_at"`
	Seed      int64              `json:"seed"`
	Horizon   int                `json:"horizon"`
	Events    []core.EventResult `json:"events"`
	Report    *analytics.Report  `json:"report"`
}

// Backend stores and retrieves run records.
type Backend interface {
	SaveRun(ctx context.Context, rec *RunRecord) error
	GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]*RunRecord, error)
	Close() error
}

// MemoryBackend keeps run records in memory.
type MemoryBackend struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*RunRecord
}

// NewMemoryBackend creates an empty in-memory store.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{runs: make(map[uuid.UUID]*RunRecord)}
}

// SaveRun stores a record, assigning an ID and timestamp if unset.
func (b *MemoryBackend) SaveRun(ctx context.Context, rec *RunRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	b.runs[rec.ID] = rec
	return nil
}

// GetRun retrieves a record by ID.
func (b *MemoryBackend) GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return rec, nil
}

// ListRuns returns records newest first, at most limit (0 for all).
func (b *MemoryBackend) ListRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	records := make([]*RunRecord, 0, len(b.runs))
	for _, rec := range b.runs {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Close releases the store.
func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runs = nil
	return nil
}
