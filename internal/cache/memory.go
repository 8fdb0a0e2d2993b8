// Copyright (c) Gabriel de Quadros Ligneul
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// This package contains the response caches used by the tmdb client.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

const (
	DefaultTTL     = 5 * time.Minute
	DefaultMaxCost = 64 << 20 // 64 MiB of response bodies

	// average size of a movie database response, used to size the admission counters
	averageEntrySize = 4 << 10
)

// Memory is an in-process cache bounded by the total size of the stored bodies.
type Memory struct {
	cache *ristretto.Cache[string, []byte]
	ttl   time.Duration
}

func NewMemory(ttl time.Duration, maxCost int64) (*Memory, error) {
	if maxCost <= 0 {
		maxCost = DefaultMaxCost
	}
	numCounters := max(maxCost/averageEntrySize*10, 1000)
	// cost is the body length only
	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters:        numCounters,
		MaxCost:            maxCost,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: create memory cache: %w", err)
	}
	return &Memory{cache: cache, ttl: ttl}, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	return m.cache.Get(key)
}

func (m *Memory) Set(_ context.Context, key string, value []byte) {
	m.cache.SetWithTTL(key, value, int64(len(value)), m.ttl)
}

// GetWithExpiry also returns when the entry expires.
func (m *Memory) GetWithExpiry(_ context.Context, key string) ([]byte, time.Time, bool) {
	value, ok := m.cache.Get(key)
	if !ok {
		return nil, time.Time{}, false
	}
	var expiresAt time.Time
	if ttl, ok := m.cache.GetTTL(key); ok && ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	return value, expiresAt, true
}

// SetUntil stores the value until expiresAt. Entries already expired are
// dropped.
func (m *Memory) SetUntil(_ context.Context, key string, value []byte, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	m.cache.SetWithTTL(key, value, int64(len(value)), ttl)
}

// Wait blocks until pending writes are visible to Get.
func (m *Memory) Wait() {
	m.cache.Wait()
}

func (m *Memory) Close() {
	m.cache.Close()
}
