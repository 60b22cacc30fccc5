// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package kopia

import (
	"fmt"
	"iter"
	"slices"
)

// SourceMap maps SourceKeys to values and iterates in key order.
// The zero value is ready to use.
type SourceMap[T any] struct {
	entries map[SourceKey]T
}

// NewSourceMap returns an empty map.
func NewSourceMap[T any]() *SourceMap[T] {
	return &SourceMap[T]{entries: make(map[SourceKey]T)}
}

// Len returns the number of keys.
func (m *SourceMap[T]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// IsEmpty reports whether the map has no keys.
func (m *SourceMap[T]) IsEmpty() bool {
	return m.Len() == 0
}

// Get returns the value stored under key.
func (m *SourceMap[T]) Get(key SourceKey) (T, bool) {
	if m == nil {
		var zero T
		return zero, false
	}
	v, ok := m.entries[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (m *SourceMap[T]) Set(key SourceKey, value T) {
	if m.entries == nil {
		m.entries = make(map[SourceKey]T)
	}
	m.entries[key] = value
}

// Update replaces the value under key with fn applied to the current value
// (the zero value if the key is absent).
func (m *SourceMap[T]) Update(key SourceKey, fn func(T) T) {
	current, _ := m.Get(key)
	m.Set(key, fn(current))
}

// Keys returns all keys in ascending order.
func (m *SourceMap[T]) Keys() []SourceKey {
	if m == nil {
		return nil
	}
	keys := make([]SourceKey, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, SourceKey.Compare)
	return keys
}

// All iterates over entries in ascending key order.
func (m *SourceMap[T]) All() iter.Seq2[SourceKey, T] {
	return func(yield func(SourceKey, T) bool) {
		for _, k := range m.Keys() {
			if !yield(k, m.entries[k]) {
				return
			}
		}
	}
}

// Only returns the value under key when it is the only entry in the map.
func (m *SourceMap[T]) Only(key SourceKey) (T, error) {
	var zero T
	if n := m.Len(); n != 1 {
		return zero, fmt.Errorf("expected exactly one source, found %d", n)
	}
	v, ok := m.entries[key]
	if !ok {
		return zero, fmt.Errorf("source %s not found, only %s is present", key.Quoted(), m.Keys()[0].Quoted())
	}
	return v, nil
}

// MapSourceMap builds a new map by applying fn to every entry. Entries for
// which fn returns false are left out.
func MapSourceMap[T, U any](m *SourceMap[T], fn func(SourceKey, T) (U, bool)) *SourceMap[U] {
	out := NewSourceMap[U]()
	for k, v := range m.All() {
		if u, ok := fn(k, v); ok {
			out.entries[k] = u
		}
	}
	return out
}
