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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// InvalidSourceFunc decides what happens to a record whose source cannot be
// rendered. Returning nil skips the record; returning an error aborts
// ingestion with that error.
type InvalidSourceFunc func(*SourceError) error

// IgnoreInvalidSource logs the error and skips the record.
func IgnoreInvalidSource(err *SourceError) error {
	slog.Warn("skipping snapshot with invalid source", "error", err)
	return nil
}

// RejectInvalidSource aborts ingestion on the first invalid source.
func RejectInvalidSource(err *SourceError) error {
	return err
}

// Inventory holds the snapshot histories of one listing, keyed by source,
// along with counts of the malformed sources that were skipped.
// It is not modified after ingestion returns.
type Inventory struct {
	snapshots        *SourceMap[[]Snapshot]
	invalidUserNames map[string]uint32
	invalidHosts     map[string]uint32
}

func newInventory() *Inventory {
	return &Inventory{
		snapshots:        NewSourceMap[[]Snapshot](),
		invalidUserNames: make(map[string]uint32),
		invalidHosts:     make(map[string]uint32),
	}
}

// Snapshots returns the per-source histories. Histories are in the order
// kopia listed them, so the last element is the latest snapshot.
func (inv *Inventory) Snapshots() *SourceMap[[]Snapshot] {
	return inv.snapshots
}

// InvalidUserNames returns how often each rejected user name was seen.
func (inv *Inventory) InvalidUserNames() map[string]uint32 {
	return maps.Clone(inv.invalidUserNames)
}

// InvalidHosts returns how often each rejected host was seen.
func (inv *Inventory) InvalidHosts() map[string]uint32 {
	return maps.Clone(inv.invalidHosts)
}

// HasInvalidSources reports whether any record was skipped for its source.
func (inv *Inventory) HasInvalidSources() bool {
	return len(inv.invalidUserNames) > 0 || len(inv.invalidHosts) > 0
}

// SnapshotCount returns the number of snapshots across all sources.
func (inv *Inventory) SnapshotCount() int {
	n := 0
	for _, history := range inv.snapshots.All() {
		n += len(history)
	}
	return n
}

// RetentionCounts returns, per source, how many snapshots carry each
// retention reason. Reasons are counted as exact labels.
func (inv *Inventory) RetentionCounts() *SourceMap[map[string]uint32] {
	return MapSourceMap(inv.snapshots, func(_ SourceKey, history []Snapshot) (map[string]uint32, bool) {
		counts := make(map[string]uint32)
		for _, snap := range history {
			for _, reason := range snap.RetentionReason {
				counts[reason]++
			}
		}
		return counts, true
	})
}

// add classifies one record by source and appends it.
func (inv *Inventory) add(rec SnapshotJSON, onInvalid InvalidSourceFunc) error {
	key, err := rec.Source.Render()
	if err != nil {
		var srcErr *SourceError
		if !errors.As(err, &srcErr) {
			return err
		}
		if v, ok := srcErr.InvalidUserName(); ok {
			inv.invalidUserNames[v]++
		}
		if v, ok := srcErr.InvalidHost(); ok {
			inv.invalidHosts[v]++
		}
		if onInvalid == nil {
			return nil
		}
		if err := onInvalid(srcErr); err != nil {
			return fmt.Errorf("snapshot %q: %w", rec.ID, err)
		}
		return nil
	}

	snap, tsErr := rec.Snapshot()
	if tsErr != nil {
		slog.Debug("snapshot end time not parsed", "source", key.String(), "error", tsErr)
	}

	inv.snapshots.Update(key, func(history []Snapshot) []Snapshot {
		return append(history, snap)
	})
	return nil
}

// FromSnapshots builds an inventory from already decoded records.
func FromSnapshots(records []SnapshotJSON, onInvalid InvalidSourceFunc) (*Inventory, error) {
	inv := newInventory()
	for _, rec := range records {
		if err := inv.add(rec, onInvalid); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

// Ingest reads a JSON array of snapshot records from r one element at a
// time, so memory use does not grow with the length of the listing.
func Ingest(r io.Reader, onInvalid InvalidSourceFunc) (*Inventory, error) {
	dec := json.NewDecoder(transform.NewReader(r, encoding.UTF8Validator))
	inv := newInventory()

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	for dec.More() {
		var rec SnapshotJSON
		if err := dec.Decode(&rec); err != nil {
			return nil, classifyDecodeError(dec, err)
		}
		if err := inv.add(rec, onInvalid); err != nil {
			return nil, err
		}
	}

	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}

	if tok, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, classifyDecodeError(dec, err)
		}
		return nil, &JSONError{Offset: dec.InputOffset(), Cause: fmt.Errorf("trailing data after array: %v", tok)}
	}

	return inv, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return classifyDecodeError(dec, err)
	}
	if got, ok := tok.(json.Delim); !ok || got != want {
		return &JSONError{Offset: dec.InputOffset(), Cause: fmt.Errorf("expected %q, found %v", want, tok)}
	}
	return nil
}

func classifyDecodeError(dec *json.Decoder, err error) error {
	if errors.Is(err, encoding.ErrInvalidUTF8) {
		return &DecodeError{Cause: err}
	}
	return &JSONError{Offset: dec.InputOffset(), Cause: err}
}
