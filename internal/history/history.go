/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the
 *  specific language governing permissions and limitations under the License.
 */

// Package history provides the per-tab undo/redo engine. State is kept as a
// linear list of full snapshots with a cursor; undo and redo only move the
// cursor, a new save after undo truncates the redo tail.
package history

import (
	"sync"
	"time"

	"inkpad/internal/note"
)

// Entry is one reversible snapshot: the drawing raster's backing pixels plus
// the sticky notes at that moment. Blobs are owned by the engine; callers
// hand in copies and must not mutate them afterwards.
type Entry struct {
	Pixels []uint8
	Notes  []note.Note
	TS     time.Time
}

// Config controls depth and coalescing.
type Config struct {
	// Max caps the number of snapshots; the oldest entry is dropped when
	// exceeded (0 means unlimited).
	Max int
	// Debounce coalesces saves landing within the window into the current
	// tip instead of pushing a new entry.
	Debounce time.Duration
}

// Engine is the snapshot list for one tab. Safe for concurrent use.
type Engine struct {
	cfg Config
	now func() time.Time

	mu       sync.Mutex
	entries  []Entry
	index    int
	lastSave time.Time
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg, now: time.Now, index: -1}
}

// SetClock overrides the time source. Intended for tests.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// Save records a snapshot. A save within Debounce of the previous one while
// sitting on the tip replaces the tip, so a burst of rapid edits costs one
// entry. Saving after an undo discards the redo tail.
func (e *Engine) Save(pixels []uint8, notes []note.Note) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ts := e.now()
	ent := Entry{Pixels: pixels, Notes: notes, TS: ts}

	atTip := e.index == len(e.entries)-1
	if atTip && e.index >= 0 && e.cfg.Debounce > 0 && ts.Sub(e.lastSave) < e.cfg.Debounce {
		e.entries[e.index] = ent
		e.lastSave = ts
		return
	}

	// Drop anything past the cursor, then append.
	e.entries = append(e.entries[:e.index+1], ent)
	e.index = len(e.entries) - 1
	if e.cfg.Max > 0 && len(e.entries) > e.cfg.Max {
		drop := len(e.entries) - e.cfg.Max
		e.entries = append([]Entry{}, e.entries[drop:]...)
		e.index -= drop
	}
	e.lastSave = ts
}

// Undo moves the cursor one step back and returns the entry to restore.
func (e *Engine) Undo() (Entry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index <= 0 {
		return Entry{}, false
	}
	e.index--
	return e.entries[e.index], true
}

// Redo moves the cursor one step forward and returns the entry to restore.
func (e *Engine) Redo() (Entry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index < 0 || e.index >= len(e.entries)-1 {
		return Entry{}, false
	}
	e.index++
	return e.entries[e.index], true
}

// CanUndo reports whether a step back exists.
func (e *Engine) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index > 0
}

// CanRedo reports whether a step forward exists.
func (e *Engine) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index >= 0 && e.index < len(e.entries)-1
}

// Current returns the entry under the cursor.
func (e *Engine) Current() (Entry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index < 0 {
		return Entry{}, false
	}
	return e.entries[e.index], true
}

// Len reports the number of stored snapshots.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entries)
}

// Reset drops all snapshots and seeds the engine with a fresh baseline.
func (e *Engine) Reset(pixels []uint8, notes []note.Note) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = []Entry{{Pixels: pixels, Notes: notes, TS: e.now()}}
	e.index = 0
	e.lastSave = time.Time{}
}
