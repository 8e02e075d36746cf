/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the
 *  specific language governing permissions and limitations under the License.
 */

// Package note manages the sticky-note overlay attached to a canvas.
// Notes live in canvas coordinates; the overlay owns their lifecycle and
// produces plain value snapshots for history and persistence.
package note

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"inkpad/internal/config"
	"inkpad/internal/geom"
)

// Note is the serializable value form of a sticky note. Coordinates and
// dimensions are canvas units.
type Note struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Text   string  `json:"text"`
	Color  string  `json:"color"`
}

// Sticky is a live note on the overlay.
type Sticky struct {
	ID        string
	Note      Note
	IsEditing bool

	// cleanup releases widget resources and detached listeners; set by the
	// UI layer, invoked exactly once on removal.
	cleanup func()
}

// SetCleanup registers the release hook for the note's widgets.
func (s *Sticky) SetCleanup(fn func()) { s.cleanup = fn }

// Overlay holds the live notes of one tab. Safe for concurrent use.
type Overlay struct {
	mu      sync.Mutex
	notes   []*Sticky
	created int
}

func NewOverlay() *Overlay { return &Overlay{} }

// Add creates a note at the given canvas point with configured defaults and
// returns it in editing state. Colors cycle through the configured palette.
func (o *Overlay) Add(at geom.Point) *Sticky {
	cfg := config.Current().Settings.Note
	o.mu.Lock()
	defer o.mu.Unlock()
	color := ""
	if len(cfg.Colors) > 0 {
		color = cfg.Colors[o.created%len(cfg.Colors)]
	}
	o.created++
	s := &Sticky{
		ID: uuid.NewString(),
		Note: Note{
			X:      at.X,
			Y:      at.Y,
			Width:  cfg.DefaultWidth,
			Height: cfg.DefaultHeight,
			Color:  color,
		},
		IsEditing: true,
	}
	o.notes = append(o.notes, s)
	return s
}

// Get returns the live note with the given id.
func (o *Overlay) Get(id string) (*Sticky, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.findLocked(id)
}

func (o *Overlay) findLocked(id string) (*Sticky, bool) {
	for _, s := range o.notes {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// Move repositions a note to a new canvas point.
func (o *Overlay) Move(id string, to geom.Point) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.findLocked(id)
	if !ok {
		return false
	}
	s.Note.X = to.X
	s.Note.Y = to.Y
	return true
}

// FinishEditing commits the text typed into a note. A note that ends its
// first edit with only whitespace is discarded; a note that already held text
// keeps the previous text when the new text is empty. Returns whether the
// note was removed.
func (o *Overlay) FinishEditing(id, text string) (removed bool) {
	o.mu.Lock()
	s, ok := o.findLocked(id)
	if !ok {
		o.mu.Unlock()
		return false
	}
	s.IsEditing = false
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		if s.Note.Text == "" {
			o.mu.Unlock()
			o.Remove(id)
			return true
		}
		o.mu.Unlock()
		return false
	}
	s.Note.Text = text
	o.mu.Unlock()
	return false
}

// Remove deletes a note and runs its cleanup hook.
func (o *Overlay) Remove(id string) bool {
	o.mu.Lock()
	var victim *Sticky
	for i, s := range o.notes {
		if s.ID == id {
			victim = s
			o.notes = append(o.notes[:i], o.notes[i+1:]...)
			break
		}
	}
	o.mu.Unlock()
	if victim == nil {
		return false
	}
	if victim.cleanup != nil {
		victim.cleanup()
	}
	return true
}

// RemoveAll clears the overlay, releasing notes newest first so cleanup
// hooks never observe a half-torn-down overlay in front of them.
func (o *Overlay) RemoveAll() {
	o.mu.Lock()
	victims := o.notes
	o.notes = nil
	o.mu.Unlock()
	for i := len(victims) - 1; i >= 0; i-- {
		if victims[i].cleanup != nil {
			victims[i].cleanup()
		}
	}
}

// Snapshot returns value copies of all notes in creation order. Notes still
// in their first edit are included with whatever text they hold.
func (o *Overlay) Snapshot() []Note {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Note, len(o.notes))
	for i, s := range o.notes {
		out[i] = s.Note
	}
	return out
}

// Restore replaces the overlay's contents with the given values. Existing
// notes are removed first. The spawn hook, when set, lets the UI layer
// attach widgets to each restored note.
func (o *Overlay) Restore(values []Note, spawn func(*Sticky)) {
	o.RemoveAll()
	o.mu.Lock()
	for _, v := range values {
		s := &Sticky{ID: uuid.NewString(), Note: v}
		o.notes = append(o.notes, s)
	}
	o.created += len(values)
	restored := append([]*Sticky(nil), o.notes...)
	o.mu.Unlock()
	if spawn != nil {
		for _, s := range restored {
			spawn(s)
		}
	}
}

// Len reports the number of live notes.
func (o *Overlay) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.notes)
}

// HitTest returns the topmost note whose rect contains the canvas point.
func (o *Overlay) HitTest(p geom.Point) (*Sticky, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.notes) - 1; i >= 0; i-- {
		s := o.notes[i]
		r := geom.R(s.Note.X, s.Note.Y, s.Note.Width, s.Note.Height)
		if r.Contains(p) {
			return s, true
		}
	}
	return nil, false
}
