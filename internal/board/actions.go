/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the
 *  specific language governing permissions and limitations under the License.
 */

package board

import (
	"log/slog"

	"inkpad/internal/geom"
	"inkpad/internal/history"
	applog "inkpad/internal/log"
	"inkpad/internal/note"
)

// Undo steps the active tab's history back and restores the entry.
func (r *Registry) Undo() bool {
	t := r.ActiveTab()
	if t == nil {
		return false
	}
	ent, ok := t.History.Undo()
	if !ok {
		return false
	}
	r.restore(t, ent)
	return true
}

// Redo steps the active tab's history forward and restores the entry.
func (r *Registry) Redo() bool {
	t := r.ActiveTab()
	if t == nil {
		return false
	}
	ent, ok := t.History.Redo()
	if !ok {
		return false
	}
	r.restore(t, ent)
	return true
}

// restore writes a history entry back onto the tab: pixels onto the drawing
// raster, notes recreated from their value copies.
func (r *Registry) restore(t *Tab, ent history.Entry) {
	if err := t.Drawing.RestorePixels(ent.Pixels); err != nil {
		applog.WithComponent("board").Error("history restore failed",
			slog.String("tab", t.ID), slog.Any("err", err))
		return
	}
	t.Overlay.Restore(ent.Notes, func(s *note.Sticky) {
		if r.onNoteSpawned != nil {
			r.onNoteSpawned(t, s)
		}
	})
	r.RequestRedraw(t)
}

// ClearCanvas wipes the active tab's rasters and notes, then persists and
// snapshots so the cleared state is both durable and undoable.
func (r *Registry) ClearCanvas() {
	t := r.ActiveTab()
	if t == nil {
		return
	}
	t.Drawing.Clear()
	t.Preview.Clear()
	t.Overlay.RemoveAll()
	r.RequestRedraw(t)
	r.Persist(t)
	r.Snapshot(t)
}

// AddSticky creates a note at the canvas point, persists and snapshots.
func (r *Registry) AddSticky(t *Tab, at geom.Point) *note.Sticky {
	s := t.Overlay.Add(at)
	if r.onNoteSpawned != nil {
		r.onNoteSpawned(t, s)
	}
	r.Persist(t)
	r.Snapshot(t)
	return s
}

// BeginStickyDrag records the drag offset in canvas space and blocks the
// stroke pipeline for the duration.
func (r *Registry) BeginStickyDrag(t *Tab, noteID string, grab geom.Point) bool {
	s, ok := t.Overlay.Get(noteID)
	if !ok {
		return false
	}
	t.SetStickyDrag(noteID, grab.Sub(geom.Pt(s.Note.X, s.Note.Y)))
	return true
}

// DragSticky moves the dragged note under the pointer.
func (r *Registry) DragSticky(t *Tab, p geom.Point) {
	id, offset, dragging := t.StickyDragging()
	if !dragging {
		return
	}
	t.Overlay.Move(id, p.Sub(offset))
}

// EndStickyDrag releases the drag, persists and snapshots.
func (r *Registry) EndStickyDrag(t *Tab) {
	if _, _, dragging := t.StickyDragging(); !dragging {
		return
	}
	t.ClearStickyDrag()
	r.Persist(t)
	r.Snapshot(t)
}

// FinishStickyEdit commits a note's text edit, persists and snapshots.
func (r *Registry) FinishStickyEdit(t *Tab, noteID, text string) {
	t.Overlay.FinishEditing(noteID, text)
	r.Persist(t)
	r.Snapshot(t)
}

// RemoveSticky deletes a note, persists and snapshots.
func (r *Registry) RemoveSticky(t *Tab, noteID string) {
	if !t.Overlay.Remove(noteID) {
		return
	}
	r.Persist(t)
	r.Snapshot(t)
}
