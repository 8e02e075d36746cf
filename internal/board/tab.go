/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the
 *  specific language governing permissions and limitations under the License.
 */

// Package board owns the tabbed documents: each tab bundles its three
// raster surfaces, sticky-note overlay, history engine and stroke pipeline,
// and the registry coordinates switching, closing, persistence and redraw.
package board

import (
	"inkpad/internal/geom"
	"inkpad/internal/history"
	"inkpad/internal/note"
	"inkpad/internal/raster"
	"inkpad/internal/stroke"
)

// Tab is one canvas document. The display surface is what the user sees,
// the drawing surface holds committed strokes, the preview surface holds
// the stroke in progress. All three share logical and backing dimensions.
type Tab struct {
	ID   string
	Name string

	Display *raster.Surface
	Drawing *raster.Surface
	Preview *raster.Surface

	Overlay  *note.Overlay
	History  *history.Engine
	Pipeline *stroke.Pipeline

	// View is the last applied pan/zoom transform. The UI layer renders
	// the display surface and overlay under this transform; raster
	// compositing itself is zoom-independent.
	View geom.Transform

	// Drag state for a sticky note owning the pointer.
	draggingSticky bool
	dragNoteID     string
	dragOffset     geom.Point

	IsInitialized bool
}

// SetStickyDrag marks the start or end of a note drag. While set, the
// stroke pipeline refuses pointer-downs.
func (t *Tab) SetStickyDrag(noteID string, offset geom.Point) {
	t.draggingSticky = true
	t.dragNoteID = noteID
	t.dragOffset = offset
}

// ClearStickyDrag ends a note drag.
func (t *Tab) ClearStickyDrag() {
	t.draggingSticky = false
	t.dragNoteID = ""
}

// StickyDragging reports whether a note drag is in progress and which note.
func (t *Tab) StickyDragging() (string, geom.Point, bool) {
	return t.dragNoteID, t.dragOffset, t.draggingSticky
}
