//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image/color"
	"math"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"inkpad/internal/board"
	"inkpad/internal/config"
	"inkpad/internal/geom"
	"inkpad/internal/note"
	"inkpad/internal/shell"
)

// noteLayer manages the sticky note widgets floating above the board. Notes
// live in canvas space; the layer repositions them whenever the active tab's
// transform or content changes.
type noteLayer struct {
	reg     *board.Registry
	root    *fyne.Container
	widgets map[string]*stickyWidget
	window  fyne.Window
	mods    *shell.ModifierTracker
}

func newNoteLayer(reg *board.Registry, w fyne.Window, mods *shell.ModifierTracker) *noteLayer {
	return &noteLayer{
		reg:     reg,
		root:    container.NewWithoutLayout(),
		widgets: make(map[string]*stickyWidget),
		window:  w,
		mods:    mods,
	}
}

// Spawn attaches a widget to a sticky and registers its cleanup hook.
func (nl *noteLayer) Spawn(t *board.Tab, s *note.Sticky) {
	sw := newStickyWidget(nl, t, s)
	nl.widgets[s.ID] = sw
	nl.root.Add(sw)
	s.SetCleanup(func() {
		if w, ok := nl.widgets[s.ID]; ok {
			delete(nl.widgets, s.ID)
			nl.root.Remove(w)
			nl.root.Refresh()
		}
	})
	nl.Layout(t)
	if s.IsEditing {
		sw.focusEntry()
	}
}

// Layout repositions every widget for the given tab's view transform.
// Widgets belonging to other tabs are hidden.
func (nl *noteLayer) Layout(active *board.Tab) {
	for _, sw := range nl.widgets {
		if active == nil || sw.tab.ID != active.ID {
			sw.Hide()
			continue
		}
		sw.Show()
		sw.place(active.View)
	}
	nl.root.Refresh()
}

// CommitEdits flushes any note still in editing mode. Called before a
// stroke begins on the board, on tab transitions, and on window close, so
// persisted records and history snapshots never carry stale text.
func (nl *noteLayer) CommitEdits(t *board.Tab) {
	if t == nil {
		return
	}
	for _, sw := range nl.widgets {
		if sw.tab.ID != t.ID {
			continue
		}
		sw.commitEdit()
	}
}

// noteEntry is the inline editor: Enter commits, Shift+Enter inserts a
// newline, Escape cancels, losing focus commits.
type noteEntry struct {
	widget.Entry
	shiftDown func() bool
	onCommit  func()
	onCancel  func()
}

func newNoteEntry(shift func() bool) *noteEntry {
	e := &noteEntry{shiftDown: shift}
	e.MultiLine = true
	e.Wrapping = fyne.TextWrapWord
	e.ExtendBaseWidget(e)
	return e
}

func (e *noteEntry) TypedKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeyReturn, fyne.KeyEnter:
		if !e.shiftDown() {
			if e.onCommit != nil {
				e.onCommit()
			}
			return
		}
	case fyne.KeyEscape:
		if e.onCancel != nil {
			e.onCancel()
		}
		return
	}
	e.Entry.TypedKey(ev)
}

func (e *noteEntry) FocusLost() {
	e.Entry.FocusLost()
	if e.onCommit != nil {
		e.onCommit()
	}
}

// stickyWidget is one on-screen sticky note: colored backing, static text,
// an inline editor shown while editing, and a delete button. The whole
// widget drags; the drag is routed through the registry so strokes are
// suppressed while it owns the pointer.
type stickyWidget struct {
	widget.BaseWidget

	layer *noteLayer
	tab   *board.Tab
	id    string

	bg       *canvas.Rectangle
	text     *widget.Label
	entry    *noteEntry
	del      *widget.Button
	dragging bool

	lastTap    time.Time
	lastTapPos fyne.Position
}

func newStickyWidget(nl *noteLayer, t *board.Tab, s *note.Sticky) *stickyWidget {
	sw := &stickyWidget{layer: nl, tab: t, id: s.ID}
	sw.bg = canvas.NewRectangle(parseNoteColor(s.Note.Color))
	sw.bg.CornerRadius = 6
	sw.text = widget.NewLabel(s.Note.Text)
	sw.text.Wrapping = fyne.TextWrapWord
	sw.entry = newNoteEntry(nl.mods.Shift)
	sw.entry.SetText(s.Note.Text)
	sw.entry.onCommit = sw.commitEdit
	sw.entry.onCancel = sw.cancelEdit
	sw.del = widget.NewButton("x", func() {
		nl.reg.RemoveSticky(t, s.ID)
	})
	sw.del.Importance = widget.LowImportance
	if s.IsEditing {
		sw.text.Hide()
	} else {
		sw.entry.Hide()
	}
	sw.ExtendBaseWidget(sw)
	return sw
}

func (sw *stickyWidget) place(view geom.Transform) {
	s, ok := sw.tab.Overlay.Get(sw.id)
	if !ok {
		return
	}
	n := s.Note
	sw.Move(fyne.NewPos(
		float32(view.Pan.X+n.X*view.Zoom),
		float32(view.Pan.Y+n.Y*view.Zoom),
	))
	sw.Resize(fyne.NewSize(float32(n.Width*view.Zoom), float32(n.Height*view.Zoom)))
}

func (sw *stickyWidget) focusEntry() {
	if sw.layer.window != nil {
		sw.layer.window.Canvas().Focus(sw.entry)
	}
}

func (sw *stickyWidget) unfocusEntry() {
	if sw.layer.window != nil {
		sw.layer.window.Canvas().Unfocus()
	}
}

// startEdit opens the inline editor over the note text.
func (sw *stickyWidget) startEdit() {
	s, ok := sw.tab.Overlay.Get(sw.id)
	if !ok || s.IsEditing {
		return
	}
	s.IsEditing = true
	sw.entry.SetText(s.Note.Text)
	sw.text.Hide()
	sw.entry.Show()
	sw.focusEntry()
	sw.Refresh()
}

// commitEdit finishes an open edit through the overlay, which reverts to
// the prior text on empty input. No-op when the note is not editing.
func (sw *stickyWidget) commitEdit() {
	s, ok := sw.tab.Overlay.Get(sw.id)
	if !ok || !s.IsEditing {
		return
	}
	sw.layer.reg.FinishStickyEdit(sw.tab, sw.id, sw.entry.Text)
	// the edit may have removed a blank fresh note
	if s, ok = sw.tab.Overlay.Get(sw.id); !ok {
		return
	}
	sw.text.SetText(s.Note.Text)
	sw.entry.Hide()
	sw.text.Show()
	sw.unfocusEntry()
	sw.Refresh()
}

// cancelEdit discards the editor contents and restores the prior text.
func (sw *stickyWidget) cancelEdit() {
	s, ok := sw.tab.Overlay.Get(sw.id)
	if !ok || !s.IsEditing {
		return
	}
	s.IsEditing = false
	sw.entry.SetText(s.Note.Text)
	sw.entry.Hide()
	sw.text.Show()
	sw.unfocusEntry()
	sw.Refresh()
}

func (sw *stickyWidget) CreateRenderer() fyne.WidgetRenderer {
	return &stickyRenderer{sw: sw, objects: []fyne.CanvasObject{sw.bg, sw.text, sw.entry, sw.del}}
}

func (sw *stickyWidget) Dragged(e *fyne.DragEvent) {
	view := sw.tab.View
	// drag events are widget-local; recover the screen point from position
	screen := geom.Pt(
		float64(sw.Position().X+e.Position.X),
		float64(sw.Position().Y+e.Position.Y),
	)
	cp := view.ToCanvas(screen)
	if !sw.dragging {
		sw.dragging = sw.layer.reg.BeginStickyDrag(sw.tab, sw.id, cp)
		return
	}
	sw.layer.reg.DragSticky(sw.tab, cp)
	sw.place(view)
}

func (sw *stickyWidget) DragEnd() {
	if sw.dragging {
		sw.dragging = false
		sw.layer.reg.EndStickyDrag(sw.tab)
	}
}

// Tapped opens the editor on the second tap of a double-click, using the
// same time and distance window the drawing pipeline uses. A single tap
// only arms the window.
func (sw *stickyWidget) Tapped(e *fyne.PointEvent) {
	if s, ok := sw.tab.Overlay.Get(sw.id); !ok || s.IsEditing {
		return
	}
	cs := config.Current().Settings.Canvas
	now := time.Now()
	dx := float64(e.Position.X - sw.lastTapPos.X)
	dy := float64(e.Position.Y - sw.lastTapPos.Y)
	within := now.Sub(sw.lastTap) <= time.Duration(cs.ClickDelayMs)*time.Millisecond &&
		math.Hypot(dx, dy) <= cs.ClickDistance
	if within {
		sw.lastTap = time.Time{}
		sw.startEdit()
		return
	}
	sw.lastTap = now
	sw.lastTapPos = e.Position
}

type stickyRenderer struct {
	sw      *stickyWidget
	objects []fyne.CanvasObject
}

func (r *stickyRenderer) Destroy()                     {}
func (r *stickyRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *stickyRenderer) MinSize() fyne.Size           { return fyne.NewSize(40, 30) }

func (r *stickyRenderer) Refresh() {
	if s, ok := r.sw.tab.Overlay.Get(r.sw.id); ok {
		r.sw.bg.FillColor = parseNoteColor(s.Note.Color)
	}
	r.Layout(r.sw.Size())
	canvas.Refresh(r.sw)
}

func (r *stickyRenderer) Layout(size fyne.Size) {
	r.sw.bg.Move(fyne.NewPos(0, 0))
	r.sw.bg.Resize(size)

	const pad float32 = 4
	btn := fyne.NewSize(22, 22)
	r.sw.del.Resize(btn)
	r.sw.del.Move(fyne.NewPos(size.Width-btn.Width-pad, pad))

	body := fyne.NewSize(size.Width-2*pad, size.Height-btn.Height-2*pad)
	r.sw.text.Move(fyne.NewPos(pad, btn.Height+pad))
	r.sw.text.Resize(body)
	r.sw.entry.Move(fyne.NewPos(pad, btn.Height+pad))
	r.sw.entry.Resize(body)
}

// parseNoteColor decodes the palette's #rrggbb strings; malformed input
// falls back to the classic yellow.
func parseNoteColor(s string) color.Color {
	fallback := color.NRGBA{R: 255, G: 249, B: 177, A: 255}
	if len(s) != 7 || s[0] != '#' {
		return fallback
	}
	var v [3]uint8
	for i := 0; i < 3; i++ {
		hi, ok1 := hexVal(s[1+2*i])
		lo, ok2 := hexVal(s[2+2*i])
		if !ok1 || !ok2 {
			return fallback
		}
		v[i] = hi<<4 | lo
	}
	return color.NRGBA{R: v[0], G: v[1], B: v[2], A: 255}
}

func hexVal(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
