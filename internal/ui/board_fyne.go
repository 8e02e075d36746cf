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

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"inkpad/internal/board"
	"inkpad/internal/geom"
	"inkpad/internal/shell"
	"inkpad/internal/stroke"
	"inkpad/internal/viewport"
)

// BoardCanvas displays the active tab's composited raster under its pan/zoom
// transform and feeds pointer input to the stroke pipeline and viewport.
type BoardCanvas struct {
	widget.BaseWidget

	reg  *board.Registry
	mods *shell.ModifierTracker

	// ctrl mirrors the control/command key state; Fyne scroll events carry
	// no modifiers, so the app tracks them via raw key callbacks.
	ctrl bool
	meta bool

	// OnContextMenu fires on secondary click with the screen position.
	OnContextMenu func(at fyne.Position)

	// OnPointerDown fires before any press is processed so open note edits
	// can be committed ahead of the stroke's persist and snapshot hooks.
	OnPointerDown func()

	// OnResized fires when the widget's size changes so the app can rebuild
	// the backing rasters after a debounce.
	OnResized func(size fyne.Size)
	lastSize  fyne.Size

	bg  *canvas.Rectangle
	img *canvas.Image
}

func NewBoardCanvas(reg *board.Registry, mods *shell.ModifierTracker) *BoardCanvas {
	b := &BoardCanvas{
		reg:  reg,
		mods: mods,
		bg:   canvas.NewRectangle(color.NRGBA{R: 24, G: 24, B: 27, A: 255}),
	}
	b.img = canvas.NewImageFromImage(nil)
	b.img.FillMode = canvas.ImageFillStretch
	b.img.ScaleMode = canvas.ImageScaleFastest
	b.ExtendBaseWidget(b)
	return b
}

// SetModifierKeys updates the zoom/pan modifier state from raw key events.
func (b *BoardCanvas) SetModifierKeys(ctrl, meta bool) {
	b.ctrl = ctrl
	b.meta = meta
}

// RefreshImage swaps in the freshly composited display raster.
func (b *BoardCanvas) RefreshImage() {
	t := b.reg.ActiveTab()
	if t == nil {
		return
	}
	b.img.Image = t.Display.Image()
	b.Refresh()
}

func (b *BoardCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &boardRenderer{bc: b, objects: []fyne.CanvasObject{b.bg, b.img}}
}

func (b *BoardCanvas) pointer(pos fyne.Position, button int) stroke.Pointer {
	screen := geom.Pt(float64(pos.X), float64(pos.Y))
	var cp geom.Point
	if t := b.reg.ActiveTab(); t != nil {
		cp = t.View.ToCanvas(screen)
	}
	return stroke.Pointer{
		Canvas: cp,
		Screen: screen,
		Button: button,
		Shift:  b.mods.Shift(),
	}
}

func (b *BoardCanvas) MouseDown(e *desktop.MouseEvent) {
	t := b.reg.ActiveTab()
	if t == nil {
		return
	}
	if b.OnPointerDown != nil {
		b.OnPointerDown()
	}
	if e.Button == desktop.MouseButtonSecondary {
		if b.OnContextMenu != nil {
			b.OnContextMenu(e.Position)
		}
		return
	}
	button := 0
	if e.Button != desktop.MouseButtonPrimary {
		button = 1
	}
	t.Pipeline.StartDrawing(b.pointer(e.Position, button))
}

func (b *BoardCanvas) MouseUp(_ *desktop.MouseEvent) {
	t := b.reg.ActiveTab()
	if t == nil {
		return
	}
	if _, _, dragging := t.StickyDragging(); dragging {
		b.reg.EndStickyDrag(t)
		return
	}
	if t.Pipeline.IsDrawing() {
		t.Pipeline.StopDrawing()
	}
}

// MouseMoved receives motion whether or not a button is held. It tracks the
// zoom focal point and feeds active strokes and note drags.
func (b *BoardCanvas) MouseMoved(e *desktop.MouseEvent) {
	t := b.reg.ActiveTab()
	if t == nil {
		return
	}
	screen := geom.Pt(float64(e.Position.X), float64(e.Position.Y))
	b.reg.Viewport().SetLastMouse(screen)

	if _, _, dragging := t.StickyDragging(); dragging {
		b.reg.DragSticky(t, t.View.ToCanvas(screen))
		return
	}
	if t.Pipeline.IsDrawing() {
		t.Pipeline.Draw(b.pointer(e.Position, 0))
	}
}

func (b *BoardCanvas) MouseIn(_ *desktop.MouseEvent) {}

// MouseOut interrupts an in-flight stroke so it commits rather than
// continuing from a stale point when the pointer re-enters.
func (b *BoardCanvas) MouseOut() {
	t := b.reg.ActiveTab()
	if t == nil {
		return
	}
	if t.Pipeline.IsDrawing() {
		t.Pipeline.Interrupt()
	}
}

func (b *BoardCanvas) Scrolled(e *fyne.ScrollEvent) {
	t := b.reg.ActiveTab()
	if t == nil {
		return
	}
	b.reg.Viewport().HandleWheel(t.ID, viewport.Wheel{
		DeltaX: -float64(e.Scrolled.DX),
		DeltaY: -float64(e.Scrolled.DY),
		Pos:    geom.Pt(float64(e.Position.X), float64(e.Position.Y)),
		Ctrl:   b.ctrl,
		Meta:   b.meta,
		Shift:  b.mods.Shift(),
	})
}

type boardRenderer struct {
	bc      *BoardCanvas
	objects []fyne.CanvasObject
}

func (r *boardRenderer) Destroy()                     {}
func (r *boardRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *boardRenderer) MinSize() fyne.Size           { return fyne.NewSize(320, 240) }

func (r *boardRenderer) Refresh() {
	r.Layout(r.bc.Size())
	canvas.Refresh(r.bc)
}

// Layout places the display raster under the active tab's transform: the
// image is positioned at the pan offset and stretched by the zoom factor.
func (r *boardRenderer) Layout(size fyne.Size) {
	r.bc.bg.Move(fyne.NewPos(0, 0))
	r.bc.bg.Resize(size)

	if size != r.bc.lastSize {
		r.bc.lastSize = size
		if r.bc.OnResized != nil {
			r.bc.OnResized(size)
		}
	}

	t := r.bc.reg.ActiveTab()
	if t == nil {
		r.bc.img.Hide()
		return
	}
	r.bc.img.Show()
	cw, ch := t.Display.LogicalSize()
	view := t.View
	r.bc.img.Move(fyne.NewPos(float32(view.Pan.X), float32(view.Pan.Y)))
	r.bc.img.Resize(fyne.NewSize(float32(float64(cw)*view.Zoom), float32(float64(ch)*view.Zoom)))
}
