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
	"math/rand"
	"testing"
	"time"

	"inkpad/internal/config"
	"inkpad/internal/geom"
	"inkpad/internal/store"
	"inkpad/internal/stroke"
	"inkpad/internal/viewport"
)

func init() {
	config.Install(config.DefaultConfig())
}

// noFrames drops frame requests; board tests that need animation use
// fakeFrames instead.
type noFrames struct{}

func (noFrames) Request(fn func(time.Time)) viewport.Handle { return 0 }
func (noFrames) Cancel(viewport.Handle)                     {}

// fakeFrames records pending callbacks so tests can assert on scheduling.
type fakeFrames struct {
	next    viewport.Handle
	pending map[viewport.Handle]func(time.Time)
}

func newFakeFrames() *fakeFrames {
	return &fakeFrames{pending: map[viewport.Handle]func(time.Time){}}
}

func (f *fakeFrames) Request(fn func(time.Time)) viewport.Handle {
	f.next++
	f.pending[f.next] = fn
	return f.next
}

func (f *fakeFrames) Cancel(h viewport.Handle) { delete(f.pending, h) }

func newTestRegistry(kv store.KV, frames viewport.Frames) *Registry {
	return NewRegistry(Options{
		KV:        kv,
		Frames:    frames,
		Container: geom.Size{W: 200, H: 150},
		DPR:       1,
		Rand:      rand.New(rand.NewSource(1)),
	})
}

func drawStroke(t *Tab, from, to geom.Point) {
	t.Pipeline.SetState(stroke.State{Tool: stroke.ToolBrush, BrushType: stroke.BrushSmooth, Size: 4, Color: "#000000"})
	t.Pipeline.StartDrawing(stroke.Pointer{Canvas: from, Screen: from})
	t.Pipeline.Draw(stroke.Pointer{Canvas: to, Screen: to})
	t.Pipeline.StopDrawing()
}

func TestFreshStartHasOneCleanTab(t *testing.T) {
	r := newTestRegistry(store.NewMemory(), noFrames{})
	tab := r.CreateTab()

	if len(r.All()) != 1 {
		t.Fatalf("tabs = %d, want 1", len(r.All()))
	}
	if r.ActiveTab() != tab {
		t.Fatal("new tab must be active")
	}
	if tab.View.Zoom != 1 || tab.View.Pan != (geom.Point{}) {
		t.Fatalf("view = %+v, want zoom 1 pan (0,0)", tab.View)
	}
	if tab.History.Len() != 1 {
		t.Fatalf("history length = %d, want 1", tab.History.Len())
	}
	if !tab.Drawing.IsBlank() {
		t.Fatal("fresh drawing raster must be transparent")
	}
	if r.BarVisible() {
		t.Fatal("single tab must hide the tab bar")
	}
}

func TestDoubleClickSpawnsNoteAndSnapshot(t *testing.T) {
	r := newTestRegistry(store.NewMemory(), noFrames{})
	tab := r.CreateTab()

	clk := time.Unix(1000, 0)
	tab.Pipeline.SetClock(func() time.Time { return clk })

	p1 := geom.Pt(100, 100)
	tab.Pipeline.StartDrawing(stroke.Pointer{Canvas: p1, Screen: p1})
	tab.Pipeline.StopDrawing()
	clk = clk.Add(300 * time.Millisecond)
	p2 := geom.Pt(105, 100)
	tab.Pipeline.StartDrawing(stroke.Pointer{Canvas: p2, Screen: p2})

	if tab.Overlay.Len() != 1 {
		t.Fatalf("notes = %d, want 1", tab.Overlay.Len())
	}
	notes := tab.Overlay.Snapshot()
	if notes[0].X != 105 || notes[0].Y != 100 {
		t.Fatalf("note at (%v,%v), want (105,100)", notes[0].X, notes[0].Y)
	}
	if tab.History.Len() != 2 {
		t.Fatalf("history length = %d, want 2", tab.History.Len())
	}
}

func TestStrokeUndoRedo(t *testing.T) {
	r := newTestRegistry(store.NewMemory(), noFrames{})
	tab := r.CreateTab()

	drawStroke(tab, geom.Pt(10, 10), geom.Pt(30, 10))
	if tab.Drawing.IsBlank() {
		t.Fatal("stroke missing")
	}

	if !r.Undo() {
		t.Fatal("undo refused")
	}
	if !tab.Drawing.IsBlank() {
		t.Fatal("undo must restore the transparent baseline")
	}
	if !r.Redo() {
		t.Fatal("redo refused")
	}
	if tab.Drawing.IsBlank() {
		t.Fatal("redo must restore the stroke")
	}
	if r.Redo() {
		t.Fatal("redo past the tip must refuse")
	}
}

func TestTabIsolation(t *testing.T) {
	r := newTestRegistry(store.NewMemory(), noFrames{})
	a := r.CreateTab()
	drawStroke(a, geom.Pt(10, 10), geom.Pt(30, 10))

	b := r.CreateTab()
	if r.ActiveTab() != b {
		t.Fatal("creating a tab must activate it")
	}
	drawStroke(b, geom.Pt(100, 100), geom.Pt(120, 100))

	if !r.SwitchTo(a.ID) {
		t.Fatal("switch failed")
	}
	if r.ActiveTab() != a {
		t.Fatal("switch did not move the active pointer")
	}

	ra, _ := a.Drawing.OpaqueBounds()
	if ra.Y > 50 {
		t.Fatalf("tab A content moved: %+v", ra)
	}
	rb, _ := b.Drawing.OpaqueBounds()
	if rb.Y < 50 {
		t.Fatalf("tab B content moved: %+v", rb)
	}

	// Undo targets only the active tab.
	r.Undo()
	if !a.Drawing.IsBlank() {
		t.Fatal("undo missed tab A")
	}
	if b.Drawing.IsBlank() {
		t.Fatal("undo leaked into tab B")
	}
}

func TestSwitchPreservesPerTabView(t *testing.T) {
	r := newTestRegistry(store.NewMemory(), noFrames{})
	a := r.CreateTab()
	b := r.CreateTab()

	a.View = geom.Transform{Zoom: 2, Pan: geom.Pt(-50, -40)}
	r.SwitchTo(a.ID)
	if got := r.Viewport().Target(); got != a.View {
		t.Fatalf("viewport attached with %+v, want %+v", got, a.View)
	}
	r.SwitchTo(b.ID)
	if got := r.Viewport().Target(); got.Zoom != 1 {
		t.Fatalf("tab B inherited tab A's zoom: %+v", got)
	}
}

func TestCloseTabActivatesNeighborAndClearsKey(t *testing.T) {
	kv := store.NewMemory()
	frames := newFakeFrames()
	r := newTestRegistry(kv, frames)
	a := r.CreateTab()
	b := r.CreateTab()
	drawStroke(b, geom.Pt(10, 10), geom.Pt(30, 10))

	if _, ok, _ := kv.Get(store.ProjectKey(b.ID)); !ok {
		t.Fatal("tab B record missing before close")
	}
	// Put an animation in flight on B so close has something to cancel.
	r.Viewport().HandleWheel(b.ID, viewport.Wheel{DeltaY: -100, Pos: geom.Pt(50, 50), Ctrl: true})
	if len(frames.pending) == 0 {
		t.Fatal("expected a scheduled frame before close")
	}
	if err := r.CloseTab(b.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if r.ActiveTab() != a {
		t.Fatal("neighbor must become active")
	}
	if _, ok, _ := kv.Get(store.ProjectKey(b.ID)); ok {
		t.Fatal("closed tab's key must be removed")
	}
	if len(frames.pending) != 0 {
		t.Fatalf("%d animation frames still scheduled after close", len(frames.pending))
	}
}

func TestCloseLastTabRejected(t *testing.T) {
	r := newTestRegistry(store.NewMemory(), noFrames{})
	tab := r.CreateTab()
	if err := r.CloseTab(tab.ID); err != ErrLastTab {
		t.Fatalf("err = %v, want ErrLastTab", err)
	}
	if len(r.All()) != 1 {
		t.Fatal("last tab vanished")
	}
}

func TestProjectSurvivesRecreation(t *testing.T) {
	kv := store.NewMemory()
	r := newTestRegistry(kv, noFrames{})
	tab := r.CreateTab()
	drawStroke(tab, geom.Pt(10, 10), geom.Pt(30, 10))
	r.AddSticky(tab, geom.Pt(50, 50))
	want := tab.Drawing.ClonePixels()

	// A second registry sharing the store simulates an app restart; the
	// persisted record is keyed by tab id, so reuse it.
	r2 := newTestRegistry(kv, noFrames{})
	t2 := r2.CreateTab()
	rec, img, found := store.LoadProject(kv, tab.ID)
	if !found || img == nil {
		t.Fatal("record must survive")
	}
	t2.Drawing.DrawImageScaled(img)
	if string(t2.Drawing.ClonePixels()) != string(want) {
		t.Fatal("raster changed across persistence round trip")
	}
	if len(rec.StickyNotes) != 1 || rec.StickyNotes[0].X != 50 {
		t.Fatalf("notes = %+v", rec.StickyNotes)
	}
}

func TestClearCanvasIsUndoable(t *testing.T) {
	r := newTestRegistry(store.NewMemory(), noFrames{})
	tab := r.CreateTab()
	drawStroke(tab, geom.Pt(10, 10), geom.Pt(30, 10))
	r.AddSticky(tab, geom.Pt(50, 50))

	r.ClearCanvas()
	if !tab.Drawing.IsBlank() || tab.Overlay.Len() != 0 {
		t.Fatal("clear left content behind")
	}
	if !r.Undo() {
		t.Fatal("clear must be undoable")
	}
	if tab.Drawing.IsBlank() && tab.Overlay.Len() == 0 {
		t.Fatal("undo after clear restored nothing")
	}
}

func TestStickyDragBlocksPipelineAndSnapshots(t *testing.T) {
	r := newTestRegistry(store.NewMemory(), noFrames{})
	tab := r.CreateTab()
	s := r.AddSticky(tab, geom.Pt(50, 50))
	lenBefore := tab.History.Len()

	if !r.BeginStickyDrag(tab, s.ID, geom.Pt(60, 60)) {
		t.Fatal("drag refused")
	}
	tab.Pipeline.StartDrawing(stroke.Pointer{Canvas: geom.Pt(10, 10), Screen: geom.Pt(10, 10)})
	if tab.Pipeline.IsDrawing() {
		t.Fatal("stroke started during a note drag")
	}

	r.DragSticky(tab, geom.Pt(100, 90))
	got, _ := tab.Overlay.Get(s.ID)
	if got.Note.X != 90 || got.Note.Y != 80 {
		t.Fatalf("dragged note at (%v,%v), want (90,80)", got.Note.X, got.Note.Y)
	}
	r.EndStickyDrag(tab)
	if tab.History.Len() < lenBefore {
		t.Fatal("drag end must snapshot")
	}
	if _, _, dragging := tab.StickyDragging(); dragging {
		t.Fatal("drag flag stuck")
	}
}

func TestHistoryIndexInvariant(t *testing.T) {
	r := newTestRegistry(store.NewMemory(), noFrames{})
	tab := r.CreateTab()
	max := config.Current().Settings.Canvas.MaxHistory

	for i := 0; i < max+5; i++ {
		drawStroke(tab, geom.Pt(float64(i), 10), geom.Pt(float64(i)+5, 10))
	}
	if tab.History.Len() > max {
		t.Fatalf("history length %d exceeds max %d", tab.History.Len(), max)
	}
}

func TestTabWidthDistribution(t *testing.T) {
	cfg := config.Current().Settings.Tabs
	r := newTestRegistry(store.NewMemory(), noFrames{})
	r.CreateTab()
	r.CreateTab()
	if !r.BarVisible() {
		t.Fatal("two tabs must show the bar")
	}
	if w := r.TabWidth(1000); w != 220 {
		t.Fatalf("width = %v, want capped at %v", w, cfg.MaxTabWidth)
	}
	if w := r.TabWidth(150); w != cfg.MinTabWidth {
		t.Fatalf("width = %v, want floor %v", w, cfg.MinTabWidth)
	}
}

func TestResizePreservesContent(t *testing.T) {
	r := newTestRegistry(store.NewMemory(), noFrames{})
	tab := r.CreateTab()
	drawStroke(tab, geom.Pt(10, 10), geom.Pt(30, 10))

	r.Resize(geom.Size{W: 400, H: 300})
	if w, h := tab.Drawing.LogicalSize(); w != 400 || h != 300 {
		t.Fatalf("drawing size = %dx%d", w, h)
	}
	if tab.Drawing.IsBlank() {
		t.Fatal("resize dropped the committed strokes")
	}
	// The pipeline must target the new surfaces.
	drawStroke(tab, geom.Pt(350, 250), geom.Pt(380, 250))
	rb, _ := tab.Drawing.OpaqueBounds()
	if rb.X+rb.W < 300 {
		t.Fatalf("stroke on resized surface missing: %+v", rb)
	}
}

func TestGridAppearsOnlyWhenZoomedIn(t *testing.T) {
	r := newTestRegistry(store.NewMemory(), noFrames{})
	tab := r.CreateTab()

	tab.View = geom.Transform{Zoom: 0.2}
	r.RequestRedraw(tab)
	if !tab.Display.IsBlank() {
		t.Fatal("grid must vanish below zoom 0.25")
	}

	tab.View = geom.Transform{Zoom: 1}
	r.RequestRedraw(tab)
	if tab.Display.IsBlank() {
		t.Fatal("grid missing at zoom 1")
	}
}

func TestDisplayCompositesDrawingAndPreview(t *testing.T) {
	r := newTestRegistry(store.NewMemory(), noFrames{})
	tab := r.CreateTab()
	tab.View = geom.Transform{Zoom: 0.2} // grid off so only strokes show

	tab.Pipeline.SetState(stroke.State{Tool: stroke.ToolBrush, BrushType: stroke.BrushSmooth, Size: 4, Color: "#000000"})
	tab.Pipeline.StartDrawing(stroke.Pointer{Canvas: geom.Pt(10, 10), Screen: geom.Pt(10, 10)})
	tab.Pipeline.Draw(stroke.Pointer{Canvas: geom.Pt(40, 10), Screen: geom.Pt(40, 10)})

	// Mid-stroke the preview must already show on the display.
	if tab.Display.IsBlank() {
		t.Fatal("preview not composited onto display")
	}
	tab.Pipeline.StopDrawing()
	if tab.Display.IsBlank() {
		t.Fatal("committed stroke not composited onto display")
	}
}
