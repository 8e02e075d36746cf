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
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"inkpad/internal/config"
	"inkpad/internal/geom"
	"inkpad/internal/history"
	applog "inkpad/internal/log"
	"inkpad/internal/note"
	"inkpad/internal/raster"
	"inkpad/internal/store"
	"inkpad/internal/stroke"
	"inkpad/internal/viewport"
)

// ErrLastTab is returned when closing the only remaining tab.
var ErrLastTab = errors.New("cannot close the last tab")

// Options configure a Registry.
type Options struct {
	KV        store.KV
	Frames    viewport.Frames
	Container geom.Size
	DPR       float64
	// Rand seeds the texture brush; nil uses a time-seeded source.
	Rand *rand.Rand
	// OnViewChanged fires on every animation frame with the transform to
	// apply to the tab's display surface and overlay.
	OnViewChanged func(t *Tab, tr geom.Transform)
	// OnRedraw fires after the display surface has been recomposited.
	OnRedraw func(t *Tab)
	// OnNoteSpawned lets the UI layer attach widgets to a restored note.
	OnNoteSpawned func(t *Tab, s *note.Sticky)
}

// Registry holds all tabs and the single active-tab pointer. Exactly one
// tab is active; all user input targets it.
type Registry struct {
	mu sync.Mutex

	kv        store.KV
	vp        *viewport.Engine
	container geom.Size
	dpr       float64
	rng       *rand.Rand

	onViewChanged func(t *Tab, tr geom.Transform)
	onRedraw      func(t *Tab)
	onNoteSpawned func(t *Tab, s *note.Sticky)

	tabs    []*Tab
	active  int
	created int
}

func NewRegistry(opts Options) *Registry {
	if opts.DPR < 1 {
		opts.DPR = 1
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	r := &Registry{
		kv:            opts.KV,
		container:     opts.Container,
		dpr:           opts.DPR,
		rng:           rng,
		onViewChanged: opts.OnViewChanged,
		onRedraw:      opts.OnRedraw,
		onNoteSpawned: opts.OnNoteSpawned,
		active:        -1,
	}
	r.vp = viewport.NewEngine(opts.Frames, r.applyView)
	r.vp.SetSizes(opts.Container, opts.Container)
	return r
}

// Viewport exposes the shared viewport engine for input wiring.
func (r *Registry) Viewport() *viewport.Engine { return r.vp }

func (r *Registry) applyView(tabID string, tr geom.Transform) {
	r.mu.Lock()
	t := r.findLocked(tabID)
	if t != nil {
		t.View = tr
	}
	cb := r.onViewChanged
	r.mu.Unlock()
	if t != nil && cb != nil {
		cb(t, tr)
	}
	if t != nil {
		r.RequestRedraw(t)
	}
}

func (r *Registry) findLocked(id string) *Tab {
	for _, t := range r.tabs {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// CreateTab allocates a tab at the current container size, loads any
// persisted record for it, seeds the history baseline, and makes it active.
func (r *Registry) CreateTab() *Tab {
	cfg := config.Current().Settings
	r.mu.Lock()
	r.created++
	t := &Tab{
		ID:      uuid.NewString(),
		Name:    fmt.Sprintf("Canvas %d", r.created),
		Display: raster.New(int(r.container.W), int(r.container.H), r.dpr),
		Drawing: raster.New(int(r.container.W), int(r.container.H), r.dpr),
		Preview: raster.New(int(r.container.W), int(r.container.H), r.dpr),
		Overlay: note.NewOverlay(),
		History: history.NewEngine(history.Config{
			Max:      cfg.Canvas.MaxHistory,
			Debounce: cfg.Canvas.HistoryDebounce(),
		}),
		View: geom.IdentityTransform(),
	}
	t.Pipeline = stroke.NewPipeline(t.Drawing, t.Preview, r.rng, stroke.Hooks{
		Redraw:       func() { r.RequestRedraw(t) },
		Persist:      func() { r.Persist(t) },
		Snapshot:     func() { r.Snapshot(t) },
		CreateSticky: func(at geom.Point) { r.AddSticky(t, at) },
		StickyDragging: func() bool {
			_, _, dragging := t.StickyDragging()
			return dragging
		},
	})
	r.tabs = append(r.tabs, t)
	r.mu.Unlock()

	r.loadProject(t)
	t.History.Reset(t.Drawing.ClonePixels(), t.Overlay.Snapshot())
	t.IsInitialized = true

	r.activate(t.ID)
	return t
}

// loadProject applies a persisted record, if any. Each piece degrades
// independently; the tab stays usable with whatever loaded.
func (r *Registry) loadProject(t *Tab) {
	rec, img, found := store.LoadProject(r.kv, t.ID)
	if !found {
		return
	}
	if img != nil {
		t.Drawing.DrawImageScaled(img)
	}
	t.Overlay.Restore(rec.StickyNotes, func(s *note.Sticky) {
		if r.onNoteSpawned != nil {
			r.onNoteSpawned(t, s)
		}
	})
	if rec.ToolState.CurrentTool != "" {
		t.Pipeline.SetState(stroke.State{
			Tool:      stroke.Tool(rec.ToolState.CurrentTool),
			BrushType: stroke.BrushType(rec.ToolState.BrushType),
			Size:      rec.ToolState.BrushSize,
			Color:     rec.ToolState.BrushColor,
		})
	}
	r.RequestRedraw(t)
}

// SwitchTo makes the given tab active. The outgoing tab keeps its state
// untouched apart from recording the transform its animation had reached.
func (r *Registry) SwitchTo(id string) bool {
	r.mu.Lock()
	t := r.findLocked(id)
	r.mu.Unlock()
	if t == nil {
		applog.WithComponent("board").Warn("switch to unknown tab", slog.String("tab", id))
		return false
	}
	r.activate(id)
	return true
}

func (r *Registry) activate(id string) {
	r.mu.Lock()
	prev := (*Tab)(nil)
	if r.active >= 0 && r.active < len(r.tabs) {
		prev = r.tabs[r.active]
	}
	next := r.findLocked(id)
	if next == nil {
		r.mu.Unlock()
		return
	}
	for i, t := range r.tabs {
		if t.ID == id {
			r.active = i
			break
		}
	}
	r.mu.Unlock()

	if prev != nil && prev.ID != id {
		if tr, ok := r.vp.CancelOwned(prev.ID); ok {
			prev.View = tr
		}
		prev.Pipeline.Interrupt()
		prev.ClearStickyDrag()
	}

	r.vp.Attach(next.ID, next.View)
	if r.onViewChanged != nil {
		r.onViewChanged(next, next.View)
	}
	r.RequestRedraw(next)
}

// CloseTab tears a tab down: note cleanup, animation cancel, persisted key
// removal, registry removal, neighbor activation. Closing the last tab is
// rejected.
func (r *Registry) CloseTab(id string) error {
	r.mu.Lock()
	if len(r.tabs) <= 1 {
		r.mu.Unlock()
		return ErrLastTab
	}
	idx := -1
	for i, t := range r.tabs {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return fmt.Errorf("unknown tab %q", id)
	}
	t := r.tabs[idx]
	wasActive := idx == r.active
	r.tabs = append(r.tabs[:idx], r.tabs[idx+1:]...)
	if r.active > idx {
		r.active--
	}
	r.mu.Unlock()

	t.Overlay.RemoveAll()
	t.ClearStickyDrag()
	r.vp.CancelOwned(t.ID)
	store.RemoveProject(r.kv, t.ID)

	if wasActive {
		r.mu.Lock()
		n := idx
		if n >= len(r.tabs) {
			n = len(r.tabs) - 1
		}
		nextID := r.tabs[n].ID
		r.active = -1
		r.mu.Unlock()
		r.activate(nextID)
	}
	applog.WithComponent("board").Info("tab closed", slog.String("tab", id))
	return nil
}

// ActiveTab returns the tab all input targets.
func (r *Registry) ActiveTab() *Tab {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active < 0 || r.active >= len(r.tabs) {
		return nil
	}
	return r.tabs[r.active]
}

// All returns the tabs in creation order.
func (r *Registry) All() []*Tab {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Tab(nil), r.tabs...)
}

// NextTab cycles to the tab after the active one.
func (r *Registry) NextTab() {
	r.mu.Lock()
	if len(r.tabs) < 2 {
		r.mu.Unlock()
		return
	}
	id := r.tabs[(r.active+1)%len(r.tabs)].ID
	r.mu.Unlock()
	r.activate(id)
}

// BarVisible reports whether the tab bar should show. A single tab hides it.
func (r *Registry) BarVisible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tabs) > 1
}

// TabWidth distributes the available bar width across tabs, clamped to the
// configured min and max.
func (r *Registry) TabWidth(available float64) float64 {
	cfg := config.Current().Settings.Tabs
	r.mu.Lock()
	n := len(r.tabs)
	r.mu.Unlock()
	if n == 0 {
		return cfg.MinTabWidth
	}
	w := available / float64(n)
	if w < cfg.MinTabWidth {
		return cfg.MinTabWidth
	}
	if w > cfg.MaxTabWidth {
		return cfg.MaxTabWidth
	}
	return w
}

// Resize reallocates every tab's surfaces at the new container size,
// preserving committed content, and points the pipelines at the new
// surfaces. Called after the resize debounce settles.
func (r *Registry) Resize(container geom.Size) {
	r.mu.Lock()
	r.container = container
	tabs := append([]*Tab(nil), r.tabs...)
	r.mu.Unlock()
	r.vp.SetSizes(container, container)

	for _, t := range tabs {
		old := t.Drawing
		t.Display = raster.New(int(container.W), int(container.H), r.dpr)
		t.Drawing = raster.New(int(container.W), int(container.H), r.dpr)
		t.Preview = raster.New(int(container.W), int(container.H), r.dpr)
		if !old.IsBlank() {
			t.Drawing.DrawImageScaled(old.Image())
		}
		t.Pipeline.Retarget(t.Drawing, t.Preview)
		r.RequestRedraw(t)
	}
}

// Container returns the current container size.
func (r *Registry) Container() geom.Size {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.container
}

// Persist writes a tab's project record.
func (r *Registry) Persist(t *Tab) {
	st := t.Pipeline.State()
	store.SaveProject(r.kv, t.ID, t.Drawing, t.Overlay.Snapshot(), store.ToolState{
		CurrentTool: string(st.Tool),
		BrushSize:   st.Size,
		BrushColor:  st.Color,
		BrushType:   string(st.BrushType),
	})
}

// Snapshot captures a history entry of the tab's current state.
func (r *Registry) Snapshot(t *Tab) {
	t.History.Save(t.Drawing.ClonePixels(), t.Overlay.Snapshot())
}
