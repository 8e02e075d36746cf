/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the
 *  specific language governing permissions and limitations under the License.
 */

// Package viewport animates the pan/zoom transform of the active tab.
// Input events move a target transform; a frame loop eases the applied
// transform toward it and hands each intermediate value to the UI layer.
package viewport

import (
	"math"
	"sync"
	"time"

	"inkpad/internal/config"
	"inkpad/internal/geom"
)

// Handle identifies a scheduled frame callback.
type Handle int64

// Frames schedules callbacks for the next display frame. The real driver
// runs on the UI toolkit's animation clock; tests drive frames by hand.
type Frames interface {
	Request(fn func(now time.Time)) Handle
	Cancel(h Handle)
}

// Wheel carries a normalized scroll event in container coordinates.
type Wheel struct {
	DeltaX, DeltaY float64
	Pos            geom.Point
	Ctrl           bool
	Meta           bool
	Shift          bool
}

// Engine owns the animated transform. A single engine serves all tabs but
// animates at most one at a time; switching tabs cancels the previous tab's
// animation so a stale frame can never write into the wrong tab.
type Engine struct {
	frames Frames
	apply  func(tabID string, t geom.Transform)

	mu        sync.Mutex
	owner     string
	current   geom.Transform
	target    geom.Transform
	canvas    geom.Size
	container geom.Size
	lastMouse geom.Point
	handle    Handle
	animating bool
}

func NewEngine(frames Frames, apply func(tabID string, t geom.Transform)) *Engine {
	return &Engine{
		frames:  frames,
		apply:   apply,
		current: geom.IdentityTransform(),
		target:  geom.IdentityTransform(),
	}
}

// Attach gives the engine a tab to animate and seeds both transforms from
// the tab's stored view. Any running animation for another tab is cancelled.
func (e *Engine) Attach(tabID string, view geom.Transform) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.animating {
		e.frames.Cancel(e.handle)
		e.animating = false
	}
	e.owner = tabID
	e.current = view
	e.target = view
}

// SetSizes updates the canvas and container extents used for pan clamping.
func (e *Engine) SetSizes(canvas, container geom.Size) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.canvas = canvas
	e.container = container
	e.target = e.target.ClampPan(e.canvas, e.container)
}

// SetLastMouse records the pointer position used as the focal point for
// keyboard zoom.
func (e *Engine) SetLastMouse(p geom.Point) {
	e.mu.Lock()
	e.lastMouse = p
	e.mu.Unlock()
}

// Target returns the transform the animation is heading toward.
func (e *Engine) Target() geom.Transform {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.target
}

// Current returns the transform applied as of the last frame.
func (e *Engine) Current() geom.Transform {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// HandleWheel maps a scroll event onto the target transform. Ctrl or meta
// zooms about the cursor, shift swaps the scroll axes, and a plain wheel
// pans opposite the scroll direction.
func (e *Engine) HandleWheel(tabID string, ev Wheel) {
	cfg := config.Current().Settings.Canvas
	e.mu.Lock()
	if tabID != e.owner {
		e.mu.Unlock()
		return
	}
	if ev.Ctrl || ev.Meta {
		factor := 1 - ev.DeltaY*cfg.ZoomSensitivity
		newZoom := clamp(e.target.Zoom*factor, cfg.MinScale, cfg.MaxScale)
		e.target = e.target.FocalZoom(ev.Pos, newZoom)
	} else {
		dx, dy := ev.DeltaX, ev.DeltaY
		if ev.Shift {
			dx, dy = dy, dx
		}
		e.target.Pan.X -= dx * cfg.PanSensitivity
		e.target.Pan.Y -= dy * cfg.PanSensitivity
	}
	e.target = e.target.ClampPan(e.canvas, e.container)
	e.startLocked(tabID)
	e.mu.Unlock()
}

// ZoomStep zooms in or out by one keyboard step about the last pointer
// position, or the container center when the pointer has not been seen.
func (e *Engine) ZoomStep(tabID string, in bool) {
	cfg := config.Current().Settings.Canvas
	e.mu.Lock()
	if tabID != e.owner {
		e.mu.Unlock()
		return
	}
	factor := 1 + cfg.ZoomStep
	if !in {
		factor = 1 / factor
	}
	focal := e.lastMouse
	if focal == (geom.Point{}) {
		focal = geom.Pt(e.container.W/2, e.container.H/2)
	}
	newZoom := clamp(e.target.Zoom*factor, cfg.MinScale, cfg.MaxScale)
	e.target = e.target.FocalZoom(focal, newZoom)
	e.target = e.target.ClampPan(e.canvas, e.container)
	e.startLocked(tabID)
	e.mu.Unlock()
}

// Reset returns the view to 100% zoom with the canvas centered.
func (e *Engine) Reset(tabID string) {
	e.mu.Lock()
	if tabID != e.owner {
		e.mu.Unlock()
		return
	}
	e.target = geom.IdentityTransform().ClampPan(e.canvas, e.container)
	e.startLocked(tabID)
	e.mu.Unlock()
}

// PanBy shifts the target pan directly, used for drag panning.
func (e *Engine) PanBy(tabID string, d geom.Point) {
	e.mu.Lock()
	if tabID != e.owner {
		e.mu.Unlock()
		return
	}
	e.target.Pan = e.target.Pan.Add(d)
	e.target = e.target.ClampPan(e.canvas, e.container)
	e.startLocked(tabID)
	e.mu.Unlock()
}

// CancelOwned stops the animation if it belongs to the given tab and
// returns the transform that was applied last, so the tab can store it.
func (e *Engine) CancelOwned(tabID string) (geom.Transform, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tabID != e.owner {
		return geom.Transform{}, false
	}
	if e.animating {
		e.frames.Cancel(e.handle)
		e.animating = false
	}
	return e.current, true
}

func (e *Engine) startLocked(tabID string) {
	if e.animating {
		return
	}
	e.animating = true
	e.handle = e.frames.Request(func(now time.Time) { e.step(tabID) })
}

// step eases current toward target by one frame. The owner is re-checked on
// entry because a tab switch may have happened between scheduling and
// delivery of the frame.
func (e *Engine) step(tabID string) {
	cfg := config.Current().Settings.Canvas
	e.mu.Lock()
	if tabID != e.owner || !e.animating {
		e.animating = false
		e.mu.Unlock()
		return
	}
	e.current.Pan.X += (e.target.Pan.X - e.current.Pan.X) * cfg.Easing
	e.current.Pan.Y += (e.target.Pan.Y - e.current.Pan.Y) * cfg.Easing
	e.current.Zoom += (e.target.Zoom - e.current.Zoom) * cfg.Easing

	settled := math.Abs(e.target.Pan.X-e.current.Pan.X) < cfg.SnapEpsilon &&
		math.Abs(e.target.Pan.Y-e.current.Pan.Y) < cfg.SnapEpsilon &&
		math.Abs(e.target.Zoom-e.current.Zoom) < cfg.SnapEpsilon
	if settled {
		e.current = e.target
		e.animating = false
	} else {
		e.handle = e.frames.Request(func(now time.Time) { e.step(tabID) })
	}
	applied := e.current
	e.mu.Unlock()

	e.apply(tabID, applied)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
