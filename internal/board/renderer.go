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
	"math"

	"inkpad/internal/config"
	"inkpad/internal/geom"
)

const (
	gridFadeStart = 0.25
	gridFadeEnd   = 0.5
	gridMaxAlpha  = 0.5
)

// RequestRedraw recomposites a tab's display surface: dot grid, committed
// strokes, then the in-progress preview. Idempotent; the transform is
// applied by the UI layer, so compositing is pixel-identical at any zoom.
func (r *Registry) RequestRedraw(t *Tab) {
	r.mu.Lock()
	container := r.container
	cb := r.onRedraw
	r.mu.Unlock()

	t.Display.Clear()
	r.drawGrid(t, container)
	_ = t.Display.CompositeOver(t.Drawing)
	_ = t.Display.CompositeOver(t.Preview)

	if cb != nil {
		cb(t)
	}
}

// drawGrid stamps the dot grid over the visible canvas window. Dot radius
// is 1/zoom so dots keep a constant screen size; alpha fades in linearly
// between zoom 0.25 and 0.5 and the grid disappears entirely below 0.25.
func (r *Registry) drawGrid(t *Tab, container geom.Size) {
	zoom := t.View.Zoom
	if zoom <= gridFadeStart {
		return
	}
	alpha := (zoom - gridFadeStart) / (gridFadeEnd - gridFadeStart)
	if alpha > 1 {
		alpha = 1
	}
	alpha *= gridMaxAlpha

	grid := config.Current().Settings.Canvas.GridSize
	if grid <= 0 {
		return
	}
	w, h := t.Display.LogicalSize()

	// Canvas-space window currently on screen.
	tl := t.View.ToCanvas(geom.Pt(0, 0))
	br := t.View.ToCanvas(geom.Pt(container.W, container.H))
	x0 := math.Max(0, grid*math.Floor(tl.X/grid))
	y0 := math.Max(0, grid*math.Floor(tl.Y/grid))
	x1 := math.Min(float64(w), br.X)
	y1 := math.Min(float64(h), br.Y)

	c := t.Display.Ctx()
	c.SetRGBA(0.5, 0.5, 0.5, alpha)
	radius := 1 / zoom
	for y := y0; y <= y1; y += grid {
		for x := x0; x <= x1; x += grid {
			c.DrawCircle(x, y, radius)
		}
	}
	_ = c.Fill()
}
