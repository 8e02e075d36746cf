/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the
 *  specific language governing permissions and limitations under the License.
 */

// Package stroke turns pointer sequences into pixels. In-progress strokes
// render onto the preview raster each move; pointer-up composites the
// preview onto the drawing raster, so committed pixels live only there.
package stroke

import (
	"math"
	"math/rand"
	"time"

	"github.com/gogpu/gg"

	"inkpad/internal/config"
	"inkpad/internal/geom"
	"inkpad/internal/raster"
)

// Tool selects what a pointer sequence produces.
type Tool string

const (
	ToolBrush  Tool = "brush"
	ToolLine   Tool = "line"
	ToolEraser Tool = "eraser"
)

// BrushType selects the brush rendering style.
type BrushType string

const (
	BrushSmooth  BrushType = "smooth"
	BrushTexture BrushType = "texture"
)

// State is the active tool selection.
type State struct {
	Tool      Tool
	BrushType BrushType
	Size      float64
	Color     string
}

// Pointer is one pointer event, pre-converted to canvas space by the
// caller. Screen keeps the raw container position so double-click distance
// is measured in screen pixels regardless of zoom.
type Pointer struct {
	Canvas        geom.Point
	Screen        geom.Point
	Button        int
	Shift         bool
	OverlayTarget bool
}

// Hooks are the pipeline's side effects, fired on stroke commit.
type Hooks struct {
	Redraw       func()
	Persist      func()
	Snapshot     func()
	CreateSticky func(at geom.Point)
	// StickyDragging reports whether a note drag owns the pointer.
	StickyDragging func() bool
}

// Pipeline is the per-tab drawing state machine. It runs on the UI
// goroutine; it is not safe for concurrent use.
type Pipeline struct {
	drawing *raster.Surface
	preview *raster.Surface
	hooks   Hooks
	rng     *rand.Rand
	now     func() time.Time

	state State

	isDrawing  bool
	points     []geom.Point
	opSnapshot []uint8

	lastClickAt  time.Time
	lastClickPos geom.Point
}

func NewPipeline(drawing, preview *raster.Surface, rng *rand.Rand, hooks Hooks) *Pipeline {
	ist := config.Current().State
	return &Pipeline{
		drawing: drawing,
		preview: preview,
		hooks:   hooks,
		rng:     rng,
		now:     time.Now,
		state: State{
			Tool:      Tool(ist.Tool),
			BrushType: BrushType(ist.BrushType),
			Size:      ist.BrushSize,
			Color:     ist.BrushColor,
		},
	}
}

// SetClock overrides the time source. Intended for tests.
func (p *Pipeline) SetClock(now func() time.Time) { p.now = now }

// State returns the current tool selection.
func (p *Pipeline) State() State { return p.state }

// SetState replaces the tool selection.
func (p *Pipeline) SetState(s State) { p.state = s }

// IsDrawing reports whether a stroke is in progress.
func (p *Pipeline) IsDrawing() bool { return p.isDrawing }

// Retarget points the pipeline at new surfaces after a canvas resize. Any
// in-progress stroke is abandoned.
func (p *Pipeline) Retarget(drawing, preview *raster.Surface) {
	p.isDrawing = false
	p.points = nil
	p.opSnapshot = nil
	p.drawing = drawing
	p.preview = preview
}

// StartDrawing handles pointer-down. The second click of a double-click
// under the brush tool spawns a sticky note instead of a stroke.
func (p *Pipeline) StartDrawing(ev Pointer) {
	if ev.Button != 0 || ev.OverlayTarget {
		return
	}
	if p.hooks.StickyDragging != nil && p.hooks.StickyDragging() {
		return
	}

	cfg := config.Current().Settings.Canvas
	ts := p.now()
	if !p.lastClickAt.IsZero() &&
		ts.Sub(p.lastClickAt) <= cfg.ClickDelay() &&
		ev.Screen.Dist(p.lastClickPos) <= cfg.ClickDistance &&
		p.state.Tool == ToolBrush {
		p.lastClickAt = time.Time{}
		if p.hooks.CreateSticky != nil {
			p.hooks.CreateSticky(ev.Canvas)
		}
		return
	}
	p.lastClickAt = ts
	p.lastClickPos = ev.Screen

	p.isDrawing = true
	p.points = []geom.Point{ev.Canvas}
	p.preview.Clear()
	switch p.state.Tool {
	case ToolLine:
		p.opSnapshot = p.preview.ClonePixels()
	case ToolEraser:
		p.opSnapshot = p.drawing.ClonePixels()
	default:
		p.opSnapshot = nil
	}
}

// Draw handles pointer-move while a stroke is in progress.
func (p *Pipeline) Draw(ev Pointer) {
	if !p.isDrawing {
		return
	}
	pt := ev.Canvas
	switch p.state.Tool {
	case ToolLine:
		if err := p.preview.RestorePixels(p.opSnapshot); err != nil {
			return
		}
		p.strokeSegment(p.preview, p.points[0], pt)
	case ToolEraser:
		if err := p.drawing.RestorePixels(p.opSnapshot); err != nil {
			return
		}
		p.points = append(p.points, pt)
		p.drawing.EraseStroke(p.points, p.state.Size)
	default:
		if ev.Shift {
			// Straight-line constraint: preview only, points stay at anchor.
			p.preview.Clear()
			p.strokeSegment(p.preview, p.points[0], pt)
			break
		}
		p.points = append(p.points, pt)
		if p.state.BrushType == BrushTexture {
			if n := len(p.points); n >= 2 {
				p.textureSegment(p.points[n-2], p.points[n-1])
			}
		} else {
			p.preview.Clear()
			p.smoothPath(p.points)
		}
	}
	if p.hooks.Redraw != nil {
		p.hooks.Redraw()
	}
}

// StopDrawing handles pointer-up and interrupted sequences alike. Whatever
// the preview holds is committed.
func (p *Pipeline) StopDrawing() {
	if !p.isDrawing {
		return
	}
	p.isDrawing = false
	if p.state.Tool != ToolEraser {
		_ = p.drawing.CompositeOver(p.preview)
	}
	p.preview.Clear()
	p.opSnapshot = nil
	p.points = nil

	if p.hooks.Redraw != nil {
		p.hooks.Redraw()
	}
	if p.hooks.Persist != nil {
		p.hooks.Persist()
	}
	if p.hooks.Snapshot != nil {
		p.hooks.Snapshot()
	}
}

// Interrupt runs the pointer-up path when the window loses the pointer
// mid-stroke (blur, pointer left the surface).
func (p *Pipeline) Interrupt() { p.StopDrawing() }

func (p *Pipeline) strokeSegment(s *raster.Surface, from, to geom.Point) {
	c := s.Ctx()
	c.SetHexColor(p.state.Color)
	c.SetLineWidth(p.state.Size)
	c.SetLineCap(gg.LineCapRound)
	c.SetLineJoin(gg.LineJoinRound)
	c.MoveTo(from.X, from.Y)
	c.LineTo(to.X, to.Y)
	_ = c.Stroke()
}

// smoothPath strokes a quadratic curve through the points: each interior
// point is a control point ending at the midpoint toward its successor.
func (p *Pipeline) smoothPath(pts []geom.Point) {
	if len(pts) == 0 {
		return
	}
	c := p.preview.Ctx()
	c.SetHexColor(p.state.Color)
	c.SetLineWidth(p.state.Size)
	c.SetLineCap(gg.LineCapRound)
	c.SetLineJoin(gg.LineJoinRound)
	c.MoveTo(pts[0].X, pts[0].Y)
	if len(pts) == 1 {
		c.LineTo(pts[0].X, pts[0].Y)
	} else {
		for i := 1; i < len(pts)-1; i++ {
			mid := pts[i].Mid(pts[i+1])
			c.QuadraticTo(pts[i].X, pts[i].Y, mid.X, mid.Y)
		}
		last := pts[len(pts)-1]
		c.LineTo(last.X, last.Y)
	}
	_ = c.Stroke()
}

// textureSegment scatters bristle strokes along the segment between the two
// most recent points. All stochastic parameters come from config; the
// random source is injected so tests can fix the seed.
func (p *Pipeline) textureSegment(p1, p2 geom.Point) {
	cfg := config.Current().Settings.Brush
	s := p.state.Size
	d := p1.Dist(p2)
	density := math.Max(cfg.TextureDensityMin, d/(s*cfg.TextureSizeMultiplier))
	baseAngle := p1.Angle(p2)

	r, g, b, ok := parseHexColor(p.state.Color)
	if !ok {
		r, g, b = 0, 0, 0
	}
	c := p.preview.Ctx()
	c.SetLineCap(gg.LineCapRound)

	n := int(density)
	for i := 0; i <= n; i++ {
		t := float64(i) / density
		base := p1.Lerp(p2, t)
		base.X += (p.rng.Float64() - 0.5) * 2 * cfg.TextureJitter
		base.Y += (p.rng.Float64() - 0.5) * 2 * cfg.TextureJitter
		angle := baseAngle + (p.rng.Float64()-0.5)*2*cfg.TextureBristleAngle
		length := s * (cfg.TextureBristleLengthMin + p.rng.Float64()*cfg.TextureBristleLengthMax)
		width := (p.rng.Float64()*s/6 + s/8) * (0.5 + (1 - t))
		alpha := cfg.TextureAlphaMin + p.rng.Float64()*0.2

		dx := math.Cos(angle) * length / 2
		dy := math.Sin(angle) * length / 2
		p.bristle(c, base, dx, dy, width, r, g, b, alpha)
		if p.rng.Float64() < cfg.TextureInkFlowChance {
			p.bristle(c, base, dx, dy, width, r, g, b, alpha/2)
		}
	}
}

func (p *Pipeline) bristle(c *gg.Context, base geom.Point, dx, dy, width, r, g, b, alpha float64) {
	c.SetRGBA(r, g, b, alpha)
	c.SetLineWidth(width)
	c.MoveTo(base.X-dx, base.Y-dy)
	c.LineTo(base.X+dx, base.Y+dy)
	_ = c.Stroke()
}

// parseHexColor accepts #rgb and #rrggbb.
func parseHexColor(s string) (r, g, b float64, ok bool) {
	if len(s) == 0 || s[0] != '#' {
		return 0, 0, 0, false
	}
	hex := s[1:]
	var ri, gi, bi int
	switch len(hex) {
	case 3:
		ri, gi, bi = hexNibble(hex[0]), hexNibble(hex[1]), hexNibble(hex[2])
		if ri < 0 || gi < 0 || bi < 0 {
			return 0, 0, 0, false
		}
		ri, gi, bi = ri*17, gi*17, bi*17
	case 6:
		h0, h1 := hexNibble(hex[0]), hexNibble(hex[1])
		h2, h3 := hexNibble(hex[2]), hexNibble(hex[3])
		h4, h5 := hexNibble(hex[4]), hexNibble(hex[5])
		if h0 < 0 || h1 < 0 || h2 < 0 || h3 < 0 || h4 < 0 || h5 < 0 {
			return 0, 0, 0, false
		}
		ri, gi, bi = h0*16+h1, h2*16+h3, h4*16+h5
	default:
		return 0, 0, 0, false
	}
	return float64(ri) / 255, float64(gi) / 255, float64(bi) / 255, true
}

func hexNibble(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}
