/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geom defines the two coordinate spaces the canvas deals in.
//
// Canvas space is where strokes and sticky notes live; it is independent of
// the viewport. Container space is the pixel space of the hosting region,
// where input events arrive. A Transform (pan + uniform zoom) maps canvas
// space into container space.
package geom

import "math"

// Point is a 2D point. Which space it is in depends on context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Dist returns the Euclidean distance to q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Mid returns the midpoint of p and q.
func (p Point) Mid(q Point) Point {
	return Point{(p.X + q.X) / 2, (p.Y + q.Y) / 2}
}

// Lerp interpolates from p toward q by t in [0,1].
func (p Point) Lerp(q Point, t float64) Point {
	return Point{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// Angle returns the angle of the vector p→q in radians.
func (p Point) Angle(q Point) float64 {
	return math.Atan2(q.Y-p.Y, q.X-p.X)
}

// Rect is an axis-aligned rectangle in canvas space.
type Rect struct {
	X, Y, W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Size is a width/height pair.
type Size struct {
	W, H float64
}

// Transform is the viewport mapping: container = canvas*Zoom + Pan.
type Transform struct {
	Pan  Point
	Zoom float64
}

// IdentityTransform is the default viewport of a fresh tab.
func IdentityTransform() Transform { return Transform{Zoom: 1} }

// ToCanvas maps a container-space point into canvas space.
func (t Transform) ToCanvas(p Point) Point {
	return Point{(p.X - t.Pan.X) / t.Zoom, (p.Y - t.Pan.Y) / t.Zoom}
}

// ToContainer maps a canvas-space point into container space.
func (t Transform) ToContainer(p Point) Point {
	return Point{p.X*t.Zoom + t.Pan.X, p.Y*t.Zoom + t.Pan.Y}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FocalZoom returns the transform after zooming to newZoom such that the
// canvas-space point under the container-space point m stays fixed.
func (t Transform) FocalZoom(m Point, newZoom float64) Transform {
	c := t.ToCanvas(m)
	return Transform{
		Zoom: newZoom,
		Pan:  Point{m.X - c.X*newZoom, m.Y - c.Y*newZoom},
	}
}

// ClampPan enforces the margin rule per axis: if the scaled canvas exceeds
// the container on an axis, pan is limited so no empty margin appears on
// that axis; otherwise the canvas is centered on it.
func (t Transform) ClampPan(canvas, container Size) Transform {
	t.Pan.X = clampAxis(t.Pan.X, canvas.W*t.Zoom, container.W)
	t.Pan.Y = clampAxis(t.Pan.Y, canvas.H*t.Zoom, container.H)
	return t
}

func clampAxis(pan, scaled, avail float64) float64 {
	if scaled > avail {
		return Clamp(pan, avail-scaled, 0)
	}
	return (avail - scaled) / 2
}
