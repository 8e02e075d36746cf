/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package raster wraps gg drawing contexts as the canvas surfaces of a tab.
//
// A Surface has a logical size in CSS pixels and a backing buffer scaled by
// the device pixel ratio. Its drawing context is pre-scaled by dpr, so all
// path coordinates are canvas-space; pixel-level operations (snapshots,
// composites, the eraser) work on the raw backing buffer.
package raster

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"strings"

	"inkpad/internal/geom"

	"github.com/gogpu/gg"
)

// Surface is one raster layer of a tab (display, drawing, or preview).
type Surface struct {
	w, h int // logical size
	dpr  float64
	ctx  *gg.Context
}

// New allocates a transparent surface of logical size w×h at the given
// device pixel ratio (values < 1 are treated as 1).
func New(w, h int, dpr float64) *Surface {
	if dpr < 1 {
		dpr = 1
	}
	bw := int(math.Round(float64(w) * dpr))
	bh := int(math.Round(float64(h) * dpr))
	ctx := gg.NewContext(bw, bh)
	ctx.Scale(dpr, dpr)
	return &Surface{w: w, h: h, dpr: dpr, ctx: ctx}
}

// Ctx returns the drawing context. Its transform is canvas space: one unit
// equals one CSS pixel regardless of dpr. Callers using Push/Identity must
// restore the transform before returning.
func (s *Surface) Ctx() *gg.Context { return s.ctx }

// LogicalSize returns the CSS-pixel dimensions.
func (s *Surface) LogicalSize() (int, int) { return s.w, s.h }

// BackingSize returns the backing-buffer dimensions (logical × dpr).
func (s *Surface) BackingSize() (int, int) { return s.ctx.Width(), s.ctx.Height() }

// DPR returns the device pixel ratio the surface was allocated with.
func (s *Surface) DPR() float64 { return s.dpr }

// Pix returns the live backing pixels in RGBA order. Mutations are visible
// to subsequent draws.
func (s *Surface) Pix() []uint8 { return s.ctx.ResizeTarget().Data() }

// Clear makes the whole surface fully transparent.
func (s *Surface) Clear() { s.ctx.Clear() }

// ClonePixels returns a snapshot copy of the backing buffer, or nil if the
// allocation fails (callers treat that as "skip the snapshot").
func (s *Surface) ClonePixels() []uint8 {
	src := s.Pix()
	dst := make([]uint8, len(src))
	copy(dst, src)
	return dst
}

// RestorePixels writes a snapshot taken from a surface of identical backing
// size back into this surface.
func (s *Surface) RestorePixels(pix []uint8) error {
	dst := s.Pix()
	if len(pix) != len(dst) {
		return fmt.Errorf("pixel buffer size mismatch: %d != %d", len(pix), len(dst))
	}
	copy(dst, pix)
	return nil
}

// SameGeometry reports whether two surfaces share logical size, dpr and
// backing size bit-for-bit.
func SameGeometry(a, b *Surface) bool {
	aw, ah := a.BackingSize()
	bw, bh := b.BackingSize()
	return a.w == b.w && a.h == b.h && a.dpr == b.dpr && aw == bw && ah == bh
}

// CompositeOver alpha-composites src over s. Both buffers hold straight
// (non-premultiplied) RGBA, so the blend is done in straight space.
func (s *Surface) CompositeOver(src *Surface) error {
	if !SameGeometry(s, src) {
		return errors.New("composite: surface geometry mismatch")
	}
	over(s.Pix(), src.Pix())
	return nil
}

func over(dst, src []uint8) {
	for i := 0; i < len(dst); i += 4 {
		sa := float64(src[i+3]) / 255
		if sa == 0 {
			continue
		}
		if sa == 1 {
			copy(dst[i:i+4], src[i:i+4])
			continue
		}
		da := float64(dst[i+3]) / 255
		oa := sa + da*(1-sa)
		for c := 0; c < 3; c++ {
			sc := float64(src[i+c])
			dc := float64(dst[i+c])
			dst[i+c] = uint8(math.Round((sc*sa + dc*da*(1-sa)) / oa))
		}
		dst[i+3] = uint8(math.Round(oa * 255))
	}
}

// EraseStroke removes pixels along the polyline: a destination-out composite
// of a round-capped stroke of the given canvas-space width. Neither gg's
// immediate-mode context nor image/draw exposes destination-out, so the mask
// is applied by hand.
func (s *Surface) EraseStroke(pts []geom.Point, width float64) {
	if len(pts) == 0 {
		return
	}
	bw, bh := s.BackingSize()
	mask := gg.NewContext(bw, bh)
	mask.Scale(s.dpr, s.dpr)
	mask.SetRGBA(0, 0, 0, 1)
	mask.SetLineWidth(width)
	mask.SetLineCap(gg.LineCapRound)
	mask.SetLineJoin(gg.LineJoinRound)
	mask.MoveTo(pts[0].X, pts[0].Y)
	if len(pts) == 1 {
		mask.LineTo(pts[0].X, pts[0].Y)
	}
	for _, p := range pts[1:] {
		mask.LineTo(p.X, p.Y)
	}
	if err := mask.Stroke(); err != nil {
		return
	}
	dst := s.Pix()
	mpix := mask.ResizeTarget().Data()
	for i := 0; i < len(dst); i += 4 {
		ma := float64(mpix[i+3]) / 255
		if ma == 0 {
			continue
		}
		dst[i+3] = uint8(math.Round(float64(dst[i+3]) * (1 - ma)))
	}
}

// Image returns a copy of the backing buffer as an image.
func (s *Surface) Image() *image.RGBA {
	return s.ctx.ResizeTarget().ToImage()
}

// OpaqueBounds returns the bounding box of pixels with non-zero alpha, in
// canvas-space units, and whether any were found.
func (s *Surface) OpaqueBounds() (geom.Rect, bool) {
	bw, bh := s.BackingSize()
	pix := s.Pix()
	minX, minY, maxX, maxY := bw, bh, -1, -1
	for y := 0; y < bh; y++ {
		row := y * bw * 4
		for x := 0; x < bw; x++ {
			if pix[row+x*4+3] != 0 {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}
	if maxX < 0 {
		return geom.Rect{}, false
	}
	return geom.R(
		float64(minX)/s.dpr,
		float64(minY)/s.dpr,
		float64(maxX-minX+1)/s.dpr,
		float64(maxY-minY+1)/s.dpr,
	), true
}

// IsBlank reports whether every pixel is fully transparent.
func (s *Surface) IsBlank() bool {
	pix := s.Pix()
	for i := 3; i < len(pix); i += 4 {
		if pix[i] != 0 {
			return false
		}
	}
	return true
}

const dataURLPrefix = "data:image/png;base64,"

// DataURL encodes the backing buffer as a base64 PNG data URL.
func (s *Surface) DataURL() (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.Image()); err != nil {
		return "", fmt.Errorf("encode surface png: %w", err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURL decodes a base64 image data URL into an image.
func DecodeDataURL(url string) (image.Image, error) {
	idx := strings.Index(url, ",")
	if idx < 0 || !strings.HasPrefix(url, "data:image/") {
		return nil, errors.New("not an image data URL")
	}
	raw, err := base64.StdEncoding.DecodeString(url[idx+1:])
	if err != nil {
		return nil, fmt.Errorf("decode data URL: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode data URL image: %w", err)
	}
	return img, nil
}

// DrawImageScaled draws img stretched across the full backing buffer,
// bypassing the canvas-space transform. Used by project load, where the
// stored image may come from a different dpr.
func (s *Surface) DrawImageScaled(img image.Image) {
	bw, bh := s.BackingSize()
	buf := gg.ImageBufFromImage(img)
	s.ctx.Push()
	s.ctx.Identity()
	s.ctx.DrawImageEx(buf, gg.DrawImageOptions{
		DstWidth:  float64(bw),
		DstHeight: float64(bh),
		Opacity:   1.0,
	})
	s.ctx.Pop()
}
