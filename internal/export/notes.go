/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"inkpad/internal/config"
	"inkpad/internal/note"
	"inkpad/internal/raster"
)

const noteCornerRadius = 6

// renderNotes rasterizes the sticky notes onto the export surface: rounded
// rectangles via the vector context, text via a font drawer on a separate
// layer composited on top.
func renderNotes(out *raster.Surface, notes []note.Note) error {
	cfg := config.Current().Settings.Note

	c := out.Ctx()
	for _, n := range notes {
		c.SetHexColor(n.Color)
		c.DrawRoundedRectangle(n.X, n.Y, n.Width, n.Height, noteCornerRadius)
		if err := c.Fill(); err != nil {
			return err
		}
	}

	face, err := noteFace(cfg.FontSize * out.DPR())
	if err != nil {
		return err
	}
	bw, bh := out.BackingSize()
	layer := image.NewRGBA(image.Rect(0, 0, bw, bh))
	ink := image.NewUniform(color.RGBA{R: 26, G: 26, B: 26, A: 255})
	lineHeight := cfg.FontSize * out.DPR() * 1.3

	for _, n := range notes {
		if n.Text == "" {
			continue
		}
		x := (n.X + cfg.TextOffsetX) * out.DPR()
		y := (n.Y + cfg.TextOffsetY) * out.DPR()
		for _, line := range strings.Split(n.Text, "\n") {
			d := &font.Drawer{
				Dst:  layer,
				Src:  ink,
				Face: face,
				Dot:  fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)},
			}
			d.DrawString(line)
			y += lineHeight
		}
	}
	out.DrawImageScaled(layer)
	return nil
}

// noteFace builds the label face at the given pixel size, falling back to
// the fixed bitmap face when the embedded font fails to parse.
func noteFace(sizePx float64) (font.Face, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return basicfont.Face7x13, nil
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	return face, nil
}
