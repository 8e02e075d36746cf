/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package raster

import (
	"bytes"
	"testing"

	"inkpad/internal/geom"
)

func TestNewSurfaceGeometry(t *testing.T) {
	s := New(800, 600, 2)
	if w, h := s.LogicalSize(); w != 800 || h != 600 {
		t.Fatalf("logical = %dx%d", w, h)
	}
	if bw, bh := s.BackingSize(); bw != 1600 || bh != 1200 {
		t.Fatalf("backing = %dx%d, want 1600x1200", bw, bh)
	}
	if !s.IsBlank() {
		t.Fatal("fresh surface must be transparent")
	}
}

func TestSurfacesMatchBitForBit(t *testing.T) {
	a := New(320, 240, 1.5)
	b := New(320, 240, 1.5)
	if !SameGeometry(a, b) {
		t.Fatal("identically-sized surfaces must share geometry")
	}
	if len(a.Pix()) != len(b.Pix()) {
		t.Fatal("backing buffers differ in length")
	}
}

func TestStrokeLandsInsideExpectedBounds(t *testing.T) {
	s := New(100, 50, 1)
	c := s.Ctx()
	c.SetHexColor("#000000")
	c.SetLineWidth(4)
	c.MoveTo(10, 10)
	c.LineTo(30, 10)
	if err := c.Stroke(); err != nil {
		t.Fatalf("stroke: %v", err)
	}
	r, ok := s.OpaqueBounds()
	if !ok {
		t.Fatal("no pixels drawn")
	}
	if r.X < 5 || r.Y < 5 || r.X+r.W > 35 || r.Y+r.H > 15 {
		t.Fatalf("stroke bounds escaped expectation: %+v", r)
	}
}

func TestClonePixelsRoundTrip(t *testing.T) {
	s := New(64, 64, 1)
	s.Ctx().SetRGB(1, 0, 0)
	s.Ctx().DrawCircle(32, 32, 10)
	if err := s.Ctx().Fill(); err != nil {
		t.Fatalf("fill: %v", err)
	}
	snap := s.ClonePixels()

	s.Clear()
	if !s.IsBlank() {
		t.Fatal("clear left pixels behind")
	}
	if err := s.RestorePixels(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !bytes.Equal(s.Pix(), snap) {
		t.Fatal("restored pixels differ from snapshot")
	}
}

func TestRestorePixelsRejectsWrongSize(t *testing.T) {
	s := New(10, 10, 1)
	if err := s.RestorePixels(make([]uint8, 16)); err == nil {
		t.Fatal("expected size-mismatch error")
	}
}

func TestCompositeOverMovesPreviewToDrawing(t *testing.T) {
	drawing := New(40, 40, 1)
	preview := New(40, 40, 1)
	preview.Ctx().SetRGB(0, 0, 1)
	preview.Ctx().DrawRectangle(5, 5, 10, 10)
	if err := preview.Ctx().Fill(); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if err := drawing.CompositeOver(preview); err != nil {
		t.Fatalf("composite: %v", err)
	}
	if drawing.IsBlank() {
		t.Fatal("composite produced nothing")
	}
	preview.Clear()
	if !preview.IsBlank() {
		t.Fatal("preview must be empty after clear")
	}
}

func TestCompositeOverGeometryMismatch(t *testing.T) {
	a := New(10, 10, 1)
	b := New(10, 10, 2)
	if err := a.CompositeOver(b); err == nil {
		t.Fatal("expected geometry mismatch error")
	}
}

func TestEraseStrokeRemovesPixels(t *testing.T) {
	s := New(60, 60, 1)
	s.Ctx().SetRGB(0, 0, 0)
	s.Ctx().DrawRectangle(0, 0, 60, 60)
	if err := s.Ctx().Fill(); err != nil {
		t.Fatalf("fill: %v", err)
	}

	s.EraseStroke([]geom.Point{{X: 0, Y: 30}, {X: 60, Y: 30}}, 10)

	// Center of the erased band must be transparent, far corners untouched.
	pix := s.Pix()
	center := (30*60 + 30) * 4
	if pix[center+3] != 0 {
		t.Errorf("center alpha = %d, want 0", pix[center+3])
	}
	corner := (2*60 + 2) * 4
	if pix[corner+3] == 0 {
		t.Error("corner was erased but lies outside the stroke")
	}
}

func TestDataURLRoundTrip(t *testing.T) {
	s := New(30, 20, 2)
	s.Ctx().SetRGB(0, 1, 0)
	s.Ctx().DrawRectangle(2, 2, 8, 8)
	if err := s.Ctx().Fill(); err != nil {
		t.Fatalf("fill: %v", err)
	}
	url, err := s.DataURL()
	if err != nil {
		t.Fatalf("DataURL: %v", err)
	}
	img, err := DecodeDataURL(url)
	if err != nil {
		t.Fatalf("DecodeDataURL: %v", err)
	}
	bw, bh := s.BackingSize()
	if img.Bounds().Dx() != bw || img.Bounds().Dy() != bh {
		t.Fatalf("decoded size %v, want %dx%d", img.Bounds(), bw, bh)
	}

	fresh := New(30, 20, 2)
	fresh.DrawImageScaled(img)
	if fresh.IsBlank() {
		t.Fatal("restored surface is blank")
	}
}

func TestDecodeDataURLRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "hello", "data:text/plain;base64,aGk=", "data:image/png;base64,!!!"} {
		if _, err := DecodeDataURL(in); err == nil {
			t.Errorf("DecodeDataURL(%q) accepted garbage", in)
		}
	}
}
