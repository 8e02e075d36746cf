/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import (
	"math"
	"testing"
)

func TestTransformRoundTrip(t *testing.T) {
	tr := Transform{Pan: Pt(37, -12), Zoom: 1.75}
	p := Pt(411, 93)
	q := tr.ToContainer(tr.ToCanvas(p))
	if math.Abs(q.X-p.X) > 1e-9 || math.Abs(q.Y-p.Y) > 1e-9 {
		t.Fatalf("round trip drifted: %v -> %v", p, q)
	}
}

func TestFocalZoomKeepsPointFixed(t *testing.T) {
	tr := Transform{Pan: Pt(0, 0), Zoom: 1}
	m := Pt(400, 300)
	before := tr.ToCanvas(m)
	tr2 := tr.FocalZoom(m, 1.5)
	after := tr2.ToCanvas(m)
	if before.Dist(after) > 1e-9 {
		t.Fatalf("focal point moved: %v -> %v", before, after)
	}
	if tr2.Zoom != 1.5 {
		t.Fatalf("zoom = %v, want 1.5", tr2.Zoom)
	}
}

func TestFocalZoomFromOffsetViewport(t *testing.T) {
	tr := Transform{Pan: Pt(-120, 45), Zoom: 0.8}
	m := Pt(250, 250)
	before := tr.ToCanvas(m)
	after := tr.FocalZoom(m, 2.1).ToCanvas(m)
	if before.Dist(after) > 1e-9 {
		t.Fatalf("focal point moved: %v -> %v", before, after)
	}
}

func TestClampPanCentersWhenSmaller(t *testing.T) {
	tr := Transform{Pan: Pt(999, -999), Zoom: 0.5}
	got := tr.ClampPan(Size{W: 800, H: 600}, Size{W: 1000, H: 700})
	// 800*0.5 = 400 <= 1000, so x centers at (1000-400)/2 = 300.
	if got.Pan.X != 300 {
		t.Errorf("pan.x = %v, want 300", got.Pan.X)
	}
	// 600*0.5 = 300 <= 700, so y centers at 200.
	if got.Pan.Y != 200 {
		t.Errorf("pan.y = %v, want 200", got.Pan.Y)
	}
}

func TestClampPanNoMarginWhenLarger(t *testing.T) {
	canvas := Size{W: 800, H: 600}
	container := Size{W: 500, H: 400}
	cases := []struct {
		pan  Point
		want Point
	}{
		{Pt(10, 10), Pt(0, 0)},                    // past top-left
		{Pt(-2000, -2000), Pt(-1100, -800)},       // past bottom-right: container - scaled
		{Pt(-300, -100), Pt(-300, -100)},          // in range, untouched
	}
	for _, c := range cases {
		tr := Transform{Pan: c.pan, Zoom: 2}
		got := tr.ClampPan(canvas, container)
		if got.Pan != c.want {
			t.Errorf("ClampPan(%v) = %v, want %v", c.pan, got.Pan, c.want)
		}
	}
}

func TestPointHelpers(t *testing.T) {
	if d := Pt(0, 0).Dist(Pt(3, 4)); d != 5 {
		t.Errorf("Dist = %v, want 5", d)
	}
	if m := Pt(2, 2).Mid(Pt(4, 6)); m != Pt(3, 4) {
		t.Errorf("Mid = %v", m)
	}
	if p := Pt(0, 0).Lerp(Pt(10, 20), 0.5); p != Pt(5, 10) {
		t.Errorf("Lerp = %v", p)
	}
	if a := Pt(0, 0).Angle(Pt(0, 1)); math.Abs(a-math.Pi/2) > 1e-12 {
		t.Errorf("Angle = %v, want pi/2", a)
	}
}

func TestClamp(t *testing.T) {
	if Clamp(5, 0, 3) != 3 || Clamp(-1, 0, 3) != 0 || Clamp(2, 0, 3) != 2 {
		t.Fatal("Clamp broken")
	}
}
