/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the
 *  specific language governing permissions and limitations under the License.
 */

package shell

import (
	"testing"
	"time"

	"inkpad/internal/geom"
)

func TestDispatcherRoutesActions(t *testing.T) {
	d := NewDispatcher()
	var got string
	d.Register(ActionSetBrush, func(v string) { got = v })

	if !d.Dispatch(ActionSetBrush, "texture") {
		t.Fatal("dispatch refused a registered action")
	}
	if got != "texture" {
		t.Fatalf("value = %q", got)
	}
	if d.Dispatch(Action("bogus"), "") {
		t.Fatal("unknown action must report false")
	}
}

// recordedOutbound captures the host-facing side of the channel.
type recordedOutbound struct {
	menus []string
	saves [][2]string
}

func (r *recordedOutbound) ShowContextMenu(brushType string) {
	r.menus = append(r.menus, brushType)
}

func (r *recordedOutbound) SaveImage(dataURL, format string) {
	r.saves = append(r.saves, [2]string{dataURL, format})
}

var _ Outbound = (*recordedOutbound)(nil)

func TestOutboundCarriesExportAndMenu(t *testing.T) {
	d := NewDispatcher()
	out := &recordedOutbound{}
	d.Register(ActionExportImage, func(v string) {
		out.SaveImage("data:image/png;base64,iVBORw0KGgo=", v)
	})

	if !d.Dispatch(ActionExportImage, "webp") {
		t.Fatal("dispatch refused export-image")
	}
	if len(out.saves) != 1 || out.saves[0][1] != "webp" {
		t.Fatalf("saves = %v", out.saves)
	}
	if out.saves[0][0] == "" || out.saves[0][0][:5] != "data:" {
		t.Fatalf("save payload must be a data url, got %q", out.saves[0][0])
	}

	out.ShowContextMenu("texture")
	if len(out.menus) != 1 || out.menus[0] != "texture" {
		t.Fatalf("menus = %v", out.menus)
	}
}

func TestShortcutTable(t *testing.T) {
	cases := []struct {
		ev   KeyEvent
		want Action
		ok   bool
	}{
		{KeyEvent{Key: "z", Ctrl: true}, ActionUndo, true},
		{KeyEvent{Key: "Z", Meta: true}, ActionUndo, true},
		{KeyEvent{Key: "z", Ctrl: true, Shift: true}, ActionRedo, true},
		{KeyEvent{Key: "y", Ctrl: true}, ActionRedo, true},
		{KeyEvent{Key: "=", Ctrl: true}, ActionZoomIn, true},
		{KeyEvent{Key: "+", Meta: true}, ActionZoomIn, true},
		{KeyEvent{Key: "numpad+", Ctrl: true}, ActionZoomIn, true},
		{KeyEvent{Key: "-", Ctrl: true}, ActionZoomOut, true},
		{KeyEvent{Key: "0", Ctrl: true}, ActionZoomReset, true},
		{KeyEvent{Key: "s", Ctrl: true}, ActionSaveProject, true},
		{KeyEvent{Key: "s", Ctrl: true, Shift: true}, ActionExportImage, true},
		{KeyEvent{Key: "delete", Ctrl: true}, ActionClear, true},
		{KeyEvent{Key: "backspace", Meta: true}, ActionClear, true},
		{KeyEvent{Key: "t", Ctrl: true}, ActionNewTab, true},
		{KeyEvent{Key: "w", Ctrl: true}, ActionCloseTab, true},
		{KeyEvent{Key: "tab", Ctrl: true}, ActionNextTab, true},
		{KeyEvent{Key: "z"}, "", false},
		{KeyEvent{Key: "q", Ctrl: true}, "", false},
	}
	for _, c := range cases {
		got, ok := Shortcut(c.ev)
		if ok != c.ok || got != c.want {
			t.Errorf("Shortcut(%+v) = %q, %v; want %q, %v", c.ev, got, ok, c.want, c.ok)
		}
	}
}

func TestShortcutsSuppressedInTextInput(t *testing.T) {
	if _, ok := Shortcut(KeyEvent{Key: "z", Ctrl: true, InTextInput: true}); ok {
		t.Fatal("shortcut fired while typing in a text field")
	}
}

func TestModifierTrackerBlurReset(t *testing.T) {
	var m ModifierTracker
	m.SetShift(true)
	if !m.Shift() {
		t.Fatal("shift not tracked")
	}
	m.Blur()
	if m.Shift() {
		t.Fatal("shift stuck after blur")
	}
}

func TestResizeDebouncerCoalesces(t *testing.T) {
	fired := make(chan geom.Size, 4)
	r := &ResizeDebouncer{Delay: 30 * time.Millisecond, Fn: func(s geom.Size) { fired <- s }}

	r.Trigger(geom.Size{W: 100, H: 100})
	r.Trigger(geom.Size{W: 200, H: 150})
	r.Trigger(geom.Size{W: 300, H: 200})

	select {
	case s := <-fired:
		if s.W != 300 || s.H != 200 {
			t.Fatalf("fired with %+v, want the final size", s)
		}
	case <-time.After(time.Second):
		t.Fatal("debouncer never fired")
	}
	select {
	case s := <-fired:
		t.Fatalf("debouncer fired again with %+v", s)
	case <-time.After(80 * time.Millisecond):
	}
}

func TestResizeDebouncerStop(t *testing.T) {
	fired := make(chan struct{}, 1)
	r := &ResizeDebouncer{Delay: 20 * time.Millisecond, Fn: func(geom.Size) { fired <- struct{}{} }}
	r.Trigger(geom.Size{W: 10, H: 10})
	r.Stop()
	select {
	case <-fired:
		t.Fatal("stopped debouncer fired")
	case <-time.After(60 * time.Millisecond):
	}
}
