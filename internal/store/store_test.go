/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the
 *  specific language governing permissions and limitations under the License.
 */

package store

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"inkpad/internal/config"
	"inkpad/internal/note"
	"inkpad/internal/raster"
)

func init() {
	config.Install(config.DefaultConfig())
}

func TestSQLiteKVRoundTrip(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "projects.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := s.Set("k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set("k", "v2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := s.Get("k")
	if err != nil || !ok || v != "v2" {
		t.Fatalf("get = %q %v %v", v, ok, err)
	}
	if err := s.Remove("k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := s.Get("k"); ok {
		t.Fatal("key survived remove")
	}
}

func TestKeysWithPrefix(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "projects.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	for _, k := range []string{"inkpad-b", "inkpad-a", "other-c"} {
		if err := s.Set(k, "v"); err != nil {
			t.Fatalf("set %q: %v", k, err)
		}
	}
	keys, err := s.KeysWithPrefix("inkpad-")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 || keys[0] != "inkpad-a" || keys[1] != "inkpad-b" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestProjectKeyScopedPerTab(t *testing.T) {
	a := ProjectKey("tab-a")
	b := ProjectKey("tab-b")
	if a == b {
		t.Fatal("keys must differ per tab")
	}
	if !strings.HasPrefix(a, config.Current().Settings.StorageKey+"-") {
		t.Fatalf("key %q missing storage key prefix", a)
	}
}

func TestProjectRoundTrip(t *testing.T) {
	kv := NewMemory()

	drawing := raster.New(80, 60, 1)
	drawing.Ctx().SetRGB(0, 0, 0)
	drawing.Ctx().DrawRectangle(10, 10, 20, 20)
	if err := drawing.Ctx().Fill(); err != nil {
		t.Fatalf("fill: %v", err)
	}
	notes := []note.Note{
		{X: 50, Y: 50, Width: 160, Height: 100, Text: "hi", Color: "#fff9b1"},
		{X: 5, Y: 5, Width: 160, Height: 100, Text: "two", Color: "#caffbf"},
	}
	tool := ToolState{CurrentTool: "brush", BrushSize: 4, BrushColor: "#000000", BrushType: "smooth"}

	SaveProject(kv, "tab-1", drawing, notes, tool)

	rec, img, found := LoadProject(kv, "tab-1")
	if !found {
		t.Fatal("record not found")
	}
	if img == nil {
		t.Fatal("raster image missing")
	}
	if rec.ToolState != tool {
		t.Fatalf("tool state = %+v", rec.ToolState)
	}
	if len(rec.StickyNotes) != 2 {
		t.Fatalf("notes = %d", len(rec.StickyNotes))
	}
	for i := range notes {
		if rec.StickyNotes[i] != notes[i] {
			t.Fatalf("note %d = %+v, want %+v", i, rec.StickyNotes[i], notes[i])
		}
	}

	// Pixels survive byte-for-byte on a fresh surface of identical size.
	fresh := raster.New(80, 60, 1)
	fresh.DrawImageScaled(img)
	if !bytes.Equal(fresh.Pix(), drawing.Pix()) {
		t.Fatal("raster pixels changed across save/load")
	}
}

func TestLoadProjectMissingKey(t *testing.T) {
	kv := NewMemory()
	if _, _, found := LoadProject(kv, "nope"); found {
		t.Fatal("missing key must report not found")
	}
}

func TestLoadProjectBadImageKeepsNotes(t *testing.T) {
	kv := NewMemory()
	kv.Set(ProjectKey("tab-1"), `{"imageDataUrl":"data:image/png;base64,!!!","stickyNotes":[{"x":1,"y":2,"width":3,"height":4,"text":"t","color":"#fff"}],"toolState":{"currentTool":"brush","brushSize":4,"brushColor":"#000","brushType":"smooth"}}`)

	rec, img, found := LoadProject(kv, "tab-1")
	if !found {
		t.Fatal("record must load")
	}
	if img != nil {
		t.Fatal("corrupt image must yield nil")
	}
	if len(rec.StickyNotes) != 1 || rec.StickyNotes[0].Text != "t" {
		t.Fatalf("notes lost: %+v", rec.StickyNotes)
	}
}

func TestRemoveProject(t *testing.T) {
	kv := NewMemory()
	kv.Set(ProjectKey("tab-1"), "{}")
	RemoveProject(kv, "tab-1")
	if kv.Len() != 0 {
		t.Fatal("key survived RemoveProject")
	}
}
