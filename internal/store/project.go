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
	"encoding/json"
	"fmt"
	"image"

	"log/slog"

	"inkpad/internal/config"
	applog "inkpad/internal/log"
	"inkpad/internal/note"
	"inkpad/internal/raster"
)

// ToolState is the persisted tool selection of a tab.
type ToolState struct {
	CurrentTool string  `json:"currentTool"`
	BrushSize   float64 `json:"brushSize"`
	BrushColor  string  `json:"brushColor"`
	BrushType   string  `json:"brushType"`
}

// ProjectRecord is the JSON document stored per tab.
type ProjectRecord struct {
	ImageDataURL string      `json:"imageDataUrl"`
	StickyNotes  []note.Note `json:"stickyNotes"`
	ToolState    ToolState   `json:"toolState"`
}

// ProjectKey derives the store key for one tab.
func ProjectKey(tabID string) string {
	return fmt.Sprintf("%s-%s", config.Current().Settings.StorageKey, tabID)
}

// SaveProject serializes a tab's drawing raster, notes and tool state under
// its key. Failures are logged and swallowed; persistence is best-effort
// and must never interrupt drawing.
func SaveProject(kv KV, tabID string, drawing *raster.Surface, notes []note.Note, tool ToolState) {
	l := applog.WithOperation(applog.WithComponent("store"), "save").With(
		slog.String("tab", tabID),
	)
	url, err := drawing.DataURL()
	if err != nil {
		l.Error("encode raster failed", slog.Any("err", err))
		return
	}
	rec := ProjectRecord{ImageDataURL: url, StickyNotes: notes, ToolState: tool}
	data, err := json.Marshal(rec)
	if err != nil {
		l.Error("marshal record failed", slog.Any("err", err))
		return
	}
	if err := kv.Set(ProjectKey(tabID), string(data)); err != nil {
		l.Error("write record failed", slog.Any("err", err))
	}
}

// LoadProject reads a tab's record. A missing key is not an error; the
// boolean reports whether a record was found. The raster image is decoded
// here but applied by the caller, mirroring the async image load on the
// original platform.
func LoadProject(kv KV, tabID string) (ProjectRecord, image.Image, bool) {
	l := applog.WithOperation(applog.WithComponent("store"), "load").With(
		slog.String("tab", tabID),
	)
	raw, ok, err := kv.Get(ProjectKey(tabID))
	if err != nil {
		l.Error("read record failed", slog.Any("err", err))
		return ProjectRecord{}, nil, false
	}
	if !ok {
		return ProjectRecord{}, nil, false
	}
	var rec ProjectRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		l.Error("parse record failed", slog.Any("err", err))
		return ProjectRecord{}, nil, false
	}
	// A bad image must not discard the notes and tool state that parsed.
	var img image.Image
	if rec.ImageDataURL != "" {
		img, err = raster.DecodeDataURL(rec.ImageDataURL)
		if err != nil {
			l.Error("decode raster failed", slog.Any("err", err))
			img = nil
		}
	}
	return rec, img, true
}

// RemoveProject clears a tab's key, used on tab close.
func RemoveProject(kv KV, tabID string) {
	if err := kv.Remove(ProjectKey(tabID)); err != nil {
		applog.WithComponent("store").Error("remove record failed",
			slog.String("tab", tabID), slog.Any("err", err))
	}
}
