/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	applog "inkpad/internal/log"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed assets/*.json
var assets embed.FS

// ElementIDs names the shell regions user input is attached to. They exist so
// the UI layer and tests agree on lookup names rather than magic strings.
type ElementIDs struct {
	CanvasContainer string `json:"canvasContainer"`
	TabBar          string `json:"tabBar"`
	Toolbar         string `json:"toolbar"`
}

// CanvasSettings are the viewport, grid, history and click tunables.
type CanvasSettings struct {
	MinScale          float64 `json:"minScale"`
	MaxScale          float64 `json:"maxScale"`
	ZoomSensitivity   float64 `json:"zoomSensitivity"`
	ZoomStep          float64 `json:"zoomStep"`
	PanSensitivity    float64 `json:"panSensitivity"`
	Easing            float64 `json:"easing"`
	SnapEpsilon       float64 `json:"snapEpsilon"`
	GridSize          float64 `json:"gridSize"`
	HistoryDebounceMs int     `json:"historyDebounceMs"`
	MaxHistory        int     `json:"maxHistory"`
	ClickDelayMs      int     `json:"clickDelayMs"`
	ClickDistance     float64 `json:"clickDistance"`
	ResizeDebounceMs  int     `json:"resizeDebounceMs"`
}

// BrushSettings hold the texture-brush stochastic parameters and theme colors.
type BrushSettings struct {
	TextureDensityMin       float64 `json:"textureDensityMin"`
	TextureSizeMultiplier   float64 `json:"textureSizeMultiplier"`
	TextureJitter           float64 `json:"textureJitter"`
	TextureBristleAngle     float64 `json:"textureBristleAngle"`
	TextureBristleLengthMin float64 `json:"textureBristleLengthMin"`
	TextureBristleLengthMax float64 `json:"textureBristleLengthMax"`
	TextureAlphaMin         float64 `json:"textureAlphaMin"`
	TextureInkFlowChance    float64 `json:"textureInkFlowChance"`
	DefaultColorLight       string  `json:"defaultColorLight"`
	DefaultColorDark        string  `json:"defaultColorDark"`
}

// NoteSettings control sticky-note geometry and styling.
type NoteSettings struct {
	DefaultWidth    float64  `json:"defaultWidth"`
	DefaultHeight   float64  `json:"defaultHeight"`
	TextOffsetX     float64  `json:"textOffsetX"`
	TextOffsetY     float64  `json:"textOffsetY"`
	FontFamily      string   `json:"fontFamily"`
	FontSize        float64  `json:"fontSize"`
	Colors          []string `json:"colors"`
	DeleteBtnOffset float64  `json:"deleteBtnOffset"`
	DeleteBtnRadius float64  `json:"deleteBtnRadius"`
}

// ExportSettings control output encoding.
type ExportSettings struct {
	FilenamePrefix string `json:"filenamePrefix"`
	JPEGQuality    int    `json:"jpegQuality"`
}

// TabSettings control the tab bar layout.
type TabSettings struct {
	MinTabWidth float64 `json:"minTabWidth"`
	MaxTabWidth float64 `json:"maxTabWidth"`
}

// Settings is the first read-only JSON document: ids, constants, brush
// parameters, sticky-note geometry, export settings and the storage key.
type Settings struct {
	Elements   ElementIDs     `json:"elements"`
	Canvas     CanvasSettings `json:"canvas"`
	Brush      BrushSettings  `json:"brush"`
	Note       NoteSettings   `json:"note"`
	Export     ExportSettings `json:"export"`
	Tabs       TabSettings    `json:"tabs"`
	StorageKey string         `json:"storageKey"`
}

// InitialState is the second read-only JSON document: tool defaults applied
// to a fresh tab before any persisted record is loaded.
type InitialState struct {
	Tool       string  `json:"tool"`
	BrushSize  float64 `json:"brushSize"`
	BrushColor string  `json:"brushColor"`
	BrushType  string  `json:"brushType"`
	ShowGrid   bool    `json:"showGrid"`
}

// HistoryDebounce returns the coalescing window as a duration.
func (c CanvasSettings) HistoryDebounce() time.Duration {
	return time.Duration(c.HistoryDebounceMs) * time.Millisecond
}

// ClickDelay returns the double-click detection window as a duration.
func (c CanvasSettings) ClickDelay() time.Duration {
	return time.Duration(c.ClickDelayMs) * time.Millisecond
}

// ResizeDebounce returns the window-resize settle time as a duration.
func (c CanvasSettings) ResizeDebounce() time.Duration {
	return time.Duration(c.ResizeDebounceMs) * time.Millisecond
}

// Config is the full immutable configuration: the YAML app layer plus both
// JSON documents.
type Config struct {
	App      AppConfig
	Settings Settings
	State    InitialState
}

var (
	currentMu sync.RWMutex
	current   *Config
)

// Current returns the process-wide configuration, loading defaults on first
// use. It never returns nil.
func Current() *Config {
	currentMu.RLock()
	c := current
	currentMu.RUnlock()
	if c != nil {
		return c
	}
	c, err := Load(LoadOptions{})
	if err != nil {
		// Load falls back to embedded defaults internally; err here means
		// even those failed, which is a build defect.
		panic(fmt.Sprintf("config: embedded defaults unreadable: %v", err))
	}
	return c
}

// LoadOptions controls Load behavior.
type LoadOptions struct {
	// Dir overrides the user config dir (used by tests).
	Dir string
	// Attempts is the number of tries for reading an override document.
	// Zero means 3. Backoff doubles between attempts starting at BaseDelay.
	Attempts  int
	BaseDelay time.Duration
}

// Load reads the two JSON documents, applying user overrides over the
// embedded defaults, validates them, and installs the result as Current().
// Override read failures retry with exponential backoff and then degrade to
// the embedded document with a logged error; Load only fails if the embedded
// assets themselves are broken.
func Load(opts LoadOptions) (*Config, error) {
	l := applog.WithComponent("config")

	app, err := LoadApp()
	if err != nil {
		l.Warn("app config unavailable, using defaults", slog.Any("err", err))
		app = AppDefaults()
	}

	var st Settings
	if err := loadDocument(l, opts, "settings.json", "settings.schema.json", &st); err != nil {
		return nil, err
	}
	var ist InitialState
	if err := loadDocument(l, opts, "state.json", "state.schema.json", &ist); err != nil {
		return nil, err
	}

	c := &Config{App: app, Settings: st, State: ist}
	currentMu.Lock()
	current = c
	currentMu.Unlock()
	return c, nil
}

// Install replaces the process-wide configuration. Intended for tests.
func Install(c *Config) {
	currentMu.Lock()
	current = c
	currentMu.Unlock()
}

// DefaultConfig returns the embedded documents without touching the
// filesystem or the process-wide pointer.
func DefaultConfig() *Config {
	var st Settings
	var ist InitialState
	mustUnmarshalAsset("settings.json", &st)
	mustUnmarshalAsset("state.json", &ist)
	return &Config{App: AppDefaults(), Settings: st, State: ist}
}

func mustUnmarshalAsset(name string, v any) {
	data, err := assets.ReadFile("assets/" + name)
	if err != nil {
		panic(fmt.Sprintf("config: embedded %s: %v", name, err))
	}
	if err := json.Unmarshal(data, v); err != nil {
		panic(fmt.Sprintf("config: embedded %s: %v", name, err))
	}
}

func loadDocument(l *slog.Logger, opts LoadOptions, name, schemaName string, out any) error {
	embedded, err := assets.ReadFile("assets/" + name)
	if err != nil {
		return fmt.Errorf("embedded %s: %w", name, err)
	}
	schema, err := assets.ReadFile("assets/" + schemaName)
	if err != nil {
		return fmt.Errorf("embedded %s: %w", schemaName, err)
	}

	data := embedded
	if override, ok := readOverride(l, opts, name); ok {
		if verr := validateDocument(schema, override); verr != nil {
			l.Error("override document invalid, using embedded defaults",
				slog.String("doc", name), slog.Any("err", verr))
		} else {
			data = override
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		if string(data) != string(embedded) {
			l.Error("override document unparsable, using embedded defaults",
				slog.String("doc", name), slog.Any("err", err))
			return json.Unmarshal(embedded, out)
		}
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// readOverride fetches an override document from the config dir, retrying
// with exponential backoff. A missing file is not an error.
func readOverride(l *slog.Logger, opts LoadOptions, name string) ([]byte, bool) {
	dir := opts.Dir
	if dir == "" {
		d, err := Dir()
		if err != nil {
			return nil, false
		}
		dir = d
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		return nil, false
	}

	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := opts.BaseDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(delay)
			delay *= 2
		}
		data, err := os.ReadFile(path)
		if err == nil {
			return data, true
		}
		lastErr = err
	}
	l.Error("override document unreadable after retries",
		slog.String("path", path), slog.Any("err", lastErr))
	return nil, false
}

func validateDocument(schema, doc []byte) error {
	res, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return err
	}
	if !res.Valid() {
		return fmt.Errorf("schema violations: %v", res.Errors())
	}
	return nil
}
