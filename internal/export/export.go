/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the
 *  specific language governing permissions and limitations under the License.
 */

// Package export flattens a tab into a single encoded image: the committed
// strokes plus the sticky notes rasterized on top.
package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"github.com/HugoSmits86/nativewebp"
	"github.com/gogpu/gg"

	"inkpad/internal/config"
	applog "inkpad/internal/log"
	"inkpad/internal/note"
	"inkpad/internal/raster"
)

// Format is the output encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpg"
	FormatWebP Format = "webp"
)

// ParseFormat maps a user-supplied string onto a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "webp":
		return FormatWebP, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// MIME returns the media type for data URL delivery.
func (f Format) MIME() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// Flatten renders the export composite: background (white for JPEG, which
// has no alpha channel; transparent otherwise), the drawing raster, then
// the rasterized notes. The result matches the drawing raster's backing
// dimensions. Note rasterization failure degrades to a raster-only export
// with a logged warning.
func Flatten(drawing *raster.Surface, notes []note.Note, format Format) *raster.Surface {
	w, h := drawing.LogicalSize()
	out := raster.New(w, h, drawing.DPR())

	if format == FormatJPEG {
		out.Ctx().ClearWithColor(gg.RGBA{R: 1, G: 1, B: 1, A: 1})
	}
	if err := out.CompositeOver(drawing); err != nil {
		applog.WithComponent("export").Error("composite drawing failed", slog.Any("err", err))
	}
	if len(notes) > 0 {
		if err := renderNotes(out, notes); err != nil {
			applog.WithComponent("export").Warn("note rasterization failed, exporting without notes",
				slog.Any("err", err))
		}
	}
	return out
}

// Encode writes the flattened surface in the chosen format. JPEG and WebP
// settings come from config; the WebP encoder is lossless and takes no
// quality parameter.
func Encode(w io.Writer, s *raster.Surface, format Format) error {
	cfg := config.Current().Settings.Export
	switch format {
	case FormatJPEG:
		return s.Ctx().EncodeJPEG(w, cfg.JPEGQuality)
	case FormatWebP:
		return nativewebp.Encode(w, s.Image(), nil)
	default:
		return s.Ctx().EncodePNG(w)
	}
}

// DataURL encodes the surface for delivery over the shell's save-image
// channel.
func DataURL(s *raster.Surface, format Format) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, s, format); err != nil {
		return "", err
	}
	return fmt.Sprintf("data:%s;base64,%s", format.MIME(),
		base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

// Filename builds the default output name from the configured prefix.
func Filename(format Format, now time.Time) string {
	prefix := config.Current().Settings.Export.FilenamePrefix
	return fmt.Sprintf("%s-%s.%s", prefix, now.Format("2006-01-02-150405"), format)
}

// WriteFile is the fallback delivery when no shell channel is available:
// the image lands in dir under the default name. Returns the full path.
func WriteFile(dir string, s *raster.Surface, format Format) (string, error) {
	path := filepath.Join(dir, Filename(format, time.Now()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()
	if err := Encode(f, s, format); err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}
	applog.WithComponent("export").Info("image exported", slog.String("path", path))
	return path, nil
}
