/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"inkpad/internal/config"
	"inkpad/internal/crash"
	"inkpad/internal/export"
	applog "inkpad/internal/log"
	"inkpad/internal/raster"
	"inkpad/internal/store"
	"inkpad/internal/ui"
	"inkpad/internal/version"
)

func usage() {
	fmt.Println("Inkpad — infinite drawing board")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  inkpad version|-v|--version     Show version")
	fmt.Println("  inkpad ui                       Launch desktop UI (build with -tags fyne for full UI)")
	fmt.Println("  inkpad tabs                     List persisted canvases in the project store")
	fmt.Println("  inkpad export <tab-id> <file>   Render a persisted canvas to <file> (.png, .jpg, .webp)")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	defer func() { crash.Recover(nil) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("Inkpad — infinite drawing board")
			fmt.Println(version.String())
			return
		case "tabs":
			kv := mustOpenStore(l)
			defer kv.Close()
			listTabs(kv)
			return
		case "export":
			if len(args) < 4 {
				fmt.Println("export requires <tab-id> and <file>")
				usage()
				os.Exit(2)
			}
			kv := mustOpenStore(l)
			defer kv.Close()
			if err := exportTab(kv, args[2], args[3]); err != nil {
				l.Error("export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "ui":
			if err := ui.Run(); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}

func mustOpenStore(l *slog.Logger) *store.SQLite {
	kv, err := store.OpenDefault()
	if err != nil {
		l.Error("open project store failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	return kv
}

// listTabs prints every persisted canvas key so export has something to
// point at.
func listTabs(kv *store.SQLite) {
	ids, err := kv.KeysWithPrefix(config.Current().Settings.StorageKey + "-")
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	if len(ids) == 0 {
		fmt.Println("No persisted canvases.")
		return
	}
	prefix := config.Current().Settings.StorageKey + "-"
	for _, k := range ids {
		fmt.Println(strings.TrimPrefix(k, prefix))
	}
}

// exportTab renders a stored project record headlessly, notes included.
func exportTab(kv *store.SQLite, tabID, outPath string) error {
	format, err := export.ParseFormat(filepath.Ext(outPath))
	if err != nil {
		return err
	}
	rec, img, found := store.LoadProject(kv, tabID)
	if !found {
		return fmt.Errorf("no persisted canvas for id %q", tabID)
	}
	if img == nil {
		return fmt.Errorf("stored image for id %q is unreadable", tabID)
	}
	b := img.Bounds()
	drawing := raster.New(b.Dx(), b.Dy(), 1)
	drawing.DrawImageScaled(img)

	flat := export.Flatten(drawing, rec.StickyNotes, format)
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := export.Encode(f, flat, format); err != nil {
		return err
	}
	abs, _ := filepath.Abs(outPath)
	fmt.Println("Exported", abs)
	return nil
}
