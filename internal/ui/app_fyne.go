//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"encoding/base64"
	"fmt"
	"image/color"
	"log/slog"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"inkpad/internal/board"
	"inkpad/internal/config"
	"inkpad/internal/crash"
	"inkpad/internal/export"
	"inkpad/internal/geom"
	applog "inkpad/internal/log"
	"inkpad/internal/note"
	"inkpad/internal/shell"
	"inkpad/internal/store"
	"inkpad/internal/stroke"
	"inkpad/internal/telemetry"
)

// Run starts the Fyne desktop shell: board canvas, sticky note layer,
// toolbar, tab bar, and keyboard shortcuts.
func Run() error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI")
	telemetry.InitDefault()

	cfg, err := config.Load(config.LoadOptions{})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var kv store.KV
	sq, err := store.OpenDefault()
	if err != nil {
		l.Warn("project store unavailable, using in-memory fallback", slog.Any("err", err))
		kv = store.NewMemory()
	} else {
		kv = sq
		defer sq.Close()
	}

	var reg *board.Registry
	defer func() {
		crash.Recover(func() error {
			if reg == nil {
				return nil
			}
			if t := reg.ActiveTab(); t != nil {
				reg.Persist(t)
			}
			return nil
		})
	}()

	fyneApp := app.NewWithID("inkpad")
	w := fyneApp.NewWindow("Inkpad")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1280)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	mods := &shell.ModifierTracker{}

	dpr := float64(w.Canvas().Scale())
	if dpr <= 0 {
		dpr = 1
	}

	var bc *BoardCanvas
	var notes *noteLayer
	var refreshTabs func()
	var zoomLabel *widget.Label

	reg = board.NewRegistry(board.Options{
		KV:        kv,
		Frames:    newUIFrames(),
		Container: geom.Size{W: float64(winW), H: float64(winH) - 96},
		DPR:       dpr,
		OnViewChanged: func(t *board.Tab, tr geom.Transform) {
			if bc == nil {
				return
			}
			bc.Refresh()
			notes.Layout(reg.ActiveTab())
			if zoomLabel != nil {
				zoomLabel.SetText(fmt.Sprintf("%d%%", int(tr.Zoom*100+0.5)))
			}
		},
		OnRedraw: func(t *board.Tab) {
			if bc == nil {
				return
			}
			if a := reg.ActiveTab(); a != nil && a.ID == t.ID {
				bc.RefreshImage()
			}
		},
		OnNoteSpawned: func(t *board.Tab, s *note.Sticky) {
			notes.Spawn(t, s)
		},
	})

	bc = NewBoardCanvas(reg, mods)
	notes = newNoteLayer(reg, w, mods)
	disp := shell.NewDispatcher()

	// Commit open note edits before any board press so the stroke's
	// persist and snapshot hooks never serialize stale text.
	bc.OnPointerDown = func() {
		notes.CommitEdits(reg.ActiveTab())
	}

	// Keyboard state for zoom/pan modifiers; Fyne scroll events carry none.
	var ctrlDown, metaDown bool

	setTool := func(tool stroke.Tool) {
		if t := reg.ActiveTab(); t != nil {
			st := t.Pipeline.State()
			st.Tool = tool
			t.Pipeline.SetState(st)
		}
	}
	setBrushType := func(bt stroke.BrushType) {
		if t := reg.ActiveTab(); t != nil {
			st := t.Pipeline.State()
			st.BrushType = bt
			t.Pipeline.SetState(st)
		}
	}

	out := &fyneOutbound{win: w, l: l, setBrush: setBrushType}
	bc.OnContextMenu = func(at fyne.Position) {
		t := reg.ActiveTab()
		if t == nil {
			return
		}
		out.menuAt = at
		out.ShowContextMenu(string(t.Pipeline.State().BrushType))
	}

	// Toolbar
	sizeSlider := widget.NewSlider(1, 60)
	sizeSlider.Step = 1
	sizeSlider.OnChanged = func(v float64) {
		if t := reg.ActiveTab(); t != nil {
			st := t.Pipeline.State()
			st.Size = v
			t.Pipeline.SetState(st)
		}
	}

	colorBtn := widget.NewButtonWithIcon("", theme.ColorPaletteIcon(), func() {
		dialog.ShowColorPicker("Brush color", "", func(c color.Color) {
			if t := reg.ActiveTab(); t != nil {
				r, g, b, _ := c.RGBA()
				st := t.Pipeline.State()
				st.Color = fmt.Sprintf("#%02x%02x%02x", uint8(r>>8), uint8(g>>8), uint8(b>>8))
				t.Pipeline.SetState(st)
			}
		}, w)
	})

	formatSelect := widget.NewSelect([]string{"png", "jpg", "webp"}, nil)
	formatSelect.SetSelected("png")

	toolbar := container.NewHBox(
		widget.NewButton("Brush", func() { setTool(stroke.ToolBrush) }),
		widget.NewButton("Line", func() { setTool(stroke.ToolLine) }),
		widget.NewButton("Eraser", func() { setTool(stroke.ToolEraser) }),
		colorBtn,
		sizeSlider,
		widget.NewSeparator(),
		widget.NewButtonWithIcon("", theme.ContentUndoIcon(), func() { disp.Dispatch(shell.ActionUndo, "") }),
		widget.NewButtonWithIcon("", theme.ContentRedoIcon(), func() { disp.Dispatch(shell.ActionRedo, "") }),
		widget.NewButtonWithIcon("", theme.DeleteIcon(), func() { disp.Dispatch(shell.ActionClear, "") }),
		widget.NewSeparator(),
		widget.NewButtonWithIcon("", theme.ZoomOutIcon(), func() { disp.Dispatch(shell.ActionZoomOut, "") }),
		widget.NewButtonWithIcon("", theme.ZoomInIcon(), func() { disp.Dispatch(shell.ActionZoomIn, "") }),
		widget.NewButton("100%", func() { disp.Dispatch(shell.ActionZoomReset, "") }),
		widget.NewSeparator(),
		formatSelect,
		widget.NewButtonWithIcon("", theme.DocumentSaveIcon(), func() { disp.Dispatch(shell.ActionExportImage, formatSelect.Selected) }),
	)
	zoomLabel = widget.NewLabel("100%")
	toolbar.Add(zoomLabel)

	// Tab bar, rebuilt whenever the tab set changes.
	tabBar := container.NewHBox()
	refreshTabs = func() {
		tabBar.Objects = nil
		if reg.BarVisible() {
			active := reg.ActiveTab()
			for _, t := range reg.All() {
				t := t
				name := t.Name
				if active != nil && t.ID == active.ID {
					name = "[" + name + "]"
				}
				tabBar.Add(widget.NewButton(name, func() {
					notes.CommitEdits(reg.ActiveTab())
					reg.SwitchTo(t.ID)
					refreshTabs()
				}))
				tabBar.Add(widget.NewButton("x", func() {
					if err := reg.CloseTab(t.ID); err != nil {
						l.Info("close tab rejected", slog.Any("err", err))
						return
					}
					refreshTabs()
				}))
			}
		}
		tabBar.Add(widget.NewButton("+", func() { disp.Dispatch(shell.ActionNewTab, "") }))
		tabBar.Refresh()
	}

	registerActions(disp, reg, notes, refreshTabs, out, formatSelect, l)

	// Raw key callbacks feed the modifier tracker and the shortcut table.
	if dc, ok := w.Canvas().(desktop.Canvas); ok {
		dc.SetOnKeyDown(func(e *fyne.KeyEvent) {
			switch e.Name {
			case desktop.KeyShiftLeft, desktop.KeyShiftRight:
				mods.SetShift(true)
				return
			case desktop.KeyControlLeft, desktop.KeyControlRight:
				ctrlDown = true
				bc.SetModifierKeys(ctrlDown, metaDown)
				return
			case desktop.KeySuperLeft, desktop.KeySuperRight:
				metaDown = true
				bc.SetModifierKeys(ctrlDown, metaDown)
				return
			}
			var inEntry bool
			switch w.Canvas().Focused().(type) {
			case *widget.Entry, *noteEntry:
				inEntry = true
			}
			ev := shell.KeyEvent{
				Key:         strings.ToLower(string(e.Name)),
				Ctrl:        ctrlDown,
				Meta:        metaDown,
				Shift:       mods.Shift(),
				InTextInput: inEntry,
			}
			if a, ok := shell.Shortcut(ev); ok {
				disp.Dispatch(a, "")
			}
		})
		dc.SetOnKeyUp(func(e *fyne.KeyEvent) {
			switch e.Name {
			case desktop.KeyShiftLeft, desktop.KeyShiftRight:
				mods.SetShift(false)
			case desktop.KeyControlLeft, desktop.KeyControlRight:
				ctrlDown = false
				bc.SetModifierKeys(ctrlDown, metaDown)
			case desktop.KeySuperLeft, desktop.KeySuperRight:
				metaDown = false
				bc.SetModifierKeys(ctrlDown, metaDown)
			}
		})
	}

	// Container resize rebuilds the backing rasters after a quiet period.
	resize := &shell.ResizeDebouncer{
		Delay: time.Duration(cfg.Settings.Canvas.ResizeDebounceMs) * time.Millisecond,
		Fn: func(sz geom.Size) {
			fyne.Do(func() {
				reg.Resize(sz)
				bc.RefreshImage()
				notes.Layout(reg.ActiveTab())
			})
		},
	}
	defer resize.Stop()
	bc.OnResized = func(sz fyne.Size) {
		resize.Trigger(geom.Size{W: float64(sz.Width), H: float64(sz.Height)})
	}

	// Theme variant drives the default ink color when untouched.
	applyVariantColor := func() {
		t := reg.ActiveTab()
		if t == nil {
			return
		}
		st := t.Pipeline.State()
		light := cfg.Settings.Brush.DefaultColorLight
		dark := cfg.Settings.Brush.DefaultColorDark
		if st.Color != light && st.Color != dark {
			return
		}
		if fyneApp.Settings().ThemeVariant() == theme.VariantLight {
			st.Color = light
		} else {
			st.Color = dark
		}
		t.Pipeline.SetState(st)
	}
	settingsCh := make(chan fyne.Settings, 1)
	fyneApp.Settings().AddChangeListener(settingsCh)
	go func() {
		for range settingsCh {
			fyne.Do(applyVariantColor)
		}
	}()

	first := reg.CreateTab()
	sizeSlider.SetValue(first.Pipeline.State().Size)
	applyVariantColor()
	refreshTabs()
	bc.RefreshImage()

	w.SetCloseIntercept(func() {
		notes.CommitEdits(reg.ActiveTab())
		for _, t := range reg.All() {
			reg.Persist(t)
		}
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})

	w.SetContent(container.NewBorder(
		container.NewVBox(toolbar, tabBar),
		nil, nil, nil,
		container.NewStack(bc, notes.root),
	))
	w.ShowAndRun()
	return nil
}

func registerActions(disp *shell.Dispatcher, reg *board.Registry, notes *noteLayer, refreshTabs func(), out shell.Outbound, formatSelect *widget.Select, l *slog.Logger) {
	disp.Register(shell.ActionUndo, func(string) { reg.Undo() })
	disp.Register(shell.ActionRedo, func(string) { reg.Redo() })
	disp.Register(shell.ActionClear, func(string) { reg.ClearCanvas() })
	disp.Register(shell.ActionSaveProject, func(string) {
		if t := reg.ActiveTab(); t != nil {
			reg.Persist(t)
		}
	})
	disp.Register(shell.ActionZoomIn, func(string) {
		if t := reg.ActiveTab(); t != nil {
			reg.Viewport().ZoomStep(t.ID, true)
		}
	})
	disp.Register(shell.ActionZoomOut, func(string) {
		if t := reg.ActiveTab(); t != nil {
			reg.Viewport().ZoomStep(t.ID, false)
		}
	})
	disp.Register(shell.ActionZoomReset, func(string) {
		if t := reg.ActiveTab(); t != nil {
			reg.Viewport().Reset(t.ID)
		}
	})
	disp.Register(shell.ActionSetBrush, func(v string) {
		if t := reg.ActiveTab(); t != nil {
			st := t.Pipeline.State()
			st.BrushType = stroke.BrushType(v)
			t.Pipeline.SetState(st)
		}
	})
	disp.Register(shell.ActionNewTab, func(string) {
		notes.CommitEdits(reg.ActiveTab())
		reg.CreateTab()
		refreshTabs()
	})
	disp.Register(shell.ActionCloseTab, func(string) {
		t := reg.ActiveTab()
		if t == nil {
			return
		}
		if err := reg.CloseTab(t.ID); err != nil {
			l.Info("close tab rejected", slog.Any("err", err))
			return
		}
		refreshTabs()
	})
	disp.Register(shell.ActionNextTab, func(string) {
		notes.CommitEdits(reg.ActiveTab())
		reg.NextTab()
		refreshTabs()
	})
	disp.Register(shell.ActionExportImage, func(v string) {
		t := reg.ActiveTab()
		if t == nil {
			return
		}
		notes.CommitEdits(t)
		if v == "" {
			v = formatSelect.Selected
		}
		format, err := export.ParseFormat(v)
		if err != nil {
			l.Warn("bad export format", slog.String("format", v), slog.Any("err", err))
			return
		}
		flat := export.Flatten(t.Drawing, t.Overlay.Snapshot(), format)
		url, err := export.DataURL(flat, format)
		if err != nil {
			l.Error("export encode failed", slog.Any("err", err))
			return
		}
		out.SaveImage(url, string(format))
	})
}

// fyneOutbound is the host side of the shell channel: the brush context
// menu and the save dialog for exported images.
type fyneOutbound struct {
	win      fyne.Window
	l        *slog.Logger
	menuAt   fyne.Position
	setBrush func(stroke.BrushType)
}

var _ shell.Outbound = (*fyneOutbound)(nil)

func (o *fyneOutbound) ShowContextMenu(brushType string) {
	smooth := fyne.NewMenuItem("Smooth brush", func() { o.setBrush(stroke.BrushSmooth) })
	texture := fyne.NewMenuItem("Textured brush", func() { o.setBrush(stroke.BrushTexture) })
	smooth.Checked = brushType == string(stroke.BrushSmooth)
	texture.Checked = brushType == string(stroke.BrushTexture)
	widget.ShowPopUpMenuAtPosition(fyne.NewMenu("", smooth, texture), o.win.Canvas(), o.menuAt)
}

func (o *fyneOutbound) SaveImage(dataURL, format string) {
	payload, err := dataURLPayload(dataURL)
	if err != nil {
		o.l.Error("bad export payload", slog.Any("err", err))
		return
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		o.l.Error("bad export format", slog.String("format", format), slog.Any("err", err))
		return
	}
	save := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()
		if _, err := wc.Write(payload); err != nil {
			o.l.Error("export write failed", slog.Any("err", err))
			return
		}
		telemetry.Event("export", map[string]any{"format": format})
	}, o.win)
	save.SetFileName(export.Filename(f, time.Now()))
	save.Show()
}

// dataURLPayload extracts the raw bytes from a base64 data URL.
func dataURLPayload(url string) ([]byte, error) {
	const marker = "base64,"
	i := strings.Index(url, marker)
	if i < 0 {
		return nil, fmt.Errorf("not a base64 data url")
	}
	return base64.StdEncoding.DecodeString(url[i+len(marker):])
}
