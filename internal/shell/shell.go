/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the
 *  specific language governing permissions and limitations under the License.
 */

// Package shell is the command channel between the desktop host and the
// application core: inbound (action, value) pairs, outbound messages, and
// the keyboard shortcut table that feeds the same actions.
package shell

import (
	"sync"

	"log/slog"

	applog "inkpad/internal/log"
)

// Action is one command the host or keyboard can issue.
type Action string

const (
	ActionUndo        Action = "undo"
	ActionRedo        Action = "redo"
	ActionSaveProject Action = "save-project"
	ActionExportImage Action = "export-image"
	ActionClear       Action = "clear"
	ActionZoomIn      Action = "zoom-in"
	ActionZoomOut     Action = "zoom-out"
	ActionZoomReset   Action = "zoom-reset"
	ActionSetBrush    Action = "set-brush"

	// Keyboard-only actions; the host menu does not send these.
	ActionNewTab   Action = "new-tab"
	ActionCloseTab Action = "close-tab"
	ActionNextTab  Action = "next-tab"
)

// Outbound is the host-facing side of the channel.
type Outbound interface {
	// ShowContextMenu asks the host to present the brush menu, marking the
	// current brush sub-type.
	ShowContextMenu(brushType string)
	// SaveImage delivers an export through the host's save dialog.
	SaveImage(dataURL, format string)
}

// Handler runs one action. value carries the optional argument, for
// example the brush sub-type of set-brush.
type Handler func(value string)

// Dispatcher routes inbound actions to registered handlers.
type Dispatcher struct {
	mu       sync.Mutex
	handlers map[Action]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[Action]Handler)}
}

// Register installs the handler for an action, replacing any previous one.
func (d *Dispatcher) Register(a Action, h Handler) {
	d.mu.Lock()
	d.handlers[a] = h
	d.mu.Unlock()
}

// Dispatch runs the handler for an action. Unknown actions are logged and
// reported false.
func (d *Dispatcher) Dispatch(a Action, value string) bool {
	d.mu.Lock()
	h, ok := d.handlers[a]
	d.mu.Unlock()
	if !ok {
		applog.WithComponent("shell").Warn("unhandled action",
			slog.String("action", string(a)), slog.String("value", value))
		return false
	}
	h(value)
	return true
}
