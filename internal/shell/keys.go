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

import "strings"

// KeyEvent is a normalized key press. Key is the lowercase key value
// ("z", "=", "numpad+", "delete", "tab", ...).
type KeyEvent struct {
	Key   string
	Ctrl  bool
	Meta  bool
	Shift bool
	// InTextInput is set when focus sits in a text field; shortcuts are
	// suppressed there so typing never triggers actions.
	InTextInput bool
}

// Shortcut resolves a key press to an action. All bindings require ctrl or
// meta (cmd).
func Shortcut(ev KeyEvent) (Action, bool) {
	if ev.InTextInput {
		return "", false
	}
	if !ev.Ctrl && !ev.Meta {
		return "", false
	}
	switch strings.ToLower(ev.Key) {
	case "z":
		if ev.Shift {
			return ActionRedo, true
		}
		return ActionUndo, true
	case "y":
		return ActionRedo, true
	case "=", "+", "numpad+":
		return ActionZoomIn, true
	case "-", "numpad-":
		return ActionZoomOut, true
	case "0":
		return ActionZoomReset, true
	case "s":
		if ev.Shift {
			return ActionExportImage, true
		}
		return ActionSaveProject, true
	case "delete", "backspace":
		return ActionClear, true
	case "t":
		return ActionNewTab, true
	case "w":
		return ActionCloseTab, true
	case "tab":
		return ActionNextTab, true
	}
	return "", false
}
