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
	"time"

	"fyne.io/fyne/v2"

	"inkpad/internal/viewport"
)

// uiFrames drives viewport animation frames on the Fyne event loop. The
// timer fires off-thread, so each callback is marshalled through fyne.Do
// before it touches widgets.
type uiFrames struct {
	inner *viewport.TimerFrames
}

func newUIFrames() *uiFrames {
	return &uiFrames{inner: viewport.NewTimerFrames()}
}

func (f *uiFrames) Request(fn func(now time.Time)) viewport.Handle {
	return f.inner.Request(func(now time.Time) {
		fyne.Do(func() { fn(now) })
	})
}

func (f *uiFrames) Cancel(h viewport.Handle) {
	f.inner.Cancel(h)
}
