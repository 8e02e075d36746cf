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
	"sync"
	"time"

	"inkpad/internal/geom"
)

// ModifierTracker mirrors the shift key state for the stroke pipeline's
// straight-line constraint. Blur resets it so the modifier cannot stick
// after focus loss.
type ModifierTracker struct {
	mu    sync.Mutex
	shift bool
}

func (m *ModifierTracker) SetShift(down bool) {
	m.mu.Lock()
	m.shift = down
	m.mu.Unlock()
}

func (m *ModifierTracker) Shift() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shift
}

// Blur clears all tracked modifiers.
func (m *ModifierTracker) Blur() {
	m.mu.Lock()
	m.shift = false
	m.mu.Unlock()
}

// ResizeDebouncer coalesces window resize events: the callback fires once
// with the final size after the configured settle delay.
type ResizeDebouncer struct {
	Delay time.Duration
	Fn    func(geom.Size)

	mu    sync.Mutex
	timer *time.Timer
	size  geom.Size
}

// Trigger records a new size and restarts the settle timer.
func (r *ResizeDebouncer) Trigger(size geom.Size) {
	r.mu.Lock()
	r.size = size
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.Delay, func() {
		r.mu.Lock()
		s := r.size
		r.mu.Unlock()
		r.Fn(s)
	})
	r.mu.Unlock()
}

// Stop cancels a pending callback.
func (r *ResizeDebouncer) Stop() {
	r.mu.Lock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.mu.Unlock()
}
