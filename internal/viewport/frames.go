/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the
 *  specific language governing permissions and limitations under the License.
 */

package viewport

import (
	"sync"
	"time"
)

// TimerFrames is a Frames driver backed by the wall clock, used when no
// toolkit animation clock is available (headless export, tests that want
// real time). The interval approximates a 60Hz display.
type TimerFrames struct {
	Interval time.Duration

	mu      sync.Mutex
	nextID  Handle
	pending map[Handle]*time.Timer
}

func NewTimerFrames() *TimerFrames {
	return &TimerFrames{Interval: 16 * time.Millisecond, pending: make(map[Handle]*time.Timer)}
}

func (f *TimerFrames) Request(fn func(now time.Time)) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	h := f.nextID
	f.pending[h] = time.AfterFunc(f.Interval, func() {
		f.mu.Lock()
		delete(f.pending, h)
		f.mu.Unlock()
		fn(time.Now())
	})
	return h
}

func (f *TimerFrames) Cancel(h Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.pending[h]; ok {
		t.Stop()
		delete(f.pending, h)
	}
}
