/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, c := range cases {
		if got := parseLevel(c.in); got != c.want {
			t.Errorf("parseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestLineHandlerOutput(t *testing.T) {
	var sb strings.Builder
	h := &lineHandler{level: slog.LevelInfo, w: &sb}
	l := slog.New(h).With(slog.String("component", "test"))

	l.Info("hello", slog.Int("n", 7), slog.Bool("ok", true))

	out := sb.String()
	for _, want := range []string{"INF", "hello", "component=test", "n=7", "ok=true"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLineHandlerLevelGate(t *testing.T) {
	var sb strings.Builder
	h := &lineHandler{level: slog.LevelWarn, w: &sb}
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}
}

func TestLineHandlerGroups(t *testing.T) {
	var sb strings.Builder
	var h slog.Handler = &lineHandler{level: slog.LevelInfo, w: &sb}
	h = h.WithGroup("vp")
	r := slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0)
	r.AddAttrs(slog.String("zoom", "1.5"))
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(sb.String(), "vp.zoom=1.5") {
		t.Errorf("grouped key missing in %q", sb.String())
	}
}

func TestFromEnvDefaults(t *testing.T) {
	opts := FromEnv()
	if opts.Level != "info" || opts.Format != "console" {
		t.Errorf("unexpected defaults: %+v", opts)
	}
}
