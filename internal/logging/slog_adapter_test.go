// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandler_Levels(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		want  string
	}{
		{"debug", slog.LevelDebug, `"level":"debug"`},
		{"info", slog.LevelInfo, `"level":"info"`},
		{"warn", slog.LevelWarn, `"level":"warn"`},
		{"error", slog.LevelError, `"level":"error"`},
	}

	original := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(original)
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf)))
			logger.Log(context.Background(), tt.level, "supervisor event")

			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %s missing %s", buf.String(), tt.want)
			}
		})
	}
}

func TestSlogHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf)))

	logger.With("service", "monitor").
		WithGroup("restart").
		Info("service restarted",
			"count", 3,
			"backoff", 15*time.Second,
			"fatal", false,
		)

	output := buf.String()
	for _, want := range []string{
		`"service":"monitor"`,
		`"restart.count":3`,
		`"restart.fatal":false`,
		`"message":"service restarted"`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output %s missing %s", output, want)
		}
	}
}

func TestSlogHandler_AttrsKeepGroupsOpenAtBindTime(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf)))

	logger.WithGroup("supervisor").
		With("tree", "credguard").
		WithGroup("restart").
		With("service", "monitor").
		Info("service restarted", "count", 2)

	output := buf.String()
	for _, want := range []string{
		`"supervisor.tree":"credguard"`,
		`"supervisor.restart.service":"monitor"`,
		`"supervisor.restart.count":2`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output %s missing %s", output, want)
		}
	}
	if strings.Contains(output, `"supervisor.restart.tree"`) {
		t.Errorf("attribute picked up a group opened after it was bound: %s", output)
	}
}

func TestSlogHandler_NestedGroupAttr(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf)))

	logger.Info("nested", slog.Group("event", slog.String("type", "terminate")))

	if !strings.Contains(buf.String(), `"event.type":"terminate"`) {
		t.Errorf("expected flattened group key: %s", buf.String())
	}
}

func TestSlogHandler_Enabled(t *testing.T) {
	handler := NewSlogHandlerWithLogger(zerolog.New(nil).Level(zerolog.WarnLevel))

	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled for warn-level logger")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled for warn-level logger")
	}
}

func TestNewSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))

	NewSlogLogger().Info("via global")

	if !strings.Contains(buf.String(), "via global") {
		t.Errorf("NewSlogLogger() should write to global logger: %s", buf.String())
	}
}
