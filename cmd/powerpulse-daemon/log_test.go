package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(list string, verbose bool) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := &topicHandler{
		inner:  slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		topics: parseTopics(list, verbose),
	}
	return slog.New(h), &buf
}

func TestParseTopics(t *testing.T) {
	got := parseTopics(" battery, notify ,,", false)
	if len(got) != 2 || !got["battery"] || !got["notify"] {
		t.Fatalf("parseTopics() = %v, want battery and notify", got)
	}
	if got := parseTopics("", true); !got["all"] {
		t.Fatalf("parseTopics(verbose) = %v, want all", got)
	}
}

func TestTopicHandler(t *testing.T) {
	tests := []struct {
		name    string
		list    string
		verbose bool
		log     func(*slog.Logger)
		want    bool
	}{
		{"untagged always passes", "", false, func(l *slog.Logger) { l.Info("started") }, true},
		{"disabled topic dropped", "notify", false, func(l *slog.Logger) { l.With("topic", "battery").Info("sample") }, false},
		{"enabled topic passes", "battery", false, func(l *slog.Logger) { l.With("topic", "battery").Info("sample") }, true},
		{"record-level topic", "cleanup", false, func(l *slog.Logger) { l.Info("done", "topic", "cleanup") }, true},
		{"verbose passes all", "", true, func(l *slog.Logger) { l.With("topic", "battery").Debug("sample") }, true},
		{"warnings bypass filter", "", false, func(l *slog.Logger) { l.With("topic", "notify").Warn("send failed") }, true},
		{"topic survives groups", "dbus", false, func(l *slog.Logger) { l.With("topic", "dbus").WithGroup("call").Info("ok") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newTestLogger(tt.list, tt.verbose)
			tt.log(logger)
			if got := strings.TrimSpace(buf.String()) != ""; got != tt.want {
				t.Fatalf("logged = %v, want %v (output %q)", got, tt.want, buf.String())
			}
		})
	}
}
