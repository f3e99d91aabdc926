// Package testutil holds helpers shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
)

// Script writes an executable shell script named name into a temp dir and
// returns its path. Tests that need a fake yt-dlp or ffmpeg skip on Windows.
func Script(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

// Entry is one recorded log event.
type Entry struct {
	Level     string
	Message   string
	Component string
	Data      map[string]interface{}
}

// Logger records events in memory.
type Logger struct {
	mu      sync.Mutex
	entries []Entry
}

func (l *Logger) add(level, message, component string, data map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{level, message, component, data})
}

func (l *Logger) Debug(m, c string, d map[string]interface{}) { l.add("debug", m, c, d) }
func (l *Logger) Info(m, c string, d map[string]interface{})  { l.add("info", m, c, d) }
func (l *Logger) Warn(m, c string, d map[string]interface{})  { l.add("warn", m, c, d) }
func (l *Logger) Error(m, c string, d map[string]interface{}) { l.add("error", m, c, d) }
func (l *Logger) Fatal(m, c string, d map[string]interface{}) { l.add("fatal", m, c, d) }

// Entries returns a copy of the recorded events.
func (l *Logger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// Has reports whether an event with level and message was recorded.
func (l *Logger) Has(level, message string) bool {
	for _, e := range l.Entries() {
		if e.Level == level && e.Message == message {
			return true
		}
	}
	return false
}
