package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunReturnsStoreErrorAndKeepsLogs(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "server.log")
	t.Setenv("DATABASE_URL", "ftp://nowhere/todos")
	t.Setenv("LOG_OUTPUT", logFile)
	t.Setenv("LOG_ENCODING", "json")

	err := run()
	if err == nil || !strings.Contains(err.Error(), "unsupported store scheme") {
		t.Fatalf("run: got %v, want unsupported store scheme", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "store unavailable") {
		t.Errorf("expected the failure in the log file, got %q", data)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	t.Setenv("PORT", "http")

	err := run()
	if err == nil || !strings.Contains(err.Error(), "config error") {
		t.Errorf("run: got %v, want config error", err)
	}
}
