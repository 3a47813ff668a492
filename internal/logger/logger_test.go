package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return string(data)
}

func TestLoggerWritesFieldsAndFiltersLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "test.log")
	l, err := New(Config{Level: INFO, FilePath: path, MaxSize: 1 << 20, MaxAge: 7, MaxBackups: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	l.Debug("hidden debug line")
	l.Info("task moved", F("task", "t-1"), F("column", "done"))
	l.WithFields(F("workspace", "ws-9")).Warn("slow query")

	out := readLog(t, path)
	if strings.Contains(out, "hidden debug line") {
		t.Error("debug line should be filtered at INFO level")
	}
	for _, want := range []string{"task moved", "task=t-1", "column=done", "slow query", "workspace=ws-9", "level=warning", "logger_test.go:"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLoggerRotatesOnSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotate.log")
	l, err := New(Config{Level: DEBUG, FilePath: path, MaxSize: 64, MaxAge: 7, MaxBackups: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	for i := 0; i < 5; i++ {
		l.Info("a line long enough to push the file over the size limit")
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("expected a rotated backup: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"DEBUG": DEBUG, "INFO": INFO, "WARN": WARN, "ERROR": ERROR, "nope": INFO}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if ERROR.String() != "ERROR" {
		t.Errorf("unexpected String(): %s", ERROR.String())
	}
}

func TestLoggerWithoutOutputs(t *testing.T) {
	l, err := New(Config{Level: DEBUG})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("goes nowhere")
	if err := l.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
