package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWithFile(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "logs", "gleis.log")

	cfg := DefaultConfig()
	cfg.FilePath = logPath

	if err := Init(cfg); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	Get().WithComponent("test").Info("hello")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `"component":"test"`) {
		t.Errorf("log line missing component field: %s", line)
	}
	if !strings.Contains(line, `"message":"hello"`) {
		t.Errorf("log line missing message: %s", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "gleis.log")

	cfg := DefaultConfig()
	cfg.FilePath = logPath
	cfg.Level = WarnLevel

	if err := Init(cfg); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	Get().Info("dropped")
	Get().Warn("kept")

	data, _ := os.ReadFile(logPath)
	if strings.Contains(string(data), "dropped") {
		t.Error("info line was written despite warn level")
	}
	if !strings.Contains(string(data), "kept") {
		t.Error("warn line missing")
	}
}

func TestInitFromLogConfig(t *testing.T) {
	if err := InitFromLogConfig(LoggingConfig{Level: "debug"}); err != nil {
		t.Fatalf("InitFromLogConfig() failed: %v", err)
	}

	if err := InitFromLogConfig(LoggingConfig{Level: "not-a-level"}); err == nil {
		t.Error("InitFromLogConfig() with a bad level should fail")
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	if err != nil {
		t.Fatalf("ParseLevel() failed: %v", err)
	}
	if level != WarnLevel {
		t.Errorf("ParseLevel(warn) = %v, want %v", level, WarnLevel)
	}
}
