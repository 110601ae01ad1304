package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pkt.systems/traycon/schema"
)

func TestLoadRejectsUnsupportedConfigVersion(t *testing.T) {
	path := writeConfig(t, `
config_version: 2
console:
  status_text: running
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unsupported config_version") {
		t.Fatalf("expected config_version error, got %v", err)
	}
}

func TestLoadRejectsMissingConfigVersion(t *testing.T) {
	path := writeConfig(t, `
console:
  status_text: running
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "config_version is required") {
		t.Fatalf("expected missing version error, got %v", err)
	}
}

func TestLoadAppliesOverridesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
console:
  transcript_capacity: 2048
  line_ending: lf
  status_text: ticking
ssh:
  enabled: false
http:
  addr: ":8088"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Console.TranscriptCapacity != 2048 {
		t.Fatalf("capacity: got %d", cfg.Console.TranscriptCapacity)
	}
	if cfg.Console.StatusText != "ticking" {
		t.Fatalf("status text: got %q", cfg.Console.StatusText)
	}
	if cfg.SSH.Enabled {
		t.Fatal("ssh should be disabled")
	}
	if cfg.HTTP.Addr != ":8088" {
		t.Fatalf("http addr: got %q", cfg.HTTP.Addr)
	}
	// Untouched keys keep their defaults.
	if cfg.Console.ProducerIntervalMillis != 1000 {
		t.Fatalf("interval default lost: %d", cfg.Console.ProducerIntervalMillis)
	}
	if cfg.Tray.Tooltip != DefaultTrayTooltip {
		t.Fatalf("tooltip default lost: %q", cfg.Tray.Tooltip)
	}
}

func TestLoadRejectsBadLineEnding(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
console:
  line_ending: cr
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "console.line_ending") {
		t.Fatalf("expected line_ending error, got %v", err)
	}
}

func TestLoadRejectsEnabledSurfaceWithoutAddr(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
ssh:
  enabled: true
  addr: ""
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "ssh.addr") {
		t.Fatalf("expected ssh.addr error, got %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Console.TranscriptCapacity != schema.DefaultTranscriptCapacity {
		t.Fatalf("expected default capacity, got %d", cfg.Console.TranscriptCapacity)
	}
}

func TestParseLineEnding(t *testing.T) {
	if le, err := ParseLineEnding("crlf"); err != nil || le != schema.LineEndingCRLF {
		t.Fatalf("crlf: %v %q", err, le)
	}
	if le, err := ParseLineEnding("LF"); err != nil || le != schema.LineEndingLF {
		t.Fatalf("lf: %v %q", err, le)
	}
	if le, err := ParseLineEnding(""); err != nil || le != schema.LineEndingCRLF {
		t.Fatalf("empty: %v %q", err, le)
	}
	if _, err := ParseLineEnding("cr"); err == nil {
		t.Fatal("cr accepted")
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("FOO", "bar")
	value := expandEnv("$FOO/$UID/$GID/$MISSING")
	if !strings.HasPrefix(value, "bar/") {
		t.Fatalf("expected env expansion, got %q", value)
	}
	if strings.Contains(value, "$UID") || strings.Contains(value, "$GID") {
		t.Fatalf("expected UID/GID expansion, got %q", value)
	}
	if !strings.HasSuffix(value, "/$MISSING") {
		t.Fatalf("expected missing vars to remain, got %q", value)
	}
}

func TestWriteDefaultRespectsOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	written, err := WriteDefault(path, false)
	if err != nil {
		t.Fatalf("write default: %v", err)
	}
	if written != path {
		t.Fatalf("expected path %q, got %q", path, written)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config to exist: %v", err)
	}
	if _, err := WriteDefault(path, false); err == nil {
		t.Fatalf("expected error when config exists")
	}
	if _, err := WriteDefault(path, true); err != nil {
		t.Fatalf("expected overwrite to succeed: %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
