package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileMissingYieldsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing config should not error: %v", err)
	}
	def := Default()
	if cfg.File != def.File || cfg.Interval != def.Interval {
		t.Fatalf("cfg = %+v, want defaults %+v", cfg, def)
	}
}

func TestLoadFileParsesValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "file: /tmp/shared/todos.json\ninterval: 250ms\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.File != "/tmp/shared/todos.json" {
		t.Fatalf("File = %q", cfg.File)
	}
	if time.Duration(cfg.Interval) != 250*time.Millisecond {
		t.Fatalf("Interval = %v", cfg.Interval)
	}
}

func TestLoadFileExpandsTilde(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("file: ~/Dropbox/todos.json\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	home, _ := os.UserHomeDir()
	if cfg.File != filepath.Join(home, "Dropbox", "todos.json") {
		t.Fatalf("File = %q", cfg.File)
	}
}

func TestLoadFileBadYamlFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\n\t- broken"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if cfg.File != Default().File {
		t.Fatal("broken config must fall back to defaults")
	}
}

func TestLoadFileBadIntervalRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("interval: soon\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected duration parse error")
	}
}
