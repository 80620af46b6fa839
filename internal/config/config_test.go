package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestShowCustomEntries_Default(t *testing.T) {
	cfg := &Config{}
	if !cfg.ShowCustomEntries() {
		t.Error("ShowCustomEntries() default = false, want true")
	}

	off := false
	cfg.ShowCustom = &off
	if cfg.ShowCustomEntries() {
		t.Error("ShowCustomEntries() = true with show_custom = false")
	}
}

func TestCreateFormat_Default(t *testing.T) {
	cfg := &Config{}
	if got := cfg.CreateFormat(); got != "id3v2" {
		t.Errorf("CreateFormat() default = %q, want id3v2", got)
	}

	cfg.PreferredFormat = "ape"
	if got := cfg.CreateFormat(); got != "ape" {
		t.Errorf("CreateFormat() = %q, want ape", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandPath("~/music"); got != filepath.Join(home, "music") {
		t.Errorf("expandPath(~/music) = %q, want %q", got, filepath.Join(home, "music"))
	}
	if got := expandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("expandPath(/abs/path) = %q, want unchanged", got)
	}
	if got := expandPath(""); got != "" {
		t.Errorf("expandPath(\"\") = %q, want empty", got)
	}
}
