package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("STARTRAILS_CONFIG", filepath.Join(t.TempDir(), "absent.json"))
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Trails.OutputPrefix != "trails" || cfg.Video.FPS != 30 || cfg.Video.Size != "hd1080" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadJSONOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"trails":{"output_prefix":"night","extensions":["jpg","cr2"]},"video":{"binary":"/opt/ffmpeg"}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Trails.OutputPrefix != "night" || len(cfg.Trails.Extensions) != 2 {
		t.Fatalf("trails section not applied: %+v", cfg.Trails)
	}
	if cfg.Video.Binary != "/opt/ffmpeg" || cfg.Video.Codec != "libx264" {
		t.Fatalf("video section merged incorrectly: %+v", cfg.Video)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "trails:\n  format: png\ndecoder:\n  mode: native\nwatch:\n  debounce_ms: 50\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Trails.Format != "png" || cfg.Decoder.Mode != "native" || cfg.Watch.DebounceMS != 50 {
		t.Fatalf("yaml not applied: %+v", cfg)
	}
	if cfg.Trails.OutputPrefix != "trails" {
		t.Fatalf("defaults lost: %+v", cfg.Trails)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestExpandUser(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cases := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/.config/startrails/config.json", filepath.Join(home, ".config/startrails/config.json")},
		{"~foo/x", "~foo/x"},
		{"/etc/startrails.json", "/etc/startrails.json"},
		{"", ""},
	}
	for _, tc := range cases {
		got, err := expandUser(tc.in)
		if err != nil {
			t.Fatalf("expandUser(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("expandUser(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
