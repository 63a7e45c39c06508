package windowkit

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "windowkit.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[window]
title = "Editor"
width = 1280
kind = "floating"
background = "blurred"
always_on_top = true
target_fps = 120
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	w := cfg.Window
	if w.Title != "Editor" || w.Width != 1280 {
		t.Fatalf("explicit fields lost: %+v", w)
	}
	// Unset fields keep the built-in defaults.
	if w.Height != 600 {
		t.Fatalf("height = %v, want default 600", w.Height)
	}
	if w.Resizable == nil || !*w.Resizable {
		t.Fatalf("resizable default lost")
	}

	opts := w.WindowOptions()
	if opts.Kind != WindowFloating || opts.Background != BackgroundBlurred {
		t.Fatalf("kind/background mapping wrong: %+v", opts)
	}
	if !opts.AlwaysOnTop || opts.TargetFPS != 120 {
		t.Fatalf("options = %+v", opts)
	}
}

func TestLoadConfigAppliesPlatformSection(t *testing.T) {
	path := writeConfig(t, `
[window]
title = "Base"
width = 800

[platform.`+runtime.GOOS+`]
width = 1024
transparent_titlebar = true

[platform.someotheros]
width = 9999
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Window.Width != 1024 {
		t.Fatalf("width = %v, want the current platform's override", cfg.Window.Width)
	}
	if cfg.Window.Title != "Base" {
		t.Fatalf("override clobbered a field it did not set")
	}
	if cfg.Window.TransparentTitlebar == nil || !*cfg.Window.TransparentTitlebar {
		t.Fatalf("pointer-bool override not applied")
	}
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil {
		t.Fatalf("missing file reported no error")
	}
	def := DefaultConfig().Window
	if cfg.Window.Title != def.Title || cfg.Window.Width != def.Width || cfg.Window.TargetFPS != def.TargetFPS {
		t.Fatalf("missing file did not fall back to defaults: %+v", cfg.Window)
	}
}

func TestLoadConfigRejectsMalformedTOML(t *testing.T) {
	path := writeConfig(t, "window = [broken")
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("malformed file reported no error")
	}
}

func TestWindowOptionsBoolDefaults(t *testing.T) {
	// nil pointers mean "unset": decorations and resizable default on,
	// the rest default off.
	opts := (WindowDefaults{}).WindowOptions()
	if !opts.Decorations || !opts.Resizable {
		t.Fatalf("unset decoration/resizable did not default on")
	}
	if opts.AlwaysOnTop || opts.TransparentTitlebar {
		t.Fatalf("unset flags defaulted on")
	}
	if opts.Kind != WindowNormal || opts.Background != BackgroundOpaque {
		t.Fatalf("unknown kind/background did not fall back: %+v", opts)
	}
}
