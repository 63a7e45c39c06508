package windowkit

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the application-level window defaults, normally loaded from a
// windowkit.toml next to the executable. Every field has a usable zero-config
// default; the file only overrides.
type Config struct {
	Window WindowDefaults `toml:"window"`
	// Overrides is keyed by GOOS and merged over Window.
	Overrides map[string]WindowDefaults `toml:"platform"`
}

// WindowDefaults are the creation-time defaults for new windows.
type WindowDefaults struct {
	Title  string  `toml:"title"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`

	// Kind is one of "normal", "floating", "popup", "sheet".
	Kind string `toml:"kind"`

	// Background is one of "opaque", "transparent", "blurred".
	Background string `toml:"background"`

	Decorations         *bool   `toml:"decorations"`
	Resizable           *bool   `toml:"resizable"`
	AlwaysOnTop         *bool   `toml:"always_on_top"`
	TransparentTitlebar *bool   `toml:"transparent_titlebar"`
	CornerRadius        float64 `toml:"corner_radius"`

	MinWidth  float64 `toml:"min_width"`
	MinHeight float64 `toml:"min_height"`
	MaxWidth  float64 `toml:"max_width"`
	MaxHeight float64 `toml:"max_height"`

	// TargetFPS paces the timer fallback when the platform has no
	// display-refresh source. 0 means 60.
	TargetFPS int `toml:"target_fps"`
}

// DefaultConfig returns the built-in defaults used when no config file is
// present.
func DefaultConfig() Config {
	yes := true
	return Config{
		Window: WindowDefaults{
			Title:       "windowkit",
			Width:       800,
			Height:      600,
			Kind:        "normal",
			Background:  "opaque",
			Decorations: &yes,
			Resizable:   &yes,
			TargetFPS:   60,
		},
	}
}

// LoadConfig reads and parses a TOML config file, merging it over the
// built-in defaults and applying the per-platform override section for the
// current OS.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	if o, ok := cfg.Overrides[string(CurrentOS())]; ok {
		cfg.Window = mergeDefaults(cfg.Window, o)
	}
	return cfg, nil
}

// mergeDefaults overlays non-zero fields of over onto base.
func mergeDefaults(base, over WindowDefaults) WindowDefaults {
	if over.Title != "" {
		base.Title = over.Title
	}
	if over.Width != 0 {
		base.Width = over.Width
	}
	if over.Height != 0 {
		base.Height = over.Height
	}
	if over.Kind != "" {
		base.Kind = over.Kind
	}
	if over.Background != "" {
		base.Background = over.Background
	}
	if over.Decorations != nil {
		base.Decorations = over.Decorations
	}
	if over.Resizable != nil {
		base.Resizable = over.Resizable
	}
	if over.AlwaysOnTop != nil {
		base.AlwaysOnTop = over.AlwaysOnTop
	}
	if over.TransparentTitlebar != nil {
		base.TransparentTitlebar = over.TransparentTitlebar
	}
	if over.CornerRadius != 0 {
		base.CornerRadius = over.CornerRadius
	}
	if over.MinWidth != 0 {
		base.MinWidth = over.MinWidth
	}
	if over.MinHeight != 0 {
		base.MinHeight = over.MinHeight
	}
	if over.MaxWidth != 0 {
		base.MaxWidth = over.MaxWidth
	}
	if over.MaxHeight != 0 {
		base.MaxHeight = over.MaxHeight
	}
	if over.TargetFPS != 0 {
		base.TargetFPS = over.TargetFPS
	}
	return base
}

// WindowOptions converts the defaults into the concrete options for Open.
func (d WindowDefaults) WindowOptions() WindowOptions {
	opts := WindowOptions{
		Title:        d.Title,
		Bounds:       Bounds{Size: Size{Width: d.Width, Height: d.Height}},
		CornerRadius: d.CornerRadius,
		MinSize:      Size{Width: d.MinWidth, Height: d.MinHeight},
		MaxSize:      Size{Width: d.MaxWidth, Height: d.MaxHeight},
		TargetFPS:    d.TargetFPS,
	}

	switch d.Kind {
	case "floating":
		opts.Kind = WindowFloating
	case "popup":
		opts.Kind = WindowPopup
	case "sheet":
		opts.Kind = WindowSheet
	default:
		opts.Kind = WindowNormal
	}

	switch d.Background {
	case "transparent":
		opts.Background = BackgroundTransparent
	case "blurred":
		opts.Background = BackgroundBlurred
	default:
		opts.Background = BackgroundOpaque
	}

	opts.Decorations = d.Decorations == nil || *d.Decorations
	opts.Resizable = d.Resizable == nil || *d.Resizable
	opts.AlwaysOnTop = d.AlwaysOnTop != nil && *d.AlwaysOnTop
	opts.TransparentTitlebar = d.TransparentTitlebar != nil && *d.TransparentTitlebar
	return opts
}
