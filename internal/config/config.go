// Package config loads the preview settings file.
//
// Settings are TOML. Every field has a default, so an empty or missing file
// section keeps the built-in value:
//
//	layout = "xlights_rgbeffects.xml"
//	start_3d = false
//	background = "#101018"
//	dot_size = 2.5
//
//	[window]
//	width = 1280
//	height = 800
//
//	[camera]
//	fov = 45.0
//	distance = 1200.0
//	yaw = 0.0
//	pitch = 15.0
package config

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pelletier/go-toml/v2"
)

// EnvPath names the environment variable consulted when no settings path is
// given.
const EnvPath = "XLPREVIEW_CONFIG"

type Window struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

// Camera is the starting 3D orbit camera. Angles are in degrees.
type Camera struct {
	FOV      float64 `toml:"fov"`
	Distance float64 `toml:"distance"`
	Yaw      float64 `toml:"yaw"`
	Pitch    float64 `toml:"pitch"`
}

type Settings struct {
	Layout     string  `toml:"layout"`
	Start3D    bool    `toml:"start_3d"`
	Background string  `toml:"background"`
	DotSize    float64 `toml:"dot_size"` // node radius in pixels
	Window     Window  `toml:"window"`
	Camera     Camera  `toml:"camera"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Layout:     "xlights_rgbeffects.xml",
		Background: "#101018",
		DotSize:    2.5,
		Window:     Window{Width: 1280, Height: 800, Title: "xlpreview"},
		Camera:     Camera{FOV: 45, Distance: 1200, Pitch: 15},
	}
}

// Load reads settings from path, falling back to $XLPREVIEW_CONFIG. With
// neither set it returns the defaults.
func Load(path string) (Settings, error) {
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes settings over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Settings, error) {
	s := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return Settings{}, fmt.Errorf("line %d column %d: %w", row, col, err)
		}
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks that every value is usable.
func (s Settings) Validate() error {
	var errs []error
	if s.Window.Width <= 0 || s.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", s.Window.Width, s.Window.Height))
	}
	if s.Camera.FOV <= 0 || s.Camera.FOV >= 180 {
		errs = append(errs, fmt.Errorf("camera fov %v must be within (0, 180)", s.Camera.FOV))
	}
	if s.Camera.Distance <= 0 {
		errs = append(errs, fmt.Errorf("camera distance %v must be positive", s.Camera.Distance))
	}
	if s.DotSize <= 0 {
		errs = append(errs, fmt.Errorf("dot size %v must be positive", s.DotSize))
	}
	if _, err := colorful.Hex(s.Background); err != nil {
		errs = append(errs, fmt.Errorf("background: %w", err))
	}
	return errors.Join(errs...)
}

// BackgroundColor returns the parsed background color, opaque.
func (s Settings) BackgroundColor() color.RGBA {
	c, err := colorful.Hex(s.Background)
	if err != nil {
		return color.RGBA{A: 255}
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Encode writes the settings as TOML.
func (s Settings) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(s)
}
