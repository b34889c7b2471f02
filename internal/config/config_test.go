package config

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, Default().Validate())
	assert.Equal(t, color.RGBA{R: 0x10, G: 0x10, B: 0x18, A: 255}, Default().BackgroundColor())
}

func TestParseOverridesDefaults(t *testing.T) {
	s, err := Parse([]byte(`
layout = "show.xml"
start_3d = true

[window]
width = 640

[camera]
pitch = 30.0
`))
	require.NoError(t, err)

	want := Default()
	want.Layout = "show.xml"
	want.Start3D = true
	want.Window.Width = 640
	want.Camera.Pitch = 30
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`dot_size = = 1`))
	assert.ErrorContains(t, err, "line 1")

	_, err = Parse([]byte(`colour = "red"`))
	assert.Error(t, err)

	_, err = Parse([]byte("dot_size = 0\n[camera]\nfov = 200.0\n"))
	assert.ErrorContains(t, err, "dot size 0 must be positive")
	assert.ErrorContains(t, err, "camera fov 200 must be within (0, 180)")

	_, err = Parse([]byte(`background = "nope"`))
	assert.ErrorContains(t, err, "background")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xlpreview.toml")
	require.NoError(t, os.WriteFile(path, []byte("dot_size = 4.0\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4.0, s.DotSize)

	t.Setenv(EnvPath, path)
	s, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 4.0, s.DotSize)

	t.Setenv(EnvPath, "")
	s, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), s)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorContains(t, err, "config: read")
}

func TestEncodeRoundTrip(t *testing.T) {
	s := Default()
	s.Camera.Yaw = 90
	var buf bytes.Buffer
	require.NoError(t, s.Encode(&buf))

	got, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, s, got)
}
