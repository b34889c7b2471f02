package layout

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfansharif/xlpreview/internal/location"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<xrgb>
  <models>
    <model name="Arch 1" DisplayAs="Arches" parm1="1" parm2="25" X1="0.1" Y1="0.2" X2="0.3" Y2="0.2" Height="1.0"/>
    <model name="Mega Tree" DisplayAs="Tree 360" parm1="16" parm2="50" WorldPosX="400" WorldPosY="300" ScaleX="1" ScaleY="1"/>
  </models>
  <view_objects/>
</xrgb>
`

func TestParse(t *testing.T) {
	doc, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	models := doc.Models()
	require.Len(t, models, 2)
	assert.Equal(t, "Arch 1", models[0].Attr("name", ""))
	assert.Equal(t, "Arches", models[0].Attr("DisplayAs", ""))
	assert.Equal(t, "fallback", models[0].Attr("Missing", "fallback"))
	assert.NotNil(t, doc.Root.Child("view_objects"))
	assert.Nil(t, doc.Root.Child("nope"))
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(strings.NewReader(`<other/>`))
	assert.ErrorContains(t, err, "unexpected root element <other>")

	_, err = Parse(strings.NewReader(`<xrgb>`))
	assert.ErrorContains(t, err, "layout: decode")

	_, err = Load(filepath.Join(t.TempDir(), "missing.xml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorContains(t, err, "layout: read")
}

func TestNodeAttributesKeepOrder(t *testing.T) {
	var n location.Attributes = NewNode("model")
	n.SetAttr("a", "1")
	n.SetAttr("b", "2")
	n.SetAttr("c", "3")
	n.SetAttr("a", "4")
	n.DeleteAttr("b")
	n.DeleteAttr("zzz")

	node := n.(*Node)
	var names []string
	for _, a := range node.Attrs {
		names = append(names, a.Name.Local+"="+a.Value)
	}
	assert.Equal(t, []string{"a=4", "c=3"}, names)
	assert.True(t, n.HasAttr("c"))
	assert.False(t, n.HasAttr("b"))
}

func TestRoundTrip(t *testing.T) {
	doc, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	doc.Models()[0].SetAttr("X1", "0.500000")

	path := filepath.Join(t.TempDir(), "xlights_rgbeffects.xml")
	require.NoError(t, doc.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("<?xml")))
	assert.Contains(t, string(data), `<model name="Arch 1" DisplayAs="Arches" parm1="1" parm2="25" X1="0.500000"`)

	got, err := Load(path)
	require.NoError(t, err)
	require.Len(t, got.Models(), 2)
	assert.Equal(t, "0.500000", got.Models()[0].Attr("X1", ""))
	assert.Equal(t, "Tree 360", got.Models()[1].Attr("DisplayAs", ""))
}

func TestAddAndRemoveModel(t *testing.T) {
	doc := New()
	m := doc.AddModel("Line 1", "Single Line")
	assert.Equal(t, "Single Line", m.Attr("DisplayAs", ""))
	require.Len(t, doc.Models(), 1)

	assert.True(t, doc.Root.Child("models").RemoveChild(m))
	assert.False(t, doc.Root.Child("models").RemoveChild(m))
	assert.Empty(t, doc.Models())

	// A layout without a models section grows one on demand.
	bare := &Document{Root: NewNode(RootName)}
	assert.Empty(t, bare.Models())
	bare.AddModel("x", "Matrix")
	assert.Len(t, bare.Models(), 1)
}
