// Package layout reads and writes xLights layout files
// (xlights_rgbeffects.xml). Only the element tree and attributes are kept;
// attribute order is preserved so a save produces a minimal diff.
package layout

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// RootName is the root element of a layout file.
const RootName = "xrgb"

// Node is one XML element. It implements location.Attributes.
type Node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []*Node    `xml:",any"`
}

// NewNode returns an empty element with the given name.
func NewNode(name string) *Node {
	return &Node{XMLName: xml.Name{Local: name}}
}

// Name returns the element name.
func (n *Node) Name() string { return n.XMLName.Local }

func (n *Node) index(name string) int {
	for i, a := range n.Attrs {
		if a.Name.Local == name {
			return i
		}
	}
	return -1
}

// Attr returns the value of the named attribute, or def when it is missing.
func (n *Node) Attr(name, def string) string {
	if i := n.index(name); i >= 0 {
		return n.Attrs[i].Value
	}
	return def
}

func (n *Node) HasAttr(name string) bool { return n.index(name) >= 0 }

// SetAttr replaces an attribute in place or appends it.
func (n *Node) SetAttr(name, value string) {
	if i := n.index(name); i >= 0 {
		n.Attrs[i].Value = value
		return
	}
	n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

func (n *Node) DeleteAttr(name string) {
	if i := n.index(name); i >= 0 {
		n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
	}
}

// Child returns the first child element with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns the child elements with the given name in document
// order.
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Name() == name {
			out = append(out, c)
		}
	}
	return out
}

// AddChild appends a child element and returns it.
func (n *Node) AddChild(name string) *Node {
	c := NewNode(name)
	n.Children = append(n.Children, c)
	return c
}

// RemoveChild removes c from the children of n. It reports whether c was
// found.
func (n *Node) RemoveChild(c *Node) bool {
	for i, other := range n.Children {
		if other == c {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return true
		}
	}
	return false
}

// Document is a parsed layout file.
type Document struct {
	Root *Node
}

// New returns an empty layout with a models section.
func New() *Document {
	root := NewNode(RootName)
	root.AddChild("models")
	return &Document{Root: root}
}

// Parse reads a layout from r.
func Parse(r io.Reader) (*Document, error) {
	root := &Node{}
	if err := xml.NewDecoder(r).Decode(root); err != nil {
		return nil, fmt.Errorf("layout: decode: %w", err)
	}
	if root.Name() != RootName {
		return nil, fmt.Errorf("layout: unexpected root element <%s>, want <%s>", root.Name(), RootName)
	}
	return &Document{Root: root}, nil
}

// Load reads the layout file at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("layout: read %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("layout: read %s: %w", path, err)
	}
	return doc, nil
}

// Models returns the <model> elements of the <models> section.
func (d *Document) Models() []*Node {
	models := d.Root.Child("models")
	if models == nil {
		return nil
	}
	return models.ChildrenNamed("model")
}

// AddModel appends a model element with the given name and display type,
// creating the <models> section if needed.
func (d *Document) AddModel(name, displayAs string) *Node {
	models := d.Root.Child("models")
	if models == nil {
		models = d.Root.AddChild("models")
	}
	m := models.AddChild("model")
	m.SetAttr("name", name)
	m.SetAttr("DisplayAs", displayAs)
	return m
}

// Encode writes the layout as indented XML.
func (d *Document) Encode(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(d.Root); err != nil {
		return fmt.Errorf("layout: encode: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Save writes the layout to path, replacing the file atomically.
func (d *Document) Save(path string) error {
	var buf bytes.Buffer
	if err := d.Encode(&buf); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("layout: write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("layout: write %s: %w", path, err)
	}
	return nil
}
