// Package snapshot defines the plain value form of a document used at the
// persistence boundary, and its YAML encoding.
//
// The layout is informational; it is not a stable file format.
package snapshot

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Version is written into every encoded snapshot.
const Version = 1

// ErrUnsupportedVersion is returned when decoding a snapshot of another version.
var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

// Document is the value form of a document.
type Document struct {
	Version  int      `yaml:"version"`
	Width    int      `yaml:"width"`
	Height   int      `yaml:"height"`
	Root     string   `yaml:"root"`
	Members  []Member `yaml:"members"`
	Symmetry Symmetry `yaml:"symmetry"`

	Selection       Image `yaml:"selection"`
	SelectionActive bool  `yaml:"selection_active"`
}

// Member is the value form of a layer or folder. Members are listed in
// pre-order; the root folder comes first.
type Member struct {
	ID       string   `yaml:"id"`
	Kind     string   `yaml:"kind"`
	Name     string   `yaml:"name"`
	Opacity  float64  `yaml:"opacity"`
	Visible  bool     `yaml:"visible"`
	Parent   string   `yaml:"parent,omitempty"`
	Children []string `yaml:"children,omitempty"`
	Image    *Image   `yaml:"image,omitempty"`
	Mask     *Image   `yaml:"mask,omitempty"`
}

// Symmetry is the value form of the symmetry axes.
type Symmetry struct {
	Horizontal Axis `yaml:"horizontal"`
	Vertical   Axis `yaml:"vertical"`
}

// Axis is one symmetry axis.
type Axis struct {
	Enabled  bool `yaml:"enabled"`
	Position int  `yaml:"position"`
}

// Image lists the committed full-resolution chunks of an image.
type Image struct {
	Chunks []Chunk `yaml:"chunks,omitempty"`
}

// Chunk holds the raw premultiplied RGBA bytes of one chunk.
type Chunk struct {
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
	Pixels []byte `yaml:"-"`
}

type chunkYAML struct {
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
	Pixels string `yaml:"pixels"`
}

// MarshalYAML stores pixels as base64 text.
func (c Chunk) MarshalYAML() (any, error) {
	return chunkYAML{X: c.X, Y: c.Y, Pixels: base64.StdEncoding.EncodeToString(c.Pixels)}, nil
}

// UnmarshalYAML decodes base64 pixels.
func (c *Chunk) UnmarshalYAML(node *yaml.Node) error {
	var raw chunkYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}
	pix, err := base64.StdEncoding.DecodeString(raw.Pixels)
	if err != nil {
		return fmt.Errorf("chunk (%d,%d) pixels: %w", raw.X, raw.Y, err)
	}
	c.X, c.Y, c.Pixels = raw.X, raw.Y, pix
	return nil
}

// Encode writes doc as YAML.
func Encode(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return enc.Close()
}

// Decode reads a YAML snapshot.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("snapshot version %d: %w", doc.Version, ErrUnsupportedVersion)
	}
	return &doc, nil
}

// Marshal returns the YAML encoding of doc.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal parses YAML produced by Marshal.
func Unmarshal(data []byte) (*Document, error) {
	return Decode(bytes.NewReader(data))
}
