package snapshot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	doc := &Document{
		Version: Version,
		Width:   64,
		Height:  32,
		Root:    "root",
		Members: []Member{
			{ID: "root", Kind: "folder", Name: "Root", Opacity: 1, Visible: true, Children: []string{"a"}},
			{ID: "a", Kind: "layer", Name: "Layer", Opacity: 0.5, Parent: "root",
				Image: &Image{Chunks: []Chunk{{X: 1, Y: 0, Pixels: []byte{0, 1, 2, 255}}}}},
		},
		Symmetry: Symmetry{Vertical: Axis{Enabled: true, Position: 32}},
	}

	data, err := Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), "AAEC/w==")

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestDecodeRejectsVersion(t *testing.T) {
	_, err := Decode(strings.NewReader("version: 7\nwidth: 1\n"))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecodeBadPixels(t *testing.T) {
	src := "version: 1\nselection:\n  chunks:\n    - x: 0\n      y: 0\n      pixels: '!!!'\n"
	_, err := Decode(strings.NewReader(src))
	assert.Error(t, err)
}
