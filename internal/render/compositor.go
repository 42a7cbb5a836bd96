package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/dshills/rasterdoc/internal/engine/chunk"
	"github.com/dshills/rasterdoc/internal/engine/document"
	"github.com/dshills/rasterdoc/internal/engine/tiled"
)

// Compositor blends the visible layers of a document, bottom to top, with
// their effective opacity and masks. Areas a mask does not cover are hidden.
type Compositor struct {
	// Latest includes uncommitted previews instead of committed pixels only.
	Latest bool
}

// RenderChunk composes the chunk at coord and resolution res. The result is
// a new premultiplied image of res.PixelSize() pixels square.
func (c Compositor) RenderChunk(doc document.Reader, coord image.Point, res chunk.Resolution) (*image.RGBA, error) {
	if !res.Valid() {
		return nil, chunk.ErrInvalidResolution
	}
	side := res.PixelSize()
	dst := image.NewRGBA(image.Rect(0, 0, side, side))

	var err error
	doc.Walk(func(m *document.Member, _ int) bool {
		if !m.IsLayer() {
			return true
		}
		if err = c.composeLayer(doc, dst, m, coord, res); err != nil {
			err = fmt.Errorf("compose %s: %w", m.ID, err)
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

func (c Compositor) composeLayer(doc document.Reader, dst *image.RGBA, m *document.Member, coord image.Point, res chunk.Resolution) error {
	visible, err := doc.EffectiveVisible(m.ID)
	if err != nil || !visible {
		return err
	}
	opacity, err := doc.EffectiveOpacity(m.ID)
	if err != nil || opacity == 0 {
		return err
	}
	src, err := c.chunk(m.Image, coord, res)
	if err != nil || src == nil {
		return err
	}

	alpha := uint8(math.Round(opacity * 255))
	var mask image.Image = image.NewUniform(color.Alpha{A: alpha})
	if m.HasMask() {
		mc, err := c.chunk(m.Mask, coord, res)
		if err != nil || mc == nil {
			return err
		}
		mask = scaledAlpha(mc.Image(), alpha)
	}
	draw.DrawMask(dst, dst.Bounds(), src.Image(), image.Point{}, mask, image.Point{}, draw.Over)
	return nil
}

func (c Compositor) chunk(img *tiled.Image, coord image.Point, res chunk.Resolution) (*chunk.Chunk, error) {
	if c.Latest {
		return img.GetLatestChunk(coord, res)
	}
	return img.GetCommittedChunk(coord, res)
}

// scaledAlpha extracts the alpha channel of src multiplied by alpha/255.
func scaledAlpha(src *image.RGBA, alpha uint8) *image.Alpha {
	dst := image.NewAlpha(src.Bounds())
	for i := range dst.Pix {
		dst.Pix[i] = uint8((uint32(src.Pix[i*4+3])*uint32(alpha) + 127) / 255)
	}
	return dst
}

// Render composes the whole canvas at resolution res.
func (c Compositor) Render(doc document.Reader, res chunk.Resolution) (*image.RGBA, error) {
	if !res.Valid() {
		return nil, chunk.ErrInvalidResolution
	}
	side := res.PixelSize()
	size := doc.Size()
	scaled := image.Pt(ceilDiv(size.X*side, chunk.Size), ceilDiv(size.Y*side, chunk.Size))
	dst := image.NewRGBA(image.Rectangle{Max: scaled})

	for _, coord := range chunk.CanvasCoords(size) {
		tile, err := c.RenderChunk(doc, coord, res)
		if err != nil {
			return nil, err
		}
		r := image.Rectangle{Min: coord.Mul(side), Max: coord.Mul(side).Add(image.Pt(side, side))}
		draw.Draw(dst, r, tile, image.Point{}, draw.Src)
	}
	return dst, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
