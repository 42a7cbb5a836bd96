package cli

import (
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/rasterdoc/internal/engine/chunk"
	"github.com/dshills/rasterdoc/internal/engine/document"
	"github.com/dshills/rasterdoc/internal/engine/tiled"
	"github.com/dshills/rasterdoc/internal/render"
)

func newRenderCommand(e *env) *cobra.Command {
	var output, res string
	cmd := &cobra.Command{
		Use:   "render <snapshot.yaml>",
		Short: "Compose a snapshot into a PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := readSnapshot(args[0])
			if err != nil {
				return err
			}
			doc, err := document.FromSnapshot(s)
			if err != nil {
				return err
			}
			defer doc.Dispose()
			if output == "" {
				output = "out.png"
			}
			if err := writePNG(output, doc, res); err != nil {
				return err
			}
			e.log.Info("wrote %s", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG file (default out.png)")
	cmd.Flags().StringVar(&res, "resolution", "full", "full, half, quarter or eighth")
	return cmd
}

func parseResolution(s string) (chunk.Resolution, error) {
	for _, r := range chunk.Resolutions {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("resolution %q: %w", s, chunk.ErrInvalidResolution)
}

func writePNG(path string, doc document.Reader, resName string) error {
	res, err := parseResolution(resName)
	if err != nil {
		return err
	}
	img, err := render.Compositor{}.Render(doc, res)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

// layerImages lists the pixel and mask images of every layer.
func layerImages(doc document.Reader) []*tiled.Image {
	var out []*tiled.Image
	for _, m := range doc.Layers() {
		out = append(out, m.Image)
		if m.HasMask() {
			out = append(out, m.Mask)
		}
	}
	return out
}
