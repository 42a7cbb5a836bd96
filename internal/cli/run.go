package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/rasterdoc/internal/engine"
	"github.com/dshills/rasterdoc/internal/engine/snapshot"
	"github.com/dshills/rasterdoc/internal/event"
	"github.com/dshills/rasterdoc/internal/render"
	"github.com/dshills/rasterdoc/internal/script"
)

type runOptions struct {
	size   string
	from   string
	output string
	png    string
	res    string
	warm   bool
}

func newRunCommand(e *env) *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run <script.lua>",
		Short: "Run an action script and save the resulting document",
		Long: `Run executes a Lua action script against a new or loaded document.
The final document is written as a YAML snapshot and optionally as a PNG.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, o, args[0])
		},
	}
	cmd.Flags().StringVar(&o.size, "size", "256x256", "canvas size of a new document")
	cmd.Flags().StringVar(&o.from, "from", "", "start from this snapshot instead of an empty document")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "write the snapshot here (default stdout)")
	cmd.Flags().StringVar(&o.png, "png", "", "also write the composed image as PNG")
	cmd.Flags().StringVar(&o.res, "resolution", "full", "PNG resolution: full, half, quarter or eighth")
	cmd.Flags().BoolVar(&o.warm, "warm", false, "derive preview levels after the script")
	return cmd
}

func (e *env) run(cmd *cobra.Command, o *runOptions, path string) error {
	ctx := cmd.Context()
	bus := event.NewBus()
	opts := append(e.cfg.TrackerOptions(), engine.WithLogger(e.log), engine.WithBus(bus))

	tr, err := e.openTracker(o, opts)
	if err != nil {
		return err
	}
	defer tr.Close()

	gatherer := render.NewGatherer(tr.Document(), e.cfg.GathererOptions()...)
	if _, err := gatherer.Subscribe(bus); err != nil {
		return err
	}

	runner := script.NewRunner(tr, script.WithLogger(e.log), script.WithOutput(cmd.ErrOrStderr()))
	defer runner.Close()
	if err := runner.RunFile(ctx, path); err != nil {
		return err
	}

	dirty := gatherer.Take()
	e.log.Info("%d actions, %d dirty chunks, full redraw %t", runner.Actions(), dirty.Main.Len(), dirty.FullRedraw)

	if o.warm {
		warm := render.NewPreviewer(e.cfg.Render.PreviewWorkers, e.log)
		n, err := warm.Warm(ctx, layerImages(tr.Document()), e.cfg.PreviewResolution())
		if err != nil {
			return fmt.Errorf("warming previews: %w", err)
		}
		e.log.Info("derived %d preview chunks at %s", n, e.cfg.PreviewResolution())
	}

	if o.png != "" {
		if err := writePNG(o.png, tr.Document(), o.res); err != nil {
			return err
		}
	}
	return writeSnapshot(cmd, o.output, tr.Snapshot())
}

func (e *env) openTracker(o *runOptions, opts []engine.Option) (*engine.Tracker, error) {
	if o.from != "" {
		s, err := readSnapshot(o.from)
		if err != nil {
			return nil, err
		}
		return engine.NewFromSnapshot(s, opts...)
	}
	size, err := parseSize(o.size)
	if err != nil {
		return nil, err
	}
	return engine.New(size, opts...)
}

func readSnapshot(path string) (*snapshot.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := snapshot.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return s, nil
}

func writeSnapshot(cmd *cobra.Command, path string, s *snapshot.Document) error {
	if path == "" {
		return snapshot.Encode(cmd.OutOrStdout(), s)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := snapshot.Encode(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
