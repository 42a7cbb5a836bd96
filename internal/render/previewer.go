package render

import (
	"context"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"

	"github.com/dshills/rasterdoc/internal/engine/chunk"
	"github.com/dshills/rasterdoc/internal/engine/tiled"
	"github.com/dshills/rasterdoc/internal/logging"
)

// DefaultPreviewWorkers bounds concurrent derivations when no limit is given.
const DefaultPreviewWorkers = 4

// Previewer derives lower pyramid levels off the editing goroutine.
//
// Work runs on clones taken when the request is made, so the live images
// may keep changing. Derived levels land in storage shared with the
// originals and are visible to them as long as their committed state is
// unchanged.
type Previewer struct {
	workers int
	log     *logging.Logger
}

// NewPreviewer creates a previewer running at most workers derivations at
// once. A nil logger discards output.
func NewPreviewer(workers int, log *logging.Logger) *Previewer {
	if workers <= 0 {
		workers = DefaultPreviewWorkers
	}
	if log == nil {
		log = logging.Null()
	}
	return &Previewer{workers: workers, log: log.WithComponent("previewer")}
}

// Warm derives level res of every image and returns the number of chunks
// derived. It blocks until done or until ctx is cancelled. Clones are taken
// before Warm returns control to any goroutine, so it must be called by the
// owner of images.
func (p *Previewer) Warm(ctx context.Context, images []*tiled.Image, res chunk.Resolution) (int, error) {
	return p.start(ctx, images, res)()
}

// Job is a background warm-up started by Start.
type Job struct {
	cancel  context.CancelFunc
	done    chan struct{}
	derived int
	err     error
}

// Start begins warming images in the background. Clones are taken before
// Start returns.
func (p *Previewer) Start(ctx context.Context, images []*tiled.Image, res chunk.Resolution) *Job {
	ctx, cancel := context.WithCancel(ctx)
	wait := p.start(ctx, images, res)
	j := &Job{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(j.done)
		defer cancel()
		j.derived, j.err = wait()
	}()
	return j
}

// Cancel stops the job. Chunks derived so far stay cached.
func (j *Job) Cancel() {
	j.cancel()
}

// Done is closed when the job finished.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finished and returns its result.
func (j *Job) Wait() (int, error) {
	<-j.done
	return j.derived, j.err
}

// start clones images and returns a function running the derivations.
func (p *Previewer) start(ctx context.Context, images []*tiled.Image, res chunk.Resolution) func() (int, error) {
	clones := make([]*tiled.Image, 0, len(images))
	for _, img := range images {
		if img != nil && !img.Disposed() {
			clones = append(clones, img.Clone())
		}
	}

	return func() (int, error) {
		var total atomic.Int64
		wp := pool.New().WithMaxGoroutines(p.workers).WithContext(ctx).WithCancelOnError()
		for _, clone := range clones {
			wp.Go(func(ctx context.Context) error {
				defer clone.Dispose()
				n, err := clone.DerivePyramid(ctx, res)
				total.Add(int64(n))
				return err
			})
		}
		err := wp.Wait()
		derived := int(total.Load())
		if err != nil {
			p.log.Debug("warm %s stopped after %d chunks: %v", res, derived, err)
		} else {
			p.log.Debug("warmed %d chunks at %s", derived, res)
		}
		return derived, err
	}
}
