package render

import (
	"context"
	"sync"

	"github.com/dshills/rasterdoc/internal/engine/changeinfo"
	"github.com/dshills/rasterdoc/internal/engine/chunk"
	"github.com/dshills/rasterdoc/internal/engine/document"
	"github.com/dshills/rasterdoc/internal/event"
)

// DefaultFullRedrawThreshold is the share of canvas chunks above which the
// main image is redrawn whole.
const DefaultFullRedrawThreshold = 0.5

// Dirty lists the chunks that need redrawing.
type Dirty struct {
	// Main holds chunks of the composed image.
	Main chunk.Set
	// ImagePreviews holds chunks per member preview. A folder preview is
	// dirty whenever something below it changes.
	ImagePreviews map[document.ID]chunk.Set
	// MaskPreviews holds chunks per mask preview.
	MaskPreviews map[document.ID]chunk.Set
	// Selection reports that the selection outline changed.
	Selection bool
	// FullRedraw reports that Main covers enough of the canvas to redraw
	// everything.
	FullRedraw bool
}

// Empty reports whether nothing needs redrawing.
func (d Dirty) Empty() bool {
	return d.Main.Len() == 0 && len(d.ImagePreviews) == 0 && len(d.MaskPreviews) == 0 && !d.Selection
}

func newDirty() Dirty {
	return Dirty{
		Main:          make(chunk.Set),
		ImagePreviews: make(map[document.ID]chunk.Set),
		MaskPreviews:  make(map[document.ID]chunk.Set),
	}
}

// GathererOption configures a Gatherer.
type GathererOption func(*Gatherer)

// WithFullRedrawThreshold sets the share of canvas chunks in [0,1] that
// turns a redraw into a full redraw.
func WithFullRedrawThreshold(share float64) GathererOption {
	return func(g *Gatherer) {
		if share > 0 && share <= 1 {
			g.threshold = share
		}
	}
}

// Gatherer accumulates dirty chunks from change infos until they are taken.
type Gatherer struct {
	mu sync.Mutex

	doc       document.Reader
	dirty     Dirty
	threshold float64
}

// NewGatherer creates a gatherer reading member state from doc.
func NewGatherer(doc document.Reader, opts ...GathererOption) *Gatherer {
	g := &Gatherer{
		doc:       doc,
		dirty:     newDirty(),
		threshold: DefaultFullRedrawThreshold,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Subscribe gathers every change info batch published on bus.
func (g *Gatherer) Subscribe(bus *event.Bus) (*event.Subscription, error) {
	return bus.Subscribe(event.TopicChangeInfo, func(_ context.Context, ev event.Event) error {
		if infos, ok := event.PayloadAs[[]changeinfo.Info](ev); ok {
			g.Gather(infos)
		}
		return nil
	})
}

// Gather folds infos into the pending dirty state. It reads the document,
// so it must run after the mutation that produced infos completed.
func (g *Gatherer) Gather(infos []changeinfo.Info) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, info := range infos {
		switch i := info.(type) {
		case changeinfo.MaskChunks:
			g.dirty.Main.Union(i.Chunks)
			g.addToImagePreviews(i.Member, i.Chunks, true)
			g.addToMaskPreview(i.Member, i.Chunks)
		case changeinfo.LayerImageChunks:
			g.dirty.Main.Union(i.Chunks)
			g.addToImagePreviews(i.Member, i.Chunks, false)
		case changeinfo.CreateMember:
			g.addAllToMain(i.Member)
			g.addAllToImagePreviews(i.Member, false)
			g.addAllToMaskPreview(i.Member)
		case changeinfo.DeleteMember:
			g.dirty.Main.Union(g.canvas())
			g.addToImagePreviews(i.Parent, g.canvas(), false)
		case changeinfo.MoveMember:
			g.addAllToMain(i.Member)
			g.addAllToImagePreviews(i.Member, true)
			if i.OldParent != i.NewParent {
				g.addToImagePreviews(i.OldParent, g.canvas(), false)
			}
		case changeinfo.MemberMask:
			g.dirty.Main.Union(g.canvas())
			g.addToMaskPreview(i.Member, g.canvas())
			g.addToImagePreviews(i.Member, g.canvas(), true)
		case changeinfo.MemberOpacity:
			g.addAllToMain(i.Member)
			g.addAllToImagePreviews(i.Member, true)
		case changeinfo.MemberVisibility:
			g.addAllToMain(i.Member)
			g.addAllToImagePreviews(i.Member, true)
		case changeinfo.Size:
			all := g.canvas()
			g.dirty.Main.Union(all)
			g.doc.Walk(func(m *document.Member, _ int) bool {
				g.addToImagePreviews(m.ID, all, false)
				if m.HasMask() {
					g.addToMaskPreview(m.ID, all)
				}
				return true
			})
		case changeinfo.Selection:
			g.dirty.Selection = true
		}
	}

	total := len(chunk.CanvasCoords(g.doc.Size()))
	if total > 0 && float64(g.dirty.Main.Len()) >= g.threshold*float64(total) {
		g.dirty.FullRedraw = true
	}
}

// Take returns the pending dirty state and starts a new one.
func (g *Gatherer) Take() Dirty {
	g.mu.Lock()
	defer g.mu.Unlock()
	d := g.dirty
	g.dirty = newDirty()
	return d
}

// Pending reports whether anything waits to be taken.
func (g *Gatherer) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.dirty.Empty()
}

func (g *Gatherer) canvas() chunk.Set {
	return chunk.NewSet(chunk.CanvasCoords(g.doc.Size())...)
}

// path returns id followed by its ancestors up to the root.
func (g *Gatherer) path(id document.ID) []document.ID {
	var out []document.ID
	for id != document.NilID {
		m, ok := g.doc.FindMember(id)
		if !ok {
			break
		}
		out = append(out, id)
		id = m.Parent
	}
	return out
}

// memberChunks returns every chunk a layer occupies. A masked layer only
// shows where its mask has chunks. Folders cover the whole canvas.
func (g *Gatherer) memberChunks(id document.ID) (chunk.Set, bool) {
	m, ok := g.doc.FindMember(id)
	if !ok {
		return nil, false
	}
	if !m.IsLayer() {
		return g.canvas(), true
	}
	chunks := m.Image.FindAllChunks()
	if m.HasMask() {
		mask := m.Mask.FindAllChunks()
		for c := range chunks {
			if !mask.Contains(c) {
				delete(chunks, c)
			}
		}
	}
	return chunks, true
}

func (g *Gatherer) addAllToMain(id document.ID) {
	if chunks, ok := g.memberChunks(id); ok {
		g.dirty.Main.Union(chunks)
	}
}

func (g *Gatherer) addAllToImagePreviews(id document.ID, ignoreSelf bool) {
	m, ok := g.doc.FindMember(id)
	if !ok {
		return
	}
	if m.IsLayer() {
		g.addToImagePreviews(id, m.Image.FindAllChunks(), ignoreSelf)
		return
	}
	g.addToImagePreviews(id, g.canvas(), ignoreSelf)
}

func (g *Gatherer) addAllToMaskPreview(id document.ID) {
	m, ok := g.doc.FindMember(id)
	if !ok || !m.HasMask() {
		return
	}
	g.addToMaskPreview(id, m.Mask.FindAllChunks())
}

// addToImagePreviews marks chunks on the previews of id and its ancestors.
// The root has no preview.
func (g *Gatherer) addToImagePreviews(id document.ID, chunks chunk.Set, ignoreSelf bool) {
	path := g.path(id)
	start := 0
	if ignoreSelf {
		start = 1
	}
	for i := start; i < len(path)-1; i++ {
		g.dirty.ImagePreviews[path[i]] = g.dirty.ImagePreviews[path[i]].Union(chunks)
	}
}

func (g *Gatherer) addToMaskPreview(id document.ID, chunks chunk.Set) {
	g.dirty.MaskPreviews[id] = g.dirty.MaskPreviews[id].Union(chunks)
}
