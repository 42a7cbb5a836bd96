package history

import (
	"fmt"
	"time"

	"github.com/dshills/rasterdoc/internal/engine/changeinfo"
	"github.com/dshills/rasterdoc/internal/engine/changes"
	"github.com/dshills/rasterdoc/internal/engine/document"
)

// packet groups changes that undo and redo as one unit.
type packet struct {
	changes   []changes.Change
	timestamp time.Time
}

// description summarizes the packet by its first change.
func (p *packet) description() string {
	if len(p.changes) == 0 {
		return ""
	}
	desc := p.changes[0].Description()
	if n := len(p.changes); n > 1 && !p.homologous() {
		desc = fmt.Sprintf("%s (+%d)", desc, n-1)
	}
	return desc
}

// homologous reports whether every change continues the one before it.
func (p *packet) homologous() bool {
	for i := 1; i < len(p.changes); i++ {
		if !p.changes[i-1].IsMergeableWith(p.changes[i]) {
			return false
		}
	}
	return true
}

// canAbsorb reports whether c may be appended to this packet.
func (p *packet) canAbsorb(c changes.Change) bool {
	if len(p.changes) == 0 || !p.homologous() {
		return false
	}
	return p.changes[len(p.changes)-1].IsMergeableWith(c)
}

// revert undoes the changes in reverse order.
func (p *packet) revert(doc *document.Document) ([]changeinfo.Info, error) {
	var infos []changeinfo.Info
	for i := len(p.changes) - 1; i >= 0; i-- {
		out, err := p.changes[i].Revert(doc)
		infos = append(infos, out...)
		if err != nil {
			return infos, fmt.Errorf("revert %q: %w", p.changes[i].Description(), err)
		}
	}
	return infos, nil
}

// apply redoes the changes in order.
func (p *packet) apply(doc *document.Document) ([]changeinfo.Info, error) {
	var infos []changeinfo.Info
	for _, c := range p.changes {
		out, _, err := c.Apply(doc, false)
		infos = append(infos, out...)
		if err != nil {
			return infos, fmt.Errorf("redo %q: %w", c.Description(), err)
		}
	}
	return infos, nil
}

func (p *packet) dispose() {
	for _, c := range p.changes {
		c.Dispose()
	}
	p.changes = nil
}

func disposeAll(packets []*packet) {
	for _, p := range packets {
		p.dispose()
	}
}
