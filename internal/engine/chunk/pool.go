package chunk

import (
	"image"
	"sync"
	"sync/atomic"
)

// Pool allocates chunk pixel buffers and recycles them through sync.Pool.
//
// A pool may carry a budget: the maximum number of chunks alive at the same
// time. Allocations beyond the budget fail with ErrChunkBudgetExceeded, which
// lets callers treat memory exhaustion as an ordinary recoverable error.
type Pool struct {
	buffers [LevelCount]sync.Pool
	budget  atomic.Int64
	live    atomic.Int64
	total   atomic.Int64
}

// DefaultPool is the unbounded pool used when no pool is specified.
var DefaultPool = NewPool(0)

// NewPool creates a pool. A budget of zero or less means unlimited.
func NewPool(budget int) *Pool {
	p := &Pool{}
	for i := range p.buffers {
		side := Resolution(i).PixelSize()
		p.buffers[i].New = func() any {
			buf := make([]uint8, side*side*4)
			return &buf
		}
	}
	p.SetBudget(budget)
	return p
}

// SetBudget changes the maximum number of live chunks. Chunks already alive
// are not affected.
func (p *Pool) SetBudget(budget int) {
	if budget < 0 {
		budget = 0
	}
	p.budget.Store(int64(budget))
}

// Budget returns the configured budget (0 = unlimited).
func (p *Pool) Budget() int {
	return int(p.budget.Load())
}

// Get allocates a transparent chunk with a single reference.
func (p *Pool) Get(res Resolution) (*Chunk, error) {
	if !res.Valid() {
		return nil, ErrInvalidResolution
	}
	if budget := p.budget.Load(); budget > 0 {
		for {
			live := p.live.Load()
			if live >= budget {
				return nil, ErrChunkBudgetExceeded
			}
			if p.live.CompareAndSwap(live, live+1) {
				break
			}
		}
	} else {
		p.live.Add(1)
	}
	p.total.Add(1)

	bufp := p.buffers[res].Get().(*[]uint8)
	buf := *bufp
	clear(buf)
	side := res.PixelSize()
	c := &Chunk{
		res: res,
		img: &image.RGBA{
			Pix:    buf,
			Stride: side * 4,
			Rect:   image.Rect(0, 0, side, side),
		},
		pool: p,
	}
	c.refs.Store(1)
	return c, nil
}

// put returns a released chunk's buffer to the pool.
func (p *Pool) put(c *Chunk) {
	buf := c.img.Pix
	c.img = nil
	p.live.Add(-1)
	p.buffers[c.res].Put(&buf)
}

// Stats reports pool usage.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Live:      int(p.live.Load()),
		Allocated: int(p.total.Load()),
		Budget:    p.Budget(),
	}
}

// PoolStats contains pool counters.
type PoolStats struct {
	Live      int
	Allocated int
	Budget    int
}
