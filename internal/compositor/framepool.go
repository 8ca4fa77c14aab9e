package compositor

import (
	"image"
	"sync"
)

// FramePool reuses *image.RGBA buffers keyed by their bounds so the
// per-frame compositor doesn't churn the garbage collector allocating
// one fresh frame per call. Adapted from
// the teacher's system.ImagePool.
type FramePool struct {
	pools map[string]*sync.Pool
	mu    sync.RWMutex
}

func NewFramePool() *FramePool {
	return &FramePool{pools: make(map[string]*sync.Pool)}
}

func (p *FramePool) Get(rect image.Rectangle) *image.RGBA {
	key := rect.String()

	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		pool, exists = p.pools[key]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return image.NewRGBA(rect)
				},
			}
			p.pools[key] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.RGBA)
}

func (p *FramePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	key := img.Rect.String()
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()
	if exists {
		pool.Put(img)
	}
}
