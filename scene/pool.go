package scene

import "sync"

// InstanceList is a reusable render-instance slice for pipelines that
// hand frames off to a worker (a terminal flusher or GPU submit
// goroutine) and need the instances to outlive the next Generate call.
type InstanceList struct {
	items []RenderInstance
}

// Reset truncates the list without releasing capacity.
func (l *InstanceList) Reset() { l.items = l.items[:0] }

// Items returns the underlying slice.
func (l *InstanceList) Items() []RenderInstance { return l.items }

// Append copies instances into the list.
func (l *InstanceList) Append(instances []RenderInstance) {
	l.items = append(l.items, instances...)
}

// Len returns the instance count.
func (l *InstanceList) Len() int { return len(l.items) }

// InstancePool manages a pool of reusable InstanceLists. After warmup,
// per-frame handoffs allocate nothing.
//
// Usage:
//
//	pool := NewInstancePool()
//	list := pool.Get()
//	list.Append(gen.Generate(sc))
//	// hand list to the submitting worker, which calls pool.Put(list)
type InstancePool struct {
	pool sync.Pool
}

// NewInstancePool creates a new instance pool.
func NewInstancePool() *InstancePool {
	return &InstancePool{
		pool: sync.Pool{
			New: func() any {
				return &InstanceList{}
			},
		},
	}
}

// Get retrieves a list from the pool, reset and ready for use.
func (p *InstancePool) Get() *InstanceList {
	l := p.pool.Get().(*InstanceList)
	l.Reset()
	return l
}

// Put returns a list to the pool for reuse.
func (p *InstancePool) Put(l *InstanceList) {
	if l == nil {
		return
	}
	p.pool.Put(l)
}

// Warmup pre-allocates lists to avoid allocation during critical paths.
// Call this during initialization if allocation-free operation is
// required.
func (p *InstancePool) Warmup(count int) {
	lists := make([]*InstanceList, count)
	for i := 0; i < count; i++ {
		lists[i] = p.Get()
	}
	for i := 0; i < count; i++ {
		p.Put(lists[i])
	}
}

// DefaultPool is a global instance pool for convenience. For
// performance-critical code, consider creating dedicated pools.
var DefaultPool = NewInstancePool()
