package execshell

import (
	"sync"
	"time"
)

// DefaultPoolSize bounds how many engines the pool will track. Exceeding the
// cap does not fail acquisition: extra engines are created unpooled and are
// the caller's to kill.
const DefaultPoolSize = 8

type poolEntry struct {
	engine   *Engine
	inUse    bool
	lastUsed time.Time
}

// Pool is a keyed cache of initialized engines. Two concurrent Acquire calls
// for the same key never share an instance; a released key is reused by a
// later acquirer after a liveness check.
type Pool struct {
	mu      sync.Mutex
	entries map[string]*poolEntry
	max     int
}

var (
	sharedPool *Pool
	poolOnce   sync.Once
)

// Shared returns the process-wide pool, created lazily on first use. There
// is no implicit teardown; callers run Clear during shutdown.
func Shared() *Pool {
	poolOnce.Do(func() {
		sharedPool = NewPool(DefaultPoolSize)
	})
	return sharedPool
}

// NewPool creates an independent pool, mainly for tests.
func NewPool(max int) *Pool {
	if max <= 0 {
		max = DefaultPoolSize
	}
	return &Pool{entries: make(map[string]*poolEntry), max: max}
}

// Acquire returns an initialized engine bound to key. An idle pooled engine
// is reused after verifying it is still alive; a dead one is discarded and
// replaced transparently. When the keyed entry is in use, or the pool is at
// capacity, a fresh unpooled engine is returned instead.
func (p *Pool) Acquire(key string, opts Options) (*Engine, error) {
	p.mu.Lock()
	if entry, ok := p.entries[key]; ok {
		if !entry.inUse && entry.engine.Alive() {
			entry.inUse = true
			entry.lastUsed = time.Now()
			p.mu.Unlock()
			return entry.engine, nil
		}
		if !entry.inUse {
			// Dead idle engine: drop it and fall through to create.
			delete(p.entries, key)
		}
	}
	pooled := false
	if _, taken := p.entries[key]; !taken && len(p.entries) < p.max {
		pooled = true
	}
	p.mu.Unlock()

	engine := New(opts)
	if err := engine.Initialize(); err != nil {
		return nil, err
	}

	if pooled {
		p.mu.Lock()
		// Re-check: a racing Acquire may have registered the key meanwhile.
		if _, taken := p.entries[key]; !taken && len(p.entries) < p.max {
			p.entries[key] = &poolEntry{engine: engine, inUse: true, lastUsed: time.Now()}
		}
		p.mu.Unlock()
	}
	return engine, nil
}

// SetMax adjusts the pool capacity, typically from configuration at startup.
// Shrinking does not evict existing entries; it only stops new keys from
// being pooled until the count drops below the new cap.
func (p *Pool) SetMax(max int) {
	if max <= 0 {
		return
	}
	p.mu.Lock()
	p.max = max
	p.mu.Unlock()
}

// Release marks the keyed engine free for reuse. The engine is not destroyed.
func (p *Pool) Release(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if entry, ok := p.entries[key]; ok {
		entry.inUse = false
		entry.lastUsed = time.Now()
	}
}

// Get returns the pooled engine for key without acquiring it, or nil.
func (p *Pool) Get(key string) *Engine {
	p.mu.Lock()
	defer p.mu.Unlock()
	if entry, ok := p.entries[key]; ok {
		return entry.engine
	}
	return nil
}

// Len reports the number of pooled entries.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Clear force-kills and discards every pooled engine. Used at shutdown.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, entry := range p.entries {
		entry.engine.ForceKill()
		delete(p.entries, key)
	}
}
