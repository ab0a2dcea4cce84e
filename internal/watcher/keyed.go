package watcher

import "sync"

// KeyedExecutor runs submitted functions with FIFO ordering per key while
// allowing different keys to proceed in parallel. Feed callbacks for the same
// appointment id go through here so rapid successive status changes cannot
// interleave their read-compare-notify sequences.
type KeyedExecutor struct {
	mu     sync.Mutex
	queues map[string][]func()
	active map[string]bool
}

func NewKeyedExecutor() *KeyedExecutor {
	return &KeyedExecutor{
		queues: make(map[string][]func()),
		active: make(map[string]bool),
	}
}

// Do enqueues fn for key and guarantees it runs after every previously
// enqueued fn for the same key has returned.
func (e *KeyedExecutor) Do(key string, fn func()) {
	e.mu.Lock()
	e.queues[key] = append(e.queues[key], fn)
	if !e.active[key] {
		e.active[key] = true
		go e.drain(key)
	}
	e.mu.Unlock()
}

func (e *KeyedExecutor) drain(key string) {
	for {
		e.mu.Lock()
		queue := e.queues[key]
		if len(queue) == 0 {
			delete(e.queues, key)
			delete(e.active, key)
			e.mu.Unlock()
			return
		}
		fn := queue[0]
		e.queues[key] = queue[1:]
		e.mu.Unlock()

		fn()
	}
}
