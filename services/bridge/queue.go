// File: services/bridge/queue.go
package bridge

import (
	"context"
	"sync"
)

// ScriptQueue is a Surface for hosts that poll the bridge API for scripts
// to execute in the content context. Scripts accumulate until the host
// drains them; the queue is bounded to keep a stalled host from growing it
// without limit.
type ScriptQueue struct {
	mu      sync.Mutex
	scripts []string
	limit   int
}

const defaultScriptQueueLimit = 64

// NewScriptQueue creates an empty queue.
func NewScriptQueue() *ScriptQueue {
	return &ScriptQueue{limit: defaultScriptQueueLimit}
}

// InjectScript enqueues a script for the host to execute.
func (q *ScriptQueue) InjectScript(ctx context.Context, script string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.scripts) >= q.limit {
		// Oldest scripts are stale page state; drop from the front.
		q.scripts = q.scripts[1:]
	}
	q.scripts = append(q.scripts, script)
	return nil
}

// Drain returns the queued scripts in order and empties the queue.
func (q *ScriptQueue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.scripts
	q.scripts = nil
	return out
}
