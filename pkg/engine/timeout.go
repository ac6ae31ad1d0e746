package engine

import (
	"fmt"
	"time"

	"github.com/chazu/parasurf/pkg/scene"
)

// EvalTimeout is the default hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// evalResult carries one evaluation back from its goroutine.
type evalResult struct {
	gen    uint64
	scene  *scene.Scene
	errors []EvalError
	err    error
}

// wait blocks until the evaluation of generation gen reports on ch or
// the engine's timeout elapses. A result that arrives after a newer
// Evaluate call has started is reported as superseded. A timed-out
// goroutine keeps running; its buffered result is dropped unread.
func (e *Engine) wait(ch <-chan evalResult, gen uint64) (*scene.Scene, []EvalError, error) {
	limit := e.Timeout
	if limit <= 0 {
		limit = EvalTimeout
	}
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.gen != e.currentGeneration() {
			return nil, nil, fmt.Errorf("evaluation %d superseded by newer request", gen)
		}
		return res.scene, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("evaluation timed out after %s", limit)
	}
}

func (e *Engine) currentGeneration() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}
