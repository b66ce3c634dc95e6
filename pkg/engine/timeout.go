package engine

import (
	"fmt"
	"time"

	"github.com/chazu/batoms/pkg/model"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

type evalResult struct {
	system *model.System
	errors []EvalError
	err    error
}

// current reports whether gen is still the latest evaluation.
func (e *Engine) current(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation == gen
}

func (e *Engine) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return EvalTimeout
}

// wait returns the result of evaluation gen from ch. A result that arrives
// after a newer Evaluate started is discarded, and an evaluation running
// past the timeout is abandoned; its goroutine finishes in the background
// and the buffered channel absorbs the late result.
func (e *Engine) wait(ch <-chan evalResult, gen uint64) (*model.System, []EvalError, error) {
	d := e.timeout()
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case res := <-ch:
		if !e.current(gen) {
			return nil, nil, fmt.Errorf("evaluation superseded by newer request")
		}
		return res.system, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("evaluation timed out after %s", d)
	}
}
