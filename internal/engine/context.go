package engine

import (
	"context"

	"github.com/roach88/soralvi/internal/ir"
)

// CodeRunner executes algorithm source against an instrumentation surface.
//
// Run must call the algorithm exactly once, synchronously, and return only
// after it has finished. Every traceIndex/swapValues call the algorithm makes
// is forwarded to ec in program order. Errors returned by ec methods should be
// propagated unchanged so the engine can classify them.
type CodeRunner interface {
	Run(ctx context.Context, source string, ec *ExecutionContext) error
}

// CodeRunnerFunc adapts a Go function to CodeRunner. The source argument is
// passed through untouched.
type CodeRunnerFunc func(ctx context.Context, source string, ec *ExecutionContext) error

// Run calls f.
func (f CodeRunnerFunc) Run(ctx context.Context, source string, ec *ExecutionContext) error {
	return f(ctx, source, ec)
}

// ExecutionContext is the instrumentation surface handed to a running
// algorithm. It is created fresh for every run and must not be retained
// after CodeRunner.Run returns.
type ExecutionContext struct {
	ctx    context.Context
	runID  string
	keys   *KeyRegistry
	log    *ActionLog
	array  *ArrayState
	quota  *QuotaEnforcer
	closed bool
}

func newExecutionContext(ctx context.Context, runID string, e *Engine) *ExecutionContext {
	return &ExecutionContext{
		ctx:   ctx,
		runID: runID,
		keys:  e.keys,
		log:   e.log,
		array: e.array,
		quota: NewQuotaEnforcer(e.maxActions),
	}
}

// RunID returns the identifier of the run this context records.
func (c *ExecutionContext) RunID() string {
	return c.runID
}

// TraceIndex records that cursor name now points at position.
// The position is opaque at this point and is not bounds-checked.
func (c *ExecutionContext) TraceIndex(name string, position int) error {
	if err := c.admit(); err != nil {
		return err
	}
	return applyRecorded(c, ir.TraceAction{
		KeyIndex: c.keys.Resolve(name),
		Position: position,
	})
}

// SwapValues records an exchange of positions a and b and applies it to the
// live array immediately, so the algorithm sees post-swap values on its next
// read.
func (c *ExecutionContext) SwapValues(a, b int) error {
	if err := c.admit(); err != nil {
		return err
	}
	return applyRecorded(c, ir.SwapAction{PositionA: a, PositionB: b})
}

// Len returns the live array length.
func (c *ExecutionContext) Len() int {
	return c.array.Len()
}

// Value returns the live value at position.
func (c *ExecutionContext) Value(position int) (int, error) {
	return c.array.At(position)
}

// admit runs the checks shared by every instrumentation call.
func (c *ExecutionContext) admit() error {
	if c.closed {
		return &RuntimeError{
			Code:    ErrCodeNotReady,
			Message: "instrumentation used after the run finished",
			RunID:   c.runID,
		}
	}
	if err := c.ctx.Err(); err != nil {
		return err
	}
	return c.quota.Check(c.runID)
}

func (c *ExecutionContext) close() {
	c.closed = true
}
