// Package luarunner executes sorting algorithms written in Lua.
//
// An algorithm source defines a global function that receives the array to
// sort. The array is exposed as a read-only userdata indexed from 0, and the
// instrumentation primitives live in the global table "soralvi":
//
//	function sort(a)
//	  for i = 0, #a - 2 do
//	    soralvi.traceIndex("i", i)
//	    local m = i
//	    for j = i + 1, #a - 1 do
//	      if a[j] < a[m] then m = j end
//	    end
//	    if m ~= i then soralvi.swapValues(i, m) end
//	  end
//	end
//
// Writing to the array raises an error: every mutation has to go through
// soralvi.swapValues so it is recorded.
package luarunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/Shopify/go-lua"

	"github.com/roach88/soralvi/internal/engine"
)

const (
	// DefaultEntryPoint is the global function called with the array.
	DefaultEntryPoint = "sort"

	arrayTypeName = "soralvi.array"
	chunkName     = "algorithm"
)

// ErrNoEntryPoint is returned when the source does not define the entry point.
var ErrNoEntryPoint = errors.New("algorithm does not define its entry point")

// Runner implements engine.CodeRunner on top of github.com/Shopify/go-lua.
//
// Each Run uses a fresh interpreter with only the base, table, string and
// math libraries loaded. Runner holds no per-run state and may be shared.
type Runner struct {
	entryPoint string
}

// Option configures a Runner.
type Option func(*Runner)

// WithEntryPoint sets the name of the global function to call.
//
// Default: "sort".
func WithEntryPoint(name string) Option {
	return func(r *Runner) {
		r.entryPoint = name
	}
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{entryPoint: DefaultEntryPoint}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run compiles source, then calls its entry point with the live array of ec.
//
// Errors returned by the instrumentation surface (quota, out-of-range swap,
// cancelled context) are returned unchanged rather than as the Lua error
// string they unwind the interpreter with.
func (r *Runner) Run(ctx context.Context, source string, ec *engine.ExecutionContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	run := &call{ec: ec}
	l := lua.NewState()
	openSafeLibraries(l)
	run.register(l)

	if err := lua.LoadBuffer(l, source, chunkName, "t"); err != nil {
		return fmt.Errorf("compile %s: %w", chunkName, err)
	}
	if err := l.ProtectedCall(0, 0, 0); err != nil {
		if run.err != nil {
			return run.err
		}
		return fmt.Errorf("load %s: %w", chunkName, err)
	}

	l.Global(r.entryPoint)
	if !l.IsFunction(-1) {
		l.Pop(1)
		return fmt.Errorf("%w: function %q", ErrNoEntryPoint, r.entryPoint)
	}
	l.PushUserData(run)
	lua.SetMetaTableNamed(l, arrayTypeName)

	slog.Debug("lua algorithm starting",
		"run_id", ec.RunID(),
		"entry_point", r.entryPoint,
		"elements", ec.Len(),
	)

	if err := l.ProtectedCall(1, 0, 0); err != nil {
		if run.err != nil {
			return run.err
		}
		return fmt.Errorf("run %s: %w", chunkName, err)
	}
	// An engine error swallowed by pcall still ends the run.
	return run.err
}

// openSafeLibraries loads the libraries an algorithm may use. io, os,
// package and debug are left out.
func openSafeLibraries(l *lua.State) {
	libs := []lua.RegistryFunction{
		{Name: "_G", Function: lua.BaseOpen},
		{Name: "table", Function: lua.TableOpen},
		{Name: "string", Function: lua.StringOpen},
		{Name: "math", Function: lua.MathOpen},
	}
	for _, lib := range libs {
		lua.Require(l, lib.Name, lib.Function, true)
		l.Pop(1)
	}

	// The base library can still read files.
	for _, name := range []string{"dofile", "loadfile"} {
		l.PushNil()
		l.SetGlobal(name)
	}
}

// call is the per-run binding between the interpreter and the engine.
type call struct {
	ec  *engine.ExecutionContext
	err error // first error raised by the engine, returned instead of the Lua error
}

func (c *call) register(l *lua.State) {
	lua.NewMetaTable(l, arrayTypeName)
	lua.SetFunctions(l, []lua.RegistryFunction{
		{Name: "__index", Function: c.index},
		{Name: "__len", Function: c.length},
		{Name: "__newindex", Function: c.assign},
		{Name: "__tostring", Function: c.describe},
	}, 0)
	l.Pop(1)

	l.NewTable()
	lua.SetFunctions(l, []lua.RegistryFunction{
		{Name: "traceIndex", Function: c.traceIndex},
		{Name: "swapValues", Function: c.swapValues},
	}, 0)
	l.SetGlobal("soralvi")
}

// fail records err and raises it in the interpreter. It does not return.
func (c *call) fail(l *lua.State, err error) {
	if c.err == nil {
		c.err = err
	}
	lua.Errorf(l, "%s", err.Error())
}

func (c *call) traceIndex(l *lua.State) int {
	name := lua.CheckString(l, 1)
	position := checkPosition(l, 2)
	if err := c.ec.TraceIndex(name, position); err != nil {
		c.fail(l, err)
	}
	return 0
}

func (c *call) swapValues(l *lua.State) int {
	a := checkPosition(l, 1)
	b := checkPosition(l, 2)
	if err := c.ec.SwapValues(a, b); err != nil {
		c.fail(l, err)
	}
	return 0
}

func (c *call) index(l *lua.State) int {
	lua.CheckUserData(l, 1, arrayTypeName)
	if l.TypeOf(2) != lua.TypeNumber {
		l.PushNil()
		return 1
	}
	position, ok := toPosition(l, 2)
	if !ok {
		l.PushNil()
		return 1
	}
	v, err := c.ec.Value(position)
	if err != nil {
		l.PushNil()
		return 1
	}
	l.PushInteger(v)
	return 1
}

// checkPosition returns argument arg as an int. Non-integral numbers raise
// an argument error instead of being truncated.
func checkPosition(l *lua.State, arg int) int {
	lua.CheckNumber(l, arg)
	position, ok := toPosition(l, arg)
	if !ok {
		n, _ := l.ToNumber(arg)
		lua.ArgumentError(l, arg, fmt.Sprintf("integer position expected, got %v", n))
	}
	return position
}

// toPosition converts the number at index to an int when it is integral.
func toPosition(l *lua.State, index int) (int, bool) {
	n, ok := l.ToNumber(index)
	if !ok || math.IsInf(n, 0) || n != math.Trunc(n) {
		return 0, false
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

func (c *call) length(l *lua.State) int {
	lua.CheckUserData(l, 1, arrayTypeName)
	l.PushInteger(c.ec.Len())
	return 1
}

func (c *call) assign(l *lua.State) int {
	lua.Errorf(l, "array is read-only; use soralvi.swapValues")
	return 0
}

func (c *call) describe(l *lua.State) int {
	l.PushString(fmt.Sprintf("array(%d)", c.ec.Len()))
	return 1
}
