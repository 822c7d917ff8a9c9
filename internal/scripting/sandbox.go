// Package scripting runs sandboxed GopherLua scripts against an editor
// session. Scripts reach the map only through the "map" module.
package scripting

import (
	"context"
	"errors"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget of one script run when none is
// configured.
const DefaultInstructionLimit = 1_000_000

// ErrInstructionLimit is returned when a script runs out of its budget.
var ErrInstructionLimit = errors.New("instruction limit exceeded")

// safeLibs are the only standard libraries opened in a sandboxed state.
var safeLibs = []lua.LGFunction{
	lua.OpenBase,
	lua.OpenTable,
	lua.OpenString,
	lua.OpenMath,
}

// blockedGlobals are base-library functions that reach the filesystem, load
// code or tune the collector.
var blockedGlobals = []string{"dofile", "loadfile", "load", "collectgarbage", "require"}

// budget is a context that cancels itself once Done has been called limit
// times. The VM polls Done once per opcode, so the count is an opcode budget.
type budget struct {
	context.Context
	cancel    context.CancelFunc
	left      atomic.Int64
	exhausted atomic.Bool
}

func (b *budget) Done() <-chan struct{} {
	if b.left.Add(-1) < 0 && !b.exhausted.Swap(true) {
		b.cancel()
	}
	return b.Context.Done()
}

// Exhausted reports whether the budget, rather than the parent context,
// stopped the VM.
func (b *budget) Exhausted() bool { return b.exhausted.Load() }

// newBudget returns a child of parent that also cancels after limit opcodes.
//
// Precondition: limit > 0.
func newBudget(parent context.Context, limit int) (*budget, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	b := &budget{Context: ctx, cancel: cancel}
	b.left.Store(int64(limit))
	return b, cancel
}

// NewSandboxedState creates an LState with only the base, table, string and
// math libraries, the blocked globals removed, and execution bounded by
// instLimit opcodes or the end of ctx.
//
// Precondition: ctx must be non-nil; instLimit <= 0 uses DefaultInstructionLimit.
// Postcondition: The caller owns the returned state and cancel func and must
// call both cancel and L.Close.
func NewSandboxedState(ctx context.Context, instLimit int) (*lua.LState, context.CancelFunc) {
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range safeLibs {
		open(L)
	}
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	b, cancel := newBudget(ctx, instLimit)
	L.SetContext(b)
	return L, cancel
}
