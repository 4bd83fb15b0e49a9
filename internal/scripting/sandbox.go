// Package scripting runs content-supplied Lua: condition tick hooks and AI
// method preconditions. Scripts see plain numbers and strings, never the
// combat model, and every call runs under an opcode budget.
package scripting

import (
	"context"
	"errors"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget used when none is configured.
const DefaultInstructionLimit = 100_000

// errBudgetExhausted surfaces inside the Lua error text when a call runs out of opcodes.
var errBudgetExhausted = errors.New("instruction budget exhausted")

var safeLibs = []struct {
	name string
	open lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// strippedGlobals are removed from every sandbox: file and chunk loading,
// module loading, GC control and raw stdout.
var strippedGlobals = []string{"dofile", "loadfile", "load", "loadstring", "require", "module", "collectgarbage", "print"}

// budget is a context that expires after a fixed number of Done calls.
// gopher-lua polls Done once per opcode, so the count is an opcode count.
// It is only touched by the goroutine running the VM.
type budget struct {
	context.Context
	cancel context.CancelCauseFunc
	left   int
}

func (b *budget) Done() <-chan struct{} {
	b.left--
	if b.left == 0 {
		b.cancel(errBudgetExhausted)
	}
	return b.Context.Done()
}

func (b *budget) Err() error {
	if err := context.Cause(b.Context); err != nil {
		return err
	}
	return b.Context.Err()
}

// withBudget gives L a fresh allowance of limit opcodes (0 means the default)
// and returns the func that withdraws it.
func withBudget(L *lua.LState, limit int) func() {
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	ctx, cancel := context.WithCancelCause(context.Background())
	L.SetContext(&budget{Context: ctx, cancel: cancel, left: limit})
	return func() {
		L.RemoveContext()
		cancel(nil)
	}
}

// NewSandboxedState returns a Lua state with only the base, table, string and
// math libraries, without the globals in strippedGlobals, and holding an
// initial budget of instLimit opcodes (0 means the default). The caller owns
// the state and must Close it.
func NewSandboxedState(instLimit int) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range safeLibs {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range strippedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	withBudget(L, instLimit)
	return L
}
