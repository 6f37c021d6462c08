// Package sandbox compiles and runs untrusted JavaScript in isolated goja
// runtimes under a hard deadline.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"
	"golang.org/x/sync/semaphore"

	"github.com/ashureev/code-arena/internal/compare"
)

const (
	captureName = "__arena_entry__"
	programName = "submission.js"
)

// denyStringEvalPrelude replaces every reachable string-to-code entry point.
const denyStringEvalPrelude = `(function (global) {
  var deny = function () {
    throw new EvalError("Code generation from strings disallowed for this context");
  };
  global.eval = deny;
  Object.defineProperty(Function.prototype, "constructor", { value: deny, writable: false, configurable: false });
  global.Function = deny;
})(this);`

// Prototypes created by generator and async function syntax carry their own
// constructor. Each snippet runs on its own so an unsupported syntax does not
// abort the rest. eval already points at the denying stub here.
var optionalDenySnippets = []string{
	`Object.defineProperty(Object.getPrototypeOf(function* () {}), "constructor", { value: eval, writable: false, configurable: false });`,
	`Object.defineProperty(Object.getPrototypeOf(async function () {}), "constructor", { value: eval, writable: false, configurable: false });`,
	`Object.defineProperty(Object.getPrototypeOf(async function* () {}), "constructor", { value: eval, writable: false, configurable: false });`,
}

// Config controls executor limits.
type Config struct {
	Timeout          time.Duration
	AllowStringEval  bool
	MaxConcurrent    int
	MaxCallStackSize int
}

// Executor creates one isolated runtime per submission.
type Executor struct {
	cfg Config
	sem *semaphore.Weighted
}

// NewExecutor creates an executor. Zero values fall back to defaults.
func NewExecutor(cfg Config) *Executor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 1500 * time.Millisecond
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 8
	}
	if cfg.MaxCallStackSize <= 0 {
		cfg.MaxCallStackSize = 2048
	}
	return &Executor{
		cfg: cfg,
		sem: semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}
}

// Timeout returns the configured wall-clock budget.
func (e *Executor) Timeout() time.Duration {
	return e.cfg.Timeout
}

// Instance is a loaded submission whose entry point can be invoked. Loading
// and every call share one wall-clock budget that starts once the instance
// holds its concurrency slot. It is not safe for concurrent use and must be
// closed.
type Instance struct {
	vm       *goja.Runtime
	fn       goja.Callable
	timeout  time.Duration
	deadline time.Time
	release  func()
}

// Load compiles source in a fresh runtime, runs its top-level statements and
// resolves entryPoint. It returns *ExecutionError or *EntryPointError for
// failures caused by the submission.
func (e *Executor) Load(ctx context.Context, source, entryPoint string) (*Instance, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire sandbox slot: %w", err)
	}
	var once sync.Once
	release := func() { once.Do(func() { e.sem.Release(1) }) }

	inst, err := e.load(ctx, source, entryPoint, time.Now().Add(e.cfg.Timeout))
	if err != nil {
		release()
		return nil, err
	}
	inst.release = release
	return inst, nil
}

func (e *Executor) load(ctx context.Context, source, entryPoint string, deadline time.Time) (*Instance, error) {
	vm := goja.New()
	vm.SetMaxCallStackSize(e.cfg.MaxCallStackSize)

	if err := vm.Set("console", silentConsole(vm)); err != nil {
		return nil, fmt.Errorf("failed to install console: %w", err)
	}
	if !e.cfg.AllowStringEval {
		if err := denyStringEval(vm); err != nil {
			return nil, err
		}
	}

	wrapped := fmt.Sprintf("%s\n;var %s = (typeof %s === \"undefined\") ? undefined : %s;",
		source, captureName, entryPoint, entryPoint)

	prog, err := goja.Compile(programName, wrapped, false)
	if err != nil {
		return nil, &ExecutionError{Message: err.Error()}
	}

	if _, err := runGuarded(ctx, vm, deadline, e.cfg.Timeout, func() (any, error) {
		return vm.RunProgram(prog)
	}); err != nil {
		return nil, err
	}

	fn, ok := goja.AssertFunction(vm.Get(captureName))
	if !ok {
		return nil, &EntryPointError{EntryPoint: entryPoint}
	}

	return &Instance{vm: vm, fn: fn, timeout: e.cfg.Timeout, deadline: deadline}, nil
}

// Call invokes the entry point with args spread positionally and returns the
// normalized result. A thrown error, an unrepresentable result or a spent
// budget is returned as *ExecutionError.
func (i *Instance) Call(ctx context.Context, args ...any) (any, error) {
	jsArgs := make([]goja.Value, len(args))
	for n, a := range args {
		jsArgs[n] = toJS(i.vm, a)
	}

	return runGuarded(ctx, i.vm, i.deadline, i.timeout, func() (any, error) {
		v, err := i.fn(goja.Undefined(), jsArgs...)
		if err != nil {
			return nil, err
		}
		var (
			out    any
			expErr error
		)
		if ex := i.vm.Try(func() { out, expErr = exportValue(v) }); ex != nil {
			return nil, ex
		}
		return out, expErr
	})
}

// Close releases the runtime's concurrency slot. The runtime is unreachable
// afterwards.
func (i *Instance) Close() {
	i.fn = nil
	i.vm = nil
	if i.release != nil {
		i.release()
	}
}

// interruptGuard arms an interrupt that can no longer fire once finished and
// remembers why it fired.
type interruptGuard struct {
	mu    sync.Mutex
	done  bool
	cause any
	vm    *goja.Runtime
}

func (g *interruptGuard) interrupt(v any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.done && g.cause == nil {
		g.cause = v
		g.vm.Interrupt(v)
	}
}

// finish disarms the guard and returns the interrupt cause, if any.
func (g *interruptGuard) finish() any {
	g.mu.Lock()
	g.done = true
	cause := g.cause
	g.mu.Unlock()
	g.vm.ClearInterrupt()
	return cause
}

// runGuarded runs fn with an interrupt armed for deadline and for ctx. The
// budget is only used to word the timeout message.
func runGuarded(ctx context.Context, vm *goja.Runtime, deadline time.Time, budget time.Duration, run func() (any, error)) (v any, err error) {
	if err := ctx.Err(); err != nil {
		return nil, &ExecutionError{Message: "execution cancelled"}
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return nil, timeoutError(budget)
	}

	g := &interruptGuard{vm: vm}
	timer := time.AfterFunc(remaining, func() { g.interrupt(errTimeout) })
	stop := context.AfterFunc(ctx, func() { g.interrupt(context.Cause(ctx)) })
	defer func() {
		timer.Stop()
		stop()
		cause := g.finish()
		if err == nil {
			return
		}
		switch {
		case cause == errTimeout:
			v, err = nil, timeoutError(budget)
		case cause != nil:
			v, err = nil, &ExecutionError{Message: "execution cancelled"}
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok {
				v, err = nil, toExecutionError(rerr, budget)
				return
			}
			v, err = nil, &ExecutionError{Message: fmt.Sprint(r)}
		}
	}()

	v, err = run()
	if err != nil {
		return nil, toExecutionError(err, budget)
	}
	return v, nil
}

func timeoutError(budget time.Duration) *ExecutionError {
	return &ExecutionError{
		Message: fmt.Sprintf("execution timed out after %s", budget),
		Timeout: true,
	}
}

func toExecutionError(err error, timeout time.Duration) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok && errors.Is(cause, errTimeout) {
			return timeoutError(timeout)
		}
		return &ExecutionError{Message: "execution cancelled"}
	}

	var already *ExecutionError
	if errors.As(err, &already) {
		return already
	}

	var ex *goja.Exception
	if errors.As(err, &ex) {
		if val := ex.Value(); val != nil {
			return &ExecutionError{Message: val.String()}
		}
		return &ExecutionError{Message: ex.Error()}
	}

	return &ExecutionError{Message: err.Error()}
}

func silentConsole(vm *goja.Runtime) *goja.Object {
	console := vm.NewObject()
	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	for _, name := range []string{"log", "info", "warn", "error", "debug", "trace"} {
		_ = console.Set(name, noop)
	}
	return console
}

func denyStringEval(vm *goja.Runtime) error {
	prog, err := goja.Compile("prelude.js", denyStringEvalPrelude, false)
	if err != nil {
		return fmt.Errorf("failed to compile sandbox prelude: %w", err)
	}
	if _, err := vm.RunProgram(prog); err != nil {
		return fmt.Errorf("failed to run sandbox prelude: %w", err)
	}
	for _, snippet := range optionalDenySnippets {
		p, err := goja.Compile("prelude.js", snippet, false)
		if err != nil {
			continue
		}
		_, _ = vm.RunProgram(p)
	}
	return nil
}

// toJS builds native JavaScript values so a submission cannot mutate the
// caller's fixtures through a wrapped Go slice or map.
func toJS(vm *goja.Runtime, v any) goja.Value {
	switch x := v.(type) {
	case nil:
		return goja.Null()
	case []any:
		items := make([]any, len(x))
		for n, item := range x {
			items[n] = toJS(vm, item)
		}
		return vm.NewArray(items...)
	case map[string]any:
		obj := vm.NewObject()
		for _, k := range compare.SortedKeys(x) {
			_ = obj.Set(k, toJS(vm, x[k]))
		}
		return obj
	}
	return vm.ToValue(v)
}
