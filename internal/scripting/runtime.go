package scripting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"
	"github.com/joeycumines/uibridge/internal/goroutineid"
	"go.uber.org/zap"
)

// Runtime owns the goja event loop that runs a bridge bundle. It is the
// "scripting thread" of the bridge: goja.Runtime is not goroutine-safe, so
// every VM access is routed through RunOnLoop or RunOnLoopSync.
// RunOnLoopSync is re-entrant: called from the loop goroutine, e.g. by a
// native module, it runs the function in place instead of deadlocking.
//
// Native modules are registered on the require.Registry before the bundle
// runs; the bundle reaches them with require().
type Runtime struct {
	loop     *eventloop.EventLoop
	registry *require.Registry
	log      *zap.Logger

	// mu protects started/stopped and timeout.
	mu      sync.RWMutex
	started bool
	stopped bool
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	// loopID and vm are captured on the loop goroutine at start.
	loopID atomic.Int64
	vm     *goja.Runtime
}

// DefaultSyncTimeout is the maximum duration to wait for RunOnLoopSync.
const DefaultSyncTimeout = 5 * time.Second

// ErrNotRunning is returned when work is submitted to a stopped runtime.
var ErrNotRunning = errors.New("scripting: event loop not running")

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger routes console output and runtime diagnostics to l.
func WithLogger(l *zap.Logger) Option {
	return func(rt *Runtime) {
		if l != nil {
			rt.log = l
		}
	}
}

// WithTimeout sets the RunOnLoopSync timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(rt *Runtime) {
		rt.timeout = d
	}
}

// NewRuntime starts an event loop bound to registry (a new registry if nil).
// Cancelling ctx closes the runtime.
func NewRuntime(ctx context.Context, registry *require.Registry, opts ...Option) (*Runtime, error) {
	if registry == nil {
		registry = require.NewRegistry()
	}

	childCtx, cancel := context.WithCancel(context.Background())
	rt := &Runtime{
		registry: registry,
		log:      Logger(),
		timeout:  DefaultSyncTimeout,
		ctx:      childCtx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(rt)
	}

	rt.loop = eventloop.NewEventLoop(
		eventloop.WithRegistry(registry),
		eventloop.EnableConsole(false),
	)
	rt.loop.Start()
	rt.mu.Lock()
	rt.started = true
	rt.mu.Unlock()

	err := rt.RunOnLoopSync(func(vm *goja.Runtime) error {
		rt.vm = vm
		rt.loopID.Store(goroutineid.Get())
		return installConsole(vm, consolePrinter{log: rt.log.Named("console")})
	})
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("scripting: initialize runtime: %w", err)
	}

	if ctx.Done() != nil {
		context.AfterFunc(ctx, func() {
			_ = rt.Close()
		})
	}
	return rt, nil
}

// installConsole exposes a console object backed by printer.
func installConsole(vm *goja.Runtime, printer console.Printer) error {
	module := vm.NewObject()
	if err := module.Set("exports", vm.NewObject()); err != nil {
		return err
	}
	console.RequireWithPrinter(printer)(vm, module)
	return vm.Set("console", module.Get("exports"))
}

// consolePrinter writes console.log/warn/error to zap.
type consolePrinter struct {
	log *zap.Logger
}

func (p consolePrinter) Log(s string)   { p.log.Info(s) }
func (p consolePrinter) Warn(s string)  { p.log.Warn(s) }
func (p consolePrinter) Error(s string) { p.log.Error(s) }

// Registry returns the require registry holding the native modules.
func (rt *Runtime) Registry() *require.Registry {
	return rt.registry
}

// Close stops the event loop. It is safe to call multiple times.
func (rt *Runtime) Close() error {
	rt.mu.Lock()
	if rt.stopped {
		rt.mu.Unlock()
		return nil
	}
	rt.stopped = true
	rt.mu.Unlock()

	// cancel first so RunOnLoopSync waiters unblock
	rt.cancel()
	rt.loop.Stop()
	return nil
}

// Done is closed once the runtime is stopped.
func (rt *Runtime) Done() <-chan struct{} {
	return rt.ctx.Done()
}

// IsRunning reports whether the runtime is started and not stopped.
func (rt *Runtime) IsRunning() bool {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.started && !rt.stopped
}

// RunOnLoop schedules fn on the event loop goroutine. It returns false if
// the loop is not running. The VM must not escape fn.
func (rt *Runtime) RunOnLoop(fn func(*goja.Runtime)) bool {
	if !rt.IsRunning() {
		return false
	}
	return rt.loop.RunOnLoop(fn)
}

// OnLoop reports whether the caller is running on the event loop goroutine.
func (rt *Runtime) OnLoop() bool {
	id := rt.loopID.Load()
	return id != 0 && id == goroutineid.Get()
}

// RunOnLoopSync runs fn on the event loop and waits for it, up to the
// configured timeout. On the loop goroutine fn runs immediately.
func (rt *Runtime) RunOnLoopSync(fn func(*goja.Runtime) error) error {
	rt.mu.RLock()
	running := rt.started && !rt.stopped
	timeout := rt.timeout
	rt.mu.RUnlock()
	if !running {
		return ErrNotRunning
	}
	if rt.OnLoop() {
		return fn(rt.vm)
	}

	errCh := make(chan error, 1)
	if !rt.loop.RunOnLoop(func(vm *goja.Runtime) {
		errCh <- fn(vm)
	}) {
		return ErrNotRunning
	}

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}
	select {
	case err := <-errCh:
		return err
	case <-rt.Done():
		return errors.New("scripting: runtime stopped before completion")
	case <-timeoutCh:
		return fmt.Errorf("scripting: operation timed out after %v", timeout)
	}
}

// RunBundle compiles and executes a bundle on the event loop. A thrown
// JavaScript error is returned as *ScriptError.
func (rt *Runtime) RunBundle(name string, src []byte) error {
	start := time.Now()
	err := rt.RunOnLoopSync(func(vm *goja.Runtime) error {
		prg, err := goja.Compile(name, string(src), false)
		if err != nil {
			return &ScriptError{Name: name, Phase: "compile", Err: err}
		}
		if _, err := vm.RunProgram(prg); err != nil {
			return &ScriptError{Name: name, Phase: "run", Err: err}
		}
		return nil
	})
	if err != nil {
		rt.log.Warn("bundle failed", zap.String("bundle", name), zap.Error(err))
		return err
	}
	rt.log.Debug("bundle executed", zap.String("bundle", name), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// SetGlobal sets a global variable in the VM.
func (rt *Runtime) SetGlobal(name string, value any) error {
	return rt.RunOnLoopSync(func(vm *goja.Runtime) error {
		return vm.Set(name, value)
	})
}

// GetGlobal exports a global variable, or nil if it is undefined.
func (rt *Runtime) GetGlobal(name string) (any, error) {
	var result any
	err := rt.RunOnLoopSync(func(vm *goja.Runtime) error {
		val := vm.Get(name)
		if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
			return nil
		}
		result = val.Export()
		return nil
	})
	return result, err
}

// ScriptError is a bundle compile or execution failure.
type ScriptError struct {
	Name  string
	Phase string
	Err   error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Phase, e.Name, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// Stack returns the JavaScript stack trace of a thrown exception, if any.
func (e *ScriptError) Stack() string {
	var ex *goja.Exception
	if errors.As(e.Err, &ex) {
		return ex.String()
	}
	return ""
}
