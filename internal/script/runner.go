package script

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/rasterdoc/internal/engine"
	"github.com/dshills/rasterdoc/internal/engine/action"
	"github.com/dshills/rasterdoc/internal/logging"
)

// DefaultTimeout bounds a single script run.
const DefaultTimeout = 30 * time.Second

// Runner executes scripts against a tracker.
//
// gopher-lua states are not goroutine-safe; the mutex serializes runs.
type Runner struct {
	mu sync.Mutex

	L       *lua.LState
	tracker *engine.Tracker
	log     *logging.Logger
	out     io.Writer
	timeout time.Duration

	// failure holds the tracker error behind the last raised Lua error.
	failure error
	actions int
	closed  bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used by the log function and for run summaries.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithOutput redirects print. The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.out = w
		}
	}
}

// WithTimeout bounds each run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.timeout = d
		}
	}
}

// NewRunner creates a runner driving tracker.
func NewRunner(tracker *engine.Tracker, opts ...Option) *Runner {
	r := &Runner{
		tracker: tracker,
		log:     logging.Null(),
		out:     os.Stdout,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithComponent("script")

	r.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(r.L)
	r.installGlobals()
	return r
}

// openSafeLibraries opens the libraries that cannot reach the host.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

func (r *Runner) installGlobals() {
	r.L.SetGlobal("print", r.L.NewFunction(r.print))
	r.L.SetGlobal("log", r.L.NewFunction(r.logLine))
	r.L.SetGlobal("doc", r.newDocTable())
}

// RunFile executes the script at path.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}
	return r.RunString(ctx, path, string(code))
}

// RunString executes code. name identifies the script in errors.
func (r *Runner) RunString(ctx context.Context, name, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRunnerClosed
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()
	r.failure = nil
	before := r.actions

	start := time.Now()
	err := r.doWithRecovery(func() error {
		fn, err := r.L.Load(strings.NewReader(code), name)
		if err != nil {
			return err
		}
		r.L.Push(fn)
		return r.L.PCall(0, lua.MultRet, nil)
	})
	r.L.SetTop(0)

	if err != nil {
		if r.failure != nil {
			err = r.failure
		} else if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		r.log.Warn("%s failed after %d actions: %v", name, r.actions-before, err)
		return &Error{Script: name, Err: err}
	}
	r.log.Debug("%s ran %d actions in %s", name, r.actions-before, time.Since(start))
	return nil
}

func (r *Runner) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("lua panic: %v", p)
		}
	}()
	return fn()
}

// Actions returns how many actions scripts have processed successfully.
func (r *Runner) Actions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.actions
}

// Close releases the Lua state. The tracker is left open.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.closed = true
		r.L.Close()
	}
}

// process feeds actions to the tracker and raises a Lua error on failure.
func (r *Runner) process(L *lua.LState, actions ...action.Action) {
	ctx := L.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	_, err := r.tracker.ProcessActions(ctx, actions...)
	if err != nil {
		r.failure = err
		L.RaiseError("%s", err.Error())
		return
	}
	r.actions += len(actions)
}

func (r *Runner) print(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, n)
	for i := 1; i <= n; i++ {
		parts[i-1] = L.ToStringMeta(L.Get(i)).String()
	}
	fmt.Fprintln(r.out, strings.Join(parts, "\t"))
	return 0
}

func (r *Runner) logLine(L *lua.LState) int {
	r.log.Info("%s", L.CheckString(1))
	return 0
}
