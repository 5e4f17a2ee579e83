// Package execshell runs commands through a persistent interactive shell
// process with activity-aware timeouts and signal control. One Engine owns
// exactly one child shell; a Pool hands out independent engines per session
// key so independent sessions run in parallel.
package execshell

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bottlehq/bottle/internal/fault"
)

// Sentinel errors for engine state. Execute on a busy engine rejects rather
// than queueing: queued commands would inherit a stale environment and an
// unbounded wait, and callers that want serialization can do it themselves.
var (
	ErrBusy   = fault.New(fault.CodeEngineBusy, "engine is executing another command")
	ErrClosed = fault.New(fault.CodeEngineClosed, "engine has been terminated")
)

// Result is the outcome of one Execute call. A timed-out command is a normal
// result with TimedOut set and ExitCode -1, not an error: the shell survives
// a timeout and stays usable for the next command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	TimedOut bool
}

// SignalResult reports the outcome of a signal operation. Signal operations
// never return an error through the normal path; failures are described in
// Err so callers can escalate (interrupt → terminate → force-kill) without
// error-handling ceremony.
type SignalResult struct {
	Success bool
	Signal  string
	Err     string
}

// Options configures an Engine. The environment snapshot is explicit so that
// tests and non-interactive callers get deterministic behavior instead of
// depending on ambient process state.
type Options struct {
	EnvMode        EnvMode
	Env            []string          // environment snapshot; nil means capture os.Environ once
	ExtraPaths     []string          // prepended to PATH
	Overrides      map[string]string // final per-variable overrides; empty value unsets
	WorkDir        string
	DefaultTimeout time.Duration // used when Execute gets timeout <= 0
}

const defaultTimeout = 30 * time.Second

type chunk struct {
	data   []byte
	stderr bool
}

// Engine wraps one persistent shell process. At most one command is in
// flight at a time; a second Execute while one is running returns ErrBusy.
type Engine struct {
	opts Options
	env  []string

	execMu sync.Mutex // held for the duration of one Execute

	mu     sync.Mutex // guards cmd/stdin against concurrent signal calls
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	out    chan chunk
	done   chan struct{} // closed when the shell process exits
	alive  atomic.Bool
	seq    atomic.Uint64
	logger *slog.Logger
}

// New creates an uninitialized Engine. Call Initialize before Execute.
func New(opts Options) *Engine {
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = defaultTimeout
	}
	snapshot := opts.Env
	if snapshot == nil {
		snapshot = os.Environ()
	}
	return &Engine{
		opts:   opts,
		env:    BuildEnv(opts.EnvMode, snapshot, opts.ExtraPaths, opts.Overrides),
		logger: slog.Default().With("component", "execshell"),
	}
}

// Initialize spawns the backing shell and blocks until it is ready to accept
// input. Spawn failure is fatal and surfaces immediately.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.alive.Load() {
		return nil
	}

	cmd := shellCommand()
	cmd.Env = e.env
	if e.opts.WorkDir != "" {
		cmd.Dir = e.opts.WorkDir
	}
	setProcAttrs(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fault.Wrap(fault.CodeInitFailed, err, "cannot open shell stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fault.Wrap(fault.CodeInitFailed, err, "cannot open shell stdout")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fault.Wrap(fault.CodeInitFailed, err, "cannot open shell stderr")
	}

	if err := cmd.Start(); err != nil {
		return fault.Wrap(fault.CodeInitFailed, err, "cannot spawn shell %s", cmd.Path).
			WithSuggestion("ensure the shell binary is installed and on PATH")
	}

	e.cmd = cmd
	e.stdin = stdin
	e.out = make(chan chunk, 256)
	e.done = make(chan struct{})
	e.alive.Store(true)

	var readers sync.WaitGroup
	readers.Add(2)
	go e.readStream(stdout, false, &readers)
	go e.readStream(stderr, true, &readers)
	go func() {
		readers.Wait()
		_ = cmd.Wait()
		e.alive.Store(false)
		close(e.done)
	}()

	// Round-trip a ready marker so Execute never races shell startup.
	ready := fmt.Sprintf("__bottle_ready_%d__", os.Getpid())
	if _, err := io.WriteString(stdin, "echo "+ready+"\n"); err != nil {
		e.killLocked()
		return fault.Wrap(fault.CodeInitFailed, err, "shell rejected startup probe")
	}
	deadline := time.NewTimer(10 * time.Second)
	defer deadline.Stop()
	var buf strings.Builder
	for {
		select {
		case c := <-e.out:
			if c.stderr {
				continue
			}
			buf.Write(c.data)
			if strings.Contains(buf.String(), ready) {
				return nil
			}
		case <-e.done:
			return fault.New(fault.CodeInitFailed, "shell exited during startup")
		case <-deadline.C:
			e.killLocked()
			return fault.New(fault.CodeInitFailed, "shell did not become ready within 10s")
		}
	}
}

func (e *Engine) readStream(r io.Reader, stderr bool, wg *sync.WaitGroup) {
	defer wg.Done()
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			e.out <- chunk{data: data, stderr: stderr}
		}
		if err != nil {
			return
		}
	}
}

// Alive reports whether the backing shell process is still running.
func (e *Engine) Alive() bool {
	return e.alive.Load()
}

// Execute writes the command to the shell and reads output until the
// completion sentinel appears, no stdout arrives for the timeout window, or
// the process dies. The timeout is activity-based: every stdout byte resets
// the countdown, stderr deliberately does not (a stream of warnings must not
// mask a hang).
func (e *Engine) Execute(command string, timeout time.Duration) (Result, error) {
	if !e.alive.Load() {
		return Result{}, ErrClosed
	}
	if !e.execMu.TryLock() {
		return Result{}, ErrBusy
	}
	defer e.execMu.Unlock()
	if !e.alive.Load() {
		return Result{}, ErrClosed
	}
	if timeout <= 0 {
		timeout = e.opts.DefaultTimeout
	}

	// Stale output from a previously timed-out command belongs to nobody.
	e.drain()

	sentinel := fmt.Sprintf("__bottle_done_%d__", e.seq.Add(1))
	start := time.Now()

	e.mu.Lock()
	stdin := e.stdin
	e.mu.Unlock()
	// The command runs in a subshell: `exit` (or any shell-terminating
	// construct) ends the subshell only, so its status still reaches the
	// sentinel and the persistent session survives for the next command.
	payload := "(\n" + command + "\n)\necho \"" + sentinel + " $?\"\n"
	if _, err := io.WriteString(stdin, payload); err != nil {
		return Result{}, fault.Wrap(fault.CodeExecFailed, err, "cannot write to shell").
			WithSuggestion("acquire a fresh engine from the pool; this one is dead")
	}

	var stdout, stderr strings.Builder
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case c := <-e.out:
			if c.stderr {
				stderr.Write(c.data)
				continue // stderr does not reset the activity timer
			}
			stdout.Write(c.data)
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(timeout)
			if out, code, found := cutSentinel(stdout.String(), sentinel); found {
				return Result{
					Stdout:   out,
					Stderr:   stderr.String(),
					ExitCode: code,
					Duration: time.Since(start),
				}, nil
			}
		case <-e.done:
			// Mid-command crash is a normal result, never an unhandled fault.
			e.logger.Warn("shell exited mid-command", "command", firstLine(command))
			return Result{
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
				ExitCode: -1,
				Duration: time.Since(start),
			}, nil
		case <-timer.C:
			return Result{
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
				ExitCode: -1,
				Duration: time.Since(start),
				TimedOut: true,
			}, nil
		}
	}
}

// Interrupt sends a best-effort SIGINT to the shell's process group. It may
// not stop children of children; callers escalate to Terminate or ForceKill
// if the command keeps running.
func (e *Engine) Interrupt() SignalResult {
	return e.signal("SIGINT", false)
}

// Terminate requests graceful shutdown and marks the engine dead. Further
// Execute calls return ErrClosed.
func (e *Engine) Terminate() SignalResult {
	res := e.signal("SIGTERM", false)
	if res.Success {
		e.alive.Store(false)
		e.mu.Lock()
		if e.stdin != nil {
			_ = e.stdin.Close()
		}
		e.mu.Unlock()
		go e.drainUntilExit()
	}
	return res
}

// ForceKill unconditionally kills the shell process group.
func (e *Engine) ForceKill() SignalResult {
	res := e.signal("SIGKILL", true)
	e.alive.Store(false)
	if res.Success {
		go e.drainUntilExit()
	}
	return res
}

// drainUntilExit consumes leftover output until the shell process is fully
// reaped. After a timed-out Execute returns, nobody reads e.out anymore; a
// command still streaming can fill the channel and park the pipe readers,
// which would keep done from ever closing once the process is killed.
func (e *Engine) drainUntilExit() {
	for {
		select {
		case <-e.out:
		case <-e.done:
			e.drain()
			return
		}
	}
}

func (e *Engine) signal(name string, kill bool) SignalResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cmd == nil || e.cmd.Process == nil || !e.alive.Load() {
		return SignalResult{Success: false, Signal: name, Err: "engine is not running"}
	}
	if err := signalGroup(e.cmd.Process, name, kill); err != nil {
		return SignalResult{Success: false, Signal: name, Err: err.Error()}
	}
	return SignalResult{Success: true, Signal: name}
}

func (e *Engine) killLocked() {
	if e.cmd != nil && e.cmd.Process != nil {
		_ = signalGroup(e.cmd.Process, "SIGKILL", true)
	}
	e.alive.Store(false)
}

func (e *Engine) drain() {
	for {
		select {
		case <-e.out:
		default:
			return
		}
	}
}

// cutSentinel looks for "<sentinel> <code>" in accumulated stdout. Output
// after the sentinel line belongs to the shell prompt machinery and is
// discarded along with it.
func cutSentinel(out, sentinel string) (string, int, bool) {
	i := strings.Index(out, sentinel)
	if i < 0 {
		return "", 0, false
	}
	rest := out[i+len(sentinel):]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return "", 0, false // exit code not fully flushed yet
	}
	code, err := strconv.Atoi(strings.TrimSpace(rest[:nl]))
	if err != nil {
		code = -1
	}
	return strings.TrimSuffix(out[:i], "\n"), code, true
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
