//go:build unix

package execshell

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(Options{EnvMode: EnvStandard})
	require.NoError(t, e.Initialize())
	t.Cleanup(func() { e.ForceKill() })
	return e
}

func TestExecuteBasic(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Execute("echo hello", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.TimedOut)
}

func TestExecuteExitCode(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Execute("exit 3", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

// A shell-terminating command must end its own subshell only; the session
// stays alive and usable.
func TestExitCommandDoesNotKillSession(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Execute("exit 3", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.True(t, e.Alive())

	res, err = e.Execute("echo survived", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "survived", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
}

func TestExecuteCapturesStderr(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Execute("echo out; echo err >&2", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "out", res.Stdout)
	assert.Contains(t, res.Stderr, "err")
}

func TestExecuteSequentialCommands(t *testing.T) {
	e := newTestEngine(t)

	for _, want := range []string{"one", "two", "three"} {
		res, err := e.Execute("echo "+want, 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, res.Stdout)
	}
}

// A command producing stdout every 100ms with a 300ms timeout must never
// time out: every stdout byte resets the countdown.
func TestTimeoutResetsOnStdoutActivity(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Execute("for i in $(seq 1 20); do echo tick; sleep 0.1; done", 300*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, res.TimedOut, "continuous stdout output must keep resetting the timeout")
	assert.Equal(t, 0, res.ExitCode)
}

// The same cadence on stderr only must time out: warnings are not progress.
func TestStderrDoesNotResetTimeout(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Execute("for i in $(seq 1 20); do echo tick >&2; sleep 0.1; done", 300*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, res.TimedOut, "stderr activity must not mask a stdout hang")
	assert.Equal(t, -1, res.ExitCode)
}

func TestEngineUsableAfterTimeout(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Execute("sleep 2", 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, res.TimedOut)

	// The shell is still working through the sleep; once it finishes, the
	// next command must succeed on the same instance.
	var followUp Result
	require.Eventually(t, func() bool {
		followUp, err = e.Execute("echo alive", 5*time.Second)
		return err == nil && followUp.Stdout == "alive"
	}, 10*time.Second, 250*time.Millisecond)
	assert.Equal(t, 0, followUp.ExitCode)
}

// A command that keeps streaming after its Execute timed out must not wedge
// the engine: once killed, the shell is reaped even though nobody is reading
// its output anymore.
func TestKillReapsShellStreamingAfterTimeout(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Execute("sleep 1; yes", 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, res.TimedOut)

	// Let the flood overrun the output buffer and park the pipe readers.
	time.Sleep(1500 * time.Millisecond)

	kill := e.ForceKill()
	require.True(t, kill.Success)

	select {
	case <-e.done:
	case <-time.After(5 * time.Second):
		t.Fatal("shell process was never reaped after kill")
	}
	assert.False(t, e.Alive())
}

func TestBusyEngineRejectsSecondExecute(t *testing.T) {
	e := newTestEngine(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = e.Execute("sleep 1", 5*time.Second)
	}()

	// Wait for the first command to claim the engine.
	require.Eventually(t, func() bool {
		_, err := e.Execute("echo nope", time.Second)
		return err == ErrBusy
	}, 2*time.Second, 10*time.Millisecond)
	<-done
}

func TestTerminatedEngineRejectsCommands(t *testing.T) {
	e := newTestEngine(t)

	sig := e.Terminate()
	assert.True(t, sig.Success)

	_, err := e.Execute("echo hello", time.Second)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSignalsOnDeadEngineDoNotPanic(t *testing.T) {
	e := newTestEngine(t)
	e.ForceKill()

	for _, res := range []SignalResult{e.Interrupt(), e.Terminate(), e.ForceKill()} {
		assert.False(t, res.Success)
		assert.NotEmpty(t, res.Err)
	}
}

func TestInterruptReturnsPromptly(t *testing.T) {
	e := newTestEngine(t)

	start := time.Now()
	sig := e.Interrupt()
	assert.True(t, sig.Success)
	assert.Equal(t, "SIGINT", sig.Signal)
	assert.Less(t, time.Since(start), time.Second)
}

func TestInitializeFailsForMissingWorkdir(t *testing.T) {
	e := New(Options{WorkDir: "/nonexistent/bottle/workdir"})
	err := e.Initialize()
	require.Error(t, err)
}

func TestMidCommandCrashIsANormalResult(t *testing.T) {
	e := newTestEngine(t)

	// Killing the shell itself mid-command must surface as a result with a
	// sentinel exit code, not an error.
	res, err := e.Execute("kill -9 $$", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, -1, res.ExitCode)
	assert.False(t, e.Alive())
}
