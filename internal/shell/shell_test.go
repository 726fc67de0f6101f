package shell

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/xbst/config"
	"github.com/benz9527/xbst/observability"
)

func runScript(t *testing.T, script string, opts ...ShellOption) (*Shell, string) {
	t.Helper()
	out := &bytes.Buffer{}
	sh, err := New(strings.NewReader(script), out, opts...)
	require.NoError(t, err)
	require.NoError(t, sh.Run(context.Background()))
	return sh, out.String()
}

func TestShellUntracedSession(t *testing.T) {
	sh, out := runScript(t, strings.Join([]string{
		"i 50", "i 30", "i 70",
		"s 30", "s 99",
		"r 30", "r 99",
		"show", "q", "bogus",
	}, "\n"), WithShellStepwise(false))

	require.Contains(t, out, "inserted 50")
	require.Contains(t, out, "found 30")
	require.Contains(t, out, "key 99 not found")
	require.Contains(t, out, "deleted 30")
	require.Contains(t, out, "L0: 50\nL1: 70\nnodes: 2, leaves: 1, height: 2\nperforming: none, not tracing\n")
	require.NotContains(t, out, "unknown command", "nothing runs after quit")
	require.Equal(t, int64(2), sh.Scheduler().Tree().Len())
	require.Equal(t, 0, sh.Scheduler().Len())
}

func TestShellTracedDelete(t *testing.T) {
	script := []string{"trace off"}
	for _, key := range []string{"50", "30", "70", "20", "40", "60", "80"} {
		script = append(script, "insert "+key)
	}
	script = append(script, "trace on", "delete 50")
	for i := 0; i < 6; i++ {
		script = append(script, "step")
	}
	sh, out := runScript(t, strings.Join(script, "\n"))

	require.Contains(t, out, "L0: {50}")
	require.Contains(t, out, "L2: 20 40 <60> 80")
	require.Contains(t, out, "performing: delete, tracing")
	require.Equal(t, 1, strings.Count(out, msgTaskFinished))
	require.Contains(t, out, "deleted 50")
	require.True(t, strings.HasSuffix(out, msgNoMoreTasks+"\n"))

	bst := sh.Scheduler().Tree()
	require.Equal(t, int64(6), bst.Len())
	require.Equal(t, 60, bst.Root().Key())
}

func TestShellTracedFailureIsReportedOnFinish(t *testing.T) {
	_, out := runScript(t, "r 5\nstep\nstep\n")
	require.Contains(t, out, "performing: delete, tracing")
	require.Contains(t, out, msgTaskFinished+"\nthe tree is empty\n")
	require.Contains(t, out, msgNoMoreTasks)
}

func TestShellTrace(t *testing.T) {
	sh, out := runScript(t, "t\ntrace on\ntrace maybe\n")
	require.Equal(t, "performing: none, not tracing\nperforming: none, tracing\nusage: trace [on|off]\n", out)
	require.True(t, sh.Scheduler().Tree().Stepwise())
}

func TestShellCommandMistakes(t *testing.T) {
	_, out := runScript(t, "i\ni x\nfoo\n\nhelp\n")
	require.Contains(t, out, "usage: i <key>")
	require.Contains(t, out, `invalid key "x"`)
	require.Contains(t, out, `unknown command "foo", type help`)
	require.Contains(t, out, "insert|i <key>")
}

func TestShellNewAndTasks(t *testing.T) {
	sh, out := runScript(t, "i 5\ni 6\ntasks\nn\n")
	require.Contains(t, out, "Insert")
	require.Contains(t, strings.ToUpper(out), "TOTAL")
	require.True(t, strings.HasSuffix(out, "(empty tree)\nperforming: none, tracing\n"))
	require.Equal(t, 0, sh.Scheduler().Len())
	require.Equal(t, int64(0), sh.Scheduler().Tree().Len())
}

func TestShellConfigReload(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.Stepwise = false
	cfg.Logging.Level = "debug"
	reloads := make(chan config.Config, 1)
	reloads <- cfg

	sh, out := runScript(t, "i 5\nconfig\n",
		WithShellConfig(func() config.Config { return cfg }, reloads),
		WithShellStats(observability.NewTreeStats("shell-test")),
		WithShellPrompt("> "),
	)
	require.True(t, strings.HasPrefix(out, "> inserted 5\n"))
	require.Contains(t, out, "stepwise: false")
	require.Contains(t, out, "level: debug")
	require.False(t, sh.Scheduler().Tree().Stepwise())
}

func TestShellRunCanceled(t *testing.T) {
	sh, err := New(strings.NewReader("i 1\n"), &bytes.Buffer{})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sh.Run(ctx), context.Canceled)
	require.Equal(t, int64(0), sh.Scheduler().Tree().Len())
}

func TestShellRunStopsIdleConsole(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	out := &bytes.Buffer{}
	sh, err := New(pr, out)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sh.Run(ctx) }()

	// Nothing is written, give Run time to block on its input.
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err = <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("cancel did not stop the idle console")
	}
	require.Empty(t, out.String())
}
