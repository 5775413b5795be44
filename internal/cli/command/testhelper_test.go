package command

import (
	"bytes"
	"context"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ccm-go/internal/cluster"
)

// testEnv runs ccm against a private root directory.
type testEnv struct {
	t    *testing.T
	root string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CCM_CLUSTER", "")
	return &testEnv{t: t, root: t.TempDir()}
}

// run executes ccm with the given arguments and returns stdout.
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	stdout, _, err := e.runAll(args...)
	return stdout, err
}

// runAll is run also returning stderr.
func (e *testEnv) runAll(args ...string) (string, string, error) {
	e.t.Helper()
	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := append([]string{"ccm", "--root", e.root}, args...)
	err := app.RunContext(context.Background(), full)
	return stdout.String(), stderr.String(), err
}

// mustRun is run failing the test on error.
func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("ccm %v: %v", args, err)
	}
	return out
}

func (e *testEnv) load(name string) *cluster.Cluster {
	e.t.Helper()
	cl, err := cluster.Load(e.root, name)
	if err != nil {
		e.t.Fatalf("load %s: %v", name, err)
	}
	return cl
}
