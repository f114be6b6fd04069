package repl_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"bplusindex/pkg/repl"
)

func TestRunDispatchesRegisteredCommand(t *testing.T) {
	r := repl.NewRepl()
	r.AddCommand("echo", func(payload string, _ *repl.REPLConfig) (string, error) {
		return payload, nil
	}, "echoes its input")

	var out strings.Builder
	in := strings.NewReader("echo hello\n")
	if err := r.Run(uuid.New(), "> ", in, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "echo hello") {
		t.Fatalf("output %q does not contain echoed payload", out.String())
	}
}

func TestRunStopsAtFirstCommandError(t *testing.T) {
	r := repl.NewRepl()
	calls := 0
	r.AddCommand("boom", func(payload string, _ *repl.REPLConfig) (string, error) {
		calls++
		return "", errBoom
	}, "always fails")

	in := strings.NewReader("boom\nboom\n")
	var out strings.Builder
	err := r.Run(uuid.New(), "> ", in, &out)
	if err != errBoom {
		t.Fatalf("got error %v, want errBoom", err)
	}
	if calls != 1 {
		t.Fatalf("command ran %d times, want exactly 1 (Run must stop after the first error)", calls)
	}
}

func TestRunTreatsErrQuitAsCleanStop(t *testing.T) {
	r := repl.NewRepl()
	r.AddCommand("quit", func(payload string, _ *repl.REPLConfig) (string, error) {
		return "", repl.ErrQuit
	}, "quits")

	in := strings.NewReader("quit\n")
	var out strings.Builder
	if err := r.Run(uuid.New(), "> ", in, &out); err != nil {
		t.Fatalf("got error %v, want nil after ErrQuit", err)
	}
}

func TestRunReportsUnknownCommand(t *testing.T) {
	r := repl.NewRepl()
	in := strings.NewReader("nosuchcommand\n")
	var out strings.Builder
	err := r.Run(uuid.New(), "> ", in, &out)
	if err != repl.ErrCommandNotFound {
		t.Fatalf("got error %v, want ErrCommandNotFound", err)
	}
}

func TestHelpMetacommandListsRegisteredCommands(t *testing.T) {
	r := repl.NewRepl()
	r.AddCommand("foo", func(string, *repl.REPLConfig) (string, error) { return "", nil }, "does foo things")

	in := strings.NewReader(".help\n")
	var out strings.Builder
	if err := r.Run(uuid.New(), "> ", in, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "does foo things") {
		t.Fatalf("help output %q missing registered command's help text", out.String())
	}
}

var errBoom = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
