// Package repl implements the interactive front-end shim: a simple
// command dispatcher over stdin/stdout, one line per command, with a
// '.help' meta-command listing every registered trigger.
//
// Unlike a server-facing REPL that stays up after a bad command, this
// front-end treats any command error as fatal: the index format has no
// crash-recovery story, so once an operation has failed there is no
// principled way to keep issuing further commands against a file whose
// state the shim can no longer vouch for. Run stops at the first error and
// returns it to the caller instead of looping past it; the caller (the
// cmd entry point) decides how to report it and what exit code to use.
package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
)

type ReplCommand func(string, *REPLConfig) (output string, err error)

// TriggerHelpMetacommand is the meta-command that prints every registered
// command's help string.
const TriggerHelpMetacommand = ".help"

// ErrCommandNotFound is returned when an input line's trigger matches no
// registered command.
var ErrCommandNotFound = errors.New("command not found")

// ErrQuit is the sentinel a command returns to end the session cleanly.
// Run treats it as a normal stop, not a failure: it returns nil rather
// than propagating ErrQuit to the caller.
var ErrQuit = errors.New("quit")

// REPL is a trigger -> command dispatch table plus its help text.
type REPL struct {
	commands map[string]ReplCommand
	help     map[string]string
}

// REPLConfig carries the session identity handed to every command.
type REPLConfig struct {
	clientId uuid.UUID
}

// GetAddr returns the session's client id.
func (replConfig *REPLConfig) GetAddr() uuid.UUID {
	return replConfig.clientId
}

// NewRepl constructs an empty REPL with no registered commands.
func NewRepl() *REPL {
	return &REPL{
		commands: make(map[string]ReplCommand),
		help:     make(map[string]string),
	}
}

// GetCommands returns the trigger -> command table.
func (r *REPL) GetCommands() map[string]ReplCommand {
	return r.commands
}

// GetHelp returns the trigger -> help-string table.
func (r *REPL) GetHelp() map[string]string {
	return r.help
}

// AddCommand registers action under trigger, overwriting any existing
// command with the same trigger. Registering ".help" is a no-op: it is
// reserved for the built-in meta-command.
func (r *REPL) AddCommand(trigger string, action ReplCommand, help string) {
	if trigger == TriggerHelpMetacommand {
		return
	}
	r.commands[trigger] = action
	r.help[trigger] = help
}

// HelpString renders every registered command's help line.
func (r *REPL) HelpString() string {
	var sb strings.Builder
	for k, v := range r.help {
		sb.WriteString(fmt.Sprintf("%s: %s\n", k, v))
	}
	return sb.String()
}

// Run reads one line at a time from input, dispatching each to its
// registered command and writing the result to output. It stops and
// returns the first error a command produces (after writing it to
// output), except ErrQuit, which stops the loop and returns nil.
func (r *REPL) Run(clientId uuid.UUID, prompt string, input io.Reader, output io.Writer) error {
	if input == nil {
		input = os.Stdin
	}
	if output == nil {
		output = os.Stdout
	}

	scanner := bufio.NewScanner(input)
	replConfig := &REPLConfig{clientId: clientId}

	fmt.Fprintln(output, "Welcome. Type '.help' to see the list of available commands.")
	io.WriteString(output, prompt)

	for scanner.Scan() {
		payload := scanner.Text()
		fields := strings.Fields(payload)
		if len(fields) == 0 {
			io.WriteString(output, prompt)
			continue
		}
		trigger := fields[0]

		if trigger == TriggerHelpMetacommand {
			io.WriteString(output, r.HelpString())
			io.WriteString(output, prompt)
			continue
		}

		command, exists := r.commands[trigger]
		if !exists {
			fmt.Fprintf(output, "ERROR: %s\n", ErrCommandNotFound)
			return ErrCommandNotFound
		}

		result, err := command(payload, replConfig)
		if errors.Is(err, ErrQuit) {
			io.WriteString(output, "\n")
			return nil
		}
		if err != nil {
			fmt.Fprintf(output, "ERROR: %s\n", err)
			return err
		}
		if len(result) != 0 && !strings.HasSuffix(result, "\n") {
			result += "\n"
		}
		io.WriteString(output, result)
		io.WriteString(output, prompt)
	}
	io.WriteString(output, "\n")
	return nil
}
