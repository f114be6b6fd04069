// Package shim wires bplusindex/pkg/bptree, walker, and verify up to a
// repl.REPL: one open index at a time, one command per line, in the style
// of the reference database's own command handlers (fields parsed by
// strings.Fields, a fixed usage string per command, errors formatted
// "<command> error: ...").
package shim

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/otiai10/copy"

	"bplusindex/pkg/bptree"
	"bplusindex/pkg/repl"
	"bplusindex/pkg/verify"
	"bplusindex/pkg/walker"
)

// Session holds the single index this front-end may have open at a time.
type Session struct {
	tree   *bptree.Tree
	path   string
	logger *log.Logger
}

// NewSession returns an empty session with no index open, logging engine
// diagnostics (split events, open validation) to logger if non-nil.
func NewSession(logger *log.Logger) *Session {
	return &Session{logger: logger}
}

func (s *Session) treeOpts() []bptree.Option {
	if s.logger == nil {
		return nil
	}
	return []bptree.Option{bptree.WithLogger(s.logger)}
}

// Repl returns a repl.REPL with every front-end command registered
// against session.
func Repl(session *Session) *repl.REPL {
	r := repl.NewRepl()

	r.AddCommand("create", func(payload string, _ *repl.REPLConfig) (string, error) {
		return "", handleCreate(session, payload)
	}, "Create a new index file. usage: create <path>")

	r.AddCommand("open", func(payload string, _ *repl.REPLConfig) (string, error) {
		return "", handleOpen(session, payload)
	}, "Open an existing index file. usage: open <path>")

	r.AddCommand("close", func(payload string, _ *repl.REPLConfig) (string, error) {
		return "", handleClose(session, payload)
	}, "Close the open index file. usage: close")

	r.AddCommand("insert", func(payload string, _ *repl.REPLConfig) (string, error) {
		return "", handleInsert(session, payload)
	}, "Insert a key. usage: insert <key>")

	r.AddCommand("search", func(payload string, _ *repl.REPLConfig) (string, error) {
		return handleSearch(session, payload)
	}, "Search for a key. usage: search <key>")

	r.AddCommand("print", func(payload string, _ *repl.REPLConfig) (string, error) {
		return handlePrint(session, payload)
	}, "Print every node block in file order. usage: print")

	r.AddCommand("verify", func(payload string, _ *repl.REPLConfig) (string, error) {
		return handleVerify(session, payload)
	}, "Check the open index's structural invariants. usage: verify")

	r.AddCommand("backup", func(payload string, _ *repl.REPLConfig) (string, error) {
		return "", handleBackup(session, payload)
	}, "Copy the open index file to a new path. usage: backup <path>")

	r.AddCommand("quit", func(payload string, _ *repl.REPLConfig) (string, error) {
		return "", handleQuit(session, payload)
	}, "Close the open index and exit. usage: quit")

	return r
}

func handleCreate(s *Session, payload string) error {
	fields := strings.Fields(payload)
	if len(fields) != 2 {
		return fmt.Errorf("usage: create <path>")
	}
	if s.tree != nil {
		return fmt.Errorf("create error: an index is already open, close it first")
	}
	t, err := bptree.Create(fields[1], s.treeOpts()...)
	if err != nil {
		return fmt.Errorf("create error: %v", err)
	}
	s.tree, s.path = t, fields[1]
	return nil
}

func handleOpen(s *Session, payload string) error {
	fields := strings.Fields(payload)
	if len(fields) != 2 {
		return fmt.Errorf("usage: open <path>")
	}
	if s.tree != nil {
		return fmt.Errorf("open error: an index is already open, close it first")
	}
	t, err := bptree.Open(fields[1], s.treeOpts()...)
	if err != nil {
		return fmt.Errorf("open error: %v", err)
	}
	s.tree, s.path = t, fields[1]
	return nil
}

func handleClose(s *Session, payload string) error {
	if len(strings.Fields(payload)) != 1 {
		return fmt.Errorf("usage: close")
	}
	if s.tree == nil {
		return fmt.Errorf("close error: no index is open")
	}
	err := s.tree.Close()
	s.tree, s.path = nil, ""
	if err != nil {
		return fmt.Errorf("close error: %v", err)
	}
	return nil
}

func handleInsert(s *Session, payload string) error {
	fields := strings.Fields(payload)
	if len(fields) != 2 {
		return fmt.Errorf("usage: insert <key>")
	}
	if s.tree == nil {
		return fmt.Errorf("insert error: no index is open")
	}
	key, err := parseKey(fields[1])
	if err != nil {
		return fmt.Errorf("insert error: %v", err)
	}
	if err := s.tree.Insert(key); err != nil {
		return fmt.Errorf("insert error: %v", err)
	}
	return nil
}

func handleSearch(s *Session, payload string) (string, error) {
	fields := strings.Fields(payload)
	if len(fields) != 2 {
		return "", fmt.Errorf("usage: search <key>")
	}
	if s.tree == nil {
		return "", fmt.Errorf("search error: no index is open")
	}
	key, err := parseKey(fields[1])
	if err != nil {
		return "", fmt.Errorf("search error: %v", err)
	}
	found, err := s.tree.Search(key)
	if err != nil {
		return "", fmt.Errorf("search error: %v", err)
	}
	if found {
		return fmt.Sprintf("%d: found\n", key), nil
	}
	return fmt.Sprintf("%d: not found\n", key), nil
}

func handlePrint(s *Session, payload string) (string, error) {
	if len(strings.Fields(payload)) != 1 {
		return "", fmt.Errorf("usage: print")
	}
	if s.tree == nil {
		return "", fmt.Errorf("print error: no index is open")
	}
	w, err := walker.Open(s.path)
	if err != nil {
		return "", fmt.Errorf("print error: %v", err)
	}
	defer w.Close()

	var sb strings.Builder
	root := s.tree.RootOffset()
	for {
		n, off, ok, err := w.Next()
		if err != nil {
			return "", fmt.Errorf("print error: %v", err)
		}
		if !ok {
			break
		}
		sb.WriteString(walker.FormatNode(n, off, off == root))
	}
	return sb.String(), nil
}

func handleVerify(s *Session, payload string) (string, error) {
	if len(strings.Fields(payload)) != 1 {
		return "", fmt.Errorf("usage: verify")
	}
	if s.tree == nil {
		return "", fmt.Errorf("verify error: no index is open")
	}
	rep, err := verify.File(s.path)
	if err != nil {
		return "", fmt.Errorf("verify error: %v", err)
	}
	return fmt.Sprintf("ok: %d nodes, %d keys\n", rep.NodesVisited, rep.KeysSeen), nil
}

func handleBackup(s *Session, payload string) error {
	fields := strings.Fields(payload)
	if len(fields) != 2 {
		return fmt.Errorf("usage: backup <path>")
	}
	if s.tree == nil {
		return fmt.Errorf("backup error: no index is open")
	}
	if err := copy.Copy(s.path, fields[1]); err != nil {
		return fmt.Errorf("backup error: %v", err)
	}
	return nil
}

func handleQuit(s *Session, payload string) error {
	if len(strings.Fields(payload)) != 1 {
		return fmt.Errorf("usage: quit")
	}
	if s.tree != nil {
		if err := s.tree.Close(); err != nil {
			return fmt.Errorf("quit error: %v", err)
		}
		s.tree, s.path = nil, ""
	}
	return repl.ErrQuit
}

func parseKey(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("key must be an unsigned 16-bit integer: %v", err)
	}
	return uint16(n), nil
}
