// Command treebuild is the interactive front-end for creating, opening,
// and inserting into a single B+ tree index file. It ignores SIGINT for
// the duration of the session: the split cascade performs several
// dependent writes with no journal, and an interrupted split would leave
// the file in a state that violates the root-uniqueness and parent-link
// invariants, so the reference implementation's policy of refusing to be
// interrupted mid-operation is kept rather than "fixed".
package main

import (
	"flag"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/google/uuid"

	"bplusindex/pkg/config"
	"bplusindex/pkg/shim"
)

func main() {
	promptFlag := flag.Bool("c", true, "show an interactive prompt")
	flag.Parse()

	signal.Ignore(os.Interrupt)

	logger := log.New(io.Discard, "treebuild: ", log.LstdFlags)
	switch config.LogLevelFromEnv() {
	case config.LogLevelDebug:
		logger.SetOutput(os.Stderr)
		logger.SetFlags(log.LstdFlags | log.Lshortfile)
	case config.LogLevelInfo:
		logger.SetOutput(os.Stderr)
	}

	session := shim.NewSession(logger)
	r := shim.Repl(session)
	if err := r.Run(uuid.New(), config.GetPrompt(*promptFlag), nil, nil); err != nil {
		os.Exit(1)
	}
}
