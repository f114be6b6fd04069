// Command treeverify checks an index file's structural invariants
// (P1-P5, P7, P8) without writing to it, reporting the first violation
// found or a clean summary.
package main

import (
	"fmt"
	"os"

	"bplusindex/pkg/verify"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: treeverify <index file>")
		os.Exit(1)
	}

	rep, err := verify.File(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("ok: %d nodes, %d keys\n", rep.NodesVisited, rep.KeysSeen)
}
