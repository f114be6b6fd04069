// Command treeprint walks an index file block by block and prints each
// node, independent of the tree engine — the same traversal b_print.c
// performs, one fread() at a time from the end of the header onward.
package main

import (
	"fmt"
	"os"
	"os/signal"

	"bplusindex/pkg/walker"
)

func main() {
	signal.Ignore(os.Interrupt)

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: treeprint <index file>")
		os.Exit(1)
	}

	w, err := walker.Open(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer w.Close()

	root := w.Header().RootOffset
	for {
		n, off, ok, err := w.Next()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if !ok {
			break
		}
		fmt.Print(walker.FormatNode(n, off, off == root))
	}
}
