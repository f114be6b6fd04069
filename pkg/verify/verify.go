// Package verify implements a read-only integrity checker over a closed or
// open index file: it walks every node block and checks properties P1
// through P5, P7 and P8, reporting the first violation found or success.
// P6 (membership) needs the inserted key set and is checked separately by
// Membership. Nothing in
// either reference program validates its own invariants; this is the
// tool that lets the rest of the codebase assert correctness after an
// arbitrary insert sequence instead of re-deriving tree shape by hand.
package verify

import (
	"fmt"
	"os"

	"github.com/bits-and-blooms/bitset"

	"bplusindex/pkg/block"
	"bplusindex/pkg/bterr"
	"bplusindex/pkg/walker"
)

// Violation names the specific invariant (P1-P8) that failed, and where.
type Violation struct {
	Property string
	Offset   int64
	Detail   string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s violated at block %d: %s", v.Property, v.Offset, v.Detail)
}

// Report summarizes a completed verification pass.
type Report struct {
	NodesVisited int
	KeysSeen     int
}

// File opens filePath without writing to it, checks P7 against the file's
// length, then checks P1-P5 and P8 across every node block via Walk.
// It returns the first Violation encountered, or a nil error (with a
// populated Report) if the file is clean.
func File(filePath string) (Report, error) {
	w, err := walker.Open(filePath)
	if err != nil {
		return Report{}, err
	}
	defer w.Close()
	info, err := os.Stat(filePath)
	if err != nil {
		return Report{}, err
	}
	if (info.Size()-w.Header().HeaderSize)%block.NodeBlockByteSize != 0 {
		return Report{}, &Violation{Property: "P7", Offset: info.Size(), Detail: "file length is not header_size plus a whole number of node blocks"}
	}
	return Walk(w)
}

// Walk checks P1-P5 and P8 using an already-open Walker, consuming it fully.
func Walk(w *walker.Walker) (Report, error) {
	h := w.Header()

	if h.HeaderSize != block.HeaderBlockByteSize || h.BlockSize != block.NodeBlockByteSize {
		return Report{}, &Violation{Property: "P7", Offset: 0, Detail: "header/block size does not match compiled layout"}
	}

	var rep Report
	var rootOffsets []int64
	offsetSeen := make(map[int64]block.Node)
	keysSeen := bitset.New(65536)
	backrefs := make(map[int64]int) // child offset -> count of parents claiming it

	for {
		n, off, ok, err := w.Next()
		if err != nil {
			return rep, err
		}
		if !ok {
			break
		}
		rep.NodesVisited++
		offsetSeen[off] = n

		if err := checkOrdering(n, off); err != nil {
			return rep, err
		}
		if err := checkCapacity(n, off); err != nil {
			return rep, err
		}
		if err := checkChildSlots(n, off); err != nil {
			return rep, err
		}

		if n.Parent == block.NoBlock {
			rootOffsets = append(rootOffsets, off)
		}
		for i := 0; i <= int(n.KeysUsed); i++ {
			if n.Child[i] != block.NoBlock {
				backrefs[n.Child[i]]++
			}
		}
		for i := 0; i < int(n.KeysUsed); i++ {
			keysSeen.Set(uint(n.Key[i]))
			rep.KeysSeen++
		}
	}

	if len(rootOffsets) != 1 {
		return rep, &Violation{Property: "P4", Offset: 0, Detail: fmt.Sprintf("found %d nodes with parent=NO_BLOCK, want exactly 1", len(rootOffsets))}
	}
	if rootOffsets[0] != h.RootOffset {
		return rep, &Violation{Property: "P4", Offset: rootOffsets[0], Detail: fmt.Sprintf("root node offset does not match header.root_offset=%d", h.RootOffset)}
	}

	for off, n := range offsetSeen {
		if n.Parent == block.NoBlock {
			continue
		}
		parent, ok := offsetSeen[n.Parent]
		if !ok {
			return rep, &Violation{Property: "P3", Offset: off, Detail: fmt.Sprintf("parent block %d does not exist", n.Parent)}
		}
		count := 0
		for i := 0; i <= int(parent.KeysUsed); i++ {
			if parent.Child[i] == off {
				count++
			}
		}
		if count != 1 {
			return rep, &Violation{Property: "P3", Offset: off, Detail: fmt.Sprintf("parent block %d references this child %d times, want exactly 1", n.Parent, count)}
		}
	}

	for childOff, count := range backrefs {
		if count != 1 {
			return rep, &Violation{Property: "P3", Offset: childOff, Detail: fmt.Sprintf("referenced by %d parent slots, want exactly 1", count)}
		}
	}

	// P7 (file-length quantization) is not checked here: the walker stops
	// before a trailing run of bytes shorter than block.NodeBlockByteSize
	// without reporting it. File checks P7 from the file's length.

	return rep, nil
}

func checkOrdering(n block.Node, off int64) error {
	for i := 1; i < int(n.KeysUsed); i++ {
		if n.Key[i-1] > n.Key[i] {
			return &Violation{Property: "P1", Offset: off, Detail: fmt.Sprintf("key[%d]=%d > key[%d]=%d", i-1, n.Key[i-1], i, n.Key[i])}
		}
	}
	return nil
}

func checkCapacity(n block.Node, off int64) error {
	if n.KeysUsed == 0 {
		return &Violation{Property: "P2", Offset: off, Detail: "keys_used=0, no committed node is ever empty"}
	}
	if n.KeysUsed >= uint16(block.M) {
		return &Violation{Property: "P2", Offset: off, Detail: fmt.Sprintf("keys_used=%d, must be < %d", n.KeysUsed, block.M)}
	}
	return nil
}

func checkChildSlots(n block.Node, off int64) error {
	for j := int(n.KeysUsed) + 1; j <= block.M; j++ {
		if n.Child[j] != block.NoBlock {
			return &Violation{Property: "P5", Offset: off, Detail: fmt.Sprintf("child[%d]=%d but keys_used=%d", j, n.Child[j], n.KeysUsed)}
		}
	}
	return nil
}

// Membership checks P6 directly: after inserting the given keys into an
// initially empty tree, the verifier's own scan must have observed exactly
// that deduplicated set and no others.
func Membership(filePath string, inserted []uint16) error {
	w, err := walker.Open(filePath)
	if err != nil {
		return err
	}
	defer w.Close()

	want := bitset.New(65536)
	for _, v := range inserted {
		want.Set(uint(v))
	}

	got := bitset.New(65536)
	for {
		n, off, ok, err := w.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		for i := 0; i < int(n.KeysUsed); i++ {
			if got.Test(uint(n.Key[i])) {
				return &Violation{Property: "P6", Offset: off, Detail: fmt.Sprintf("key %d stored more than once", n.Key[i])}
			}
			got.Set(uint(n.Key[i]))
		}
	}

	if !want.Equal(got) {
		return fmt.Errorf("%w: stored key set does not match the inserted set", bterr.ErrCorrupt)
	}
	return nil
}
