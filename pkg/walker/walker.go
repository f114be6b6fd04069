// Package walker implements a read-only, sequential enumerator over an
// index file's node blocks, independent of the tree engine. It opens the
// file itself, reads the header, then walks node blocks in file order
// starting right after the header — the same traversal b_print.c performs
// over its node_t blocks, one fread() at a time from header_size onward.
package walker

import (
	"fmt"

	"bplusindex/pkg/block"
	"bplusindex/pkg/bterr"
	"bplusindex/pkg/pager"
)

// Walker sequentially visits every node block in an index file in the
// order they appear on disk, regardless of tree structure.
type Walker struct {
	pager  *pager.Pager
	header block.Header
	next   int64
}

// Open opens filePath and positions a Walker at the first node block, right
// after the header. The file is opened through pager.OpenRead (read/write
// mode), but the Walker never writes to it.
func Open(filePath string) (*Walker, error) {
	p, err := pager.OpenRead(filePath)
	if err != nil {
		return nil, err
	}
	raw, err := p.ReadAt(0, block.HeaderBlockByteSize)
	if err != nil {
		p.Close()
		return nil, err
	}
	h, err := block.DecodeHeader(raw)
	if err != nil {
		p.Close()
		return nil, err
	}
	if h.HeaderSize != block.HeaderBlockByteSize || h.BlockSize != block.NodeBlockByteSize {
		p.Close()
		return nil, fmt.Errorf("%w: on-disk layout does not match compiled layout", bterr.ErrIncompatibleVersion)
	}
	return &Walker{pager: p, header: h, next: h.HeaderSize}, nil
}

// Header returns the index file's header block.
func (w *Walker) Header() block.Header {
	return w.header
}

// Next returns the next node block in file order, along with its offset.
// It reports (block.Node{}, 0, false, nil) once every node has been
// visited.
func (w *Walker) Next() (block.Node, int64, bool, error) {
	off := w.next
	if off+block.NodeBlockByteSize > w.pager.Length() {
		return block.Node{}, 0, false, nil
	}
	raw, err := w.pager.ReadAt(off, block.NodeBlockByteSize)
	if err != nil {
		return block.Node{}, 0, false, err
	}
	n, err := block.DecodeNode(raw)
	if err != nil {
		return block.Node{}, 0, false, err
	}
	w.next = off + block.NodeBlockByteSize
	return n, off, true, nil
}

// Close closes the backing file.
func (w *Walker) Close() error {
	return w.pager.Close()
}

// FormatNode renders a node the way the reference printer does: key
// count, leaf/internal/root status, the key list, and the child list with
// "<nip>" standing in for an absent child. The insertion path never marks
// a node as a leaf, so the ">Leaf." branch is carried for format fidelity
// but will not be exercised by a tree built through normal inserts.
func FormatNode(n block.Node, off int64, isRoot bool) string {
	s := fmt.Sprintf("block %d\n", off)
	s += fmt.Sprintf(">Keys in node: %d\n", n.KeysUsed)
	if n.IsLeaf {
		s += ">Leaf.\n"
	} else {
		s += ">Node.\n"
	}
	if isRoot || n.Parent == block.NoBlock {
		s += ">Current node is the root of the B+ tree.\n"
	} else {
		s += fmt.Sprintf("Parent block: %d.\n", n.Parent)
	}
	for i := 0; i < int(n.KeysUsed); i++ {
		s += fmt.Sprintf("%d ", n.Key[i])
	}
	s += "\n"
	for i := 0; i <= int(n.KeysUsed); i++ {
		if n.Child[i] == block.NoBlock {
			s += "<nip>"
		} else {
			s += fmt.Sprintf("%d ", n.Child[i])
		}
	}
	s += "\n"
	return s
}
