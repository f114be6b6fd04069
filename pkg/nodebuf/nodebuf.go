// Package nodebuf provides the engine's single-slot scratch buffer: exactly
// one decoded node, reused across every step of a descent or split. The
// engine never builds a multi-node in-memory graph — loading a new block
// into the buffer discards whatever was there before.
package nodebuf

import "bplusindex/pkg/block"

// Buffer owns exactly one decoded node at a time, plus the file offset it
// was loaded from (or last written to).
type Buffer struct {
	off  int64
	node block.Node
	set  bool
}

// New returns an empty Buffer holding no node.
func New() *Buffer {
	return &Buffer{}
}

// Load replaces the buffer's contents with node, recorded as living at off.
func (b *Buffer) Load(off int64, node block.Node) {
	b.off = off
	b.node = node
	b.set = true
}

// Node returns the currently buffered node. Panics if nothing has been
// loaded — callers are expected to Load before reading, the same
// precondition the reference implementation places on its scratch pointer.
func (b *Buffer) Node() block.Node {
	if !b.set {
		panic("nodebuf: Node called on an empty buffer")
	}
	return b.node
}

// Set replaces the node at the buffer's current offset without changing
// the offset, used when mutating the node in place before a write-back.
func (b *Buffer) Set(node block.Node) {
	b.node = node
}

// Offset returns the file offset of the buffered node.
func (b *Buffer) Offset() int64 {
	return b.off
}

// Empty reports whether the buffer currently holds no node.
func (b *Buffer) Empty() bool {
	return !b.set
}

// Clear discards the buffer's contents.
func (b *Buffer) Clear() {
	b.set = false
	b.node = block.Node{}
	b.off = 0
}
