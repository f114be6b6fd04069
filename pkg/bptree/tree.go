// Package bptree implements the paged B+ tree engine: creating and opening
// an index file, descending to insert a key, and running the overflow
// (split) cascade that keeps every node under the compiled order.
//
// The engine is single-threaded by contract (see the resource model), but
// Insert and Search still acquire a weight-1 semaphore as a reentrancy
// guard: an accidental call from a second goroutine fails fast
// with ErrBusy instead of silently interleaving writes against the single
// node buffer.
package bptree

import (
	"fmt"
	"io"
	"log"
	"math/rand"
	"time"

	"golang.org/x/sync/semaphore"

	"bplusindex/pkg/block"
	"bplusindex/pkg/bterr"
	"bplusindex/pkg/nodebuf"
	"bplusindex/pkg/pager"
)

// Tree is an open B+ tree index: a pager over the backing file, the
// current header, and the single node buffer the engine mutates in place.
type Tree struct {
	pager  *pager.Pager
	header block.Header
	buf    *nodebuf.Buffer
	rng    *rand.Rand
	sem    *semaphore.Weighted
	logger *log.Logger
}

// Option configures optional Tree behavior at Create/Open time.
type Option func(*Tree)

// WithLogger directs the tree's diagnostic log lines (split events, open
// validation) to logger instead of the default, silent logger.
func WithLogger(logger *log.Logger) Option {
	return func(t *Tree) { t.logger = logger }
}

func newTree(p *pager.Pager, h block.Header, opts []Option) *Tree {
	t := &Tree{
		pager:  p,
		header: h,
		buf:    nodebuf.New(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		sem:    semaphore.NewWeighted(1),
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Create initializes a brand new, empty index file at filePath: a fresh
// header with no root, flushed before the call returns.
func Create(filePath string, opts ...Option) (*Tree, error) {
	p, err := pager.OpenCreate(filePath)
	if err != nil {
		return nil, err
	}
	h := block.Header{
		HeaderSize: block.HeaderBlockByteSize,
		BlockSize:  block.NodeBlockByteSize,
		TreeOrder:  uint16(block.M),
		RootOffset: block.NoBlock,
	}
	if err := writeHeader(p, h); err != nil {
		p.Close()
		return nil, err
	}
	t := newTree(p, h, opts)
	t.logger.Printf("created index %s: header_size=%d block_size=%d tree_order=%d", filePath, h.HeaderSize, h.BlockSize, h.TreeOrder)
	return t, nil
}

// Open opens an existing index file at filePath, validating that its
// header's layout matches this program's compiled block/header sizes and
// that its tree_order does not exceed the compiled order.
func Open(filePath string, opts ...Option) (*Tree, error) {
	p, err := pager.OpenRead(filePath)
	if err != nil {
		return nil, err
	}
	h, err := readHeader(p)
	if err != nil {
		p.Close()
		return nil, err
	}
	if err := validateHeader(h); err != nil {
		p.Close()
		return nil, err
	}
	t := newTree(p, h, opts)
	t.logger.Printf("opened index %s: root_offset=%d", filePath, h.RootOffset)
	return t, nil
}

func validateHeader(h block.Header) error {
	if h.HeaderSize != block.HeaderBlockByteSize || h.BlockSize != block.NodeBlockByteSize {
		return fmt.Errorf("%w: on-disk layout (header=%d, block=%d) does not match compiled layout (header=%d, block=%d)",
			bterr.ErrIncompatibleVersion, h.HeaderSize, h.BlockSize, block.HeaderBlockByteSize, block.NodeBlockByteSize)
	}
	if h.TreeOrder > uint16(block.M) {
		return fmt.Errorf("%w: on-disk tree_order %d exceeds compiled order %d", bterr.ErrIncompatibleVersion, h.TreeOrder, block.M)
	}
	return nil
}

// FileName returns the path of the backing index file.
func (t *Tree) FileName() string {
	return t.pager.FileName()
}

// RootOffset returns the current root offset, or block.NoBlock if the tree
// is empty.
func (t *Tree) RootOffset() int64 {
	return t.header.RootOffset
}

// Close flushes and closes the backing file. Closing a nil Tree is a
// no-op, matching the front-end's idempotent-close contract.
func (t *Tree) Close() error {
	if t == nil {
		return nil
	}
	t.buf.Clear()
	return t.pager.Close()
}

func (t *Tree) acquire() error {
	if !t.sem.TryAcquire(1) {
		return bterr.ErrBusy
	}
	return nil
}

func (t *Tree) release() {
	t.sem.Release(1)
}

// loadNode returns the node at off, reading it from disk into the tree's
// single scratch buffer unless the buffer already holds it — the same
// single-slot data flow the reference implementation's own scratch pointer
// follows.
func (t *Tree) loadNode(off int64) (block.Node, error) {
	if !t.buf.Empty() && t.buf.Offset() == off {
		return t.buf.Node(), nil
	}
	n, err := readNode(t.pager, off)
	if err != nil {
		return block.Node{}, err
	}
	t.buf.Load(off, n)
	return t.buf.Node(), nil
}

func readHeader(p *pager.Pager) (block.Header, error) {
	raw, err := p.ReadAt(0, block.HeaderBlockByteSize)
	if err != nil {
		return block.Header{}, err
	}
	return block.DecodeHeader(raw)
}

func writeHeader(p *pager.Pager, h block.Header) error {
	raw := block.EncodeHeader(h)
	if err := p.WriteAt(0, raw); err != nil {
		return err
	}
	return p.Flush()
}

func readNode(p *pager.Pager, off int64) (block.Node, error) {
	raw, err := p.ReadAt(off, block.NodeBlockByteSize)
	if err != nil {
		return block.Node{}, err
	}
	return block.DecodeNode(raw)
}

func writeNode(p *pager.Pager, off int64, n block.Node) error {
	raw := block.EncodeNode(n)
	if err := p.WriteAt(off, raw); err != nil {
		return err
	}
	return p.Flush()
}

func appendNode(p *pager.Pager, n block.Node) (int64, error) {
	raw := block.EncodeNode(n)
	off, err := p.Append(raw)
	if err != nil {
		return 0, err
	}
	if err := p.Flush(); err != nil {
		return 0, err
	}
	return off, nil
}

// searchSlot returns the smallest index i in [0, KeysUsed) with v <=
// Key[i], or KeysUsed if no such index exists.
func searchSlot(n block.Node, v uint16) int {
	used := int(n.KeysUsed)
	for i := 0; i < used; i++ {
		if v <= n.Key[i] {
			return i
		}
	}
	return used
}

// Insert inserts v into the tree, silently succeeding if v is already
// present (duplicates are suppressed, never stored twice).
func (t *Tree) Insert(v uint16) error {
	if err := t.acquire(); err != nil {
		return err
	}
	defer t.release()

	if t.header.RootOffset == block.NoBlock {
		return t.insertFirst(v)
	}
	return t.insertDescend(v)
}

// insertFirst handles Case A: the tree is empty, so v becomes the sole key
// of a freshly appended root node.
func (t *Tree) insertFirst(v uint16) error {
	t.header.RootOffset = t.header.HeaderSize
	if err := writeHeader(t.pager, t.header); err != nil {
		return err
	}

	root := block.NewEmptyNode()
	root.KeysUsed = 1
	root.Key[0] = v
	root.Parent = block.NoBlock

	off, err := appendNode(t.pager, root)
	if err != nil {
		return err
	}
	t.buf.Load(off, root)
	t.logger.Printf("insert %d: empty tree, new root at %d", v, off)
	return nil
}

// insertDescend handles Case B: descend from the root to the node where v
// belongs, then insert it there. Each step loads the node under
// examination into the tree's single scratch buffer before testing it.
func (t *Tree) insertDescend(v uint16) error {
	off := t.header.RootOffset
	for {
		n, err := t.loadNode(off)
		if err != nil {
			return err
		}

		i := searchSlot(n, v)
		if i < int(n.KeysUsed) && n.Key[i] == v {
			// Duplicate: terminate successfully without modification.
			return nil
		}
		if n.Child[i+1] == block.NoBlock {
			return t.insertIntoNode(off, i, v)
		}
		off = n.Child[i+1]
	}
}

// insertIntoNode inserts v into slot i of the buffered node at off,
// mutating the buffer in place, writing it back, then running the
// overflow protocol if the node is now full.
func (t *Tree) insertIntoNode(off int64, i int, v uint16) error {
	n := t.buf.Node()
	used := int(n.KeysUsed)
	for idx := used - 1; idx >= i; idx-- {
		n.Key[idx+1] = n.Key[idx]
	}
	n.Key[i] = v
	for idx := used; idx >= i+1; idx-- {
		n.Child[idx+1] = n.Child[idx]
	}
	n.Child[i+1] = block.NoBlock
	n.KeysUsed = uint16(used + 1)
	t.buf.Set(n)

	if err := writeNode(t.pager, off, t.buf.Node()); err != nil {
		return err
	}

	if int(n.KeysUsed) == block.M {
		t.logger.Printf("insert %d: node %d overflowed, starting split cascade", v, off)
		return t.overflow(off, t.buf.Node())
	}
	return nil
}

// Search reports whether v is present in the tree, descending the same
// path Insert would take and reusing the same scratch buffer.
func (t *Tree) Search(v uint16) (bool, error) {
	if err := t.acquire(); err != nil {
		return false, err
	}
	defer t.release()

	if t.header.RootOffset == block.NoBlock {
		return false, nil
	}
	off := t.header.RootOffset
	for {
		n, err := t.loadNode(off)
		if err != nil {
			return false, err
		}
		i := searchSlot(n, v)
		if i < int(n.KeysUsed) && n.Key[i] == v {
			return true, nil
		}
		if n.Child[i+1] == block.NoBlock {
			return false, nil
		}
		off = n.Child[i+1]
	}
}

func (t *Tree) reparent(childOff, newParentOff int64) error {
	child, err := readNode(t.pager, childOff)
	if err != nil {
		return err
	}
	child.Parent = newParentOff
	return writeNode(t.pager, childOff, child)
}
