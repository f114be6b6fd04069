package bptree

import (
	"fmt"

	"bplusindex/pkg/block"
	"bplusindex/pkg/bterr"
)

// overflow runs the split cascade starting at the node at off, which has
// just been written with block.M keys. A single coin toss decides the
// split balance for every level of the cascade this call triggers; the
// cascade itself is a loop, not recursion, since a promoted separator can
// overflow its parent in turn.
func (t *Tree) overflow(off int64, n block.Node) error {
	q := t.rng.Intn(2)
	leftKeys := block.M/2 - q

	curOff := off
	curNode := n
	for {
		rightKeys := block.M - 1 - leftKeys
		separator := curNode.Key[leftKeys]

		if curOff == t.header.RootOffset {
			return t.splitRoot(curOff, curNode, leftKeys, rightKeys, separator)
		}

		parentOff := curNode.Parent
		parentOverflowed, err := t.splitNonRoot(curOff, curNode, leftKeys, rightKeys, separator, parentOff)
		if err != nil {
			return err
		}
		if !parentOverflowed {
			return nil
		}

		parentNode, err := t.loadNode(parentOff)
		if err != nil {
			return err
		}
		curOff = parentOff
		curNode = parentNode
	}
}

// splitRoot handles branch B1: the overflowing node is the root, so it is
// rewritten in place as a fresh one-key root whose two children are freshly
// appended nodes holding the left and right halves of the old root.
func (t *Tree) splitRoot(rootOff int64, n block.Node, leftKeys, rightKeys int, separator uint16) error {
	left := block.NewEmptyNode()
	left.IsLeaf = n.IsLeaf
	left.KeysUsed = uint16(leftKeys)
	left.Parent = rootOff
	for i := 0; i < leftKeys; i++ {
		left.Key[i] = n.Key[i]
	}
	if !n.IsLeaf {
		for i := 0; i <= leftKeys; i++ {
			left.Child[i] = n.Child[i]
		}
	}

	right := block.NewEmptyNode()
	right.IsLeaf = n.IsLeaf
	right.KeysUsed = uint16(rightKeys)
	right.Parent = rootOff
	for i := 0; i < rightKeys; i++ {
		right.Key[i] = n.Key[leftKeys+1+i]
	}
	if !n.IsLeaf {
		for i := 0; i <= rightKeys; i++ {
			right.Child[i] = n.Child[leftKeys+1+i]
		}
	}

	leftOff, err := appendNode(t.pager, left)
	if err != nil {
		return err
	}
	rightOff, err := appendNode(t.pager, right)
	if err != nil {
		return err
	}

	if !n.IsLeaf {
		for i := 0; i <= leftKeys; i++ {
			if left.Child[i] != block.NoBlock {
				if err := t.reparent(left.Child[i], leftOff); err != nil {
					return err
				}
			}
		}
		for i := 0; i <= rightKeys; i++ {
			if right.Child[i] != block.NoBlock {
				if err := t.reparent(right.Child[i], rightOff); err != nil {
					return err
				}
			}
		}
	}

	root := block.NewEmptyNode()
	root.IsLeaf = false
	root.KeysUsed = 1
	root.Key[0] = separator
	root.Child[0] = leftOff
	root.Child[1] = rightOff
	root.Parent = block.NoBlock

	if err := writeNode(t.pager, rootOff, root); err != nil {
		return err
	}
	t.buf.Load(rootOff, root)
	t.logger.Printf("root split at %d: left=%d (keys=%d) right=%d (keys=%d) separator=%d", rootOff, leftOff, leftKeys, rightOff, rightKeys, separator)
	return nil
}

// splitNonRoot handles branch B2: the overflowing node is truncated in
// place to its left half, a new sibling node is appended holding its right
// half, and the separator key is promoted into the parent at its sorted
// position, with a pointer to the new sibling as the child to its right.
// The truncated node keeps its existing slot. It reports whether the parent itself now
// overflowed, so the caller can continue the cascade.
func (t *Tree) splitNonRoot(off int64, n block.Node, leftKeys, rightKeys int, separator uint16, parentOff int64) (bool, error) {
	truncated := n
	truncated.KeysUsed = uint16(leftKeys)
	for i := leftKeys; i < block.M; i++ {
		truncated.Key[i] = 0
	}
	if !n.IsLeaf {
		for i := leftKeys + 1; i <= block.M; i++ {
			truncated.Child[i] = block.NoBlock
		}
	}
	if err := writeNode(t.pager, off, truncated); err != nil {
		return false, err
	}
	t.buf.Set(truncated)

	sibling := block.NewEmptyNode()
	sibling.IsLeaf = n.IsLeaf
	sibling.KeysUsed = uint16(rightKeys)
	sibling.Parent = parentOff
	for i := 0; i < rightKeys; i++ {
		sibling.Key[i] = n.Key[leftKeys+1+i]
	}
	if !n.IsLeaf {
		for i := 0; i <= rightKeys; i++ {
			sibling.Child[i] = n.Child[leftKeys+1+i]
		}
	}

	siblingOff, err := appendNode(t.pager, sibling)
	if err != nil {
		return false, err
	}
	if !n.IsLeaf {
		for i := 0; i <= rightKeys; i++ {
			if sibling.Child[i] != block.NoBlock {
				if err := t.reparent(sibling.Child[i], siblingOff); err != nil {
					return false, err
				}
			}
		}
	}

	parent, err := readNode(t.pager, parentOff)
	if err != nil {
		return false, err
	}
	if _, err := childIndex(parent, off); err != nil {
		return false, err
	}

	ci := searchSlot(parent, separator)
	used := int(parent.KeysUsed)
	for idx := used - 1; idx >= ci; idx-- {
		parent.Key[idx+1] = parent.Key[idx]
	}
	parent.Key[ci] = separator
	for idx := used; idx >= ci+1; idx-- {
		parent.Child[idx+1] = parent.Child[idx]
	}
	parent.Child[ci+1] = siblingOff
	parent.KeysUsed = uint16(used + 1)

	if err := writeNode(t.pager, parentOff, parent); err != nil {
		return false, err
	}
	t.logger.Printf("node split at %d: kept=%d new sibling=%d (keys=%d) separator=%d promoted into %d", off, leftKeys, siblingOff, rightKeys, separator, parentOff)
	return int(parent.KeysUsed) == block.M, nil
}

// childIndex returns the slot in parent.Child holding off.
func childIndex(parent block.Node, off int64) (int, error) {
	for i := 0; i <= int(parent.KeysUsed); i++ {
		if parent.Child[i] == off {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: parent does not reference child at offset %d", bterr.ErrCorrupt, off)
}
