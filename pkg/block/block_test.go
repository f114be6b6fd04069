package block_test

import (
	"errors"
	"testing"

	"bplusindex/pkg/block"
	"bplusindex/pkg/bterr"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := block.Header{
		HeaderSize: block.HeaderBlockByteSize,
		BlockSize:  block.NodeBlockByteSize,
		TreeOrder:  4,
		RootOffset: block.HeaderBlockByteSize,
	}
	raw := block.EncodeHeader(h)
	if len(raw) != block.HeaderBlockByteSize {
		t.Fatalf("encoded header is %d bytes, want %d", len(raw), block.HeaderBlockByteSize)
	}
	got, err := block.DecodeHeader(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got.HeaderSize != h.HeaderSize || got.BlockSize != h.BlockSize || got.TreeOrder != h.TreeOrder || got.RootOffset != h.RootOffset {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestHeaderAndNodeSizesDiffer(t *testing.T) {
	if block.HeaderBlockByteSize == block.NodeBlockByteSize {
		t.Fatalf("header and node block sizes must differ, both are %d", block.HeaderBlockByteSize)
	}
}

func TestDecodeHeaderDetectsCorruption(t *testing.T) {
	h := block.Header{HeaderSize: block.HeaderBlockByteSize, BlockSize: block.NodeBlockByteSize, TreeOrder: 4, RootOffset: block.NoBlock}
	raw := block.EncodeHeader(h)
	raw[0] ^= 0xFF
	_, err := block.DecodeHeader(raw)
	if !errors.Is(err, bterr.ErrCorrupt) {
		t.Fatalf("got error %v, want ErrCorrupt", err)
	}
}

func TestDecodeHeaderRejectsShortInput(t *testing.T) {
	_, err := block.DecodeHeader(make([]byte, block.HeaderBlockByteSize-1))
	if !errors.Is(err, bterr.ErrReadFile) {
		t.Fatalf("got error %v, want ErrReadFile", err)
	}
}

func TestNodeRoundTrip(t *testing.T) {
	n := block.NewEmptyNode()
	n.IsLeaf = true
	n.KeysUsed = 3
	n.Key[0], n.Key[1], n.Key[2] = 1, 5, 9
	n.Parent = block.HeaderBlockByteSize

	raw := block.EncodeNode(n)
	if len(raw) != block.NodeBlockByteSize {
		t.Fatalf("encoded node is %d bytes, want %d", len(raw), block.NodeBlockByteSize)
	}
	got, err := block.DecodeNode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsLeaf != n.IsLeaf || got.KeysUsed != n.KeysUsed || got.Parent != n.Parent {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, n)
	}
	for i := 0; i < int(n.KeysUsed); i++ {
		if got.Key[i] != n.Key[i] {
			t.Fatalf("key[%d]: got %d, want %d", i, got.Key[i], n.Key[i])
		}
	}
}

func TestNewEmptyNodeChildrenAreNoBlock(t *testing.T) {
	n := block.NewEmptyNode()
	for i, c := range n.Child {
		if c != block.NoBlock {
			t.Fatalf("child[%d] = %d, want NoBlock", i, c)
		}
	}
	if n.Parent != block.NoBlock {
		t.Fatalf("parent = %d, want NoBlock", n.Parent)
	}
}

func TestDecodeNodeDetectsCorruption(t *testing.T) {
	n := block.NewEmptyNode()
	n.KeysUsed = 1
	n.Key[0] = 42
	raw := block.EncodeNode(n)
	raw[len(raw)/2] ^= 0xFF
	_, err := block.DecodeNode(raw)
	if !errors.Is(err, bterr.ErrCorrupt) {
		t.Fatalf("got error %v, want ErrCorrupt", err)
	}
}
