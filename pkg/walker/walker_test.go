package walker_test

import (
	"strings"
	"testing"

	"bplusindex/pkg/block"
	"bplusindex/pkg/bptree"
	"bplusindex/pkg/walker"
	"bplusindex/test/utils"
)

func buildIndex(t *testing.T, keys []uint16) string {
	path := utils.GetTempIndexFile(t)
	tree, err := bptree.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range keys {
		if err := tree.Insert(v); err != nil {
			t.Fatal(err)
		}
	}
	if err := tree.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWalkerVisitsEveryNodeInFileOrder(t *testing.T) {
	path := buildIndex(t, utils.RandomKeyPermutation(100))

	w, err := walker.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	var offsets []int64
	var totalKeys int
	for {
		n, off, ok, err := w.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		offsets = append(offsets, off)
		totalKeys += int(n.KeysUsed)
	}

	if totalKeys != 100 {
		t.Fatalf("walker saw %d total keys across all nodes, want 100", totalKeys)
	}
	for i, off := range offsets {
		want := w.Header().HeaderSize + int64(i)*block.NodeBlockByteSize
		if off != want {
			t.Fatalf("node %d is at offset %d, want %d", i, off, want)
		}
	}
}

func TestWalkerOnEmptyTreeVisitsNothing(t *testing.T) {
	path := buildIndex(t, nil)

	w, err := walker.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	_, _, ok, err := w.Next()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected no node blocks in a freshly created, empty index")
	}
}

func TestFormatNodeMarksAbsentChildrenWithNip(t *testing.T) {
	n := block.NewEmptyNode()
	n.IsLeaf = true
	n.KeysUsed = 2
	n.Key[0], n.Key[1] = 3, 7

	out := walker.FormatNode(n, 0, true)
	if want := "<nip>"; !strings.Contains(out, want) {
		t.Fatalf("formatted node %q does not contain %q", out, want)
	}
}
