package pager_test

import (
	"os"
	"testing"

	"bplusindex/pkg/pager"
)

func tempFile(t *testing.T) string {
	f, err := os.CreateTemp("", "*.idx")
	if err != nil {
		t.Fatal(err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	t.Cleanup(func() { os.Remove(name) })
	return name
}

func TestOpenCreateStartsEmpty(t *testing.T) {
	p, err := pager.OpenCreate(tempFile(t))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	if p.Length() != 0 {
		t.Fatalf("length = %d, want 0", p.Length())
	}
}

func TestAppendThenReadAt(t *testing.T) {
	p, err := pager.OpenCreate(tempFile(t))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	first := []byte("abcd")
	off, err := p.Append(first)
	if err != nil {
		t.Fatal(err)
	}
	if off != 0 {
		t.Fatalf("first append offset = %d, want 0", off)
	}

	second := []byte("wxyz")
	off2, err := p.Append(second)
	if err != nil {
		t.Fatal(err)
	}
	if off2 != int64(len(first)) {
		t.Fatalf("second append offset = %d, want %d", off2, len(first))
	}

	got, err := p.ReadAt(0, int64(len(first)))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(first) {
		t.Fatalf("read back %q, want %q", got, first)
	}
}

func TestWriteAtOverwritesInPlace(t *testing.T) {
	p, err := pager.OpenCreate(tempFile(t))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if _, err := p.Append([]byte("00000000")); err != nil {
		t.Fatal(err)
	}
	if err := p.WriteAt(2, []byte("XX")); err != nil {
		t.Fatal(err)
	}
	got, err := p.ReadAt(0, 8)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "00XX0000" {
		t.Fatalf("got %q, want %q", got, "00XX0000")
	}
}

func TestOpenReadRoundTripsAcrossClose(t *testing.T) {
	name := tempFile(t)
	p, err := pager.OpenCreate(name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Append([]byte("persisted")); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := pager.OpenRead(name)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	if reopened.Length() != int64(len("persisted")) {
		t.Fatalf("length = %d, want %d", reopened.Length(), len("persisted"))
	}
	got, err := reopened.ReadAt(0, int64(len("persisted")))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "persisted" {
		t.Fatalf("got %q", got)
	}
}

func TestReadAtPastEndOfFileFails(t *testing.T) {
	p, err := pager.OpenCreate(tempFile(t))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	if _, err := p.ReadAt(0, 16); err == nil {
		t.Fatal("expected an error reading past end of file, got nil")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	p, err := pager.OpenCreate(tempFile(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second close returned %v, want nil", err)
	}
}

func TestOperationsAfterCloseFailInsteadOfPanicking(t *testing.T) {
	p, err := pager.OpenCreate(tempFile(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := p.ReadAt(0, 1); err == nil {
		t.Fatal("expected an error reading from a closed pager")
	}
	if err := p.WriteAt(0, []byte("x")); err == nil {
		t.Fatal("expected an error writing to a closed pager")
	}
}

func TestNilPagerCloseIsNoOp(t *testing.T) {
	var p *pager.Pager
	if err := p.Close(); err != nil {
		t.Fatalf("nil pager Close() = %v, want nil", err)
	}
}
