// Package pager implements the paged-file abstraction used by the B+ tree
// engine: append, read, and overwrite fixed-size blocks at byte offsets in
// a single backing file.
//
// Unlike a general-purpose buffer pool, this pager holds no pages in
// memory between calls — the index format's Non-goals explicitly exclude
// caching beyond the engine's single in-memory node buffer (see
// bplusindex/pkg/nodebuf), so every ReadAt/WriteAt goes straight to the
// underlying file.
package pager

import (
	"fmt"
	"io"
	"os"

	"bplusindex/pkg/bterr"
)

// Pager manages fixed-size block I/O against a single backing file.
type Pager struct {
	file   *os.File
	name   string
	length int64 // current file length, kept in sync with every write
}

// OpenCreate creates (or truncates) the file at filePath for read/write use
// and returns a Pager over it with length 0.
func OpenCreate(filePath string) (*Pager, error) {
	f, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", bterr.ErrCreateFile, filePath, err)
	}
	return &Pager{file: f, name: filePath, length: 0}, nil
}

// OpenRead opens an existing file at filePath for read/write use and
// returns a Pager positioned over its current contents.
func OpenRead(filePath string) (*Pager, error) {
	f, err := os.OpenFile(filePath, os.O_RDWR, 0666)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", bterr.ErrOpenFile, filePath, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", bterr.ErrOpenFile, filePath, err)
	}
	return &Pager{file: f, name: filePath, length: info.Size()}, nil
}

// FileName returns the path used to open this pager's backing file.
func (p *Pager) FileName() string {
	return p.name
}

// Length returns the current length of the backing file.
func (p *Pager) Length() int64 {
	return p.length
}

// ReadAt reads exactly size bytes starting at byte offset off.
func (p *Pager) ReadAt(off, size int64) ([]byte, error) {
	if p.file == nil {
		return nil, fmt.Errorf("%w: %s: file is closed", bterr.ErrReadFile, p.name)
	}
	if off < 0 {
		return nil, fmt.Errorf("%w: negative offset %d", bterr.ErrMoveFile, off)
	}
	buf := make([]byte, size)
	n, err := p.file.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: at %d: %v", bterr.ErrReadFile, off, err)
	}
	if int64(n) != size {
		return nil, fmt.Errorf("%w: short read at %d: wanted %d, got %d", bterr.ErrReadFile, off, size, n)
	}
	return buf, nil
}

// WriteAt writes data starting at byte offset off, extending the tracked
// file length if the write reaches past the current end.
func (p *Pager) WriteAt(off int64, data []byte) error {
	if p.file == nil {
		return fmt.Errorf("%w: %s: file is closed", bterr.ErrWriteFile, p.name)
	}
	if off < 0 {
		return fmt.Errorf("%w: negative offset %d", bterr.ErrMoveFile, off)
	}
	n, err := p.file.WriteAt(data, off)
	if err != nil {
		return fmt.Errorf("%w: at %d: %v", bterr.ErrWriteFile, off, err)
	}
	if n != len(data) {
		return fmt.Errorf("%w: short write at %d: wanted %d, wrote %d", bterr.ErrWriteFile, off, len(data), n)
	}
	if end := off + int64(len(data)); end > p.length {
		p.length = end
	}
	return nil
}

// Append writes data at the current end of the file and returns the
// pre-append length, i.e. the offset at which data now lives.
func (p *Pager) Append(data []byte) (int64, error) {
	off := p.length
	if err := p.WriteAt(off, data); err != nil {
		return 0, err
	}
	return off, nil
}

// Flush satisfies the paged-file contract that every write completes
// before any logically dependent read. WriteAt already writes directly
// through to the backing *os.File with no application-level buffering in
// between, so there is nothing left to flush; the method exists so engine
// code can name the dependency explicitly, the same way the reference
// implementation calls fflush() after every structural write.
func (p *Pager) Flush() error {
	return nil
}

// Close closes the backing file. Closing an already-closed (nil-backed)
// Pager is a no-op, matching the front-end's "close is idempotent-safe"
// contract.
func (p *Pager) Close() error {
	if p == nil || p.file == nil {
		return nil
	}
	err := p.file.Close()
	p.file = nil
	if err != nil {
		return fmt.Errorf("%w: %s: %v", bterr.ErrCloseFile, p.name, err)
	}
	return nil
}
