// Package block implements the on-disk block codec: fixed-width byte frames
// for the header block and node blocks described by the index file format.
// Field order, widths, and endianness are fixed at compile time and must be
// identical for every read and write of a given file.
package block

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash"
	"github.com/spaolacci/murmur3"

	"bplusindex/pkg/bterr"
	"bplusindex/pkg/config"
)

// NoBlock is the sentinel Off value meaning "absent child" or "no parent".
const NoBlock int64 = -1

// M is the compiled tree order: the maximum number of keys a node may hold
// before overflowing, and one less than the number of child slots.
const M = config.TreeOrder

// Header block field layout.
const (
	hdrHeaderSizeOffset  = 0
	hdrHeaderSizeSize    = 8
	hdrBlockSizeOffset   = hdrHeaderSizeOffset + hdrHeaderSizeSize
	hdrBlockSizeSize     = 8
	hdrTreeOrderOffset   = hdrBlockSizeOffset + hdrBlockSizeSize
	hdrTreeOrderSize     = 2
	hdrRootOffsetOffset  = hdrTreeOrderOffset + hdrTreeOrderSize
	hdrRootOffsetSize    = 8
	hdrChecksumOffset    = hdrRootOffsetOffset + hdrRootOffsetSize
	hdrChecksumSize      = 8
	hdrPayloadSize       = hdrChecksumOffset // bytes hashed for the checksum
	HeaderBlockByteSize  = hdrChecksumOffset + hdrChecksumSize
)

// Node block field layout. The key and child arrays are sized to the
// compiled order M, independent of the tree_order recorded in an on-disk
// header (that field is only ever checked to be <= M on open).
const (
	ndIsLeafOffset   = 0
	ndIsLeafSize     = 1
	ndKeysUsedOffset = ndIsLeafOffset + ndIsLeafSize
	ndKeysUsedSize   = 2
	ndKeysOffset     = ndKeysUsedOffset + ndKeysUsedSize
	ndKeysSize       = 2 * M
	ndChildOffset    = ndKeysOffset + ndKeysSize
	ndChildSize      = 8 * (M + 1)
	ndParentOffset   = ndChildOffset + ndChildSize
	ndParentSize     = 8
	ndChecksumOffset = ndParentOffset + ndParentSize
	ndChecksumSize   = 8
	ndPayloadSize    = ndChecksumOffset // bytes hashed for the checksum
	NodeBlockByteSize = ndChecksumOffset + ndChecksumSize
)

// Header mirrors the index file's header block.
type Header struct {
	HeaderSize int64
	BlockSize  int64
	TreeOrder  uint16
	RootOffset int64
	Checksum   uint64
}

// Node mirrors a single node block: is_leaf, keys_used, the key and child
// arrays (only the first KeysUsed/KeysUsed+1 entries are meaningful), and
// the parent back-pointer.
type Node struct {
	IsLeaf   bool
	KeysUsed uint16
	Key      [M]uint16
	Child    [M + 1]int64
	Parent   int64
	Checksum uint64
}

// NewEmptyNode returns a node with no keys and every child slot set to
// NoBlock, ready to be populated by the engine.
func NewEmptyNode() Node {
	n := Node{Parent: NoBlock}
	for i := range n.Child {
		n.Child[i] = NoBlock
	}
	return n
}

func headerChecksum(b []byte) uint64 {
	return murmur3.Sum64(b[:hdrPayloadSize])
}

func nodeChecksum(b []byte) uint64 {
	return xxhash.Sum64(b[:ndPayloadSize])
}

// EncodeHeader serializes h into a fixed HeaderBlockByteSize frame,
// stamping a fresh checksum over the leading fields.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderBlockByteSize)
	binary.LittleEndian.PutUint64(buf[hdrHeaderSizeOffset:], uint64(h.HeaderSize))
	binary.LittleEndian.PutUint64(buf[hdrBlockSizeOffset:], uint64(h.BlockSize))
	binary.LittleEndian.PutUint16(buf[hdrTreeOrderOffset:], h.TreeOrder)
	binary.LittleEndian.PutUint64(buf[hdrRootOffsetOffset:], uint64(h.RootOffset))
	binary.LittleEndian.PutUint64(buf[hdrChecksumOffset:], headerChecksum(buf))
	return buf
}

// DecodeHeader parses a HeaderBlockByteSize frame into a Header, failing if
// the byte count is wrong or the checksum doesn't match.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) != HeaderBlockByteSize {
		return Header{}, fmt.Errorf("%w: expected %d header bytes, got %d", bterr.ErrReadFile, HeaderBlockByteSize, len(b))
	}
	want := binary.LittleEndian.Uint64(b[hdrChecksumOffset:])
	if got := headerChecksum(b); got != want {
		return Header{}, fmt.Errorf("%w: header checksum mismatch", bterr.ErrCorrupt)
	}
	return Header{
		HeaderSize: int64(binary.LittleEndian.Uint64(b[hdrHeaderSizeOffset:])),
		BlockSize:  int64(binary.LittleEndian.Uint64(b[hdrBlockSizeOffset:])),
		TreeOrder:  binary.LittleEndian.Uint16(b[hdrTreeOrderOffset:]),
		RootOffset: int64(binary.LittleEndian.Uint64(b[hdrRootOffsetOffset:])),
		Checksum:   want,
	}, nil
}

// EncodeNode serializes n into a fixed NodeBlockByteSize frame, stamping a
// fresh checksum over the leading fields.
func EncodeNode(n Node) []byte {
	buf := make([]byte, NodeBlockByteSize)
	if n.IsLeaf {
		buf[ndIsLeafOffset] = 1
	}
	binary.LittleEndian.PutUint16(buf[ndKeysUsedOffset:], n.KeysUsed)
	for i := 0; i < M; i++ {
		binary.LittleEndian.PutUint16(buf[ndKeysOffset+2*i:], n.Key[i])
	}
	for i := 0; i < M+1; i++ {
		binary.LittleEndian.PutUint64(buf[ndChildOffset+8*i:], uint64(n.Child[i]))
	}
	binary.LittleEndian.PutUint64(buf[ndParentOffset:], uint64(n.Parent))
	binary.LittleEndian.PutUint64(buf[ndChecksumOffset:], nodeChecksum(buf))
	return buf
}

// DecodeNode parses a NodeBlockByteSize frame into a Node, failing if the
// byte count is wrong or the checksum doesn't match.
func DecodeNode(b []byte) (Node, error) {
	if len(b) != NodeBlockByteSize {
		return Node{}, fmt.Errorf("%w: expected %d node bytes, got %d", bterr.ErrReadFile, NodeBlockByteSize, len(b))
	}
	want := binary.LittleEndian.Uint64(b[ndChecksumOffset:])
	if got := nodeChecksum(b); got != want {
		return Node{}, fmt.Errorf("%w: node checksum mismatch", bterr.ErrCorrupt)
	}
	var n Node
	n.IsLeaf = b[ndIsLeafOffset] != 0
	n.KeysUsed = binary.LittleEndian.Uint16(b[ndKeysUsedOffset:])
	for i := 0; i < M; i++ {
		n.Key[i] = binary.LittleEndian.Uint16(b[ndKeysOffset+2*i:])
	}
	for i := 0; i < M+1; i++ {
		n.Child[i] = int64(binary.LittleEndian.Uint64(b[ndChildOffset+8*i:]))
	}
	n.Parent = int64(binary.LittleEndian.Uint64(b[ndParentOffset:]))
	n.Checksum = want
	return n, nil
}
