// Package codec implements the binary wire format for KD-trees.
//
// A serialized tree is a fixed 8-byte header followed by a pre-order node
// stream:
//
//	[dimension uint32 LE][count uint32 LE]
//	node := [presence byte][coordinate float64 LE] * dimension
//
// A presence byte of 1 introduces a node payload, 0 marks an absent child.
// An empty tree is the header followed by a single 0 byte.
//
// The format is a breaking-change boundary: bytes written by one version of
// the codec must decode with every later version.
package codec

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/arbordb/arbor/kdtree"
)

const (
	// MaxDimension is the largest dimensionality the codec accepts when
	// decoding. Headers above it are rejected as corrupt.
	MaxDimension = 4096

	// HeaderSize is the fixed length of the encoded header in bytes.
	HeaderSize = 8

	nodeAbsent  = 0x00
	nodePresent = 0x01
)

// ErrCorruptData reports a malformed or truncated serialized tree.
var ErrCorruptData = errors.New("corrupt tree data")

var byteOrder = binary.LittleEndian

// Header is the fixed-size prefix of every serialized tree.
type Header struct {
	Dimension uint32
	Count     uint32
}

// Encode writes the tree to w in pre-order. It does not buffer; callers
// writing to files should wrap w in a bufio.Writer and flush it.
func Encode(w io.Writer, t *kdtree.Tree) error {
	var hdr [HeaderSize]byte
	byteOrder.PutUint32(hdr[0:4], uint32(t.Dimension()))
	byteOrder.PutUint32(hdr[4:8], uint32(t.Len()))

	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	e := &encoder{
		w:   w,
		buf: make([]byte, 1+t.Dimension()*8),
	}

	return e.writeNode(t.Root())
}

type encoder struct {
	w   io.Writer
	buf []byte // scratch for one node: presence byte plus payload
}

func (e *encoder) writeNode(n *kdtree.Node) error {
	if n == nil {
		_, err := e.w.Write([]byte{nodeAbsent})
		return err
	}

	e.buf[0] = nodePresent
	for i, c := range n.Point {
		byteOrder.PutUint64(e.buf[1+i*8:], math.Float64bits(c))
	}

	if _, err := e.w.Write(e.buf); err != nil {
		return err
	}

	if err := e.writeNode(n.Left); err != nil {
		return err
	}

	return e.writeNode(n.Right)
}

// Decode reads a serialized tree from r and reconstructs it. Any structural
// problem (truncation, invalid presence bytes, node counts that disagree
// with the header, trailing garbage) is reported via ErrCorruptData.
func Decode(r io.Reader) (*kdtree.Tree, error) {
	br := bufio.NewReader(r)

	hdr, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	d := &decoder{
		br:        br,
		dimension: int(hdr.Dimension),
		expect:    int(hdr.Count),
		buf:       make([]byte, int(hdr.Dimension)*8),
	}

	root, err := d.readNode()
	if err != nil {
		return nil, err
	}

	if d.decoded != d.expect {
		return nil, fmt.Errorf("%w: header count %d, stream has %d nodes", ErrCorruptData, d.expect, d.decoded)
	}

	if _, err := br.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after node stream", ErrCorruptData)
	}

	tree, err := kdtree.Rebuild(d.dimension, root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptData, err)
	}

	return tree, nil
}

// ReadHeader reads only the fixed header from r. It allows inspecting the
// dimension and node count of a serialized tree without decoding the nodes.
func ReadHeader(r io.Reader) (Header, error) {
	return readHeader(r)
}

func readHeader(r io.Reader) (Header, error) {
	var raw [HeaderSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return Header{}, fmt.Errorf("%w: truncated header", ErrCorruptData)
	}

	hdr := Header{
		Dimension: byteOrder.Uint32(raw[0:4]),
		Count:     byteOrder.Uint32(raw[4:8]),
	}

	if hdr.Dimension > MaxDimension {
		return Header{}, fmt.Errorf("%w: dimension %d exceeds maximum %d", ErrCorruptData, hdr.Dimension, MaxDimension)
	}

	if hdr.Dimension == 0 && hdr.Count > 0 {
		return Header{}, fmt.Errorf("%w: zero dimension with count %d", ErrCorruptData, hdr.Count)
	}

	return hdr, nil
}

type decoder struct {
	br        *bufio.Reader
	dimension int
	expect    int
	decoded   int
	buf       []byte // scratch for one node payload
}

func (d *decoder) readNode() (*kdtree.Node, error) {
	presence, err := d.br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: truncated node stream", ErrCorruptData)
	}

	switch presence {
	case nodeAbsent:
		return nil, nil
	case nodePresent:
	default:
		return nil, fmt.Errorf("%w: invalid presence byte 0x%02x", ErrCorruptData, presence)
	}

	// Reject streams claiming more nodes than the header admits before
	// reading further payloads.
	if d.decoded >= d.expect {
		return nil, fmt.Errorf("%w: header count %d, stream has more nodes", ErrCorruptData, d.expect)
	}
	d.decoded++

	if _, err := io.ReadFull(d.br, d.buf); err != nil {
		return nil, fmt.Errorf("%w: truncated node payload", ErrCorruptData)
	}

	point := make(kdtree.Point, d.dimension)
	for i := range point {
		point[i] = math.Float64frombits(byteOrder.Uint64(d.buf[i*8:]))
	}

	left, err := d.readNode()
	if err != nil {
		return nil, err
	}

	right, err := d.readNode()
	if err != nil {
		return nil, err
	}

	return &kdtree.Node{Point: point, Left: left, Right: right}, nil
}
