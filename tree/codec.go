package tree

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
)

// Magic is the header every encoded tree starts with.
const Magic uint32 = 0x54524545

const maxDecodeDepth = 255

/*
Encode takes a writer and a tree and writes the binary representation of
the tree into the writer: the little endian Magic followed by a pre-order
dump of its nodes, two bytes each (feature index and packed header). The
left subtree of an internal node is dumped right after the node, then its
right subtree. An empty tree is encoded as the Magic alone.
*/
func Encode(w io.Writer, t *Tree) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, Magic); err != nil {
		return fmt.Errorf("writing tree header: %v", err)
	}
	if !t.Empty() {
		err := t.Traverse(context.Background(), false, func(_ context.Context, _ Handle, n Node) error {
			_, err := bw.Write([]byte{n.Feature, n.Pack()})
			return err
		})
		if err != nil {
			return fmt.Errorf("writing tree %q nodes: %v", t.Name, err)
		}
	}
	return bw.Flush()
}

/*
Decode takes a reader and a name and returns the tree with that name read
from the binary representation in the reader. It returns an error if the
stream does not start with the Magic, ends in the middle of a tree, nests
nodes deeper than 255 levels or holds a threshold code above MaxThreshold.
*/
func Decode(r io.Reader, name string) (*Tree, error) {
	br := bufio.NewReader(r)
	var magic uint32
	if err := binary.Read(br, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("reading tree header: %v", err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("bad tree header %#08x", magic)
	}
	t := New(name)
	if _, err := br.Peek(1); err == io.EOF {
		return t, nil
	}
	root, err := decodeNode(br, t, 0)
	if err != nil {
		return nil, err
	}
	if _, err := br.Peek(1); err == nil {
		return nil, fmt.Errorf("trailing data after tree %q", name)
	}
	t.root = root
	return t, nil
}

func decodeNode(br *bufio.Reader, t *Tree, depth int) (Handle, error) {
	if depth > maxDecodeDepth {
		return None, fmt.Errorf("tree %q nests deeper than %d levels", t.Name, maxDecodeDepth)
	}
	var raw [2]byte
	if _, err := io.ReadFull(br, raw[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return None, fmt.Errorf("reading tree %q node: %v", t.Name, err)
	}
	n := Node{Header: UnpackHeader(raw[1]), Feature: raw[0], Left: None, Right: None}
	if n.Leaf {
		return t.add(n), nil
	}
	if n.Threshold > MaxThreshold {
		return None, fmt.Errorf("tree %q node has threshold code %d above %d", t.Name, n.Threshold, MaxThreshold)
	}
	h := t.add(n)
	left, err := decodeNode(br, t, depth+1)
	if err != nil {
		return None, err
	}
	right, err := decodeNode(br, t, depth+1)
	if err != nil {
		return None, err
	}
	t.nodes[h].Left = left
	t.nodes[h].Right = right
	return h, nil
}

// MarshalBinary returns the Encode representation of the tree.
func (t *Tree) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary replaces the nodes of the tree with the ones decoded
// from data, keeping its name.
func (t *Tree) UnmarshalBinary(data []byte) error {
	d, err := Decode(bytes.NewReader(data), t.Name)
	if err != nil {
		return err
	}
	t.nodes, t.root = d.nodes, d.root
	return nil
}
