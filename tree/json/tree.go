package json

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/viettran-edgeAI/MCU-sub008/tree"
)

type node struct {
	Handle    tree.Handle  `json:"id"`
	Leaf      bool         `json:"leaf,omitempty"`
	Label     *uint8       `json:"label,omitempty"`
	Feature   *uint8       `json:"f,omitempty"`
	Threshold *uint8       `json:"t,omitempty"`
	Left      *tree.Handle `json:"left,omitempty"`
	Right     *tree.Handle `json:"right,omitempty"`
}

func encodeNode(h tree.Handle, n tree.Node) ([]byte, error) {
	jn := &node{Handle: h, Leaf: n.Leaf}
	if n.Leaf {
		label := n.Label
		jn.Label = &label
	} else {
		f, th, l, r := n.Feature, n.Threshold, n.Left, n.Right
		jn.Feature, jn.Threshold, jn.Left, jn.Right = &f, &th, &l, &r
	}
	return json.Marshal(jn)
}

func decodeNode(raw json.RawMessage) (tree.Handle, tree.Node, error) {
	jn := &node{}
	if err := json.Unmarshal(raw, jn); err != nil {
		return tree.None, tree.Node{}, err
	}
	n := tree.Node{Header: tree.Header{Leaf: jn.Leaf}, Left: tree.None, Right: tree.None}
	if jn.Leaf {
		if jn.Label == nil {
			return tree.None, n, fmt.Errorf("unmarshalling node %d: leaf without label", jn.Handle)
		}
		if *jn.Label >= tree.MaxLabels {
			return tree.None, n, fmt.Errorf("unmarshalling node %d: label %d above %d", jn.Handle, *jn.Label, tree.MaxLabels-1)
		}
		n.Label = *jn.Label
		return jn.Handle, n, nil
	}
	if jn.Feature == nil || jn.Threshold == nil || jn.Left == nil || jn.Right == nil {
		return tree.None, n, fmt.Errorf("unmarshalling node %d: internal node without feature, threshold or children", jn.Handle)
	}
	if *jn.Threshold > tree.MaxThreshold {
		return tree.None, n, fmt.Errorf("unmarshalling node %d: threshold %d above %d", jn.Handle, *jn.Threshold, tree.MaxThreshold)
	}
	n.Feature, n.Threshold, n.Left, n.Right = *jn.Feature, *jn.Threshold, *jn.Left, *jn.Right
	return jn.Handle, n, nil
}

/*
WriteJSONTree takes a context.Context, a pointer to a tree.Tree
and an io.Writer and serializes the given tree as JSON onto the
io.Writer.
A tree is serialized as a JSON object with the following fields:
  - "name": a string with the name of the tree
  - "rootID": the handle of the node at the root of the tree, -1
    for empty trees
  - "nodes": an array containing the nodes that can be traversed on the tree
    in pre-order, each one with its handle as "id" and either a
    "label" for leaves or "f", "t", "left" and "right" for internal nodes.

An error is returned if the tree cannot be traversed, serialized or written
onto the io.Writer.
*/
func WriteJSONTree(ctx context.Context, t *tree.Tree, w io.Writer) error {
	err := marshalJSONTreeHeader(t, w)
	if err != nil {
		return err
	}
	var i int
	err = t.Traverse(ctx, false, func(ctx context.Context, h tree.Handle, n tree.Node) error {
		err := writeNode(i, h, n, w)
		i++
		return err
	})
	if err != nil {
		return err
	}
	_, err = w.Write([]byte(`]}`))
	return err
}

/*
ReadJSONTree takes a context.Context and an io.Reader and returns
the tree unmarshalled from the contents of the io.Reader, which
are expected in the format WriteJSONTree writes.
An error is returned if the JSON cannot be read from the io.Reader or
does not make up a valid tree.
*/
func ReadJSONTree(ctx context.Context, r io.Reader) (*tree.Tree, error) {
	dec := json.NewDecoder(r)
	jt := &struct {
		Name   string            `json:"name"`
		RootID tree.Handle       `json:"rootID"`
		Nodes  []json.RawMessage `json:"nodes"`
	}{}
	err := dec.Decode(jt)
	if err != nil {
		return nil, err
	}
	nodes := make([]tree.Node, len(jt.Nodes))
	filled := make([]bool, len(jt.Nodes))
	for _, raw := range jt.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h, n, err := decodeNode(raw)
		if err != nil {
			return nil, err
		}
		if h < 0 || int(h) >= len(nodes) || filled[h] {
			return nil, fmt.Errorf("unmarshalling tree %q: invalid or repeated node id %d", jt.Name, h)
		}
		nodes[h] = n
		filled[h] = true
	}
	if len(nodes) == 0 {
		return tree.New(jt.Name), nil
	}
	return tree.FromNodes(jt.Name, nodes, jt.RootID)
}

func marshalJSONTreeHeader(t *tree.Tree, w io.Writer) error {
	jName, err := json.Marshal(t.Name)
	if err != nil {
		return err
	}
	header := fmt.Sprintf(`{"name":%s,"rootID":%d,"nodes":[`, jName, t.Root())
	_, err = w.Write([]byte(header))
	return err
}

func writeNode(i int, h tree.Handle, n tree.Node, w io.Writer) error {
	if i != 0 {
		_, err := w.Write([]byte(","))
		if err != nil {
			return err
		}
	}
	jn, err := encodeNode(h, n)
	if err != nil {
		return err
	}
	_, err = w.Write(jn)
	return err
}
