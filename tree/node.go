package tree

import "fmt"

const (
	thresholdMask = 0x03
	labelShift    = 2
	labelMask     = 0x1F
	leafFlag      = 0x80

	// MaxLabels is the number of distinct labels a packed node can carry.
	MaxLabels = labelMask + 1
	// MaxThreshold is the highest threshold code a packed node can carry.
	MaxThreshold = 2
	// MaxFeatures is the number of features a node can refer to.
	MaxFeatures = 256
)

/*
Header holds the fields of a node that are packed in a single byte when
the node is stored:

  - bits 0-1: threshold code
  - bits 2-6: label
  - bit 7: leaf flag
*/
type Header struct {
	Threshold uint8
	Label     uint8
	Leaf      bool
}

// Pack returns the byte representation of the header. Out of range
// fields are truncated to their bit width.
func (h Header) Pack() byte {
	b := h.Threshold & thresholdMask
	b |= (h.Label & labelMask) << labelShift
	if h.Leaf {
		b |= leafFlag
	}
	return b
}

// UnpackHeader takes a packed byte and returns the Header it represents.
func UnpackHeader(b byte) Header {
	return Header{
		Threshold: b & thresholdMask,
		Label:     (b >> labelShift) & labelMask,
		Leaf:      b&leafFlag != 0,
	}
}

// Handle references a node inside the arena of its Tree.
type Handle int32

// None is the Handle of a missing node.
const None Handle = -1

/*
Node is a decision tree node.

Internal nodes send samples whose value for Feature is lower than or
equal to Threshold to Left and the rest to Right. Leaf nodes predict
Label and have no children.
*/
type Node struct {
	Header
	Feature uint8
	Left    Handle
	Right   Handle
}

func (n Node) String() string {
	if n.Leaf {
		return fmt.Sprintf("leaf label=%d", n.Label)
	}
	return fmt.Sprintf("feature %d <= %d", n.Feature, n.Threshold)
}
