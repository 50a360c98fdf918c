package tree

import (
	"bytes"
	"context"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/viettran-edgeAI/MCU-sub008/dataset"
)

func randomTree(t *testing.T, seed int64) (*Tree, *dataset.Set) {
	rnd := rand.New(rand.NewSource(seed))
	s := dataset.NewSet(0)
	for i := 0; i < 200; i++ {
		f := []uint8{uint8(rnd.Intn(4)), uint8(rnd.Intn(4)), uint8(rnd.Intn(4))}
		s.Insert(dataset.ID(i), dataset.NewSample((f[0]+f[2])%3, f...))
	}
	b := newBuilder(3, 3, seed)
	b.MaxDepth = 6
	tr, err := b.Build(context.Background(), "random", s)
	if err != nil {
		t.Fatal(err)
	}
	return tr, s
}

func TestCodecRoundTripPreservesPredictions(t *testing.T) {
	tr, s := randomTree(t, 21)
	var buf bytes.Buffer
	if err := Encode(&buf, tr); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 4+2*tr.Len() {
		t.Errorf("expected %d bytes, got %d", 4+2*tr.Len(), buf.Len())
	}
	decoded, err := Decode(&buf, "decoded")
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Stats() != tr.Stats() {
		t.Errorf("expected stats %+v, got %+v", tr.Stats(), decoded.Stats())
	}
	for _, smp := range s.Samples() {
		if a, b := tr.Predict(smp.Features), decoded.Predict(smp.Features); a != b {
			t.Fatalf("prediction for %v changed from %d to %d", smp, a, b)
		}
	}
}

func TestCodecEmptyTree(t *testing.T) {
	data, err := New("empty").MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 4 {
		t.Fatalf("expected only the header, got %d bytes", len(data))
	}
	decoded, err := Decode(bytes.NewReader(data), "empty")
	if err != nil {
		t.Fatal(err)
	}
	if !decoded.Empty() || decoded.Predict([]uint8{0}) != NoLabel {
		t.Errorf("expected an empty tree predicting NoLabel")
	}
}

func TestDecodeRejectsMalformedStreams(t *testing.T) {
	tr, _ := randomTree(t, 22)
	valid, err := tr.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	badMagic := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(badMagic, 0xDEADBEEF)

	badThreshold := append([]byte(nil), valid...)
	badThreshold[5] = Header{Threshold: 3}.Pack()

	deep := make([]byte, 4, 4+2*300)
	binary.LittleEndian.PutUint32(deep, Magic)
	for i := 0; i < 300; i++ {
		deep = append(deep, 0, Header{Threshold: 1}.Pack())
	}

	trailing := append(append([]byte(nil), valid...), 0xFF, 0xFF, 0xFF)

	testCases := []struct {
		name string
		data []byte
	}{
		{"bad magic", badMagic},
		{"trailing bytes", trailing},
		{"truncated header", valid[:3]},
		{"truncated body", valid[:len(valid)-1]},
		{"missing subtree", valid[:len(valid)-2]},
		{"bad threshold", badThreshold},
		{"too deep", deep},
	}
	for _, tc := range testCases {
		if _, err := Decode(bytes.NewReader(tc.data), tc.name); err == nil {
			t.Errorf("%s: expected a decoding error", tc.name)
		}
	}
}

func TestHeaderPacking(t *testing.T) {
	testCases := []struct {
		h        Header
		expected byte
	}{
		{Header{Threshold: 2}, 0x02},
		{Header{Label: 31, Leaf: true}, 0xFC},
		{Header{Threshold: 1, Label: 5}, 0x15},
		{Header{Label: 0, Leaf: true}, 0x80},
	}
	for _, tc := range testCases {
		if got := tc.h.Pack(); got != tc.expected {
			t.Errorf("packing %+v: expected %#02x, got %#02x", tc.h, tc.expected, got)
		}
		if got := UnpackHeader(tc.expected); got != tc.h {
			t.Errorf("unpacking %#02x: expected %+v, got %+v", tc.expected, tc.h, got)
		}
	}
}
