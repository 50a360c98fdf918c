package miniostore

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogsThroughGivenLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := New(Options{Endpoint: "localhost:9000", Bucket: "models", Prefix: "forest", Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	if s == nil {
		t.Fatalf("expected a store")
	}
	if out := buf.String(); !strings.Contains(out, "minio store initialized") || !strings.Contains(out, "bucket=models") {
		t.Errorf("expected the store creation to be logged, got %q", out)
	}
}

func TestNewWithoutLogger(t *testing.T) {
	if _, err := New(Options{Endpoint: "localhost:9000", Bucket: "models"}); err != nil {
		t.Fatal(err)
	}
}

func TestObjectFor(t *testing.T) {
	testCases := []struct {
		prefix   string
		key      string
		expected string
	}{
		{"", "tree_0.bin", "tree_0.bin"},
		{"forest", "tree_0.bin", "forest/tree_0.bin"},
	}
	for _, tc := range testCases {
		ms := &minioStore{prefix: tc.prefix}
		if got := ms.objectFor(tc.key); got != tc.expected {
			t.Errorf("expected object %q for key %q under %q, got %q", tc.expected, tc.key, tc.prefix, got)
		}
	}
}
