package sql

import (
	"strconv"
	"testing"
)

func TestInsertStatement(t *testing.T) {
	testCases := []struct {
		n           int
		placeholder func(int) string
		expected    string
	}{
		{1, func(int) string { return "?" }, "INSERT INTO samples (id, label, features) VALUES (?, ?, ?)"},
		{2, func(i int) string { return "$" + strconv.Itoa(i+1) }, "INSERT INTO samples (id, label, features) VALUES ($1, $2, $3), ($4, $5, $6)"},
	}
	for _, tc := range testCases {
		if got := InsertStatement(tc.n, tc.placeholder); got != tc.expected {
			t.Errorf("expected %q, got %q", tc.expected, got)
		}
	}
	args := InsertArgs([]Row{{ID: 3, Label: 1, Features: []byte{2}}})
	if len(args) != 3 || args[0] != int64(3) || args[1] != 1 {
		t.Errorf("unexpected insert args %v", args)
	}
}
