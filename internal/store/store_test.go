package store

import (
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir() + "/coach-test.db")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }
