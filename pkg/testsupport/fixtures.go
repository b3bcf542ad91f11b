package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// LoadFixture reads a file from the caller's testdata directory.
func LoadFixture(t testing.TB, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("load fixture %s: %v", name, err)
	}
	return data
}
