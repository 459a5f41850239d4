//go:build unix

package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestUmaskMatchesCreatedFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "created.txt")
	if err := os.WriteFile(path, nil, 0777); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := 0777 &^ Umask(); info.Mode().Perm() != want {
		t.Errorf("created with %o, Umask() predicts %o", info.Mode().Perm(), want)
	}
}
