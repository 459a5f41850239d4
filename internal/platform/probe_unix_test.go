//go:build unix

package platform

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"
)

func TestProbeExclusiveHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app")
	if err := os.WriteFile(path, []byte("binary"), 0644); err != nil {
		t.Fatal(err)
	}

	holder, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer holder.Close()
	if err := unix.Flock(int(holder.Fd()), unix.LOCK_EX); err != nil {
		t.Fatal(err)
	}

	if err := ProbeExclusive(path); err == nil {
		t.Fatal("ProbeExclusive succeeded while another handle holds the lock")
	}

	if err := unix.Flock(int(holder.Fd()), unix.LOCK_UN); err != nil {
		t.Fatal(err)
	}
	if err := ProbeExclusive(path); err != nil {
		t.Fatalf("ProbeExclusive after release: %v", err)
	}
}

func TestProbeExclusiveReadOnlyFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root may write read-only files")
	}
	path := filepath.Join(t.TempDir(), "app")
	if err := os.WriteFile(path, []byte("binary"), 0555); err != nil {
		t.Fatal(err)
	}

	if err := ProbeExclusive(path); err != nil {
		t.Fatalf("unwritable but unlocked file reported as held: %v", err)
	}

	holder, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer holder.Close()
	if err := unix.Flock(int(holder.Fd()), unix.LOCK_EX); err != nil {
		t.Fatal(err)
	}
	if err := ProbeExclusive(path); err == nil {
		t.Fatal("ProbeExclusive ignored the lock on an unwritable file")
	}
}
