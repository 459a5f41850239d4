package updater

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chatterino/chatterino-updater/internal/branding"
)

// Target fixes the paths of one run. It is built once at startup and passed
// down instead of changing the process working directory.
type Target struct {
	// InstallRoot is the parent of the updater's directory.
	InstallRoot string
	// SelfPath is the updater executable.
	SelfPath string
	// MainExecutable is the application that is waited on and relaunched.
	MainExecutable string
	// ArchivePath is the update archive.
	ArchivePath string
}

// NewTarget derives a Target from the updater executable's path. A relative
// archive path is resolved against the updater's directory.
func NewTarget(selfPath, archive string) (Target, error) {
	self, err := filepath.Abs(selfPath)
	if err != nil {
		return Target{}, fmt.Errorf("resolving updater path: %w", err)
	}
	selfDir := filepath.Dir(self)
	root := filepath.Dir(selfDir)

	if archive == "" {
		archive = branding.ArchiveName()
	}
	if !filepath.IsAbs(archive) {
		archive = filepath.Join(selfDir, archive)
	}

	return Target{
		InstallRoot:    root,
		SelfPath:       self,
		MainExecutable: filepath.Join(root, branding.MainExecutable()),
		ArchivePath:    filepath.Clean(archive),
	}, nil
}

// CurrentTarget is NewTarget for the running executable.
func CurrentTarget(archive string) (Target, error) {
	exe, err := os.Executable()
	if err != nil {
		return Target{}, fmt.Errorf("finding updater executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return NewTarget(exe, archive)
}
