package platform

import (
	"os/exec"
	"path/filepath"
)

// StartDetached starts the executable at path with args as an independent
// process that outlives the caller. Its working directory is the directory
// containing the executable, so relative paths the application uses for its
// own state resolve inside the install root. Standard streams are not
// inherited.
func StartDetached(path string, args ...string) error {
	cmd := exec.Command(path, args...)
	cmd.Dir = filepath.Dir(path)
	cmd.SysProcAttr = detachedAttr()
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
