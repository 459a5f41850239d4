//go:build unix

package platform

import "syscall"

// detachedAttr puts the child in its own session so it survives the updater
// and the terminal it was started from.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
