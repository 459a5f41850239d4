// Package platform isolates the operating-system specific pieces of an
// update: probing whether another process still holds a file open, starting
// the relaunched application detached from the updater, and applying
// permission bits. On Windows the probe is a share-mode-0 CreateFile; on Unix
// it is a write-mode open (ETXTBSY for a running binary) plus a non-blocking
// flock.
package platform
