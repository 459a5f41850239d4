// Package extract materializes archive entries onto the install root.
//
// Extraction is an overwrite-in-place update, not a transaction: entries are
// written one at a time, destination files are truncated and rewritten, and
// the first failing entry stops the run. Files written before the failure
// stay on disk. Every entry name goes through remap.Resolve before anything
// touches the filesystem, so a hostile name fails the run without a write.
package extract
