// Package archive reads update archives. An archive is opened once and its
// members are produced lazily: no member is decompressed until its content is
// opened, so memory use stays bounded by a single entry's read buffer.
package archive
