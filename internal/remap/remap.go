// Package remap turns archive member names into destinations inside the
// install root. Names are untrusted: every name is normalized and checked
// before a destination is handed out, and anything that would land outside
// the root is rejected with ErrPathTraversal.
package remap

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/chatterino/chatterino-updater/internal/branding"
)

// ErrPathTraversal reports an archive name that would escape the install root.
var ErrPathTraversal = errors.New("path escapes install root")

// TraversalError names the offending entry and why it was rejected.
type TraversalError struct {
	Entry  string
	Reason string
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("%v: %q (%s)", ErrPathTraversal, e.Entry, e.Reason)
}

func (e *TraversalError) Unwrap() error { return ErrPathTraversal }

// Rule rewrites names starting with From so they start with To instead.
// Both are slash-separated and normally end in "/".
type Rule struct {
	From string `mapstructure:"from" yaml:"from" json:"from"`
	To   string `mapstructure:"to" yaml:"to" json:"to"`
}

// DefaultRules redirects the updater's own directory into its staging
// directory, since the running updater cannot overwrite itself.
func DefaultRules() []Rule {
	return []Rule{{
		From: branding.UpdaterDir() + "/",
		To:   branding.StagingDir() + "/",
	}}
}

// Remap applies the first rule whose prefix matches name. A name equal to a
// directory rule's prefix without its trailing slash is rewritten too, so the
// directory marker "Updater" follows "Updater/...".
func Remap(name string, rules []Rule) string {
	for _, r := range rules {
		if r.From == "" {
			continue
		}
		if strings.HasPrefix(name, r.From) {
			return r.To + name[len(r.From):]
		}
		if dir, ok := strings.CutSuffix(r.From, "/"); ok && name == dir {
			return strings.TrimSuffix(r.To, "/")
		}
	}
	return name
}

// Destination is where an entry is written.
type Destination struct {
	// Rel is the remapped, cleaned, slash-separated name relative to the root.
	Rel string
	// Path is Rel joined to the root with host separators.
	Path string
}

// Resolve validates name, applies rules and joins the result to root.
// It performs no filesystem access.
func Resolve(root, name string, rules []Rule) (Destination, error) {
	rel, err := Clean(name)
	if err != nil {
		return Destination{}, err
	}

	// Rules come from configuration; the rewritten name is validated again.
	if mapped := Remap(rel, rules); mapped != rel {
		rel, err = Clean(mapped)
		if err != nil {
			return Destination{}, &TraversalError{Entry: name, Reason: "rewrite rule leaves the root"}
		}
	}

	local := filepath.FromSlash(rel)
	if rel != "." && !filepath.IsLocal(local) {
		return Destination{}, &TraversalError{Entry: name, Reason: "not a local path on this system"}
	}

	target := filepath.Join(root, local)
	r, err := filepath.Rel(filepath.Clean(root), target)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return Destination{}, &TraversalError{Entry: name, Reason: "resolves outside the root"}
	}

	return Destination{Rel: rel, Path: target}, nil
}

// Clean normalizes an archive name to a cleaned slash path and rejects
// absolute, drive-letter, UNC and parent-escaping names.
func Clean(name string) (string, error) {
	if name == "" {
		return "", &TraversalError{Entry: name, Reason: "empty name"}
	}
	if strings.ContainsRune(name, 0) {
		return "", &TraversalError{Entry: name, Reason: "NUL byte in name"}
	}

	slashed := strings.ReplaceAll(name, `\`, "/")
	switch {
	case strings.HasPrefix(slashed, "//"):
		return "", &TraversalError{Entry: name, Reason: "UNC path"}
	case strings.HasPrefix(slashed, "/"):
		return "", &TraversalError{Entry: name, Reason: "absolute path"}
	case hasDriveLetter(slashed):
		return "", &TraversalError{Entry: name, Reason: "drive-letter path"}
	}

	cleaned := path.Clean(slashed)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", &TraversalError{Entry: name, Reason: "parent directory reference"}
	}
	return cleaned, nil
}

func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
