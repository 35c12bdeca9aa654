// Package fragment handles changelog fragment files: the <id>.<type>.<ext>
// naming convention, listing a fragments folder and loading a fragment's
// markdown content together with its HTML rendering.
package fragment

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedName is wrapped by NameError.
var ErrMalformedName = errors.New("fragment name must look like <id>.<type>.<ext>")

// NameError reports a file in the fragments folder whose name does not follow
// the naming convention. The file is skipped; other fragments are unaffected.
type NameError struct {
	// Path is the file name, or the repository-relative path once the file
	// has been placed in a repository.
	Path string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, ErrMalformedName)
}

func (e *NameError) Unwrap() error {
	return ErrMalformedName
}

// Name is a parsed fragment file name.
type Name struct {
	ID   string
	Type string
	Ext  string
}

// ParseName splits a file name into id, type and extension. The id runs up to
// the first dot, the type up to the second; everything after that is the
// extension, so "42.feature.tar.md" has extension "tar.md".
func ParseName(filename string) (Name, error) {
	parts := strings.SplitN(filename, ".", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Name{}, &NameError{Path: filename}
	}
	return Name{ID: parts[0], Type: parts[1], Ext: parts[2]}, nil
}

// File is a fragment ready for grouping.
type File struct {
	// Name is the file name inside the fragments folder.
	Name string
	// Path is slash-separated and relative to the repository root.
	Path string
	// Type is the middle segment of the file name.
	Type string
	// Content is the raw markdown.
	Content string
	// Rendered is Content converted to HTML.
	Rendered string
}
