package fragment

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// DefaultIgnore lists the file name patterns skipped when listing a folder.
func DefaultIgnore() []string {
	return []string{".*", "README*"}
}

// Source lists and loads fragment files from a folder on fs.
type Source struct {
	fs     afero.Fs
	dir    string
	ignore []string
	md     goldmark.Markdown
}

// NewSource creates a Source for the fragments folder dir. Names matching
// any of the ignore patterns (doublestar syntax) are never listed.
func NewSource(fs afero.Fs, dir string, ignore []string) (*Source, error) {
	for _, p := range ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
	}
	return &Source{
		fs:     fs,
		dir:    dir,
		ignore: ignore,
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}, nil
}

// Dir returns the folder the source reads from.
func (s *Source) Dir() string {
	return s.dir
}

// List returns the names of the regular files directly inside the folder,
// sorted by name. Subdirectories and ignored names are left out.
func (s *Source) List() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading fragments folder %s: %w", s.dir, err)
	}

	var names []string
	for _, info := range infos {
		if !info.Mode().IsRegular() {
			continue
		}
		if s.ignored(info.Name()) {
			continue
		}
		names = append(names, info.Name())
	}
	return names, nil
}

func (s *Source) ignored(name string) bool {
	for _, p := range s.ignore {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// Load reads the named fragment and renders it to HTML. Each call reads the
// file afresh.
func (s *Source) Load(name string) (content, rendered string, err error) {
	data, err := afero.ReadFile(s.fs, filepath.Join(s.dir, name))
	if err != nil {
		return "", "", fmt.Errorf("reading fragment %s: %w", name, err)
	}

	html, err := s.Render(data)
	if err != nil {
		return "", "", fmt.Errorf("rendering fragment %s: %w", name, err)
	}
	return string(data), html, nil
}

// Render converts markdown to HTML.
func (s *Source) Render(markdown []byte) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert(markdown, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
