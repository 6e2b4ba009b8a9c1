package source

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/alecthomas/errors"
	"github.com/bmatcuk/doublestar/v4"
)

// Extensions recognized when a pattern names a directory.
var graphqlExts = []string{".graphql", ".graphqls", ".gql"}

// FileSystemDiscovery serves files matched by glob patterns.
type FileSystemDiscovery struct {
	paths []string
}

// NewFileSystemDiscovery expands patterns with doublestar, so "**" matches any
// number of directories, including none. A pattern that names a directory
// contributes every GraphQL file below it. Matches are de-duplicated and
// sorted. A pattern matching nothing is an error.
func NewFileSystemDiscovery(patterns ...string) (*FileSystemDiscovery, error) {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "pattern %q", pattern)
		}
		if len(matches) == 0 {
			return nil, errors.Errorf("pattern %q matched no files", pattern)
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			if !info.IsDir() {
				add(match)
				continue
			}
			err = filepath.WalkDir(match, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && slices.Contains(graphqlExts, filepath.Ext(path)) {
					add(path)
				}
				return nil
			})
			if err != nil {
				return nil, errors.Wrapf(err, "walk %q", match)
			}
		}
	}
	slices.Sort(paths)
	return &FileSystemDiscovery{paths: paths}, nil
}

func (d *FileSystemDiscovery) List(ctx context.Context) ([]string, error) {
	return slices.Clone(d.paths), nil
}

func (d *FileSystemDiscovery) Read(ctx context.Context, name string) (string, error) {
	if !slices.Contains(d.paths, name) {
		return "", errors.Errorf("source %q not found", name)
	}
	content, err := os.ReadFile(name)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(content), nil
}
