// Package discovery finds the lists of injectable type names an injector
// binds implicitly. A list is plain text: one fully-qualified name per
// line; blank lines and lines starting with '#' are ignored.
package discovery

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"
)

const DefaultResource = "META-INF/spindle/injectables"

// Source enumerates the locations holding a logical resource and opens
// them. Location strings identify a location across sources.
type Source interface {
	Locations(resource string) ([]string, error)
	Open(location string) (io.ReadCloser, error)
}

// ReadNames reads a name list.
func ReadNames(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// FS serves resources from a file system. A resource that is a directory
// yields every regular file below it, in lexical order.
type FS struct {
	name string
	fsys fs.FS
}

func NewFS(name string, fsys fs.FS) *FS {
	return &FS{name: name, fsys: fsys}
}

func (s *FS) Name() string { return s.name }

func (s *FS) Locations(resource string) ([]string, error) {
	resource = path.Clean(strings.TrimPrefix(resource, "/"))
	info, err := fs.Stat(s.fsys, resource)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{s.location(resource)}, nil
	}

	var locations []string
	err = fs.WalkDir(
		s.fsys, resource, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() {
				locations = append(locations, s.location(p))
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	slices.Sort(locations)
	return locations, nil
}

func (s *FS) Open(location string) (io.ReadCloser, error) {
	p, ok := strings.CutPrefix(location, s.name+":")
	if !ok {
		return nil, fmt.Errorf("location %q does not belong to %s", location, s.name)
	}
	return s.fsys.Open(p)
}

func (s *FS) location(p string) string {
	return s.name + ":" + p
}

// Static is an in-memory source holding one list at a fixed location.
type Static struct {
	Location string
	Resource string
	Names    []string
}

func (s Static) Locations(resource string) ([]string, error) {
	if s.Resource != "" && s.Resource != resource {
		return nil, nil
	}
	return []string{s.Location}, nil
}

func (s Static) Open(location string) (io.ReadCloser, error) {
	if location != s.Location {
		return nil, fmt.Errorf("unknown location %q", location)
	}
	return io.NopCloser(strings.NewReader(strings.Join(s.Names, "\n"))), nil
}
