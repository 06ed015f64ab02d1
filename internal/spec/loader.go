package spec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// FindSpecFiles recursively finds all .yaml and .yml files in dir, sorted by path.
func FindSpecFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip directories
		if d.IsDir() {
			return nil
		}

		if IsSpecFile(path) {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// IsSpecFile reports whether path has a specification file extension.
func IsSpecFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml"
}

// Decode reads one or more YAML documents, each holding a single specification.
// Unknown fields are rejected.
func Decode(r io.Reader) ([]*Specification, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var specs []*Specification
	for {
		var s Specification
		err := dec.Decode(&s)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		specs = append(specs, &s)
	}
	return specs, nil
}

// LoadFile decodes the specifications in a single file.
func LoadFile(path string) ([]*Specification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	specs, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, s := range specs {
		s.Source = path
	}
	return specs, nil
}

// LoadFiles decodes paths with at most concurrency files in flight, then merges
// the results into one registry in path order. The merge is single-threaded so
// the registry content does not depend on decode completion order.
func LoadFiles(ctx context.Context, paths []string, concurrency int) (*Registry, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	decoded := make([][]*Specification, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			specs, err := LoadFile(path)
			if err != nil {
				return err
			}
			decoded[i] = specs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reg := NewRegistry()
	for _, specs := range decoded {
		for _, s := range specs {
			reg.Add(s)
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}
