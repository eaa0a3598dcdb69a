// Package targz reads and writes the tar.gz bundles grammar tables are
// distributed in.
package targz

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// Bundle holds the regular files of an archive, keyed by slash separated path
type Bundle struct {
	Files map[string][]byte
}

// Names returns the file names in lexical order
func (b *Bundle) Names() []string {
	names := make([]string, 0, len(b.Files))
	for name := range b.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadOptions provides configuration for loading files into memory
type LoadOptions struct {
	// StripComponents removes the specified number of leading path components
	// Similar to tar's --strip-components
	StripComponents int

	// Filter allows filtering files during loading
	// Return true to load the file, false to skip it
	Filter func(header *tar.Header) bool

	// TransformName allows renaming files before storing.
	// A renamed file that collides with an existing one is an error.
	TransformName func(string) string
}

// Load loads a tar.gz archive into memory with default options
func Load(data []byte) (*Bundle, error) {
	return LoadWithOptions(data, LoadOptions{})
}

// LoadWithOptions loads a tar.gz archive into memory
func LoadWithOptions(data []byte, opts LoadOptions) (*Bundle, error) {
	bundle := &Bundle{Files: make(map[string][]byte)}

	err := walk(data, opts.StripComponents, opts.Filter, func(name string, header *tar.Header, r io.Reader) error {
		if header.Typeflag != tar.TypeReg {
			return nil
		}

		if opts.TransformName != nil {
			name = opts.TransformName(name)
		}

		if _, exists := bundle.Files[name]; exists {
			return errors.Errorf("file collision: %s (original: %s) already exists in bundle", name, header.Name)
		}

		var buf bytes.Buffer
		if _, err := io.Copy(&buf, r); err != nil {
			return errors.Errorf("reading file %s: %w", header.Name, err)
		}
		bundle.Files[name] = buf.Bytes()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return bundle, nil
}

// ExtractOptions provides configuration for the extraction process
type ExtractOptions struct {
	StripComponents int

	// FileMode is the mode to use for created files (defaults to 0644)
	FileMode os.FileMode

	// DirMode is the mode to use for created directories (defaults to 0755)
	DirMode os.FileMode

	Filter func(header *tar.Header) bool
}

// Extract writes the archive below targetDir on fs
func Extract(fs afero.Fs, data []byte, targetDir string, opts ExtractOptions) error {
	if opts.FileMode == 0 {
		opts.FileMode = 0644
	}
	if opts.DirMode == 0 {
		opts.DirMode = 0755
	}

	return walk(data, opts.StripComponents, opts.Filter, func(name string, header *tar.Header, r io.Reader) error {
		target := filepath.Join(targetDir, filepath.FromSlash(name))

		switch header.Typeflag {
		case tar.TypeDir:
			if err := fs.MkdirAll(target, opts.DirMode); err != nil {
				return errors.Errorf("creating directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := fs.MkdirAll(filepath.Dir(target), opts.DirMode); err != nil {
				return errors.Errorf("creating directory %s: %w", filepath.Dir(target), err)
			}

			f, err := fs.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, opts.FileMode)
			if err != nil {
				return errors.Errorf("creating file %s: %w", target, err)
			}
			if _, err := io.Copy(f, r); err != nil {
				f.Close()
				return errors.Errorf("writing file %s: %w", target, err)
			}
			if err := f.Close(); err != nil {
				return errors.Errorf("closing file %s: %w", target, err)
			}
		}
		return nil
	})
}

// Create packs files into a tar.gz archive, in lexical name order so the
// output is reproducible
func Create(files map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)

	b := &Bundle{Files: files}
	for _, name := range b.Names() {
		content := files[name]
		hdr := &tar.Header{
			Name:     name,
			Mode:     0644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, errors.Errorf("writing header %s: %w", name, err)
		}
		if _, err := tw.Write(content); err != nil {
			return nil, errors.Errorf("writing file %s: %w", name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return nil, errors.Errorf("closing tar writer: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, errors.Errorf("closing gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

func walk(data []byte, strip int, filter func(*tar.Header) bool, fn func(name string, header *tar.Header, r io.Reader) error) error {
	gzr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return errors.Errorf("creating gzip reader: %w", err)
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Errorf("reading tar: %w", err)
		}

		components := SplitPath(header.Name)
		if len(components) <= strip {
			continue
		}

		if filter != nil && !filter(header) {
			continue
		}

		if err := fn(strings.Join(components[strip:], "/"), header, tr); err != nil {
			return err
		}
	}
}

// SplitPath splits a slash separated archive path into components
func SplitPath(path string) []string {
	var components []string
	for _, c := range strings.Split(path, "/") {
		if c == "" || c == "." {
			continue
		}
		components = append(components, c)
	}
	return components
}
