package finder

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// TemplateFinder is responsible for finding template files in a directory
type TemplateFinder interface {
	// FindTemplates finds all template files below dir whose slash separated relative
	// path matches one of the include globs and none of the exclude globs.
	FindTemplates(ctx context.Context, dir string, include, exclude []string) ([]FileInfo, error)
}

// FileInfo represents information about a found template file
type FileInfo struct {
	Path     string
	Content  []byte
	FileType string
}

// Source returns the content as a string, which is what the lexer consumes.
func (me FileInfo) Source() string {
	return string(me.Content)
}

// DefaultFinder is the default implementation of TemplateFinder
type DefaultFinder struct {
	fs afero.Fs
}

// NewDefaultFinder creates a new DefaultFinder reading from fs
func NewDefaultFinder(fs afero.Fs) *DefaultFinder {
	return &DefaultFinder{fs: fs}
}

// FindTemplates implements TemplateFinder. Results are sorted by path.
func (f *DefaultFinder) FindTemplates(ctx context.Context, dir string, include, exclude []string) ([]FileInfo, error) {
	for _, pattern := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Errorf("invalid glob pattern %q", pattern)
		}
	}

	info, err := f.fs.Stat(dir)
	if err != nil {
		return nil, errors.Errorf("reading template directory: %w", err)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%s is not a directory", dir)
	}

	var files []FileInfo
	err = afero.Walk(f.fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return errors.Errorf("relative path of %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)

		if !matchAny(include, rel) || matchAny(exclude, rel) {
			return nil
		}

		file, err := LoadTemplate(f.fs, path)
		if err != nil {
			return err
		}
		files = append(files, file)
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", dir, err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return files, nil
}

// LoadTemplate reads a single template file.
func LoadTemplate(fs afero.Fs, path string) (FileInfo, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return FileInfo{}, errors.Errorf("reading template %s: %w", path, err)
	}
	return FileInfo{
		Path:     path,
		Content:  content,
		FileType: strings.TrimPrefix(filepath.Ext(path), "."),
	}, nil
}

func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		// patterns were validated up front
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}
