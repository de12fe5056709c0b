package screenshot

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	DefaultPattern = "selenium-screenshot-"
	Extension      = ".png"
)

var ErrNotFound = errors.New("no screenshots found matching the pattern")

type NotFoundError struct {
	Directory string
	Pattern   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s*%s in %s", ErrNotFound, e.Pattern, Extension, e.Directory)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

type Locator struct {
	fs afero.Fs
}

func NewLocator(fs afero.Fs) *Locator {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Locator{fs: fs}
}

// FindLatest looks up the newest screenshot in directory on the OS filesystem.
func FindLatest(directory, pattern string) (string, error) {
	return NewLocator(nil).FindLatest(directory, pattern)
}

// FindLatest returns the path of the most recently modified regular file directly
// inside directory whose name starts with pattern and ends in ".png". Both checks
// are case-sensitive. An empty pattern matches every ".png" file.
//
// When several matches share the newest modification time, the one listed first
// (entries are listed in name order) is returned. Callers should not rely on this.
func (l *Locator) FindLatest(directory, pattern string) (string, error) {
	entries, err := afero.ReadDir(l.fs, directory)
	if err != nil {
		return "", fmt.Errorf("list screenshots: %w", err)
	}

	latest := -1
	for i, entry := range entries {
		if entry.IsDir() || !matches(entry.Name(), pattern) {
			continue
		}
		if latest < 0 || entry.ModTime().After(entries[latest].ModTime()) {
			latest = i
		}
	}
	if latest < 0 {
		return "", &NotFoundError{Directory: directory, Pattern: pattern}
	}

	return filepath.Join(directory, entries[latest].Name()), nil
}

func matches(name, pattern string) bool {
	return strings.HasPrefix(name, pattern) && filepath.Ext(name) == Extension
}
