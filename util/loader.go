// Package util provides filesystem helpers shared by the dataset and image loaders.
package util

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
}

// Entry is one immediate child of a directory.
type Entry struct {
	// Name is the base name of the entry.
	Name string
	// IsDir reports whether the entry is a directory, following symlinks.
	IsDir bool
	// Size is the size in bytes reported by the filesystem.
	Size int64
}

// ReadDirSorted lists the immediate children of a directory.
//
// Entries are sorted by name in ascending byte order. Symlinks are resolved
// with Stat so a link to a directory is reported as a directory; a dangling
// link is reported as a plain file.
//
// Arguments:
// - fs: Filesystem to read from.
// - dir: Directory path.
//
// Returns:
// - []Entry: The sorted entries.
// - error: Error if the directory cannot be read.
func ReadDirSorted(fs afero.Fs, dir string) ([]Entry, error) {
	f, err := fs.Open(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read directory %q", dir)
	}
	infos, err := f.Readdir(-1)
	f.Close()
	if err != nil {
		return nil, errors.Wrapf(err, "read directory %q", dir)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entry := Entry{
			Name:  info.Name(),
			IsDir: info.IsDir(),
			Size:  info.Size(),
		}
		if info.Mode()&os.ModeSymlink != 0 {
			if target, statErr := fs.Stat(filepath.Join(dir, info.Name())); statErr == nil {
				entry.IsDir = target.IsDir()
				entry.Size = target.Size()
			}
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	return entries, nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(fs afero.Fs, path string) (bool, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// HasExtension reports whether name ends in one of the given extensions.
// Comparison is case-insensitive and an empty list matches every name.
func HasExtension(name string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// ReadImageFile reads the raw bytes of an image file.
//
// Arguments:
// - fs: Filesystem to read from.
// - path: Path to the image file.
//
// Returns:
// - *ImageFile: The file path and its contents.
// - error: Error if the file cannot be read.
func ReadImageFile(fs afero.Fs, path string) (*ImageFile, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "read image file %q", path)
	}
	return &ImageFile{Path: path, Data: data}, nil
}
