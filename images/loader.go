package images

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// ImageFile represents an image file found on disk.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Format is inferred from the file extension.
	Format ImageFormat
}

// LoadDirectory lists the decodable image files in dir (non-recursive), sorted by path.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: One entry per recognised image file.
// - error: Error if the directory cannot be read.
func LoadDirectory(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read directory %s", dir)
	}

	var files []ImageFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		format, err := FormatFromPath(path)
		if err != nil {
			continue
		}
		files = append(files, ImageFile{Path: path, Format: format})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return files, nil
}
