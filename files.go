package lblreview

// Loading image and label files from directories into a review session.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NamedFile is an uploaded or loaded file: its original name plus raw bytes.
type NamedFile struct {
	Name string
	Data []byte
}

// isImagePath reports whether path has one of the reviewable image extensions.
func isImagePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// LoadImageDir reads all jpg, jpeg and png files found directly in dirPath.
func LoadImageDir(dirPath string) ([]NamedFile, error) {
	paths, err := filesByExtInDir(dirPath, "")
	if err != nil {
		return nil, err
	}

	files := make([]NamedFile, 0, len(paths))
	for _, path := range paths {
		if !isImagePath(path) {
			continue
		}
		file, err := loadNamedFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	return files, nil
}

// LoadLabelDir reads all .txt label files found directly in dirPath.
func LoadLabelDir(dirPath string) ([]NamedFile, error) {
	paths, err := filesByExtInDir(dirPath, ".txt")
	if err != nil {
		return nil, err
	}

	files := make([]NamedFile, 0, len(paths))
	for _, path := range paths {
		file, err := loadNamedFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	return files, nil
}

func loadNamedFile(path string) (NamedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return NamedFile{}, fmt.Errorf("cannot read file %q: %v", path, err)
	}
	return NamedFile{Name: filepath.Base(path), Data: data}, nil
}
