package lblreview

// Filesystem persistence of review decisions.

import (
	"fmt"
	"os"
	"path/filepath"
)

// ValidationFolders lists the folder names created under the base directory, one
// per decision.
func ValidationFolders() []string {
	return []string{
		DecisionCorrect.Folder(),
		DecisionIncorrect.Folder(),
		DecisionToDelete.Folder(),
	}
}

// FolderPersister sorts reviewed files into decision folders under BaseDir.
//
// The folders are created by EnsureFolders, not lazily by Persist: a submit
// against a missing folder fails with a write error and leaves the queue
// untouched, rather than silently creating directories under a mistyped path.
type FolderPersister struct {
	BaseDir string
}

// EnsureFolders creates the three validation folders under the base directory.
// The base directory itself must already exist.
func (p *FolderPersister) EnsureFolders() error {
	info, err := os.Stat(p.BaseDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("the base directory %q does not exist", p.BaseDir)
	}
	for _, folder := range ValidationFolders() {
		if err := os.MkdirAll(filepath.Join(p.BaseDir, folder), 0755); err != nil {
			return fmt.Errorf("failed to create validation folder %q: %v", folder, err)
		}
	}
	return nil
}

// Persist writes the item's image bytes and, when present, its label bytes
// unmodified into the folder for the decision, keeping the original file names.
// Existing files with the same name are overwritten.
//
// The error, if any, names the file that failed, so a label write failure after a
// successful image write is never silent.
func (p *FolderPersister) Persist(item *ReviewItem, decision Decision) error {
	dir := filepath.Join(p.BaseDir, decision.Folder())

	if err := writeFile(filepath.Join(dir, item.ImageName), item.ImageData); err != nil {
		return fmt.Errorf("failed to write image %q: %v", item.ImageName, err)
	}
	if item.LabelData != nil {
		if err := writeFile(filepath.Join(dir, item.LabelName), item.LabelData); err != nil {
			return fmt.Errorf("image %q was written, but failed to write label %q: %v",
				item.ImageName, item.LabelName, err)
		}
	}
	return nil
}

// writeFile creates (or truncates) the file at path and writes data to it. The
// file handle is closed on all paths, and a close error is reported when the write
// itself succeeded.
func writeFile(path string, data []byte) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeWithErrCheck(f, &err)

	_, err = f.Write(data)
	return err
}
