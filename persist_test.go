package lblreview

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureFoldersMissingBaseDir(t *testing.T) {
	p := &FolderPersister{BaseDir: filepath.Join(t.TempDir(), "does-not-exist")}
	err := p.EnsureFolders()
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not exist")
}

func TestEnsureFoldersCreatesAll(t *testing.T) {
	base := t.TempDir()
	p := &FolderPersister{BaseDir: base}
	require.NoError(t, p.EnsureFolders())

	for _, folder := range ValidationFolders() {
		info, err := os.Stat(filepath.Join(base, folder))
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}

	// Creating them again is harmless.
	require.NoError(t, p.EnsureFolders())
}

func TestPersistWritesImageAndLabel(t *testing.T) {
	base := t.TempDir()
	p := &FolderPersister{BaseDir: base}
	require.NoError(t, p.EnsureFolders())

	item := &ReviewItem{
		ID:        "img1",
		ImageName: "img1.jpg",
		ImageData: []byte("image-bytes"),
		LabelName: "img1.txt",
		LabelData: []byte("0 0.5 0.5 0.2 0.2\n"),
	}
	require.NoError(t, p.Persist(item, DecisionIncorrect))

	img, err := os.ReadFile(filepath.Join(base, "incorrect", "img1.jpg"))
	require.NoError(t, err)
	require.Equal(t, item.ImageData, img)

	label, err := os.ReadFile(filepath.Join(base, "incorrect", "img1.txt"))
	require.NoError(t, err)
	require.Equal(t, item.LabelData, label)
}

func TestPersistWithoutLabel(t *testing.T) {
	base := t.TempDir()
	p := &FolderPersister{BaseDir: base}
	require.NoError(t, p.EnsureFolders())

	item := &ReviewItem{ID: "img2", ImageName: "img2.png", ImageData: []byte{0x89}}
	require.NoError(t, p.Persist(item, DecisionToDelete))

	entries, err := os.ReadDir(filepath.Join(base, "to_delete"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "img2.png", entries[0].Name())
}

// A missing validation folder fails the write and the error names the file.
func TestPersistFailureNamesFile(t *testing.T) {
	p := &FolderPersister{BaseDir: filepath.Join(t.TempDir(), "nope")}
	item := &ReviewItem{ID: "img3", ImageName: "img3.jpg", ImageData: []byte{0x01}}

	err := p.Persist(item, DecisionCorrect)
	require.Error(t, err)
	require.Contains(t, err.Error(), "img3.jpg")
}

func TestPersistOverwritesSilently(t *testing.T) {
	base := t.TempDir()
	p := &FolderPersister{BaseDir: base}
	require.NoError(t, p.EnsureFolders())

	item := &ReviewItem{ID: "img4", ImageName: "img4.jpg", ImageData: []byte("first")}
	require.NoError(t, p.Persist(item, DecisionCorrect))
	item.ImageData = []byte("second")
	require.NoError(t, p.Persist(item, DecisionCorrect))

	data, err := os.ReadFile(filepath.Join(base, "correct", "img4.jpg"))
	require.NoError(t, err)
	require.Equal(t, []byte("second"), data)
}
