package lblreview

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/protobuf/proto"
	"github.com/ryszard/tfutils/go/tfrecord"
	"github.com/ryszard/tfutils/proto/tensorflow/core/example" // package tensorflow
	"github.com/stretchr/testify/require"
)

// writeReviewedPair puts an image and its label file into dir, the way a review
// pass leaves them in the correct folder.
func writeReviewedPair(t *testing.T, dir, base, labels string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, base+".png"), testPNG(t, 100, 100), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, base+".txt"), []byte(labels), 0644))
}

func readAllExamples(t *testing.T, path string) []*tensorflow.Example {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var examples []*tensorflow.Example
	for {
		data, err := tfrecord.Read(f)
		if err == io.EOF {
			return examples
		}
		require.NoError(t, err)

		e := &tensorflow.Example{}
		require.NoError(t, proto.Unmarshal(data, e))
		examples = append(examples, e)
	}
}

func TestExportTFRecord(t *testing.T) {
	dir := t.TempDir()
	writeReviewedPair(t, dir, "img1", "0 0.5 0.5 0.2 0.4\n")
	writeReviewedPair(t, dir, "img2", "1 0.25 0.25 0.1 0.1\n2 0.75 0.75 0.2 0.2\n")
	// A label file without an image is skipped.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orphan.txt"), []byte("0 0.5 0.5 0.1 0.1\n"), 0644))

	recordPath := filepath.Join(t.TempDir(), "reviewed.tfrecord")
	labelMapPath := filepath.Join(filepath.Dir(recordPath), "label_map.pbtxt")
	catalog := ClassCatalog{"person", "car", "bike"}

	require.NoError(t, ExportTFRecord(dir, recordPath, labelMapPath, catalog, 1))

	examples := readAllExamples(t, recordPath)
	require.Len(t, examples, 2)

	features := examples[0].GetFeatures().GetFeature()
	require.Equal(t, []int64{100}, features["image/height"].GetInt64List().Value)
	require.Equal(t, []int64{100}, features["image/width"].GetInt64List().Value)
	require.Equal(t, [][]byte{[]byte("png")}, features["image/format"].GetBytesList().Value)
	require.NotEmpty(t, features["image/encoded"].GetBytesList().Value)

	// One detection for class 0: normalized corners of a 20x40 box at the center,
	// class id written 1-based.
	require.Equal(t, []float32{0.4}, features["image/object/bbox/xmin"].GetFloatList().Value)
	require.Equal(t, []float32{0.3}, features["image/object/bbox/ymin"].GetFloatList().Value)
	require.Equal(t, []float32{0.6}, features["image/object/bbox/xmax"].GetFloatList().Value)
	require.Equal(t, []float32{0.7}, features["image/object/bbox/ymax"].GetFloatList().Value)
	require.Equal(t, [][]byte{[]byte("person")}, features["image/object/class/text"].GetBytesList().Value)
	require.Equal(t, []int64{1}, features["image/object/class/label"].GetInt64List().Value)

	second := examples[1].GetFeatures().GetFeature()
	require.Equal(t, []int64{2, 3}, second["image/object/class/label"].GetInt64List().Value)

	// The label map lists only the classes that occur, sorted, with 1-based ids.
	labelMap, err := os.ReadFile(labelMapPath)
	require.NoError(t, err)
	require.Equal(t,
		"item {\n  id: 1\n  name: \"person\"\n}\n"+
			"item {\n  id: 2\n  name: \"car\"\n}\n"+
			"item {\n  id: 3\n  name: \"bike\"\n}\n",
		string(labelMap))
}

func TestExportTFRecordSharded(t *testing.T) {
	dir := t.TempDir()
	for _, base := range []string{"a", "b", "c"} {
		writeReviewedPair(t, dir, base, "0 0.5 0.5 0.2 0.2\n")
	}

	out := t.TempDir()
	recordPath := filepath.Join(out, "reviewed.tfrecord")
	labelMapPath := filepath.Join(out, "label_map.pbtxt")

	require.NoError(t, ExportTFRecord(dir, recordPath, labelMapPath, ClassCatalog{"person"}, 2))

	first := readAllExamples(t, recordPath+"-00000-of-00002")
	second := readAllExamples(t, recordPath+"-00001-of-00002")
	require.Len(t, first, 2)
	require.Len(t, second, 1)
}

func TestExportTFRecordClassNameFallback(t *testing.T) {
	dir := t.TempDir()
	writeReviewedPair(t, dir, "img1", "7 0.5 0.5 0.2 0.2\n")

	out := t.TempDir()
	recordPath := filepath.Join(out, "reviewed.tfrecord")
	labelMapPath := filepath.Join(out, "label_map.pbtxt")

	require.NoError(t, ExportTFRecord(dir, recordPath, labelMapPath, nil, 1))

	labelMap, err := os.ReadFile(labelMapPath)
	require.NoError(t, err)
	require.Equal(t, "item {\n  id: 8\n  name: \"Class 7\"\n}\n", string(labelMap))
}
