package lblreview

// TFRecord export of reviewed data.
//
// After a review pass, the "correct" validation folder holds image files next to
// their YOLO label files. ExportTFRecord turns that folder into TFRecord shards
// suitable for training, plus a prototxt label map.

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/golang/protobuf/proto"
	"github.com/ryszard/tfutils/go/example"
	"github.com/ryszard/tfutils/go/tfrecord"
)

// ExportTFRecord converts the reviewed images and labels in imageDir (typically
// the "correct" validation folder) into numShards TFRecord files under recordPath
// and writes a prototxt label map to labelMapPath.
//
// Images and label files are paired by base name; labels without an image are
// skipped with a log message. Class ids come from the label files and resolve to
// names through the catalog. Ids in the record and label map are 1-based, as the
// TensorFlow object detection API expects.
func ExportTFRecord(imageDir, recordPath, labelMapPath string, catalog ClassCatalog,
	numShards int) (err error) {

	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("conversion to TensorFlow Example failed: %v", e)
		}
	}()

	if numShards <= 0 {
		numShards = 1
	}

	// Pair the label files with their images by base name.
	labelPaths, err := filesByExtInDir(imageDir, ".txt")
	if err != nil {
		return err
	}
	allPaths, err := filesByExtInDir(imageDir, "")
	if err != nil {
		return err
	}
	imagePaths := make([]string, 0, len(allPaths))
	for _, path := range allPaths {
		if isImagePath(path) {
			imagePaths = append(imagePaths, path)
		}
	}
	imageNamesToExt := mapFileNamesToExtensions(imagePaths)

	type pairedFile struct {
		imagePath string
		labelPath string
	}
	pairs := make([]pairedFile, 0, len(labelPaths))
	for _, labelPath := range labelPaths {
		_, baseNoExt, _, err := splitPath(labelPath)
		if err != nil {
			log.Print(err)
			continue
		}
		ext, found := imageNamesToExt[baseNoExt]
		if !found {
			log.Printf("No corresponding image file, skipping %q", labelPath)
			continue
		}
		pairs = append(pairs, pairedFile{
			imagePath: filepath.Join(imageDir, baseNoExt+"."+ext),
			labelPath: labelPath,
		})
	}
	log.Printf("Exporting %d reviewed files to TFRecord", len(pairs))

	fmtShardSuffix := func(idx int) string {
		return fmt.Sprintf("-%05d-of-%05d", idx, numShards)
	}

	shardSize := int(math.Ceil(float64(len(pairs)) / float64(numShards)))
	if shardSize == 0 {
		shardSize = 1
	}

	usedClassIDs := make(map[int]bool)
	var shardFile *os.File
	shardIdx := -1

	// Convert and serialize one pair at a time.
	for i, pair := range pairs {
		// Check if a new shard file needs to be opened for writing.
		if i%shardSize == 0 {
			shardIdx++
			if shardFile != nil {
				_ = shardFile.Close()
				shardFile = nil
			}

			shardPath := recordPath
			if numShards > 1 {
				shardPath += fmtShardSuffix(shardIdx)
			}
			f, err := os.Create(shardPath)
			if err != nil {
				return fmt.Errorf("failed to create shard at %q: %v", shardPath, err)
			}
			shardFile = f
		}

		features, classIDs, err := tfExampleFeatures(pair.imagePath, pair.labelPath, catalog)
		if err != nil {
			log.Printf("Failed to convert %q: %v", pair.imagePath, err)
			continue
		}
		for _, id := range classIDs {
			usedClassIDs[id] = true
		}

		encoded, err := proto.Marshal(example.New(features))
		if err != nil {
			_ = shardFile.Close()
			return fmt.Errorf("failed to serialise the example for %q: %v", pair.imagePath, err)
		}
		if err := tfrecord.Write(shardFile, encoded); err != nil {
			_ = shardFile.Close()
			return fmt.Errorf("failed to write the example for %q: %v", pair.imagePath, err)
		}
	}

	if shardFile != nil {
		if err := shardFile.Close(); err != nil {
			return err
		}
	}

	return writeLabelMap(labelMapPath, usedClassIDs, catalog)
}

// tfExampleFeatures builds the TensorFlow Example feature map for one image/label
// pair, and returns the class ids that occur in it.
func tfExampleFeatures(imagePath, labelPath string, catalog ClassCatalog) (
	map[string]interface{}, []int, error) {

	cfg, format, err := decodeImageConfig(imagePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode the image metadata: %v", err)
	}
	imgData, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read the image: %v", err)
	}
	labelData, err := os.ReadFile(labelPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read the labels: %v", err)
	}
	detections, err := ParseYOLO(string(labelData), cfg.Width, cfg.Height)
	if err != nil {
		return nil, nil, err
	}

	f := make(map[string]interface{}, 16)
	f["image/height"] = cfg.Height
	f["image/width"] = cfg.Width
	f["image/filename"] = imagePath
	f["image/source_id"] = imagePath
	f["image/encoded"] = imgData
	f["image/format"] = format

	numLabels := len(detections)
	xmins := make([]float32, numLabels)
	ymins := make([]float32, numLabels)
	xmaxs := make([]float32, numLabels)
	ymaxs := make([]float32, numLabels)
	classes := make([]string, numLabels)
	classIDs := make([]int64, numLabels)
	ids := make([]int, numLabels)
	for i, d := range detections {
		xmins[i] = float32(d.Coords[0]) / float32(cfg.Width)
		ymins[i] = float32(d.Coords[1]) / float32(cfg.Height)
		xmaxs[i] = float32(d.Coords[2]) / float32(cfg.Width)
		ymaxs[i] = float32(d.Coords[3]) / float32(cfg.Height)
		classes[i] = catalog.Name(d.ClassID)
		classIDs[i] = int64(d.ClassID) + 1
		ids[i] = d.ClassID
	}
	f["image/object/bbox/xmin"] = xmins
	f["image/object/bbox/ymin"] = ymins
	f["image/object/bbox/xmax"] = xmaxs
	f["image/object/bbox/ymax"] = ymaxs
	f["image/object/class/text"] = classes
	f["image/object/class/label"] = classIDs

	return f, ids, nil
}

// writeLabelMap writes the class ids present in the dataset, with their resolved
// names, to path in the prototxt label map format of the TensorFlow object
// detection API. The written ids are 1-based to match image/object/class/label.
func writeLabelMap(path string, classIDs map[int]bool, catalog ClassCatalog) (err error) {
	ids := make([]int, 0, len(classIDs))
	for id := range classIDs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create the label map file %q: %v", path, err)
	}
	defer closeWithErrCheck(file, &err)

	for _, id := range ids {
		_, err := fmt.Fprintf(file, "item {\n  id: %d\n  name: %q\n}\n", id+1, catalog.Name(id))
		if err != nil {
			return err
		}
	}

	return nil
}
