// Interactive web review tool for YOLO object detection datasets: images are
// shown with their labels overlaid, and each image/label pair is sorted into a
// correct, incorrect or to_delete folder. The reviewed correct set can be
// exported to TFRecord.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sensorable/lblreview"
)

var (
	baseDirPath    string // The base directory for the validation folders.
	listenAddr     string // The HTTP listen address for the review UI.
	imageDirPath   string // Optional directory of images to preload.
	labelDirPath   string // Optional directory of YOLO label files to preload.
	classNamesPath string // Optional class names file (one name per line).
	maxDisplaySide int    // Display size limit for annotated images.

	exportTFRecord           bool   // Run the TFRecord export instead of the review UI.
	tfRecordPath             string // The TFRecord output path.
	tfRecordLabelMapFilePath string // The TFRecord label map output path.
	numShardFiles            int    // The number of shard files to create.
)

func init() {
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", filepath.Base(os.Args[0]))
		_, _ = fmt.Fprintln(os.Stderr, "  review mode:\t-base-dir <dir> [-listen <addr>]"+
			" [-images <dir> -labels <dir>] [-class-names <file>]")
		_, _ = fmt.Fprintln(os.Stderr, "  export mode:\t-base-dir <dir> -export-tfrecord"+
			" -tfrecord-out <file> -tfrecord-label-map-file <file> [-num-shards]")
		_, _ = fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}

	printUsageAndExit := func(msg ...interface{}) {
		log.Print(msg...)
		flag.Usage()
		os.Exit(1)
	}

	flag.StringVar(&baseDirPath, "base-dir", ".",
		"The base `path` under which the correct/, incorrect/ and to_delete/ folders live")
	flag.StringVar(&listenAddr, "listen", ":8077",
		"The HTTP listen `address` for the review UI")
	flag.StringVar(&imageDirPath, "images", "",
		"The `path` to a directory of images to preload into the review queue")
	flag.StringVar(&labelDirPath, "labels", "",
		"The `path` to a directory of YOLO label files to preload")
	flag.StringVar(&classNamesPath, "class-names", "",
		"The `path` to a class names file, one name per line in class id order")
	flag.IntVar(&maxDisplaySide, "max-display-side", 0,
		"Downsample annotated images so neither side exceeds this `length`"+
			" (zero keeps the original size)")

	flag.BoolVar(&exportTFRecord, "export-tfrecord", false,
		"Export the reviewed correct/ folder to TFRecord and exit")
	flag.StringVar(&tfRecordPath, "tfrecord-out", "",
		"The output `path` for the TFRecord file(s)")
	flag.StringVar(&tfRecordLabelMapFilePath, "tfrecord-label-map-file", "",
		"The output `path` for the TFRecord label map")
	flag.IntVar(&numShardFiles, "num-shards", 1,
		"The number of TFRecord shard files to create")

	flag.Parse()

	baseDirPath = filepath.Clean(baseDirPath)
	if exportTFRecord && (tfRecordPath == "" || tfRecordLabelMapFilePath == "") {
		printUsageAndExit("Missing -tfrecord-out or -tfrecord-label-map-file argument")
	}
	if labelDirPath != "" && imageDirPath == "" {
		printUsageAndExit("-labels requires -images")
	}
}

func main() {
	var catalog lblreview.ClassCatalog
	if classNamesPath != "" {
		data, err := os.ReadFile(classNamesPath)
		if err != nil {
			log.Fatal("Failed to read the class names file: ", err)
		}
		catalog = lblreview.ParseClassNames(data)
		log.Printf("Loaded %d class names", len(catalog))
	}

	if exportTFRecord {
		correctDir := filepath.Join(baseDirPath, lblreview.DecisionCorrect.Folder())
		err := lblreview.ExportTFRecord(correctDir, tfRecordPath, tfRecordLabelMapFilePath,
			catalog, numShardFiles)
		if err != nil {
			log.Fatal("TFRecord export failed: ", err)
		}
		log.Print("TFRecord export complete")
		return
	}

	persister := &lblreview.FolderPersister{BaseDir: baseDirPath}
	if err := persister.EnsureFolders(); err != nil {
		log.Fatal("Failed to create the validation folders: ", err)
	}

	session := lblreview.NewReviewSession(persister)
	session.Catalog = catalog
	session.MaxDisplaySide = maxDisplaySide

	if imageDirPath != "" {
		images, err := lblreview.LoadImageDir(imageDirPath)
		if err != nil {
			log.Fatal("Failed to load the images: ", err)
		}
		log.Printf("Queued %d images from %v", session.AddImages(images), imageDirPath)
	}
	if labelDirPath != "" {
		labels, err := lblreview.LoadLabelDir(labelDirPath)
		if err != nil {
			log.Fatal("Failed to load the labels: ", err)
		}
		log.Printf("Loaded %d label files from %v", session.AddLabels(labels), labelDirPath)
	}

	server := lblreview.NewServer(session, persister)
	if err := server.ListenAndServe(listenAddr); err != nil {
		log.Fatal("HTTP server failed: ", err)
	}
}
