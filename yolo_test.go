package lblreview

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseYOLO(t *testing.T) {
	detections, err := ParseYOLO("0 0.5 0.5 0.2 0.4", 100, 100)
	require.NoError(t, err)
	require.Len(t, detections, 1)
	require.Equal(t, 0, detections[0].ClassID)
	require.Equal(t, [4]int{40, 30, 60, 70}, detections[0].Coords)
}

func TestParseYOLOPreservesLineOrder(t *testing.T) {
	content := "2 0.5 0.5 0.2 0.2\n0 0.25 0.25 0.1 0.1\n1 0.75 0.75 0.1 0.1\n"
	detections, err := ParseYOLO(content, 200, 200)
	require.NoError(t, err)
	require.Len(t, detections, 3)
	require.Equal(t, 2, detections[0].ClassID)
	require.Equal(t, 0, detections[1].ClassID)
	require.Equal(t, 1, detections[2].ClassID)
}

func TestParseYOLOEmptyInput(t *testing.T) {
	for _, content := range []string{"", "\n", "\n\n", "  \n\t\n"} {
		detections, err := ParseYOLO(content, 100, 100)
		require.NoError(t, err, "content %q", content)
		require.Empty(t, detections, "content %q", content)
	}
}

func TestParseYOLOMissingField(t *testing.T) {
	detections, err := ParseYOLO("0 0.5 0.5 0.2", 100, 100)
	require.Error(t, err)
	require.Nil(t, detections)

	var malformed *MalformedLineError
	require.True(t, errors.As(err, &malformed))
	require.Equal(t, 1, malformed.Line)
}

func TestParseYOLONonNumericToken(t *testing.T) {
	_, err := ParseYOLO("0 0.5 0.5 0.2 0.4\nperson 0.5 0.5 0.2 0.4", 100, 100)
	require.Error(t, err)

	var malformed *MalformedLineError
	require.True(t, errors.As(err, &malformed))
	require.Equal(t, 2, malformed.Line)
}

// One malformed line fails the whole file, with no partial results.
func TestParseYOLONoPartialResults(t *testing.T) {
	detections, err := ParseYOLO("0 0.5 0.5 0.2 0.4\n1 2 3\n0 0.1 0.1 0.1 0.1", 100, 100)
	require.Error(t, err)
	require.Nil(t, detections)
}

func TestParseYOLOTruncatesClassID(t *testing.T) {
	detections, err := ParseYOLO("1.9 0.5 0.5 0.2 0.2", 100, 100)
	require.NoError(t, err)
	require.Equal(t, 1, detections[0].ClassID)
}

// Decoding and re-encoding recovers each box corner to within one pixel; the
// pixel conversion truncates, so exact recovery is not guaranteed.
func TestParseYOLORoundTrip(t *testing.T) {
	content := "0 0.5 0.5 0.2 0.4\n3 0.1 0.9 0.15 0.05\n7 0.33 0.66 0.4 0.21\n"
	const width, height = 640, 480

	first, err := ParseYOLO(content, width, height)
	require.NoError(t, err)

	second, err := ParseYOLO(FormatYOLO(first, width, height), width, height)
	require.NoError(t, err)
	require.Len(t, second, len(first))

	for i := range first {
		require.Equal(t, first[i].ClassID, second[i].ClassID)
		for j := 0; j < 4; j++ {
			diff := first[i].Coords[j] - second[i].Coords[j]
			if diff < 0 {
				diff = -diff
			}
			require.LessOrEqual(t, diff, 1,
				fmt.Sprintf("detection %d coord %d: %v vs %v", i, j, first[i].Coords, second[i].Coords))
		}
	}
}

func TestParseClassNames(t *testing.T) {
	catalog := ParseClassNames([]byte("person\ncar\nbicycle\n"))
	require.Equal(t, ClassCatalog{"person", "car", "bicycle"}, catalog)

	require.Empty(t, ParseClassNames([]byte("")))
	require.Equal(t, ClassCatalog{"person"}, ParseClassNames([]byte("person")))
	require.Equal(t, ClassCatalog{"person", "car"}, ParseClassNames([]byte("person\r\ncar\r\n")))
}

func TestClassCatalogName(t *testing.T) {
	catalog := ClassCatalog{"person", "car"}
	require.Equal(t, "person", catalog.Name(0))
	require.Equal(t, "car", catalog.Name(1))
	require.Equal(t, "Class 2", catalog.Name(2))
	require.Equal(t, "Class -1", catalog.Name(-1))

	var empty ClassCatalog
	require.Equal(t, "Class 0", empty.Name(0))
}
