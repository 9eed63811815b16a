package lblreview

// Class catalog handling.

import (
	"fmt"
	"strings"
)

// ClassCatalog is an ordered list of class names; the position in the list is the
// class id. It may be empty, in which case all names are synthesized.
type ClassCatalog []string

// ParseClassNames parses a class names file: one name per line, in class id order.
// A trailing newline does not produce an extra empty class.
func ParseClassNames(data []byte) ClassCatalog {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return ClassCatalog(lines)
}

// Name resolves a class id to its catalog name. Ids outside the catalog, including
// negative ids from malformed label files, get a synthesized "Class {id}" name.
func (c ClassCatalog) Name(classID int) string {
	if classID >= 0 && classID < len(c) {
		return c[classID]
	}
	return fmt.Sprintf("Class %d", classID)
}
