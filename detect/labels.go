package detect

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadLabels reads the labels used to train the detector model from the
// given text file.  It should contain one label per line.
func LoadLabels(file string) ([]string, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	scanner := bufio.NewScanner(f)

	var labels []string

	for scanner.Scan() {
		labels = append(labels, strings.TrimSpace(scanner.Text()))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return labels, nil
}

// LabelMap maps a detector's numeric class ids onto Classes using the label
// text at each line of the model labels file
type LabelMap []Class

// NewLabelMap creates a LabelMap from the model labels
func NewLabelMap(labels []string) LabelMap {

	m := make(LabelMap, len(labels))

	for i, label := range labels {
		m[i] = ParseClass(label)
	}

	return m
}

// Class returns the Class for the numeric class id, or Unknown if the id is
// out of range
func (m LabelMap) Class(id int) Class {
	if id < 0 || id >= len(m) {
		return Unknown
	}
	return m[id]
}
