package record

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultCSVPath is the default file records are appended to
const DefaultCSVPath = "detected_license_plates.csv"

// CSVSink appends records to a CSV file.  The header row is written when the
// file is first created
type CSVSink struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	writer *csv.Writer
}

// NewCSVSink opens the file for appending, creating it and any parent
// directories as needed
func NewCSVSink(path string) (*CSVSink, error) {

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating record directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)

	if err != nil {
		return nil, fmt.Errorf("error opening record file: %w", err)
	}

	info, err := file.Stat()

	if err != nil {
		file.Close()
		return nil, fmt.Errorf("error reading record file: %w", err)
	}

	s := &CSVSink{
		path:   path,
		file:   file,
		writer: csv.NewWriter(file),
	}

	if info.Size() == 0 {
		if err := s.writeRow(Header); err != nil {
			file.Close()
			return nil, fmt.Errorf("error writing record header: %w", err)
		}
	}

	return s, nil
}

// Name returns the sink name
func (s *CSVSink) Name() string {
	return "csv"
}

// Path returns the file being written
func (s *CSVSink) Path() string {
	return s.path
}

// Write appends the record and flushes it to the file
func (s *CSVSink) Write(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeRow(rec.Fields())
}

// Close flushes and closes the file
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writer.Flush()

	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}

	return s.file.Close()
}

func (s *CSVSink) writeRow(row []string) error {

	if err := s.writer.Write(row); err != nil {
		return err
	}

	s.writer.Flush()
	return s.writer.Error()
}
