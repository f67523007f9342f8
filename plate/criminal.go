package plate

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// CriminalSet is the set of normalized plate texts flagged as criminal.  It
// is safe for concurrent use
type CriminalSet struct {
	mu     sync.RWMutex
	plates map[string]struct{}
}

// NewCriminalSet returns a set holding the given plates
func NewCriminalSet(plates ...string) *CriminalSet {

	s := &CriminalSet{
		plates: make(map[string]struct{}, len(plates)),
	}

	s.Add(plates...)
	return s
}

// Add inserts plates into the set after normalizing them.  Empty text is
// ignored
func (s *CriminalSet) Add(plates ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range plates {
		if p = Normalize(p); p != "" {
			s.plates[p] = struct{}{}
		}
	}
}

// Contains reports whether the plate text is flagged
func (s *CriminalSet) Contains(plate string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.plates[Normalize(plate)]
	return ok
}

// Len returns the number of flagged plates
func (s *CriminalSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.plates)
}

// LoadCriminalCSV reads a CSV file whose first column holds plate numbers
func LoadCriminalCSV(file string) (*CriminalSet, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening criminal plates file: %w", err)
	}

	defer f.Close()

	return ReadCriminalCSV(f)
}

// ReadCriminalCSV reads plate numbers from the first column of CSV rows.
// Empty rows are skipped
func ReadCriminalCSV(r io.Reader) (*CriminalSet, error) {

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	set := NewCriminalSet()

	for {
		row, err := reader.Read()

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("error reading criminal plates: %w", err)
		}

		if len(row) == 0 {
			continue
		}

		set.Add(strings.TrimSpace(row[0]))
	}

	return set, nil
}
