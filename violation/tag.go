package violation

import (
	"fmt"
	"strings"
)

// Kind identifies the rule a vehicle has broken
type Kind int

const (
	Speeding Kind = iota + 1
	LaneCrossing
	TripleRiding
	CriminalVehicle
)

// String returns the display name of the violation kind
func (k Kind) String() string {
	switch k {
	case Speeding:
		return "Speeding"
	case LaneCrossing:
		return "Lane Crossing"
	case TripleRiding:
		return "Triple Riding"
	case CriminalVehicle:
		return "Criminal Vehicle"
	}
	return "Unknown"
}

// Tag is a single violation.  Speed and Limit are only set for Speeding
type Tag struct {
	Kind  Kind
	Speed float64
	Limit float64
}

// String renders the tag as written to records
func (t Tag) String() string {
	if t.Kind == Speeding {
		return fmt.Sprintf("Speeding: %.1f km/h (> %g km/h)", t.Speed, t.Limit)
	}
	return t.Kind.String()
}

// MarshalText encodes the tag as its record text
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tag from its record text
func (t *Tag) UnmarshalText(text []byte) error {
	tag, err := ParseTag(string(text))
	if err != nil {
		return err
	}
	*t = tag
	return nil
}

// ParseTag decodes a tag from its record text
func ParseTag(text string) (Tag, error) {

	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "Speeding") {
		var tag Tag

		_, err := fmt.Sscanf(text, "Speeding: %g km/h (> %g km/h)", &tag.Speed, &tag.Limit)
		if err != nil {
			return Tag{}, fmt.Errorf("invalid speeding tag %q: %w", text, err)
		}

		tag.Kind = Speeding
		return tag, nil
	}

	for _, k := range []Kind{LaneCrossing, TripleRiding, CriminalVehicle} {
		if text == k.String() {
			return Tag{Kind: k}, nil
		}
	}

	return Tag{}, fmt.Errorf("unknown violation tag %q", text)
}

// Set is an ordered list of violations
type Set []Tag

// Has reports whether the set carries a violation of the given kind
func (s Set) Has(kind Kind) bool {
	for _, t := range s {
		if t.Kind == kind {
			return true
		}
	}
	return false
}

// With returns a copy of the set with tag appended unless a violation of the
// same kind is already present
func (s Set) With(tag Tag) Set {

	res := make(Set, len(s), len(s)+1)
	copy(res, s)

	if s.Has(tag.Kind) {
		return res
	}

	return append(res, tag)
}

// Strings returns the record text of each tag
func (s Set) Strings() []string {

	res := make([]string, len(s))

	for i, t := range s {
		res[i] = t.String()
	}

	return res
}

// String joins the tags with semicolons, or returns "None" for an empty set
func (s Set) String() string {
	if len(s) == 0 {
		return "None"
	}
	return strings.Join(s.Strings(), ";")
}

// ParseSet decodes a semicolon joined list of tags.  "None" and empty text
// give an empty set, unrecognised tags are skipped
func ParseSet(text string) Set {

	if text == "" || text == "None" {
		return nil
	}

	var res Set

	for _, part := range strings.Split(text, ";") {
		if tag, err := ParseTag(part); err == nil {
			res = append(res, tag)
		}
	}

	return res
}
