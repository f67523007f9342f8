// Package plate handles license plate readings from the OCR collaborator.  It
// normalizes and filters plate text, suppresses repeated readings within a
// cooldown, associates readings with tracked vehicles and holds the set of
// plates flagged as criminal.
package plate

import (
	"strings"
	"unicode"

	"github.com/swdee/go-trafficwatch/detect"
)

// DefaultMinLength is the shortest plate text accepted
const DefaultMinLength = 4

// Reading is a single OCR result for a plate region in a frame
type Reading struct {
	// Box is the plate region in the frame
	Box detect.Box
	// Text is the recognised plate text
	Text string
	// Confidence is the OCR confidence in [0,1]
	Confidence float64
}

// Normalize uppercases plate text and strips all whitespace
func Normalize(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, text)
}

// Plausible reports whether normalized text has at least minLength characters
// with at least one letter or digit
func Plausible(text string, minLength int) bool {

	if len([]rune(text)) < minLength {
		return false
	}

	return strings.IndexFunc(text, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

// Filter normalizes the text of each reading and drops readings with
// implausible text or a malformed box
func Filter(readings []Reading, minLength int) []Reading {

	var res []Reading

	for _, r := range readings {
		if !r.Box.Valid() {
			continue
		}

		r.Text = Normalize(r.Text)

		if !Plausible(r.Text, minLength) {
			continue
		}

		res = append(res, r)
	}

	return res
}
