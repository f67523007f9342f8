package trafficwatch

import (
	"errors"
	"fmt"

	"github.com/swdee/go-trafficwatch/detect"
	"github.com/swdee/go-trafficwatch/record"
)

var (
	// ErrCollaborator is wrapped by all detector, OCR and database failures
	ErrCollaborator = errors.New("collaborator failure")
	// ErrInvalidGeometry is wrapped by errors for malformed boxes
	ErrInvalidGeometry = detect.ErrInvalidGeometry
	// ErrPersistence is wrapped by record write failures
	ErrPersistence = record.ErrPersistence
)

// CollaboratorError records which collaborator failed
type CollaboratorError struct {
	Component string
	Err       error
}

// Error returns the error message
func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrCollaborator, e.Component, e.Err)
}

// Unwrap returns the causes, ErrCollaborator and the collaborator's error
func (e *CollaboratorError) Unwrap() []error {
	return []error{ErrCollaborator, e.Err}
}
