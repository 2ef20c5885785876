package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// ConsistencyError signals that stored data references a parent entity that no longer exists.
// It is never repaired, only reported.
type ConsistencyError struct {
	Entity string
	ID     string
	Ref    string
	RefID  string
}

func NewConsistencyError(entity, id, ref, refID string) error {
	return &ConsistencyError{Entity: entity, ID: id, Ref: ref, RefID: refID}
}

func (err ConsistencyError) Error() string {
	return fmt.Sprintf("%s with id %s has %sId %s but no such %s exists", err.Entity, err.ID, err.Ref, err.RefID, err.Ref)
}

func IsConsistencyError(err error) bool {
	_, ok := errors.Cause(err).(*ConsistencyError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
