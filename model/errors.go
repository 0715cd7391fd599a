package model

import (
	"errors"
	"fmt"
)

var (
	// ErrEntryNotFound is returned when no entry exists at the requested id.
	ErrEntryNotFound = errors.New("entrymodel: entry not found")

	// ErrEntryExists is returned when creating an entry whose id is already taken.
	ErrEntryExists = errors.New("entrymodel: entry already exists")

	// ErrMissingConfiguration is returned when the model name or table name is empty.
	ErrMissingConfiguration = errors.New("entrymodel: missing required configuration")

	// ErrCannotUpdatePrimaryKey is returned when update data tries to change the id.
	ErrCannotUpdatePrimaryKey = errors.New("entrymodel: cannot update primary key attribute")

	// ErrGeneratedIDMismatch is returned when an id was generated but the data
	// carries a non-string id.
	ErrGeneratedIDMismatch = errors.New("entrymodel: generated id does not match the provided id")

	// ErrUnableToGenerateID is returned when the id generator produces an empty id.
	ErrUnableToGenerateID = errors.New("entrymodel: failed to generate id")

	// ErrEmptyIndexMap is returned when List is called without any index key.
	ErrEmptyIndexMap = errors.New("entrymodel: list requires at least one index key")
)

// EntryNotFoundError reports a get, update or delete against a missing entry.
type EntryNotFoundError struct {
	Model string
	ID    string
}

func (e *EntryNotFoundError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("entrymodel: entry %q not found", e.ID)
	}
	return fmt.Sprintf("entrymodel: %s entry %q not found", e.Model, e.ID)
}

func (e *EntryNotFoundError) Is(target error) bool {
	return target == ErrEntryNotFound
}

// EntryExistsError reports a create against an id that is already taken.
type EntryExistsError struct {
	Model string
	ID    string
}

func (e *EntryExistsError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("entrymodel: entry %q already exists", e.ID)
	}
	return fmt.Sprintf("entrymodel: %s entry %q already exists", e.Model, e.ID)
}

func (e *EntryExistsError) Is(target error) bool {
	return target == ErrEntryExists
}

// MissingConfigurationError names the configuration key that was empty.
type MissingConfigurationError struct {
	Key string
}

func (e *MissingConfigurationError) Error() string {
	return fmt.Sprintf("entrymodel: missing required value: %s", e.Key)
}

func (e *MissingConfigurationError) Is(target error) bool {
	return target == ErrMissingConfiguration
}

// ErrorMap builds the errors returned for failed existence preconditions.
// Supply one in Config to replace the default error types.
type ErrorMap interface {
	NotFound(id string) error
	Exists(id string) error
}

// DefaultErrors returns the ErrorMap used when Config.Errors is nil.
func DefaultErrors(modelName string) ErrorMap {
	return defaultErrors{model: modelName}
}

type defaultErrors struct {
	model string
}

func (d defaultErrors) NotFound(id string) error {
	return &EntryNotFoundError{Model: d.model, ID: id}
}

func (d defaultErrors) Exists(id string) error {
	return &EntryExistsError{Model: d.model, ID: id}
}

// ErrorFuncs adapts plain functions to ErrorMap. A nil function falls back to
// the default error type for that case, carrying Model, so either constructor
// can be overridden on its own.
type ErrorFuncs struct {
	Model        string
	NotFoundFunc func(id string) error
	ExistsFunc   func(id string) error
}

func (f ErrorFuncs) NotFound(id string) error {
	if f.NotFoundFunc == nil {
		return &EntryNotFoundError{Model: f.Model, ID: id}
	}
	return f.NotFoundFunc(id)
}

func (f ErrorFuncs) Exists(id string) error {
	if f.ExistsFunc == nil {
		return &EntryExistsError{Model: f.Model, ID: id}
	}
	return f.ExistsFunc(id)
}

// IsNotFound reports whether err is, or wraps, ErrEntryNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntryNotFound)
}

// IsExists reports whether err is, or wraps, ErrEntryExists.
func IsExists(err error) bool {
	return errors.Is(err, ErrEntryExists)
}
