package model

import "github.com/google/uuid"

// Config holds configuration for an EntryModel.
type Config struct {
	// ModelName identifies the entity type in events and errors. Required.
	ModelName string

	// TableName is the DynamoDB table holding the entries. Required.
	TableName string

	// Errors builds the not-found and already-exists errors.
	// Default: DefaultErrors(ModelName)
	Errors ErrorMap

	// Callback is notified after each successful operation. Optional.
	Callback Callback

	// Codec converts entries to and from DynamoDB items.
	// Default: DefaultCodec()
	Codec Codec

	// NewID generates ids for Create calls without one.
	// Default: uuid.NewString
	NewID func() string
}

// applyDefaults fills optional collaborators. Required values are left
// untouched so that validate reports them on every call.
func (c *Config) applyDefaults() {
	if c.Errors == nil {
		c.Errors = DefaultErrors(c.ModelName)
	}
	if c.Codec == nil {
		c.Codec = DefaultCodec()
	}
	if c.NewID == nil {
		c.NewID = uuid.NewString
	}
}

// validate ensures the required values are present.
func (c *Config) validate() error {
	if c.ModelName == "" {
		return &MissingConfigurationError{Key: "modelName"}
	}
	if c.TableName == "" {
		return &MissingConfigurationError{Key: "tableName"}
	}
	return nil
}
