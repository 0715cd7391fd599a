package model

import "context"

// IDAttribute is the primary key attribute of every entry.
const IDAttribute = "id"

// Entry is one record in the backing table, keyed by its "id" attribute.
type Entry map[string]any

// ID returns the entry's primary key, or "" when it is absent or not a string.
func (e Entry) ID() string {
	id, _ := e[IDAttribute].(string)
	return id
}

// ActionType names the operation that produced an Event.
type ActionType string

const (
	ActionGet    ActionType = "get"
	ActionCreate ActionType = "create"
	ActionUpdate ActionType = "update"
	ActionDelete ActionType = "delete"
)

// Event is passed to the Callback after a successful operation.
type Event struct {
	ID         string     `json:"id"`
	ActionType ActionType `json:"actionType"`
	ModelName  string     `json:"modelName"`
	TableName  string     `json:"tableName"`
}

// Callback is invoked after every successful get, create, update and delete.
// A returned error becomes the result of the operation that triggered it.
type Callback func(ctx context.Context, ev Event) error

// Chain runs callbacks in order and stops at the first error.
func Chain(callbacks ...Callback) Callback {
	return func(ctx context.Context, ev Event) error {
		for _, cb := range callbacks {
			if cb == nil {
				continue
			}
			if err := cb(ctx, ev); err != nil {
				return err
			}
		}
		return nil
	}
}

// GetInput identifies the entry to read.
type GetInput struct {
	ID string

	// Fields is a compact projection such as "id,name,address(city)".
	// Empty means all fields.
	Fields string
}

// CreateInput describes a new entry.
type CreateInput struct {
	// ID is the new entry's id. When empty, Config.NewID generates one.
	ID     string
	Data   Entry
	Fields string
}

// UpdateInput describes a partial update of an existing entry.
type UpdateInput struct {
	ID string

	// Data holds the attributes to set. Attributes with a nil value are
	// skipped, never removed.
	Data   Entry
	Fields string
}

// DeleteInput identifies the entry to remove.
type DeleteInput struct {
	ID string
}

// ListInput queries a secondary index by equality on its key attributes.
type ListInput struct {
	// IndexName is the GSI/LSI to query. Empty queries the table itself.
	IndexName string

	// IndexMap maps index key attribute names to the values they must equal.
	IndexMap map[string]any
	Fields   string
}
