// Package model provides a typed CRUD accessor over a DynamoDB table.
//
// An [EntryModel] is bound to one table and one entity type. It exposes five
// operations that translate directly into DynamoDB item calls:
//
//   - [EntryModel.Get] - consistent GetItem with optional projection
//   - [EntryModel.Create] - conditional PutItem, fails if the id exists
//   - [EntryModel.Update] - conditional UpdateItem, fails if the id is missing
//   - [EntryModel.Delete] - conditional DeleteItem, fails if the id is missing
//   - [EntryModel.List] - Query on a secondary index by key equality
//
// Existence is enforced by DynamoDB condition expressions, never by a read
// followed by a write, so concurrent callers can share one model.
//
// # Usage
//
//	users := model.New(ddb, model.Config{
//	    ModelName: "user",
//	    TableName: "users",
//	})
//
//	entry, err := users.Create(ctx, model.CreateInput{
//	    ID:   "u1",
//	    Data: model.Entry{"name": "Ada", "email": "ada@example.com"},
//	})
//
//	entry, err = users.Get(ctx, model.GetInput{ID: "u1", Fields: "id,name"})
//
//	entries, err := users.List(ctx, model.ListInput{
//	    IndexName: "email-index",
//	    IndexMap:  map[string]any{"email": "ada@example.com"},
//	})
//
// # Fields
//
// Projections use a compact syntax where nested attributes are grouped with
// parentheses: "id,name,address(street,city)". Every attribute name is
// aliased, so reserved words such as "name" or "status" need no escaping.
//
// # Callbacks
//
// [Config.Callback] is invoked after every successful Get, Create, Update and
// Delete with the entry id and the action. Create and Update read the entry
// back through Get, so they notify twice: once for the write and once for the
// read. List does not notify. An error returned by the callback is returned by
// the operation.
//
// # Errors
//
//   - [ErrEntryNotFound] - get, update or delete of a missing id
//   - [ErrEntryExists] - create of an id that is taken
//   - [ErrMissingConfiguration] - empty model name or table name, checked on every call
//   - [ErrCannotUpdatePrimaryKey] - update data tries to change the id
//
// Supply an [ErrorMap] in [Config.Errors] to return your own error types.
// Any other DynamoDB error is returned unchanged.
package model
