package model

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/entrymodel/internal/fields"
)

const (
	// createCondition passes only when no entry exists at the id.
	createCondition = "attribute_not_exists(#id) OR #id <> :id"

	// existsCondition passes only when an entry exists at the id.
	existsCondition = "attribute_exists(#id) AND #id = :id"
)

// EntryModel provides get, create, update, delete and list operations for one
// entity type stored in one DynamoDB table.
type EntryModel struct {
	client Client
	config Config
}

// New creates a new EntryModel. Missing required configuration is not
// reported here; every operation reports it instead.
func New(client Client, config Config) *EntryModel {
	config.applyDefaults()
	return &EntryModel{
		client: client,
		config: config,
	}
}

// ModelName returns the configured model name.
func (m *EntryModel) ModelName() string {
	return m.config.ModelName
}

// TableName returns the configured table name.
func (m *EntryModel) TableName() string {
	return m.config.TableName
}

// Get reads one entry with a strongly consistent read.
func (m *EntryModel) Get(ctx context.Context, in GetInput) (Entry, error) {
	if err := m.config.validate(); err != nil {
		return nil, err
	}

	input := &dynamodb.GetItemInput{
		TableName:      aws.String(m.config.TableName),
		Key:            key(in.ID),
		ConsistentRead: aws.Bool(true),
	}
	if projection, names := fields.Alias(fields.Split(in.Fields)); projection != "" {
		input.ProjectionExpression = aws.String(projection)
		input.ExpressionAttributeNames = names
	}

	result, err := m.client.GetItem(ctx, input)
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, m.config.Errors.NotFound(in.ID)
	}

	entry, err := m.config.Codec.Unmarshal(result.Item)
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s entry: %w", m.config.ModelName, err)
	}

	if err := m.Notify(ctx, ActionGet, in.ID); err != nil {
		return nil, err
	}
	return entry, nil
}

// Create writes a new entry and returns it as stored. It fails with the
// ErrorMap's Exists error when an entry with the same id is present.
func (m *EntryModel) Create(ctx context.Context, in CreateInput) (Entry, error) {
	if err := m.config.validate(); err != nil {
		return nil, err
	}

	id, err := m.resolveID(in.ID, in.Data)
	if err != nil {
		return nil, err
	}

	entry := make(Entry, len(in.Data)+1)
	for k, v := range in.Data {
		entry[k] = v
	}
	entry[IDAttribute] = id

	item, err := m.config.Codec.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal %s entry: %w", m.config.ModelName, err)
	}

	_, err = m.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(m.config.TableName),
		Item:                      item,
		ConditionExpression:       aws.String(createCondition),
		ExpressionAttributeNames:  idNames(),
		ExpressionAttributeValues: idValues(id),
	})
	if err != nil {
		if isConditionFailure(err) {
			return nil, m.config.Errors.Exists(id)
		}
		return nil, err
	}

	if err := m.Notify(ctx, ActionCreate, id); err != nil {
		return nil, err
	}
	return m.Get(ctx, GetInput{ID: id, Fields: in.Fields})
}

// Update sets the attributes in Data on an existing entry and returns the
// entry as stored. Attributes not named in Data are left untouched.
func (m *EntryModel) Update(ctx context.Context, in UpdateInput) (Entry, error) {
	if err := m.config.validate(); err != nil {
		return nil, err
	}

	updateExpr, exprNames, exprValues, err := m.buildUpdate(in.ID, in.Data)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(m.config.TableName),
		Key:                       key(in.ID),
		ConditionExpression:       aws.String(existsCondition),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
		ReturnValues:              types.ReturnValueNone,
	}
	if updateExpr != "" {
		input.UpdateExpression = aws.String(updateExpr)
	}

	if _, err := m.client.UpdateItem(ctx, input); err != nil {
		if isConditionFailure(err) {
			return nil, m.config.Errors.NotFound(in.ID)
		}
		return nil, err
	}

	if err := m.Notify(ctx, ActionUpdate, in.ID); err != nil {
		return nil, err
	}
	return m.Get(ctx, GetInput{ID: in.ID, Fields: in.Fields})
}

// Delete removes an existing entry.
func (m *EntryModel) Delete(ctx context.Context, in DeleteInput) error {
	if err := m.config.validate(); err != nil {
		return err
	}

	_, err := m.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(m.config.TableName),
		Key:                       key(in.ID),
		ConditionExpression:       aws.String(existsCondition),
		ExpressionAttributeNames:  idNames(),
		ExpressionAttributeValues: idValues(in.ID),
		ReturnValues:              types.ReturnValueNone,
	})
	if err != nil {
		if isConditionFailure(err) {
			return m.config.Errors.NotFound(in.ID)
		}
		return err
	}

	return m.Notify(ctx, ActionDelete, in.ID)
}

// List returns every entry whose index key attributes equal the values in
// IndexMap. All result pages are read before returning. List does not invoke
// the callback.
func (m *EntryModel) List(ctx context.Context, in ListInput) ([]Entry, error) {
	if err := m.config.validate(); err != nil {
		return nil, err
	}

	keyCond, err := keyCondition(in.IndexMap)
	if err != nil {
		return nil, err
	}
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build key condition: %w", err)
	}

	exprNames := expr.Names()
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(m.config.TableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeValues: expr.Values(),
	}
	if in.IndexName != "" {
		input.IndexName = aws.String(in.IndexName)
	}
	if projection, names := fields.Alias(fields.Split(in.Fields)); projection != "" {
		input.ProjectionExpression = aws.String(projection)
		for k, v := range names {
			exprNames[k] = v
		}
	}
	input.ExpressionAttributeNames = exprNames

	entries := []Entry{}
	paginator := dynamodb.NewQueryPaginator(m.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			entry, err := m.config.Codec.Unmarshal(item)
			if err != nil {
				return nil, fmt.Errorf("unmarshal %s entry: %w", m.config.ModelName, err)
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// resolveID returns the id for a new entry. An explicit id wins, then a
// non-empty string id in data; otherwise one is generated.
func (m *EntryModel) resolveID(id string, data Entry) (string, error) {
	if id != "" {
		return id, nil
	}
	if v, ok := data[IDAttribute].(string); ok && v != "" {
		return v, nil
	}

	id = m.config.NewID()
	if id == "" {
		return "", ErrUnableToGenerateID
	}
	if v := data[IDAttribute]; v != nil && v != "" {
		return "", ErrGeneratedIDMismatch
	}
	return id, nil
}

// buildUpdate builds the SET expression for an update. The id attribute is
// never written; nil values are skipped.
func (m *EntryModel) buildUpdate(id string, data Entry) (string, map[string]string, map[string]types.AttributeValue, error) {
	exprNames := idNames()
	exprValues := idValues(id)

	attrs := make([]string, 0, len(data))
	for k, v := range data {
		if k == IDAttribute {
			if v != nil && v != id {
				return "", nil, nil, ErrCannotUpdatePrimaryKey
			}
			continue
		}
		if v == nil {
			continue
		}
		attrs = append(attrs, k)
	}
	sort.Strings(attrs)

	setClauses := make([]string, 0, len(attrs))
	for i, k := range attrs {
		av, err := m.config.Codec.Input(data[k])
		if err != nil {
			return "", nil, nil, fmt.Errorf("marshal attribute %q: %w", k, err)
		}
		nameKey := fmt.Sprintf("#attr%d", i)
		valueKey := fmt.Sprintf(":val%d", i)
		exprNames[nameKey] = k
		exprValues[valueKey] = av
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
	}

	if len(setClauses) == 0 {
		return "", exprNames, exprValues, nil
	}
	return "SET " + strings.Join(setClauses, ", "), exprNames, exprValues, nil
}

// Notify invokes the configured callback, if any, with an event for this
// model. The stream handler uses it to report changes made outside the model.
func (m *EntryModel) Notify(ctx context.Context, action ActionType, id string) error {
	if m.config.Callback == nil {
		return nil
	}
	return m.config.Callback(ctx, Event{
		ID:         id,
		ActionType: action,
		ModelName:  m.config.ModelName,
		TableName:  m.config.TableName,
	})
}

// keyCondition ANDs an equality condition for every index key, in key order.
func keyCondition(indexMap map[string]any) (expression.KeyConditionBuilder, error) {
	if len(indexMap) == 0 {
		return expression.KeyConditionBuilder{}, ErrEmptyIndexMap
	}

	names := make([]string, 0, len(indexMap))
	for name := range indexMap {
		names = append(names, name)
	}
	sort.Strings(names)

	cond := expression.Key(names[0]).Equal(expression.Value(indexMap[names[0]]))
	for _, name := range names[1:] {
		cond = cond.And(expression.Key(name).Equal(expression.Value(indexMap[name])))
	}
	return cond, nil
}

func key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		IDAttribute: &types.AttributeValueMemberS{Value: id},
	}
}

func idNames() map[string]string {
	return map[string]string{"#id": IDAttribute}
}

func idValues(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		":id": &types.AttributeValueMemberS{Value: id},
	}
}

// isConditionFailure reports whether DynamoDB rejected the write's condition.
func isConditionFailure(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}
