package entrymock

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/entrymodel/model"
)

// Table is an in-memory model.Client holding a single table keyed by "id".
//
// It evaluates the subset of DynamoDB expressions that EntryModel emits:
// attribute_exists, attribute_not_exists, "=" and "<>" joined by AND/OR in
// conditions, SET clauses in updates, dotted paths in projections and
// equality terms in key conditions. Queries ignore the index name and return
// matches ordered by id.
type Table struct {
	// PageSize limits the number of items per Query page. Zero means no limit.
	PageSize int

	// Hook, when set, runs before every operation with the operation name.
	// A non-nil error is returned instead of performing the operation.
	Hook func(op string) error

	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	calls int
}

var _ model.Client = (*Table)(nil)

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

// Calls returns the number of client calls made against the table.
func (t *Table) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Len returns the number of stored items.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}

// Item returns a copy of the stored item with the given id.
func (t *Table) Item(id string) (map[string]types.AttributeValue, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	item, ok := t.items[id]
	if !ok {
		return nil, false
	}
	return copyItem(item), true
}

// Seed stores items directly, bypassing conditions and call counting.
func (t *Table) Seed(items ...map[string]types.AttributeValue) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, item := range items {
		id, err := itemID(item)
		if err != nil {
			return err
		}
		t.items[id] = copyItem(item)
	}
	return nil
}

func (t *Table) begin(op string) error {
	if t.Hook != nil {
		if err := t.Hook(op); err != nil {
			return err
		}
	}
	t.mu.Lock()
	t.calls++
	return nil
}

func (t *Table) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if err := t.begin("GetItem"); err != nil {
		return nil, err
	}
	defer t.mu.Unlock()

	id, err := itemID(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := t.items[id]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}

	projected, err := project(item, aws.ToString(params.ProjectionExpression), params.ExpressionAttributeNames)
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: projected}, nil
}

func (t *Table) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if err := t.begin("PutItem"); err != nil {
		return nil, err
	}
	defer t.mu.Unlock()

	id, err := itemID(params.Item)
	if err != nil {
		return nil, err
	}
	if err := t.check(t.items[id], params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues); err != nil {
		return nil, err
	}

	t.items[id] = copyItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (t *Table) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if err := t.begin("UpdateItem"); err != nil {
		return nil, err
	}
	defer t.mu.Unlock()

	id, err := itemID(params.Key)
	if err != nil {
		return nil, err
	}
	existing := t.items[id]
	if err := t.check(existing, params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues); err != nil {
		return nil, err
	}

	item := copyItem(existing)
	if item == nil {
		item = copyItem(params.Key)
	}
	if expr := aws.ToString(params.UpdateExpression); expr != "" {
		if err := applySet(item, expr, params.ExpressionAttributeNames, params.ExpressionAttributeValues); err != nil {
			return nil, err
		}
	}

	t.items[id] = item
	return &dynamodb.UpdateItemOutput{}, nil
}

func (t *Table) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if err := t.begin("DeleteItem"); err != nil {
		return nil, err
	}
	defer t.mu.Unlock()

	id, err := itemID(params.Key)
	if err != nil {
		return nil, err
	}
	if err := t.check(t.items[id], params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues); err != nil {
		return nil, err
	}

	delete(t.items, id)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (t *Table) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if err := t.begin("Query"); err != nil {
		return nil, err
	}
	defer t.mu.Unlock()

	keyExpr := aws.ToString(params.KeyConditionExpression)
	if keyExpr == "" {
		return nil, fmt.Errorf("entrymock: query requires a key condition")
	}

	var ids []string
	for id, item := range t.items {
		ok, err := evaluate(keyExpr, item, params.ExpressionAttributeNames, params.ExpressionAttributeValues)
		if err != nil {
			return nil, err
		}
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	if params.ExclusiveStartKey != nil {
		start, err := itemID(params.ExclusiveStartKey)
		if err != nil {
			return nil, err
		}
		i := sort.SearchStrings(ids, start)
		if i < len(ids) && ids[i] == start {
			i++
		}
		ids = ids[i:]
	}

	out := &dynamodb.QueryOutput{}
	if t.PageSize > 0 && len(ids) > t.PageSize {
		ids = ids[:t.PageSize]
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			model.IDAttribute: &types.AttributeValueMemberS{Value: ids[len(ids)-1]},
		}
	}

	for _, id := range ids {
		projected, err := project(t.items[id], aws.ToString(params.ProjectionExpression), params.ExpressionAttributeNames)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, projected)
	}
	out.Count = int32(len(out.Items))
	return out, nil
}

// check evaluates a condition expression against the current item.
func (t *Table) check(item map[string]types.AttributeValue, cond *string, names map[string]string, values map[string]types.AttributeValue) error {
	if cond == nil {
		return nil
	}
	ok, err := evaluate(*cond, item, names, values)
	if err != nil {
		return err
	}
	if !ok {
		return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	return nil
}

// evaluate supports OR of AND-joined terms, without nested grouping.
func evaluate(expr string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) (bool, error) {
	for _, disjunct := range strings.Split(expr, " OR ") {
		matched := true
		for _, term := range strings.Split(disjunct, " AND ") {
			ok, err := evalTerm(strings.TrimSpace(term), item, names, values)
			if err != nil {
				return false, err
			}
			if !ok {
				matched = false
				break
			}
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

func evalTerm(term string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) (bool, error) {
	for strings.HasPrefix(term, "(") && strings.HasSuffix(term, ")") {
		term = strings.TrimSpace(term[1 : len(term)-1])
	}

	switch {
	case strings.HasPrefix(term, "attribute_exists"):
		name, err := resolveName(functionArg(term), names)
		if err != nil {
			return false, err
		}
		_, ok := item[name]
		return ok, nil

	case strings.HasPrefix(term, "attribute_not_exists"):
		name, err := resolveName(functionArg(term), names)
		if err != nil {
			return false, err
		}
		_, ok := item[name]
		return !ok, nil

	case strings.Contains(term, " <> "):
		left, right, err := operands(term, " <> ", item, names, values)
		if err != nil {
			return false, err
		}
		return left != nil && right != nil && !reflect.DeepEqual(left, right), nil

	case strings.Contains(term, " = "):
		left, right, err := operands(term, " = ", item, names, values)
		if err != nil {
			return false, err
		}
		return left != nil && right != nil && reflect.DeepEqual(left, right), nil
	}

	return false, fmt.Errorf("entrymock: unsupported expression term %q", term)
}

func functionArg(term string) string {
	open := strings.Index(term, "(")
	closing := strings.LastIndex(term, ")")
	if open < 0 || closing < open {
		return ""
	}
	return strings.TrimSpace(term[open+1 : closing])
}

func operands(term, op string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) (types.AttributeValue, types.AttributeValue, error) {
	parts := strings.SplitN(term, op, 2)
	left, err := operand(strings.TrimSpace(parts[0]), item, names, values)
	if err != nil {
		return nil, nil, err
	}
	right, err := operand(strings.TrimSpace(parts[1]), item, names, values)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func operand(token string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) (types.AttributeValue, error) {
	if strings.HasPrefix(token, ":") {
		v, ok := values[token]
		if !ok {
			return nil, fmt.Errorf("entrymock: undefined value placeholder %q", token)
		}
		return v, nil
	}
	name, err := resolveName(token, names)
	if err != nil {
		return nil, err
	}
	return item[name], nil
}

func resolveName(token string, names map[string]string) (string, error) {
	if !strings.HasPrefix(token, "#") {
		return token, nil
	}
	name, ok := names[token]
	if !ok {
		return "", fmt.Errorf("entrymock: undefined name placeholder %q", token)
	}
	return name, nil
}

// applySet applies a "SET a = :b, c = :d" update expression.
func applySet(item map[string]types.AttributeValue, expr string, names map[string]string, values map[string]types.AttributeValue) error {
	expr = strings.TrimSpace(expr)
	if !strings.HasPrefix(expr, "SET ") {
		return fmt.Errorf("entrymock: unsupported update expression %q", expr)
	}

	for _, clause := range strings.Split(strings.TrimPrefix(expr, "SET "), ",") {
		parts := strings.SplitN(clause, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("entrymock: malformed SET clause %q", clause)
		}
		name, err := resolveName(strings.TrimSpace(parts[0]), names)
		if err != nil {
			return err
		}
		token := strings.TrimSpace(parts[1])
		v, ok := values[token]
		if !ok {
			return fmt.Errorf("entrymock: undefined value placeholder %q", token)
		}
		item[name] = v
	}
	return nil
}

// project copies the attributes named by a projection expression.
func project(item map[string]types.AttributeValue, projection string, names map[string]string) (map[string]types.AttributeValue, error) {
	if projection == "" {
		return copyItem(item), nil
	}

	out := make(map[string]types.AttributeValue)
	for _, path := range strings.Split(projection, ",") {
		segments := strings.Split(strings.TrimSpace(path), ".")
		for i, segment := range segments {
			name, err := resolveName(segment, names)
			if err != nil {
				return nil, err
			}
			segments[i] = name
		}
		copyPath(out, item, segments)
	}
	return out, nil
}

func copyPath(dst, src map[string]types.AttributeValue, segments []string) {
	v, ok := src[segments[0]]
	if !ok {
		return
	}
	if len(segments) == 1 {
		dst[segments[0]] = v
		return
	}

	m, ok := v.(*types.AttributeValueMemberM)
	if !ok {
		return
	}
	child, ok := dst[segments[0]].(*types.AttributeValueMemberM)
	if ok && child == m {
		// Whole map already projected.
		return
	}
	if !ok {
		child = &types.AttributeValueMemberM{Value: make(map[string]types.AttributeValue)}
		dst[segments[0]] = child
	}
	copyPath(child.Value, m.Value, segments[1:])
}

func itemID(item map[string]types.AttributeValue) (string, error) {
	v, ok := item[model.IDAttribute].(*types.AttributeValueMemberS)
	if !ok || v.Value == "" {
		return "", fmt.Errorf("entrymock: item is missing string attribute %q", model.IDAttribute)
	}
	return v.Value, nil
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}
