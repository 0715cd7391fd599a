package entrymock

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func s(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

func TestEvaluate(t *testing.T) {
	item := map[string]types.AttributeValue{"id": s("u1"), "org": s("acme")}
	names := map[string]string{"#id": "id", "#0": "org", "#missing": "nope"}
	values := map[string]types.AttributeValue{":id": s("u1"), ":0": s("acme"), ":other": s("u2")}

	tests := []struct {
		expr     string
		expected bool
	}{
		{"attribute_exists(#id)", true},
		{"attribute_not_exists(#id)", false},
		{"attribute_exists(#missing)", false},
		{"#id = :id", true},
		{"#id = :other", false},
		{"#id <> :other", true},
		{"#missing <> :other", false},
		{"attribute_exists(#id) AND #id = :id", true},
		{"attribute_not_exists(#id) OR #id <> :id", false},
		{"attribute_not_exists(#id) OR #id <> :other", true},
		{"(#0 = :0) AND (#id = :id)", true},
		{"(#0 = :0) AND (#id = :other)", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			ok, err := evaluate(tt.expr, item, names, values)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, ok)
			}
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	item := map[string]types.AttributeValue{"id": s("u1")}

	for _, expr := range []string{"#nope = :id", "#id = :nope", "begins_with(#id, :id)"} {
		if _, err := evaluate(expr, item, map[string]string{"#id": "id"}, map[string]types.AttributeValue{":id": s("u1")}); err == nil {
			t.Errorf("expected error for %q", expr)
		}
	}
}

func TestProject(t *testing.T) {
	address := &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
		"city": s("Paris"),
		"zip":  s("75001"),
	}}
	item := map[string]types.AttributeValue{"id": s("u1"), "name": s("Ada"), "address": address}
	names := map[string]string{"#F0": "id", "#F1": "address", "#F2": "city"}

	out, err := project(item, "#F0, #F1.#F2", names)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 attributes, got %v", out)
	}
	nested, ok := out["address"].(*types.AttributeValueMemberM)
	if !ok || len(nested.Value) != 1 || nested.Value["city"] == nil {
		t.Errorf("expected address to hold only city, got %v", out["address"])
	}
	if len(address.Value) != 2 {
		t.Error("expected source item to be untouched")
	}
}

func TestTable_ConditionalWrites(t *testing.T) {
	ctx := context.Background()
	table := NewTable()
	put := &dynamodb.PutItemInput{
		Item:                     map[string]types.AttributeValue{"id": s("u1")},
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	}

	if _, err := table.PutItem(ctx, put); err != nil {
		t.Fatalf("first put: %v", err)
	}
	_, err := table.PutItem(ctx, put)
	var condErr *types.ConditionalCheckFailedException
	if !errors.As(err, &condErr) {
		t.Fatalf("expected ConditionalCheckFailedException, got %v", err)
	}

	_, err = table.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		Key:                      map[string]types.AttributeValue{"id": s("u2")},
		ConditionExpression:      aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	})
	if !errors.As(err, &condErr) {
		t.Fatalf("expected ConditionalCheckFailedException, got %v", err)
	}

	if table.Calls() != 3 {
		t.Errorf("expected 3 calls, got %d", table.Calls())
	}
	if table.Len() != 1 {
		t.Errorf("expected 1 item, got %d", table.Len())
	}
}

func TestTable_UpdateSet(t *testing.T) {
	ctx := context.Background()
	table := NewTable()
	if err := table.Seed(map[string]types.AttributeValue{"id": s("u1"), "name": s("Ada")}); err != nil {
		t.Fatal(err)
	}

	_, err := table.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		Key:                       map[string]types.AttributeValue{"id": s("u1")},
		UpdateExpression:          aws.String("SET #attr0 = :val0, #attr1 = :val1"),
		ExpressionAttributeNames:  map[string]string{"#attr0": "name", "#attr1": "email"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":val0": s("Grace"), ":val1": s("g@example.com")},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	item, _ := table.Item("u1")
	if item["name"].(*types.AttributeValueMemberS).Value != "Grace" {
		t.Errorf("expected name to be updated, got %v", item["name"])
	}
	if item["email"].(*types.AttributeValueMemberS).Value != "g@example.com" {
		t.Errorf("expected email to be set, got %v", item["email"])
	}
}

func TestTable_QueryPaging(t *testing.T) {
	ctx := context.Background()
	table := NewTable()
	table.PageSize = 2
	for _, id := range []string{"c", "a", "b"} {
		if err := table.Seed(map[string]types.AttributeValue{"id": s(id), "org": s("acme")}); err != nil {
			t.Fatal(err)
		}
	}

	input := &dynamodb.QueryInput{
		KeyConditionExpression:    aws.String("#0 = :0"),
		ExpressionAttributeNames:  map[string]string{"#0": "org"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":0": s("acme")},
	}

	first, err := table.Query(ctx, input)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if first.Count != 2 || first.LastEvaluatedKey == nil {
		t.Fatalf("expected a full first page, got count %d", first.Count)
	}

	input.ExclusiveStartKey = first.LastEvaluatedKey
	second, err := table.Query(ctx, input)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if second.Count != 1 || second.LastEvaluatedKey != nil {
		t.Fatalf("expected a final page of 1, got count %d", second.Count)
	}
	if id := second.Items[0]["id"].(*types.AttributeValueMemberS).Value; id != "c" {
		t.Errorf("expected last id 'c', got %q", id)
	}
}

func TestTable_Hook(t *testing.T) {
	hookErr := errors.New("throttled")
	table := NewTable()
	var ops []string
	table.Hook = func(op string) error {
		ops = append(ops, op)
		return hookErr
	}

	_, err := table.GetItem(context.Background(), &dynamodb.GetItemInput{Key: map[string]types.AttributeValue{"id": s("u1")}})
	if !errors.Is(err, hookErr) {
		t.Errorf("expected hook error, got %v", err)
	}
	if len(ops) != 1 || ops[0] != "GetItem" {
		t.Errorf("expected hook to see GetItem, got %v", ops)
	}
	if table.Calls() != 0 {
		t.Errorf("expected rejected call not to be counted, got %d", table.Calls())
	}
}
