package entrymock

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/entrymodel/model"
)

// APICall is the shape shared by every DynamoDB client method.
type APICall[T, U any] = func(context.Context, *T, ...func(*dynamodb.Options)) (*U, error)

// MockClient is an expectation-based model.Client. Every call fails the test
// unless the matching function field has been replaced.
type MockClient struct {
	GetFunc    APICall[dynamodb.GetItemInput, dynamodb.GetItemOutput]
	PutFunc    APICall[dynamodb.PutItemInput, dynamodb.PutItemOutput]
	UpdateFunc APICall[dynamodb.UpdateItemInput, dynamodb.UpdateItemOutput]
	DeleteFunc APICall[dynamodb.DeleteItemInput, dynamodb.DeleteItemOutput]
	QueryFunc  APICall[dynamodb.QueryInput, dynamodb.QueryOutput]
}

var _ model.Client = (*MockClient)(nil)

// NewMockClient creates a MockClient whose functions all fail t.
func NewMockClient(t testing.TB) *MockClient {
	return &MockClient{
		GetFunc:    unexpected[dynamodb.GetItemInput, dynamodb.GetItemOutput](t, "GetItem"),
		PutFunc:    unexpected[dynamodb.PutItemInput, dynamodb.PutItemOutput](t, "PutItem"),
		UpdateFunc: unexpected[dynamodb.UpdateItemInput, dynamodb.UpdateItemOutput](t, "UpdateItem"),
		DeleteFunc: unexpected[dynamodb.DeleteItemInput, dynamodb.DeleteItemOutput](t, "DeleteItem"),
		QueryFunc:  unexpected[dynamodb.QueryInput, dynamodb.QueryOutput](t, "Query"),
	}
}

func unexpected[T, U any](t testing.TB, op string) APICall[T, U] {
	return func(ctx context.Context, params *T, optFns ...func(*dynamodb.Options)) (*U, error) {
		t.Helper()
		t.Fatalf("unexpected call to %s", op)
		return nil, nil
	}
}

func (m *MockClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return m.GetFunc(ctx, params, optFns...)
}

func (m *MockClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return m.PutFunc(ctx, params, optFns...)
}

func (m *MockClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return m.UpdateFunc(ctx, params, optFns...)
}

func (m *MockClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return m.DeleteFunc(ctx, params, optFns...)
}

func (m *MockClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return m.QueryFunc(ctx, params, optFns...)
}
