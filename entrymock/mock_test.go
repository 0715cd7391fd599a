package entrymock_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/entrymodel/entrymock"
)

func TestMockClient_Delegates(t *testing.T) {
	client := entrymock.NewMockClient(t)

	var called bool
	client.QueryFunc = func(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
		called = true
		return &dynamodb.QueryOutput{Count: 7}, nil
	}

	out, err := client.Query(context.Background(), &dynamodb.QueryInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected QueryFunc to be called")
	}
	if out.Count != 7 {
		t.Errorf("expected count 7, got %d", out.Count)
	}
}
