package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jacentio/entrymodel/model"
	"github.com/jacentio/entrymodel/notify"
)

var testEvent = model.Event{
	ID:         "u1",
	ActionType: model.ActionCreate,
	ModelName:  "user",
	TableName:  "users",
}

// --- Logger Tests ---

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cb := notify.Logger(zap.New(core))

	if err := cb(context.Background(), testEvent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["model"] != "user" || fields["action"] != "create" || fields["id"] != "u1" {
		t.Errorf("unexpected log fields %v", fields)
	}
}

func TestLogger_NilLogger(t *testing.T) {
	if err := notify.Logger(nil)(context.Background(), testEvent); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// --- Metrics Tests ---

func TestMetrics_Callback(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := notify.NewMetrics("entrymodel", reg)
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}

	cb := m.Callback()
	for i := 0; i < 3; i++ {
		if err := cb(context.Background(), testEvent); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got := testutil.ToFloat64(m.Operations.WithLabelValues("user", "users", "create"))
	if got != 3 {
		t.Errorf("expected 3 create operations, got %v", got)
	}
	if n := testutil.CollectAndCount(m.Operations, "entrymodel_operations_total"); n != 1 {
		t.Errorf("expected 1 series, got %d", n)
	}
}

func TestMetrics_RegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := notify.NewMetrics("entrymodel", reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := notify.NewMetrics("entrymodel", reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.Operations != second.Operations {
		t.Error("expected the existing collector to be reused")
	}
}

// --- EventBridge Tests ---

type fakeEventBridge struct {
	inputs []*eventbridge.PutEventsInput
	output *eventbridge.PutEventsOutput
	err    error
}

func (f *fakeEventBridge) PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	if f.output != nil {
		return f.output, nil
	}
	return &eventbridge.PutEventsOutput{}, nil
}

func TestEventBridge_Publish(t *testing.T) {
	client := &fakeEventBridge{}
	cb := notify.NewEventBridge(client, "entries", nil).Callback()

	if err := cb(context.Background(), testEvent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(client.inputs) != 1 || len(client.inputs[0].Entries) != 1 {
		t.Fatalf("expected one entry to be published, got %v", client.inputs)
	}
	entry := client.inputs[0].Entries[0]
	if aws.ToString(entry.EventBusName) != "entries" {
		t.Errorf("expected bus 'entries', got %q", aws.ToString(entry.EventBusName))
	}
	if aws.ToString(entry.Source) != notify.DefaultSource {
		t.Errorf("expected source %q, got %q", notify.DefaultSource, aws.ToString(entry.Source))
	}
	if aws.ToString(entry.DetailType) != "user.create" {
		t.Errorf("expected detail type 'user.create', got %q", aws.ToString(entry.DetailType))
	}

	var detail model.Event
	if err := json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail); err != nil {
		t.Fatalf("detail is not JSON: %v", err)
	}
	if detail != testEvent {
		t.Errorf("expected detail %+v, got %+v", testEvent, detail)
	}
}

func TestEventBridge_WithSource(t *testing.T) {
	client := &fakeEventBridge{}
	p := notify.NewEventBridge(client, "entries", nil).WithSource("billing")

	if err := p.Publish(context.Background(), testEvent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := aws.ToString(client.inputs[0].Entries[0].Source); got != "billing" {
		t.Errorf("expected source 'billing', got %q", got)
	}
}

func TestEventBridge_ClientError(t *testing.T) {
	clientErr := errors.New("network down")
	p := notify.NewEventBridge(&fakeEventBridge{err: clientErr}, "entries", nil)

	err := p.Publish(context.Background(), testEvent)
	if !errors.Is(err, clientErr) {
		t.Errorf("expected wrapped client error, got %v", err)
	}
}

func TestEventBridge_FailedEntries(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	client := &fakeEventBridge{output: &eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries: []types.PutEventsResultEntry{{
			ErrorCode:    aws.String("InternalFailure"),
			ErrorMessage: aws.String("try again"),
		}},
	}}
	p := notify.NewEventBridge(client, "entries", zap.New(core))

	err := p.Publish(context.Background(), testEvent)
	if err == nil || !strings.Contains(err.Error(), "1 events failed") {
		t.Errorf("expected failed entry error, got %v", err)
	}
	if logs.Len() != 1 {
		t.Errorf("expected 1 error log, got %d", logs.Len())
	}
}

func TestDetailType(t *testing.T) {
	ev := model.Event{ModelName: "organization", ActionType: model.ActionDelete}
	if got := notify.DetailType(ev); got != "organization.delete" {
		t.Errorf("expected 'organization.delete', got %q", got)
	}
}
