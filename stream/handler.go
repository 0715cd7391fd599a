// Package stream turns DynamoDB Streams records into model callbacks.
package stream

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/jacentio/entrymodel/model"
)

// Handler processes DynamoDB stream events for the tables of registered models.
type Handler struct {
	registry *model.Registry
	logger   *zap.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(registry *model.Registry, logger *zap.Logger) *Handler {
	if registry == nil {
		registry = model.NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		registry: registry,
		logger:   logger,
	}
}

// HandleEvent notifies the owning model of every record in the batch.
// It is designed to be used as an AWS Lambda handler; the first error
// aborts the batch so that Lambda retries it.
func (h *Handler) HandleEvent(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				zap.String("eventID", record.EventID),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	action, ok := actionFor(record.EventName)
	if !ok {
		h.logger.Debug("skipping record",
			zap.String("eventID", record.EventID),
			zap.String("eventName", record.EventName),
		)
		return nil
	}

	table := tableFromARN(record.EventSourceArn)
	m, ok := h.registry.ByTable(table)
	if !ok {
		h.logger.Warn("no model registered for table",
			zap.String("eventID", record.EventID),
			zap.String("table", table),
		)
		return nil
	}

	id := getStringAttr(record.Change.Keys, model.IDAttribute)
	if id == "" {
		return fmt.Errorf("record %s on table %s has no %q key", record.EventID, table, model.IDAttribute)
	}

	if ce := h.logger.Check(zap.DebugLevel, "notifying model"); ce != nil {
		fields := []zap.Field{
			zap.String("model", m.ModelName()),
			zap.String("action", string(action)),
			zap.String("id", id),
		}
		if len(record.Change.NewImage) > 0 {
			if entry, err := ConvertStreamImage(record.Change.NewImage); err != nil {
				fields = append(fields, zap.NamedError("newImageError", err))
			} else {
				fields = append(fields, zap.Any("newImage", entry))
			}
		}
		ce.Write(fields...)
	}
	if err := m.Notify(ctx, action, id); err != nil {
		return fmt.Errorf("notify %s %s: %w", m.ModelName(), action, err)
	}
	return nil
}

// actionFor maps a stream event name to the model action it represents.
func actionFor(eventName string) (model.ActionType, bool) {
	switch events.DynamoDBOperationType(eventName) {
	case events.DynamoDBOperationTypeInsert:
		return model.ActionCreate, true
	case events.DynamoDBOperationTypeModify:
		return model.ActionUpdate, true
	case events.DynamoDBOperationTypeRemove:
		return model.ActionDelete, true
	}
	return "", false
}

// tableFromARN extracts the table name from a stream ARN such as
// arn:aws:dynamodb:us-east-1:123456789012:table/users/stream/2024-01-01T00:00:00.000.
func tableFromARN(arn string) string {
	i := strings.Index(arn, ":table/")
	if i < 0 {
		return ""
	}
	rest := arn[i+len(":table/"):]
	if j := strings.Index(rest, "/"); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// ConvertStreamKey converts a DynamoDB stream key or image to SDK attribute values.
func ConvertStreamKey(streamKey map[string]events.DynamoDBAttributeValue) map[string]types.AttributeValue {
	result := make(map[string]types.AttributeValue, len(streamKey))
	for k, v := range streamKey {
		if av := convertAttribute(v); av != nil {
			result[k] = av
		}
	}
	return result
}

// ConvertStreamImage decodes a stream image into an Entry.
func ConvertStreamImage(image map[string]events.DynamoDBAttributeValue) (model.Entry, error) {
	return model.DefaultCodec().Unmarshal(ConvertStreamKey(image))
}

func convertAttribute(v events.DynamoDBAttributeValue) types.AttributeValue {
	switch v.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: v.String()}
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: v.Number()}
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: v.Binary()}
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: v.Boolean()}
	case events.DataTypeNull:
		return &types.AttributeValueMemberNULL{Value: true}
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: v.StringSet()}
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: v.NumberSet()}
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: v.BinarySet()}
	case events.DataTypeList:
		list := make([]types.AttributeValue, 0, len(v.List()))
		for _, item := range v.List() {
			if av := convertAttribute(item); av != nil {
				list = append(list, av)
			}
		}
		return &types.AttributeValueMemberL{Value: list}
	case events.DataTypeMap:
		return &types.AttributeValueMemberM{Value: ConvertStreamKey(v.Map())}
	}
	return nil
}
