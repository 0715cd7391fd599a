package model

import (
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Codec converts between entries and DynamoDB items.
type Codec interface {
	// Marshal encodes a whole entry.
	Marshal(e Entry) (map[string]types.AttributeValue, error)

	// Unmarshal decodes a whole item.
	Unmarshal(item map[string]types.AttributeValue) (Entry, error)

	// Input encodes a single attribute value for use in an expression.
	Input(v any) (types.AttributeValue, error)
}

// DefaultCodec returns a Codec backed by the attributevalue package.
// Numbers decode as attributevalue.Number, which keeps their exact text and
// marshals back unchanged.
func DefaultCodec() Codec {
	return attributeValueCodec{
		decoder: attributevalue.NewDecoder(func(o *attributevalue.DecoderOptions) {
			o.UseNumber = true
		}),
	}
}

type attributeValueCodec struct {
	decoder *attributevalue.Decoder
}

func (attributeValueCodec) Marshal(e Entry) (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMap(map[string]any(e))
}

func (c attributeValueCodec) Unmarshal(item map[string]types.AttributeValue) (Entry, error) {
	entry := Entry{}
	if err := c.decoder.Decode(&types.AttributeValueMemberM{Value: item}, &entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (attributeValueCodec) Input(v any) (types.AttributeValue, error) {
	return attributevalue.Marshal(v)
}
