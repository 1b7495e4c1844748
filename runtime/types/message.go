package types

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AltairaLabs/codestream/runtime/schema"
)

// MessageType tags an inbound frame.
type MessageType string

// Inbound frame types.
const (
	MessageChunk       MessageType = "chunk"
	MessageStatus      MessageType = "status"
	MessageFinalOutput MessageType = "final-output"
	MessageError       MessageType = "error"

	// MessageSetCode is the legacy wire name of MessageFinalOutput.
	MessageSetCode MessageType = "setCode"
)

// ErrMalformedMessage is wrapped by every error returned from ParseInboundMessage.
var ErrMalformedMessage = errors.New("malformed message")

//go:embed inbound_message.schema.json
var inboundMessageSchemaJSON []byte

var inboundMessageSchema = schema.MustCompile(inboundMessageSchemaJSON)

// InboundMessage is one server-to-client frame. VariantIndex is an opaque
// routing key; error frames may omit it.
type InboundMessage struct {
	Type         MessageType `json:"type"`
	Value        string      `json:"value"`
	VariantIndex int         `json:"variantIndex"`
}

// ParseInboundMessage decodes and validates a raw frame. Legacy type names
// are normalized, so callers only ever see the four canonical types.
func ParseInboundMessage(data []byte) (*InboundMessage, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedMessage)
	}

	result, err := inboundMessageSchema.Validate(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if verr := result.Err(); verr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, verr)
	}

	var msg InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg.Type == MessageSetCode {
		msg.Type = MessageFinalOutput
	}
	return &msg, nil
}
