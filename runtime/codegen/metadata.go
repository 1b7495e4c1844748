package codegen

import (
	"time"

	"github.com/google/uuid"

	"github.com/AltairaLabs/codestream/runtime/types"
	"github.com/AltairaLabs/codestream/runtime/version"
)

// Metadata is added to the outbound request. The backend treats it as opaque.
type Metadata struct {
	SessionID       string `json:"sessionId,omitempty"`
	ClientTimestamp int64  `json:"clientTimestamp,omitempty"`
	ClientAgent     string `json:"clientAgent,omitempty"`
}

// MetadataProvider produces the metadata for a new session.
type MetadataProvider func() Metadata

// DefaultMetadata returns a random session id, the current time in
// milliseconds and this client's agent string.
func DefaultMetadata() Metadata {
	return Metadata{
		SessionID:       uuid.NewString(),
		ClientTimestamp: time.Now().UnixMilli(),
		ClientAgent:     version.ClientAgent(),
	}
}

// outboundFrame flattens the request and metadata into one JSON object.
type outboundFrame struct {
	*types.GenerationRequest
	*Metadata
}
