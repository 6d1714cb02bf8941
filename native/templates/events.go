package templates

import (
	"fmt"

	"forgechain/core/events"
	"forgechain/core/types"
)

const (
	// EventTypeTemplateMinted is emitted when a completed generation is
	// turned into a template token.
	EventTypeTemplateMinted = "template.minted"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

// TemplateMintedEvent returns the structured payload announcing a mint.
func TemplateMintedEvent(generationID, nonce uint64, creator string, tokenID string) *types.Event {
	return &types.Event{
		Type: EventTypeTemplateMinted,
		Attributes: map[string]string{
			"generationId": fmt.Sprintf("%d", generationID),
			"tokenNonce":   fmt.Sprintf("%d", nonce),
			"creator":      creator,
			"tokenId":      tokenID,
		},
	}
}
