package market

import (
	"fmt"
	"math/big"

	"forgechain/core/events"
	"forgechain/core/types"
)

const (
	// EventTypeTemplateListed is emitted when a token enters escrow.
	EventTypeTemplateListed = "market.listed"
	// EventTypeTemplatePurchased is emitted on a completed purchase.
	EventTypeTemplatePurchased = "market.purchased"
	// EventTypeListingCancelled is emitted when the owner cancels a listing.
	EventTypeListingCancelled = "market.cancelled"
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

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// TemplateListedEvent returns the structured payload for a new listing.
func TemplateListedEvent(listingID, nonce uint64, seller string, price *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeTemplateListed,
		Attributes: map[string]string{
			"listingId":  fmt.Sprintf("%d", listingID),
			"tokenNonce": fmt.Sprintf("%d", nonce),
			"seller":     seller,
			"price":      formatAmount(price),
		},
	}
}

// TemplatePurchasedEvent returns the structured payload for a completed sale.
func TemplatePurchasedEvent(listingID uint64, buyer, seller string, price *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeTemplatePurchased,
		Attributes: map[string]string{
			"listingId": fmt.Sprintf("%d", listingID),
			"buyer":     buyer,
			"seller":    seller,
			"price":     formatAmount(price),
		},
	}
}

// ListingCancelledEvent returns the structured payload for a cancellation.
func ListingCancelledEvent(listingID, nonce uint64, seller string) *types.Event {
	return &types.Event{
		Type: EventTypeListingCancelled,
		Attributes: map[string]string{
			"listingId":  fmt.Sprintf("%d", listingID),
			"tokenNonce": fmt.Sprintf("%d", nonce),
			"seller":     seller,
		},
	}
}
