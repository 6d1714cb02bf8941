package achievements

import (
	"fmt"

	"forgechain/core/events"
	"forgechain/core/types"
	"forgechain/crypto"
)

// TypeAchievementEarned is emitted whenever a milestone check fires.
const TypeAchievementEarned = "achievement.earned"

// Milestone labels, kept verbatim for downstream consumers.
const (
	LabelFirstGeneration = "First Generation"
	LabelFirstSale       = "First Sale"
	LabelPopularTemplate = "Popular Template"
)

// PopularTemplateThreshold is the usage count at which a template is
// announced as popular. The check fires on the exact threshold only.
const PopularTemplateThreshold = 10

// AchievementEarned announces a milestone. Subject is zero for template-keyed
// milestones; TokenNonce is zero for account-keyed ones.
type AchievementEarned struct {
	Subject    [20]byte
	Label      string
	TokenNonce uint64
}

func (AchievementEarned) EventType() string { return TypeAchievementEarned }

func (e AchievementEarned) Event() *types.Event {
	return &types.Event{
		Type: TypeAchievementEarned,
		Attributes: map[string]string{
			"subject":     crypto.MustNewAddress(crypto.ForgePrefix, e.Subject[:]).String(),
			"achievement": e.Label,
			"tokenNonce":  fmt.Sprintf("%d", e.TokenNonce),
		},
	}
}

// Tracker derives milestone notifications from counters owned by the other
// modules. It never mutates entity state; it only reads the values handed to
// it and emits events.
type Tracker struct {
	emitter events.Emitter
}

// NewTracker constructs a tracker with a no-op emitter.
func NewTracker() *Tracker {
	return &Tracker{emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (t *Tracker) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		t.emitter = events.NoopEmitter{}
		return
	}
	t.emitter = emitter
}

func (t *Tracker) emit(evt events.Event) {
	if t == nil || t.emitter == nil {
		return
	}
	t.emitter.Emit(evt)
}

// CheckFirstGeneration fires when an account's lifetime generation count is
// exactly one. Invoked at mint time, so an account that minted after several
// requests never sees it.
func (t *Tracker) CheckFirstGeneration(subject [20]byte, lifetimeCount uint64) {
	if lifetimeCount == 1 {
		t.emit(AchievementEarned{Subject: subject, Label: LabelFirstGeneration})
	}
}

// RecordSale fires on every completed purchase attributed to the seller.
func (t *Tracker) RecordSale(seller [20]byte) {
	t.emit(AchievementEarned{Subject: seller, Label: LabelFirstSale})
}

// CheckPopularTemplate fires when a template's usage counter reaches the
// popularity threshold exactly.
func (t *Tracker) CheckPopularTemplate(nonce uint64, uses uint64) {
	if uses == PopularTemplateThreshold {
		t.emit(AchievementEarned{Label: LabelPopularTemplate, TokenNonce: nonce})
	}
}
