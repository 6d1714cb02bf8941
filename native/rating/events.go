package rating

import (
	"fmt"

	"forgechain/core/types"
	"forgechain/crypto"
)

// TypeTemplateRated is emitted once per accepted rating.
const TypeTemplateRated = "rating.recorded"

// TemplateRated announces a newly recorded rating.
type TemplateRated struct {
	Nonce  uint64
	Rater  [20]byte
	Rating uint8
}

func (TemplateRated) EventType() string { return TypeTemplateRated }

func (e TemplateRated) Event() *types.Event {
	return &types.Event{
		Type: TypeTemplateRated,
		Attributes: map[string]string{
			"tokenNonce": fmt.Sprintf("%d", e.Nonce),
			"rater":      crypto.MustNewAddress(crypto.ForgePrefix, e.Rater[:]).String(),
			"rating":     fmt.Sprintf("%d", e.Rating),
		},
	}
}
