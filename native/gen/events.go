package gen

import (
	"encoding/hex"
	"fmt"

	"forgechain/core/types"
	"forgechain/crypto"
)

const (
	// TypeGenerationRequested is consumed by the off-ledger worker; the
	// payload attribute packs description and category into one field.
	TypeGenerationRequested = "gen.requested"
	// TypeGenerationCompleted is emitted when the operator reports back.
	TypeGenerationCompleted = "gen.completed"
)

// GenerationRequested announces a newly created generation request.
type GenerationRequested struct {
	ID      uint64
	Creator [20]byte
	Payload []byte
}

func (GenerationRequested) EventType() string { return TypeGenerationRequested }

func (e GenerationRequested) Event() *types.Event {
	return &types.Event{
		Type: TypeGenerationRequested,
		Attributes: map[string]string{
			"generationId": fmt.Sprintf("%d", e.ID),
			"creator":      crypto.MustNewAddress(crypto.ForgePrefix, e.Creator[:]).String(),
			"payload":      string(e.Payload),
		},
	}
}

// GenerationCompleted announces the operator's verdict for a request.
type GenerationCompleted struct {
	ID       uint64
	Creator  [20]byte
	Success  bool
	CodeHash []byte
}

func (GenerationCompleted) EventType() string { return TypeGenerationCompleted }

func (e GenerationCompleted) Event() *types.Event {
	return &types.Event{
		Type: TypeGenerationCompleted,
		Attributes: map[string]string{
			"generationId": fmt.Sprintf("%d", e.ID),
			"creator":      crypto.MustNewAddress(crypto.ForgePrefix, e.Creator[:]).String(),
			"success":      fmt.Sprintf("%t", e.Success),
			"codeHash":     hex.EncodeToString(e.CodeHash),
		},
	}
}
