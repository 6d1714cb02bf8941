package gen

// GenerationStatus enumerates the lifecycle of a code-generation request.
type GenerationStatus uint8

const (
	// StatusPending marks a request awaiting the off-ledger worker.
	StatusPending GenerationStatus = iota
	// StatusCompleted marks a request the worker resolved successfully.
	StatusCompleted
	// StatusFailed marks a request the worker could not fulfil. Terminal.
	StatusFailed
)

// String renders the status for events and RPC responses.
func (s GenerationStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Generation records one code-generation request and its resolved outcome.
// CodeHash stays empty until the operator reports completion and TokenNonce
// stays zero until the creator mints the template token.
type Generation struct {
	ID          uint64           `json:"id"`
	Creator     [20]byte         `json:"creator"`
	Description []byte           `json:"description"`
	Category    []byte           `json:"category"`
	Timestamp   uint64           `json:"timestamp"`
	Status      GenerationStatus `json:"status"`
	CodeHash    []byte           `json:"codeHash"`
	TokenNonce  uint64           `json:"tokenNonce"`
}

// Clone returns a deep copy of the generation record.
func (g *Generation) Clone() *Generation {
	if g == nil {
		return nil
	}
	clone := *g
	clone.Description = append([]byte(nil), g.Description...)
	clone.Category = append([]byte(nil), g.Category...)
	clone.CodeHash = append([]byte(nil), g.CodeHash...)
	return &clone
}

// RateCounter tracks one account's generation requests within the current
// quota day. Day boundaries are integer divisions of the timestamp by 86400.
type RateCounter struct {
	CountToday   uint64 `json:"countToday"`
	LastResetDay uint64 `json:"lastResetDay"`
}

// Clone returns a copy of the counter.
func (c *RateCounter) Clone() *RateCounter {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
