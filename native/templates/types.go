package templates

// Attributes carries the metadata embedded in a template token at mint time.
type Attributes struct {
	GenerationID uint64 `json:"generationId"`
	Category     []byte `json:"category"`
	CodeHash     []byte `json:"codeHash"`
	CreationDate uint64 `json:"creationDate"`
}

// Template is one minted template token unit. Ownership is tracked directly
// on the record: the supply of every nonce is exactly one, so the owner field
// is the full ownership ledger. Uses counts completed marketplace purchases.
type Template struct {
	Nonce      uint64     `json:"nonce"`
	Name       string     `json:"name"`
	Owner      [20]byte   `json:"owner"`
	RoyaltyBps uint64     `json:"royaltyBps"`
	Attributes Attributes `json:"attributes"`
	Uses       uint64     `json:"uses"`
}

// Clone returns a deep copy of the template record.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	clone := *t
	clone.Attributes.Category = append([]byte(nil), t.Attributes.Category...)
	clone.Attributes.CodeHash = append([]byte(nil), t.Attributes.CodeHash...)
	return &clone
}
