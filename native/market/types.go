package market

import "math/big"

// Listing is an offer to sell one escrowed template token unit at a fixed
// price. Listings are never deleted; a consumed listing is marked inactive so
// the audit trail stays complete.
type Listing struct {
	ID         uint64   `json:"id"`
	Seller     [20]byte `json:"seller"`
	TokenNonce uint64   `json:"tokenNonce"`
	Price      *big.Int `json:"price"`
	Active     bool     `json:"active"`
}

// Clone returns a deep copy of the listing.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	clone := *l
	if l.Price != nil {
		clone.Price = new(big.Int).Set(l.Price)
	}
	return &clone
}
