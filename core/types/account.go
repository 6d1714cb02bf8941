package types

import "math/big"

// Account tracks the native FORGE balance and replay nonce for an address.
type Account struct {
	Nonce        uint64   `json:"nonce"`
	BalanceForge *big.Int `json:"balanceForge"`
}

// Clone returns a deep copy so callers never share big.Int instances with
// persisted state.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	if a.BalanceForge != nil {
		clone.BalanceForge = new(big.Int).Set(a.BalanceForge)
	}
	return &clone
}
