package state

import (
	"math/big"

	"forgechain/core/types"
)

// GetAccount loads the account stored for addr. Unknown addresses yield a
// zero-balance account so callers never branch on existence.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	account := &types.Account{}
	ok, err := m.KVGet(accountKey(addr), account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{BalanceForge: big.NewInt(0)}, nil
	}
	if account.BalanceForge == nil {
		account.BalanceForge = big.NewInt(0)
	}
	return account, nil
}

// PutAccount persists the account record for addr.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if account == nil {
		account = &types.Account{}
	}
	if account.BalanceForge == nil {
		account.BalanceForge = big.NewInt(0)
	}
	return m.KVPut(accountKey(addr), account)
}
