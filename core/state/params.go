package state

import "math/big"

// Default parameters applied at first boot, mirroring contract genesis.
var (
	DefaultDailyLimit     = uint64(3)
	DefaultMintFee        = new(big.Int).SetUint64(50_000_000_000_000_000) // 0.05 FORGE
	DefaultPlatformFeeBps = uint64(250)                                   // 2.5%
)

const (
	paramDailyLimit      = "dailyGenerationLimit"
	paramMintFee         = "templateMintFee"
	paramPlatformFeeBps  = "platformFeeBps"
	paramTemplateTokenID = "templateTokenId"
)

// SeedDefaults writes the genesis parameter values for any parameter not yet
// present in state. Safe to call on every boot.
func (m *Manager) SeedDefaults() error {
	if ok, err := m.KVGet(paramKey(paramDailyLimit), nil); err != nil {
		return err
	} else if !ok {
		if err := m.SetDailyLimit(DefaultDailyLimit); err != nil {
			return err
		}
	}
	if ok, err := m.KVGet(paramKey(paramMintFee), nil); err != nil {
		return err
	} else if !ok {
		if err := m.SetMintFee(DefaultMintFee); err != nil {
			return err
		}
	}
	if ok, err := m.KVGet(paramKey(paramPlatformFeeBps), nil); err != nil {
		return err
	} else if !ok {
		if err := m.SetPlatformFeeBps(DefaultPlatformFeeBps); err != nil {
			return err
		}
	}
	return nil
}

// DailyLimit returns the per-account daily generation quota.
func (m *Manager) DailyLimit() (uint64, error) {
	return m.counterGet(paramKey(paramDailyLimit))
}

// SetDailyLimit stores the per-account daily generation quota.
func (m *Manager) SetDailyLimit(limit uint64) error {
	return m.KVPut(paramKey(paramDailyLimit), limit)
}

// MintFee returns the native-coin fee required to mint a template token.
func (m *Manager) MintFee() (*big.Int, error) {
	fee := new(big.Int)
	ok, err := m.KVGet(paramKey(paramMintFee), fee)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return fee, nil
}

// SetMintFee stores the template minting fee.
func (m *Manager) SetMintFee(fee *big.Int) error {
	if fee == nil {
		fee = big.NewInt(0)
	}
	return m.KVPut(paramKey(paramMintFee), fee)
}

// PlatformFeeBps returns the marketplace fee in basis points of 10000.
func (m *Manager) PlatformFeeBps() (uint64, error) {
	return m.counterGet(paramKey(paramPlatformFeeBps))
}

// SetPlatformFeeBps stores the marketplace fee in basis points.
func (m *Manager) SetPlatformFeeBps(bps uint64) error {
	return m.KVPut(paramKey(paramPlatformFeeBps), bps)
}

// TemplateTokenID returns the configured template token identifier. Empty
// until the owner registers the token.
func (m *Manager) TemplateTokenID() (string, error) {
	var id string
	if _, err := m.KVGet(paramKey(paramTemplateTokenID), &id); err != nil {
		return "", err
	}
	return id, nil
}

// SetTemplateTokenID stores the template token identifier.
func (m *Manager) SetTemplateTokenID(id string) error {
	return m.KVPut(paramKey(paramTemplateTokenID), id)
}
