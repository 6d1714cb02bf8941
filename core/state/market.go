package state

import "forgechain/native/market"

// ListingGet loads a marketplace listing by id.
func (m *Manager) ListingGet(id uint64) (*market.Listing, bool, error) {
	record := &market.Listing{}
	ok, err := m.KVGet(listingKey(id), record)
	if err != nil || !ok {
		return nil, false, err
	}
	return record, true, nil
}

// ListingPut persists a marketplace listing under its id.
func (m *Manager) ListingPut(record *market.Listing) error {
	if record == nil {
		return nil
	}
	return m.KVPut(listingKey(record.ID), record)
}

// ListingNextID allocates the next monotonic listing id, starting at 0.
func (m *Manager) ListingNextID() (uint64, error) {
	return m.counterNext(listingNextKey)
}
