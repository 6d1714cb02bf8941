package state

import "forgechain/native/gen"

// GenerationGet loads a generation record by id.
func (m *Manager) GenerationGet(id uint64) (*gen.Generation, bool, error) {
	record := &gen.Generation{}
	ok, err := m.KVGet(generationKey(id), record)
	if err != nil || !ok {
		return nil, false, err
	}
	return record, true, nil
}

// GenerationPut persists a generation record under its id.
func (m *Manager) GenerationPut(record *gen.Generation) error {
	if record == nil {
		return nil
	}
	return m.KVPut(generationKey(record.ID), record)
}

// GenerationNextID allocates the next monotonic generation id, starting at 0.
func (m *Manager) GenerationNextID() (uint64, error) {
	return m.counterNext(generationNextKey)
}

// GenerationCount reports how many generation ids have been allocated.
func (m *Manager) GenerationCount() (uint64, error) {
	return m.counterGet(generationNextKey)
}

// RateCounterGet loads the daily quota counter for an account.
func (m *Manager) RateCounterGet(addr [20]byte) (*gen.RateCounter, bool, error) {
	counter := &gen.RateCounter{}
	ok, err := m.KVGet(rateCounterKey(addr), counter)
	if err != nil || !ok {
		return nil, false, err
	}
	return counter, true, nil
}

// RateCounterPut persists the daily quota counter for an account.
func (m *Manager) RateCounterPut(addr [20]byte, counter *gen.RateCounter) error {
	if counter == nil {
		return nil
	}
	return m.KVPut(rateCounterKey(addr), counter)
}

// LifetimeCountGet loads the lifetime generation count for an account.
func (m *Manager) LifetimeCountGet(addr [20]byte) (uint64, error) {
	var count uint64
	if _, err := m.KVGet(lifetimeKey(addr), &count); err != nil {
		return 0, err
	}
	return count, nil
}

// LifetimeCountPut persists the lifetime generation count for an account.
func (m *Manager) LifetimeCountPut(addr [20]byte, count uint64) error {
	return m.KVPut(lifetimeKey(addr), count)
}
