package state

import "forgechain/native/templates"

// TemplateGet loads a template token record by nonce.
func (m *Manager) TemplateGet(nonce uint64) (*templates.Template, bool, error) {
	record := &templates.Template{}
	ok, err := m.KVGet(templateKey(nonce), record)
	if err != nil || !ok {
		return nil, false, err
	}
	return record, true, nil
}

// TemplatePut persists a template token record under its nonce.
func (m *Manager) TemplatePut(record *templates.Template) error {
	if record == nil {
		return nil
	}
	return m.KVPut(templateKey(record.Nonce), record)
}

// TemplateNextNonce allocates the next token nonce. Nonces start at 1 so a
// zero nonce on a generation record always means "not yet minted".
func (m *Manager) TemplateNextNonce() (uint64, error) {
	var current uint64
	if _, err := m.KVGet(templateNonceKey, &current); err != nil {
		return 0, err
	}
	next := current + 1
	if err := m.KVPut(templateNonceKey, next); err != nil {
		return 0, err
	}
	return next, nil
}
