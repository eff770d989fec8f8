package store

import (
	"encoding/json"
	"fmt"
	"sort"
)

// MockStore is an in-memory Store for tests.
type MockStore struct {
	States map[string]json.RawMessage
	Err    error // when set, every operation fails with it
}

var _ Store = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{States: make(map[string]json.RawMessage)}
}

func (m *MockStore) Load(pluginID string) (json.RawMessage, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	raw, ok := m.States[pluginID]
	if !ok {
		return nil, ErrStateAbsent
	}
	return raw, nil
}

func (m *MockStore) Save(pluginID string, raw json.RawMessage) error {
	if m.Err != nil {
		return m.Err
	}
	if !json.Valid(raw) {
		return fmt.Errorf("module state for %s is not valid JSON", pluginID)
	}
	cp := make(json.RawMessage, len(raw))
	copy(cp, raw)
	m.States[pluginID] = cp
	return nil
}

func (m *MockStore) Delete(pluginID string) error {
	if m.Err != nil {
		return m.Err
	}
	delete(m.States, pluginID)
	return nil
}

func (m *MockStore) List() ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	ids := make([]string, 0, len(m.States))
	for id := range m.States {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
