package session

import (
	"sync"

	"backend-wearquest/internal/geofence"
	"backend-wearquest/internal/location"
	"backend-wearquest/internal/vault"
)

// Manager hands out one engine per user. Engines are independent; they
// share only the geofence registry, the location provider, and the
// vault.
type Manager struct {
	provider location.Provider
	zones    *geofence.Registry
	store    vault.Store

	mu      sync.Mutex
	engines map[string]*Engine
}

func NewManager(provider location.Provider, zones *geofence.Registry, store vault.Store) *Manager {
	return &Manager{
		provider: provider,
		zones:    zones,
		store:    store,
		engines:  map[string]*Engine{},
	}
}

func (m *Manager) Engine(userID string) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	if eng, ok := m.engines[userID]; ok {
		return eng
	}
	eng := NewEngine(userID, m.provider, m.zones, m.store)
	m.engines[userID] = eng
	return eng
}
