package solarproviders

import (
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]SolarProvider)
)

// Register registers a solar production provider.
func Register(p SolarProvider) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if p == nil {
		panic("solarproviders: Register provider is nil")
	}
	if _, dup := registry[p.Key()]; dup {
		panic("solarproviders: Register called twice for provider " + p.Key())
	}
	registry[p.Key()] = p
}

// Get returns a solar provider by key.
func Get(key string) (SolarProvider, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[key]
	return p, ok
}

// List returns a sorted list of registered solar provider keys.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var keys []string
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetAll returns all registered solar providers.
func GetAll() []SolarProvider {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var out []SolarProvider
	for _, p := range registry {
		out = append(out, p)
	}
	return out
}
