package tariffproviders

import (
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]TariffProvider)
)

// Register registers a tariff provider.
func Register(p TariffProvider) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if p == nil {
		panic("tariffproviders: Register provider is nil")
	}
	if _, dup := registry[p.Key()]; dup {
		panic("tariffproviders: Register called twice for provider " + p.Key())
	}
	registry[p.Key()] = p
}

// Get returns a tariff provider by key.
func Get(key string) (TariffProvider, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[key]
	return p, ok
}

// List returns a sorted list of registered tariff provider keys.
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

// GetAll returns all registered tariff providers.
func GetAll() []TariffProvider {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var out []TariffProvider
	for _, p := range registry {
		out = append(out, p)
	}
	return out
}
