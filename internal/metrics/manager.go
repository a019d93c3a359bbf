package metrics

import (
	"sync"
)

// Manager gives callers a single access point to domain metrics
// alongside the Get() registry singleton.
type Manager struct {
	Fingerprint *FingerprintMetrics
	mu          sync.RWMutex
}

var globalManager *Manager
var managerOnce sync.Once

// GetManager returns the global metrics manager (singleton).
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = &Manager{
			Fingerprint: InitializeFingerprintMetrics(),
		}
	})
	return globalManager
}
