package internal

import (
	"log"
	"sync"
)

// CleanupManager tracks resources and ensures ordered cleanup in LIFO order.
type CleanupManager struct {
	mu    sync.Mutex
	funcs []cleanupFunc
}

type cleanupFunc struct {
	name string
	fn   func() error
}

// NewCleanupManager creates a new cleanup manager.
func NewCleanupManager() *CleanupManager {
	return &CleanupManager{}
}

// Add registers a cleanup function. Functions are executed in LIFO order
// (last added, first executed) so resources are released in the reverse
// order of their acquisition.
func (m *CleanupManager) Add(name string, fn func() error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.funcs = append([]cleanupFunc{{name, fn}}, m.funcs...)
}

// Execute runs all registered cleanup functions, logging any errors.
// All cleanup functions run even if some of them fail.
func (m *CleanupManager) Execute() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, cleanup := range m.funcs {
		if err := cleanup.fn(); err != nil {
			log.Printf("cleanup failed for %s: %v", cleanup.name, err)
		}
	}
}
