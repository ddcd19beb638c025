package devices

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	ha "github.com/casacolor/casacolor-backend-go/internal/adapters/homeassistant"
	"github.com/casacolor/casacolor-backend-go/internal/config"
)

// Manager owns the set of controllers, one per configured entity.
type Manager struct {
	mu          sync.RWMutex
	controllers map[string]*Controller
	logger      *logrus.Logger
}

// NewManager builds controllers for every configured entity. Entities without
// an id are skipped; the hub client may be shared because controllers never
// share mutable state.
func NewManager(entities []config.EntityConfig, client ha.Client, logger *logrus.Logger, opts Options) *Manager {
	m := &Manager{
		controllers: make(map[string]*Controller),
		logger:      logger,
	}

	for _, e := range entities {
		if e.EntityID == "" {
			logger.Warn("Skipping device entry with empty entity_id")
			continue
		}
		kind := Kind(e.Kind)
		if kind == "" {
			kind = KindFromEntityID(e.EntityID)
		}
		m.controllers[e.EntityID] = NewController(e.EntityID, e.Name, kind, client, logger, opts)
	}

	logger.WithField("count", len(m.controllers)).Info("Device controllers started")
	return m
}

// Get returns the controller for an entity id, or nil.
func (m *Manager) Get(entityID string) *Controller {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.controllers[entityID]
}

// Snapshots returns all current snapshots, ordered by entity id.
func (m *Manager) Snapshots() []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snaps := make([]Snapshot, 0, len(m.controllers))
	for _, c := range m.controllers {
		snaps = append(snaps, c.Snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].EntityID < snaps[j].EntityID })
	return snaps
}

// Close tears down every controller.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.controllers {
		c.Close()
	}
	m.controllers = make(map[string]*Controller)
}
