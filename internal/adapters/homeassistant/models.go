package homeassistant

import (
	"strings"
	"time"
)

// EntityState represents a Home Assistant entity state
type EntityState struct {
	EntityID    string                 `json:"entity_id"`
	State       string                 `json:"state"`
	Attributes  map[string]interface{} `json:"attributes"`
	LastChanged time.Time              `json:"last_changed"`
	LastUpdated time.Time              `json:"last_updated"`
}

// Well-known entity states after normalization.
const (
	StateLocked      = "locked"
	StateUnlocked    = "unlocked"
	StateOpen        = "open"
	StateClosed      = "closed"
	StateOn          = "on"
	StateOff         = "off"
	StateUnavailable = "unavailable"
	StateUnknown     = "unknown"
)

// NormalizeState lower-cases and trims a hub state value. The hub has been
// observed returning both "locked" and "LOCKED" for the same condition, so
// normalization happens once here and every comparison downstream assumes
// lower case.
func NormalizeState(state string) string {
	return strings.ToLower(strings.TrimSpace(state))
}

// EntityDomain returns the domain part of a domain.object_id identifier, or
// "" when the identifier does not follow the convention.
func EntityDomain(entityID string) string {
	idx := strings.Index(entityID, ".")
	if idx <= 0 {
		return ""
	}
	return entityID[:idx]
}
