package devices

import (
	"fmt"

	ha "github.com/casacolor/casacolor-backend-go/internal/adapters/homeassistant"
)

// Kind is the controllable device category of an entity.
type Kind string

const (
	KindLock   Kind = "lock"
	KindSwitch Kind = "switch"
	KindCover  Kind = "cover"
)

// KindFromEntityID derives the device kind from the hub's domain.object_id
// convention, defaulting to switch for unrecognized domains.
func KindFromEntityID(entityID string) Kind {
	switch ha.EntityDomain(entityID) {
	case "lock":
		return KindLock
	case "cover":
		return KindCover
	default:
		return KindSwitch
	}
}

// Reconcile merges the last observed state with the optimistic overlay into
// the displayed value. It reports whether the overlay has been confirmed by
// the server and should be cleared. Pure; no timers or network involved.
func Reconcile(observed string, optimistic *string) (displayed string, confirmed bool) {
	if optimistic == nil {
		return observed, false
	}
	if observed == *optimistic {
		return observed, true
	}
	return *optimistic, false
}

// command describes one hub service call together with the state the entity
// is predicted to reach once the hub catches up.
type command struct {
	Domain    string
	Service   string
	Predicted string
}

// lockCommand maps the lock/unlock operations for a device kind. locking=true
// means the securing direction (lock, close, off).
func lockCommand(kind Kind, locking bool) (command, error) {
	switch kind {
	case KindLock:
		if locking {
			return command{"lock", "lock", ha.StateLocked}, nil
		}
		return command{"lock", "unlock", ha.StateUnlocked}, nil
	case KindCover:
		if locking {
			return command{"cover", "close_cover", ha.StateClosed}, nil
		}
		return command{"cover", "open_cover", ha.StateOpen}, nil
	case KindSwitch:
		if locking {
			return command{"switch", "turn_off", ha.StateOff}, nil
		}
		return command{"switch", "turn_on", ha.StateOn}, nil
	}
	return command{}, fmt.Errorf("unsupported device kind %q", kind)
}

// toggleCommand inverts the currently displayed state.
func toggleCommand(kind Kind, displayed string) (command, error) {
	switch kind {
	case KindLock:
		return lockCommand(kind, displayed != ha.StateLocked)
	case KindCover:
		return lockCommand(kind, displayed != ha.StateClosed)
	case KindSwitch:
		return lockCommand(kind, displayed == ha.StateOn)
	}
	return command{}, fmt.Errorf("unsupported device kind %q", kind)
}
