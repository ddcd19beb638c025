package devices

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strptr(s string) *string { return &s }

func TestReconcileWithoutOverlay(t *testing.T) {
	displayed, confirmed := Reconcile("locked", nil)
	assert.Equal(t, "locked", displayed)
	assert.False(t, confirmed)
}

func TestReconcileOverlayWins(t *testing.T) {
	displayed, confirmed := Reconcile("unlocked", strptr("locked"))
	assert.Equal(t, "locked", displayed, "prediction is shown until the server catches up")
	assert.False(t, confirmed)
}

func TestReconcileOverlayConfirmed(t *testing.T) {
	displayed, confirmed := Reconcile("locked", strptr("locked"))
	assert.Equal(t, "locked", displayed)
	assert.True(t, confirmed)
}

func TestReconcileEmptyObserved(t *testing.T) {
	displayed, confirmed := Reconcile("", strptr("unlocked"))
	assert.Equal(t, "unlocked", displayed)
	assert.False(t, confirmed)
}

func TestKindFromEntityID(t *testing.T) {
	assert.Equal(t, KindLock, KindFromEntityID("lock.front_door"))
	assert.Equal(t, KindCover, KindFromEntityID("cover.garage"))
	assert.Equal(t, KindSwitch, KindFromEntityID("switch.hallway"))
	assert.Equal(t, KindSwitch, KindFromEntityID("light.kitchen"))
}

func TestLockCommandMapping(t *testing.T) {
	cmd, err := lockCommand(KindLock, true)
	assert.NoError(t, err)
	assert.Equal(t, command{"lock", "lock", "locked"}, cmd)

	cmd, err = lockCommand(KindLock, false)
	assert.NoError(t, err)
	assert.Equal(t, command{"lock", "unlock", "unlocked"}, cmd)

	cmd, err = lockCommand(KindCover, true)
	assert.NoError(t, err)
	assert.Equal(t, command{"cover", "close_cover", "closed"}, cmd)

	_, err = lockCommand(Kind("thermostat"), true)
	assert.Error(t, err)
}

func TestToggleCommandInvertsDisplayedState(t *testing.T) {
	cmd, err := toggleCommand(KindLock, "locked")
	assert.NoError(t, err)
	assert.Equal(t, "unlock", cmd.Service)

	cmd, err = toggleCommand(KindLock, "unlocked")
	assert.NoError(t, err)
	assert.Equal(t, "lock", cmd.Service)

	// Unknown state defaults to the securing direction.
	cmd, err = toggleCommand(KindLock, "")
	assert.NoError(t, err)
	assert.Equal(t, "lock", cmd.Service)

	cmd, err = toggleCommand(KindSwitch, "on")
	assert.NoError(t, err)
	assert.Equal(t, "turn_off", cmd.Service)
}
