package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casacolor/casacolor-backend-go/internal/core/devices"
	"github.com/casacolor/casacolor-backend-go/pkg/errors"
	"github.com/casacolor/casacolor-backend-go/pkg/utils"
)

// GetDevices returns snapshots of all configured devices
func (h *Handlers) GetDevices(c *gin.Context) {
	utils.SendSuccess(c, h.devices.Snapshots())
}

// GetDevice returns the snapshot of a single device
func (h *Handlers) GetDevice(c *gin.Context) {
	controller := h.devices.Get(c.Param("entity_id"))
	if controller == nil {
		utils.SendError(c, http.StatusNotFound, "Device not found")
		return
	}

	utils.SendSuccess(c, controller.Snapshot())
}

// LockDevice drives the device toward its secured state
func (h *Handlers) LockDevice(c *gin.Context) {
	h.runCommand(c, func(ctrl *devices.Controller) error {
		return ctrl.Lock(c.Request.Context())
	})
}

// UnlockDevice drives the device toward its released state
func (h *Handlers) UnlockDevice(c *gin.Context) {
	h.runCommand(c, func(ctrl *devices.Controller) error {
		return ctrl.Unlock(c.Request.Context())
	})
}

// ToggleDevice flips the device to the opposite of its displayed state
func (h *Handlers) ToggleDevice(c *gin.Context) {
	h.runCommand(c, func(ctrl *devices.Controller) error {
		return ctrl.Toggle(c.Request.Context())
	})
}

// RefreshDevice requests an immediate observed-state poll
func (h *Handlers) RefreshDevice(c *gin.Context) {
	controller := h.devices.Get(c.Param("entity_id"))
	if controller == nil {
		utils.SendError(c, http.StatusNotFound, "Device not found")
		return
	}

	controller.Refresh(c.Request.Context())
	utils.SendSuccess(c, controller.Snapshot())
}

func (h *Handlers) runCommand(c *gin.Context, run func(*devices.Controller) error) {
	controller := h.devices.Get(c.Param("entity_id"))
	if controller == nil {
		utils.SendError(c, http.StatusNotFound, "Device not found")
		return
	}

	if err := run(controller); err != nil {
		status := http.StatusBadGateway
		if errors.IsAppError(err) {
			status = errors.GetStatusCode(err)
		} else if errors.IsConfigurationError(err) {
			status = http.StatusServiceUnavailable
		}
		utils.SendError(c, status, err.Error())
		return
	}

	utils.SendSuccess(c, controller.Snapshot())
}
