package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/casacolor/casacolor-backend-go/pkg/utils"
	"github.com/casacolor/casacolor-backend-go/pkg/version"
)

// Health returns the health status of the service
func (h *Handlers) Health(c *gin.Context) {
	health := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   version.Service,
		"version":   version.GetVersion(),
	}

	if h.devices != nil {
		snapshots := h.devices.Snapshots()
		connected := 0
		for _, snap := range snapshots {
			if snap.Connected {
				connected++
			}
		}
		health["devices"] = gin.H{
			"configured": len(snapshots),
			"connected":  connected,
		}
	}

	if h.circle != nil {
		health["payments_proxy"] = gin.H{"enabled": h.circle.Enabled()}
	}

	if h.wsHub != nil {
		health["websocket_clients"] = h.wsHub.GetClientCount()
	}

	system := gin.H{}
	if vm, err := mem.VirtualMemory(); err == nil {
		system["memory_used_percent"] = vm.UsedPercent
	}
	if uptime, err := host.Uptime(); err == nil {
		system["uptime_seconds"] = uptime
	}
	if len(system) > 0 {
		health["system"] = system
	}

	utils.SendSuccess(c, health)
}
