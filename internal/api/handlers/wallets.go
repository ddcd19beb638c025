package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casacolor/casacolor-backend-go/internal/circle"
)

// CreateWalletSet provisions a developer wallet set through the payments
// provider. Response and error shapes are normalized for the frontend.
func (h *Handlers) CreateWalletSet(c *gin.Context) {
	if h.circle == nil || !h.circle.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":    "PROXY_CONFIG",
			"error":   "wallet provisioning disabled",
			"message": "payments credentials are not configured",
		})
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "BAD_REQUEST",
			"error":   "invalid request body",
			"message": "name is required",
		})
		return
	}

	walletSet, err := h.circle.CreateWalletSet(c.Request.Context(), req.Name)
	if err != nil {
		status := http.StatusBadGateway
		body := gin.H{
			"code":    "WALLET_SET_FAILED",
			"error":   "wallet set creation failed",
			"message": err.Error(),
		}
		var wsErr *circle.WalletSetError
		if errors.As(err, &wsErr) {
			status = wsErr.StatusCode
			body["message"] = wsErr.Message
		}
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusCreated, walletSet)
}
