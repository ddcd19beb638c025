package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casacolor/casacolor-backend-go/internal/api/middleware"
	"github.com/casacolor/casacolor-backend-go/internal/core/auth"
	"github.com/casacolor/casacolor-backend-go/pkg/utils"
)

// Register creates a new resident account
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resident, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	utils.SendSuccess(c, resident)
}

// Login authenticates a resident and issues a JWT
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		utils.SendError(c, http.StatusUnauthorized, err.Error())
		return
	}

	utils.SendSuccess(c, resp)
}

// ValidateToken validates a JWT and returns the resident it belongs to
func (h *Handlers) ValidateToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resident, err := h.authService.ValidateToken(req.Token)
	if err != nil {
		utils.SendError(c, http.StatusUnauthorized, "Invalid token")
		return
	}

	utils.SendSuccess(c, gin.H{
		"valid":    true,
		"resident": resident,
	})
}

// GetProfile returns the authenticated resident's profile
func (h *Handlers) GetProfile(c *gin.Context) {
	residentID, ok := middleware.ResidentID(c)
	if !ok {
		utils.SendError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	resident, err := h.authService.GetResidentByID(c.Request.Context(), residentID)
	if err != nil {
		utils.SendError(c, http.StatusNotFound, "Resident not found")
		return
	}

	utils.SendSuccess(c, resident)
}
