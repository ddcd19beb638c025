package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/casacolor/casacolor-backend-go/internal/api/middleware"
	"github.com/casacolor/casacolor-backend-go/pkg/utils"
)

// GetMyApartment returns the apartment assigned to the authenticated resident
func (h *Handlers) GetMyApartment(c *gin.Context) {
	residentID, ok := middleware.ResidentID(c)
	if !ok {
		utils.SendError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	apartment, err := h.repos.Apartment.GetByResident(c.Request.Context(), residentID)
	if err != nil {
		utils.SendError(c, http.StatusNotFound, "No apartment assigned")
		return
	}

	utils.SendSuccess(c, apartment)
}

// GetApartment returns an apartment by ID
func (h *Handlers) GetApartment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid apartment ID")
		return
	}

	apartment, err := h.repos.Apartment.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.SendError(c, http.StatusNotFound, "Apartment not found")
		return
	}

	utils.SendSuccess(c, apartment)
}
