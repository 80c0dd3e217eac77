package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetModels lists the candidate models. With ?discover=true the provider is
// asked for the models it offers as well.
func (h *Handlers) GetModels(c *gin.Context) {
	response := gin.H{"configured": h.engine.Models()}

	if c.Query("discover") == "true" {
		available, err := h.engine.Discover(c.Request.Context())
		if err != nil {
			errorJSON(c, http.StatusBadGateway, "provider_error", "Failed to list provider models: "+err.Error())
			return
		}
		response["available"] = available
	}

	c.JSON(http.StatusOK, response)
}
