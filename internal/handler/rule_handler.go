package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// GetRules returns the business rule document
func (h *Handlers) GetRules(c *gin.Context) {
	c.JSON(http.StatusOK, RulesResponse{Rules: h.rules.Rules(c.Request.Context())})
}

// UpdateRules replaces the business rule document. The next message processed
// sees the new text.
func (h *Handlers) UpdateRules(c *gin.Context) {
	var req RulesRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Rules) == "" {
		errorJSON(c, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}

	if err := h.rules.SetRules(c.Request.Context(), req.Rules); err != nil {
		logrus.Errorf("Failed to update rules: %v", err)
		errorJSON(c, http.StatusInternalServerError, "rules_error", "Failed to update rules")
		return
	}

	logrus.Info("Business rules updated")
	c.JSON(http.StatusOK, RulesResponse{Rules: req.Rules})
}
