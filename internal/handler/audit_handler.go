package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"smart-mail-reply-go/internal/model"
	"smart-mail-reply-go/internal/repository"
	"smart-mail-reply-go/internal/service/export"
)

// GetAuditRecords returns audit records with pagination, newest first
func (h *Handlers) GetAuditRecords(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	category := strings.ToUpper(strings.TrimSpace(c.Query("category")))

	records, total, err := h.repo.ListAudit(c.Request.Context(), page, limit, category)
	if err != nil {
		logrus.Errorf("Failed to list audit records: %v", err)
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to fetch audit records")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": lo.Map(records, func(rec model.AuditRecord, _ int) AuditRecordResponse {
			return newAuditRecordResponse(rec)
		}),
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetAuditRecord returns a specific audit record
func (h *Handlers) GetAuditRecord(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_id", "Invalid audit record ID")
		return
	}

	rec, err := h.repo.GetAudit(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			errorJSON(c, http.StatusNotFound, "not_found", "Audit record not found")
			return
		}
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to fetch audit record")
		return
	}

	c.JSON(http.StatusOK, newAuditRecordResponse(*rec))
}

// GetAuditStats returns message counts per category
func (h *Handlers) GetAuditStats(c *gin.Context) {
	counts, err := h.repo.CategoryCounts(c.Request.Context())
	if err != nil {
		logrus.Errorf("Failed to count categories: %v", err)
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to compute statistics")
		return
	}

	total := lo.SumBy(counts, func(cc repository.CategoryCount) int64 { return cc.Count })
	c.JSON(http.StatusOK, gin.H{
		"total":      total,
		"categories": counts,
	})
}

// ExportAudit downloads the whole audit log as an XLSX workbook
func (h *Handlers) ExportAudit(c *gin.Context) {
	records, err := h.repo.AllAudit(c.Request.Context())
	if err != nil {
		logrus.Errorf("Failed to load audit records: %v", err)
		errorJSON(c, http.StatusInternalServerError, "database_error", "Failed to load audit records")
		return
	}

	var buf bytes.Buffer
	if err := export.AuditXLSX(&buf, records); err != nil {
		logrus.Errorf("Failed to build audit export: %v", err)
		errorJSON(c, http.StatusInternalServerError, "export_error", "Failed to build export")
		return
	}

	filename := fmt.Sprintf("audit-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
