package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/firstclass-tutorials/fct-api/internal/models"
	appErrors "github.com/firstclass-tutorials/fct-api/pkg/errors"
	"github.com/firstclass-tutorials/fct-api/pkg/response"
)

type exportService interface {
	StudentsCSV(ctx context.Context, filter models.StudentFilter) ([]byte, error)
	Receipt(ctx context.Context, id string) ([]byte, error)
}

// ExportHandler streams CSV exports and payment receipts.
type ExportHandler struct {
	exports exportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// StudentsCSV godoc
// @Summary Export students as CSV
// @Tags Export
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} file
// @Router /students/export [get]
func (h *ExportHandler) StudentsCSV(c *gin.Context) {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := parseStudentFilter(c)
	payload, err := h.exports.StudentsCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("students-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", payload)
}

// Receipt godoc
// @Summary Download a payment receipt PDF
// @Tags Export
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {file} file
// @Router /students/{id}/receipt [get]
func (h *ExportHandler) Receipt(c *gin.Context) {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id := c.Param("id")
	payload, err := h.exports.Receipt(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "receipt-"+id+".pdf"))
	c.Data(http.StatusOK, "application/pdf", payload)
}
