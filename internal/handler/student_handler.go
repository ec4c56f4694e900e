package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/firstclass-tutorials/fct-api/internal/models"
	"github.com/firstclass-tutorials/fct-api/internal/service"
	appErrors "github.com/firstclass-tutorials/fct-api/pkg/errors"
	"github.com/firstclass-tutorials/fct-api/pkg/response"
)

type studentService interface {
	Register(ctx context.Context, req service.RegisterStudentRequest) (*models.StudentRecord, error)
	Get(ctx context.Context, id string) (*models.StudentRecord, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentRecord, *models.Pagination, error)
}

type paymentService interface {
	Update(ctx context.Context, id string, req service.UpdatePaymentRequest) (*models.StudentRecord, error)
}

// StudentHandler exposes registration, listing and payment endpoints.
type StudentHandler struct {
	students studentService
	payments paymentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService, payments paymentService) *StudentHandler {
	return &StudentHandler{students: students, payments: payments}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Search across name, email and phone"
// @Param classTiming query string false "Filter by class timing"
// @Param program query string false "Filter by program membership"
// @Param paymentStatus query string false "Filter by payment status"
// @Param minAmount query number false "Minimum amount paid"
// @Param maxAmount query number false "Maximum amount paid"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort field"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	filter := parseStudentFilter(c)
	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

func parseStudentFilter(c *gin.Context) models.StudentFilter {
	var filter models.StudentFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.ClassTiming = c.Query("classTiming")
	filter.Program = c.Query("program")
	filter.PaymentStatus = c.Query("paymentStatus")
	if raw := c.Query("minAmount"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.AmountMin = &v
		}
	}
	if raw := c.Query("maxAmount"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.AmountMax = &v
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")
	return filter
}

// Get godoc
// @Summary Get a student record
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Register godoc
// @Summary Register a new student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.RegisterStudentRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Register(c *gin.Context) {
	var req service.RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// UpdatePayment godoc
// @Summary Update a student's payment lifecycle
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.UpdatePaymentRequest true "Payment patch"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [patch]
func (h *StudentHandler) UpdatePayment(c *gin.Context) {
	var req service.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.payments.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}
