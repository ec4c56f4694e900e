package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/firstclass-tutorials/fct-api/internal/middleware"
	"github.com/firstclass-tutorials/fct-api/internal/models"
)

type fakeExportSrv struct {
	csvResp []byte
	pdfResp []byte
	err     error
	lastID  string
}

func (f *fakeExportSrv) StudentsCSV(context.Context, models.StudentFilter) ([]byte, error) {
	return f.csvResp, f.err
}

func (f *fakeExportSrv) Receipt(_ context.Context, id string) ([]byte, error) {
	f.lastID = id
	return f.pdfResp, f.err
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{AdminID: "admin-1", Email: "admin@example.com"}
}

func TestExportHandlerStudentsCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExportHandler(&fakeExportSrv{csvResp: []byte("Full Name,Email\nJane Doe,jane@example.com\n")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/export", nil)
	c.Set(middleware.ContextAdminKey, adminClaims())

	handler.StudentsCSV(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "jane@example.com")
}

func TestExportHandlerStudentsCSVRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExportHandler(&fakeExportSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/export", nil)

	handler.StudentsCSV(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExportHandlerReceipt(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeExportSrv{pdfResp: []byte("%PDF-1.4")}
	handler := NewExportHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/abc123/receipt", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc123"}}
	c.Set(middleware.ContextAdminKey, adminClaims())

	handler.Receipt(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc123", srv.lastID)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
}
