package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/firstclass-tutorials/fct-api/internal/models"
	appErrors "github.com/firstclass-tutorials/fct-api/pkg/errors"
)

type studentRepository interface {
	Insert(ctx context.Context, student *models.StudentRecord) error
	FindByEmail(ctx context.Context, email string) (*models.StudentRecord, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.StudentRecord, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentRecord, int64, error)
}

// RegisterStudentRequest holds the self-registration payload. dateOfBirth is
// bound as a string because the registration form submits a plain date, not a
// full timestamp.
type RegisterStudentRequest struct {
	FullName         string   `json:"fullName" validate:"required,min=2"`
	Email            string   `json:"email" validate:"required,email"`
	Phone            string   `json:"phone" validate:"required,min=7,max=20"`
	Address          string   `json:"address" validate:"required"`
	DateOfBirth      string   `json:"dateOfBirth" validate:"required"`
	SelectedPrograms []string `json:"selectedPrograms" validate:"required,min=1,dive,oneof=jamb waec post_utme jss"`
	ClassTiming      string   `json:"classTiming" validate:"required,oneof=morning afternoon"`
}

// parseDateOfBirth accepts the date-input format (2006-01-02) with RFC 3339
// timestamps as a fallback.
func parseDateOfBirth(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// StudentService handles registration and read-side listing.
type StudentService struct {
	repo      studentRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// Register validates the payload, enforces email uniqueness and creates a new
// record in the initial pending_payment state.
func (s *StudentService) Register(ctx context.Context, req RegisterStudentRequest) (*models.StudentRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	dob, err := parseDateOfBirth(strings.TrimSpace(req.DateOfBirth))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "dateOfBirth must be a YYYY-MM-DD date")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Uniqueness is enforced here; the store is schemaless and carries no
	// secondary constraint on email.
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicateEmail, "")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to check existing email")
	}

	record := &models.StudentRecord{
		FullName:         strings.TrimSpace(req.FullName),
		Email:            email,
		Phone:            strings.TrimSpace(req.Phone),
		Address:          strings.TrimSpace(req.Address),
		DateOfBirth:      dob.UTC(),
		SelectedPrograms: req.SelectedPrograms,
		ClassTiming:      req.ClassTiming,
		RegistrationDate: s.now().UTC(),
		AmountPaid:       0,
		PaymentStatus:    models.PaymentPending,
	}

	start := s.now()
	err = s.repo.Insert(ctx, record)
	if s.metrics != nil {
		s.metrics.ObserveStoreOperation("insert_student", s.now().Sub(start))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to create student record")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, "dash:*"); err != nil {
			s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
		}
	}

	s.logger.Info("student registered",
		zap.String("student_id", record.ID.Hex()),
		zap.Strings("programs", record.SelectedPrograms),
	)
	return record, nil
}

// Get returns a single record by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidID, "invalid student id format: "+id)
	}
	record, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found: "+id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load student")
	}
	return record, nil
}

// List returns students matching the filter plus pagination metadata. The
// default ordering is registration date, newest first.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentRecord, *models.Pagination, error) {
	if filter.PaymentStatus != "" && !models.PaymentStatus(filter.PaymentStatus).Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidStatus, "unknown payment status filter: "+filter.PaymentStatus)
	}

	// Clamp the window here so the reported pagination always matches the
	// query the store actually ran.
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	if filter.PageSize > 200 {
		filter.PageSize = 200
	}

	start := s.now()
	students, total, err := s.repo.List(ctx, filter)
	if s.metrics != nil {
		s.metrics.ObserveStoreOperation("list_students", s.now().Sub(start))
	}
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list students")
	}

	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: int(total)}
	return students, pagination, nil
}
