package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/firstclass-tutorials/fct-api/internal/models"
	appErrors "github.com/firstclass-tutorials/fct-api/pkg/errors"
)

type paymentRepository interface {
	UpdatePayment(ctx context.Context, id primitive.ObjectID, patch models.PaymentPatch, now time.Time) (*models.StudentRecord, error)
}

// UpdatePaymentRequest is the PATCH body. Absent fields stay nil; an update
// with no recognized field at all is rejected rather than silently accepted.
type UpdatePaymentRequest struct {
	PaymentStatus    *string  `json:"paymentStatus"`
	SenderName       *string  `json:"senderName"`
	AmountPaid       *float64 `json:"amountPaid"`
	IsMonthlyRenewal bool     `json:"isMonthlyRenewal"`
}

// PaymentConfig tunes the defensive lookup retry.
type PaymentConfig struct {
	LookupRetries    int
	LookupRetryDelay time.Duration
}

// PaymentService is the single mutation entry point for a student's payment
// lifecycle: submission of payment details, admin approval or rejection, and
// monthly renewal.
type PaymentService struct {
	repo    paymentRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	cfg     PaymentConfig
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewPaymentService constructs the payment service.
func NewPaymentService(repo paymentRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg PaymentConfig) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LookupRetries < 0 {
		cfg.LookupRetries = 0
	}
	if cfg.LookupRetryDelay <= 0 {
		cfg.LookupRetryDelay = 150 * time.Millisecond
	}
	return &PaymentService{
		repo:    repo,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

// Update applies a payment patch to the record with the given id and returns
// the post-update state. Date derivation happens inside the store's atomic
// conditional update; this layer only validates the patch and bounds the
// not-found retry.
func (s *PaymentService) Update(ctx context.Context, id string, req UpdatePaymentRequest) (*models.StudentRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidID, "invalid student id format: "+id)
	}

	patch := models.PaymentPatch{
		SenderName:       req.SenderName,
		AmountPaid:       req.AmountPaid,
		IsMonthlyRenewal: req.IsMonthlyRenewal,
	}
	if req.PaymentStatus != nil {
		status := models.PaymentStatus(*req.PaymentStatus)
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrInvalidStatus, "invalid payment status: "+*req.PaymentStatus)
		}
		patch.PaymentStatus = &status
	}
	if patch.Empty() {
		return nil, appErrors.Clone(appErrors.ErrEmptyUpdate, "")
	}
	if req.AmountPaid != nil && *req.AmountPaid < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amountPaid must not be negative")
	}

	now := s.now().UTC()

	// The store gives read-after-write consistency, so absence almost always
	// means absence. A few immediate retries cover replication lag without
	// ever masking a genuinely missing record.
	var record *models.StudentRecord
	attempts := s.cfg.LookupRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		start := s.now()
		record, err = s.repo.UpdatePayment(ctx, oid, patch, now)
		if s.metrics != nil {
			s.metrics.ObserveStoreOperation("update_payment", s.now().Sub(start))
		}
		if err == nil {
			break
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to update payment")
		}
		if attempt == attempts-1 {
			break
		}
		s.logger.Warn("student not found on payment update, retrying",
			zap.String("student_id", id),
			zap.Int("attempt", attempt+1),
		)
		if err := s.sleep(ctx, s.cfg.LookupRetryDelay); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "payment update cancelled")
		}
	}
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found: "+id)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, "dash:*"); err != nil {
			s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
		}
	}

	s.logger.Info("payment updated",
		zap.String("student_id", id),
		zap.String("payment_status", string(record.PaymentStatus)),
		zap.Bool("renewal", req.IsMonthlyRenewal),
	)
	return record, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
