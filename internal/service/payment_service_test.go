package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/firstclass-tutorials/fct-api/internal/models"
	appErrors "github.com/firstclass-tutorials/fct-api/pkg/errors"
)

type fakePaymentRepo struct {
	record    *models.StudentRecord
	errs      []error // consumed per call; nil entry means success
	calls     int
	lastPatch models.PaymentPatch
	lastNow   time.Time
}

func (f *fakePaymentRepo) UpdatePayment(_ context.Context, _ primitive.ObjectID, patch models.PaymentPatch, now time.Time) (*models.StudentRecord, error) {
	f.calls++
	f.lastPatch = patch
	f.lastNow = now
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.record, nil
}

func newTestPaymentService(repo *fakePaymentRepo, cfg PaymentConfig) (*PaymentService, *int) {
	svc := NewPaymentService(repo, nil, nil, nil, cfg)
	sleeps := 0
	svc.sleep = func(context.Context, time.Duration) error {
		sleeps++
		return nil
	}
	return svc, &sleeps
}

func stringPtr(s string) *string { return &s }

func float64Ptr(f float64) *float64 { return &f }

func TestPaymentServiceUpdateInvalidID(t *testing.T) {
	svc, _ := newTestPaymentService(&fakePaymentRepo{}, PaymentConfig{})

	_, err := svc.Update(context.Background(), "garbage", UpdatePaymentRequest{PaymentStatus: stringPtr("approved")})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidID.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceUpdateInvalidStatus(t *testing.T) {
	svc, _ := newTestPaymentService(&fakePaymentRepo{}, PaymentConfig{})

	_, err := svc.Update(context.Background(), primitive.NewObjectID().Hex(),
		UpdatePaymentRequest{PaymentStatus: stringPtr("paid")})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidStatus.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceUpdateEmptyPatch(t *testing.T) {
	svc, _ := newTestPaymentService(&fakePaymentRepo{}, PaymentConfig{})

	_, err := svc.Update(context.Background(), primitive.NewObjectID().Hex(), UpdatePaymentRequest{})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmptyUpdate.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceUpdateNegativeAmount(t *testing.T) {
	svc, _ := newTestPaymentService(&fakePaymentRepo{}, PaymentConfig{})

	_, err := svc.Update(context.Background(), primitive.NewObjectID().Hex(),
		UpdatePaymentRequest{AmountPaid: float64Ptr(-1)})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceUpdatePassesPatchThrough(t *testing.T) {
	repo := &fakePaymentRepo{record: &models.StudentRecord{PaymentStatus: models.PaymentVerification}}
	svc := NewPaymentService(repo, nil, NewMetricsService(), nil, PaymentConfig{})
	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	nowCalls := 0
	svc.now = func() time.Time {
		nowCalls++
		return fixed
	}

	record, err := svc.Update(context.Background(), primitive.NewObjectID().Hex(), UpdatePaymentRequest{
		PaymentStatus: stringPtr("pending_verification"),
		SenderName:    stringPtr("John Doe"),
		AmountPaid:    float64Ptr(8000),
	})

	require.NoError(t, err)
	assert.Equal(t, models.PaymentVerification, record.PaymentStatus)
	assert.Equal(t, 1, repo.calls)
	require.NotNil(t, repo.lastPatch.PaymentStatus)
	assert.Equal(t, models.PaymentVerification, *repo.lastPatch.PaymentStatus)
	assert.Equal(t, "John Doe", *repo.lastPatch.SenderName)
	assert.Equal(t, float64(8000), *repo.lastPatch.AmountPaid)
	assert.Equal(t, fixed, repo.lastNow)
	// patch timestamp and store-operation timing both read the injected clock
	assert.GreaterOrEqual(t, nowCalls, 3)
}

func TestPaymentServiceUpdateRetriesOnNotFound(t *testing.T) {
	repo := &fakePaymentRepo{
		record: &models.StudentRecord{PaymentStatus: models.PaymentApproved},
		errs:   []error{mongo.ErrNoDocuments, mongo.ErrNoDocuments, nil},
	}
	svc, sleeps := newTestPaymentService(repo, PaymentConfig{LookupRetries: 3, LookupRetryDelay: time.Millisecond})

	record, err := svc.Update(context.Background(), primitive.NewObjectID().Hex(),
		UpdatePaymentRequest{PaymentStatus: stringPtr("approved")})

	require.NoError(t, err)
	assert.Equal(t, models.PaymentApproved, record.PaymentStatus)
	assert.Equal(t, 3, repo.calls)
	assert.Equal(t, 2, *sleeps)
}

func TestPaymentServiceUpdateNotFoundAfterRetryBudget(t *testing.T) {
	repo := &fakePaymentRepo{
		errs: []error{mongo.ErrNoDocuments, mongo.ErrNoDocuments, mongo.ErrNoDocuments, mongo.ErrNoDocuments},
	}
	svc, sleeps := newTestPaymentService(repo, PaymentConfig{LookupRetries: 3, LookupRetryDelay: time.Millisecond})

	_, err := svc.Update(context.Background(), primitive.NewObjectID().Hex(),
		UpdatePaymentRequest{PaymentStatus: stringPtr("approved")})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 4, repo.calls) // initial attempt plus three retries
	assert.Equal(t, 3, *sleeps)
}

func TestPaymentServiceUpdateStoreErrorIsNotRetried(t *testing.T) {
	repo := &fakePaymentRepo{errs: []error{errors.New("connection reset")}}
	svc, sleeps := newTestPaymentService(repo, PaymentConfig{LookupRetries: 3, LookupRetryDelay: time.Millisecond})

	_, err := svc.Update(context.Background(), primitive.NewObjectID().Hex(),
		UpdatePaymentRequest{PaymentStatus: stringPtr("rejected")})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStore.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, 0, *sleeps)
}

func TestPaymentServiceUpdateCancelledDuringBackoff(t *testing.T) {
	repo := &fakePaymentRepo{errs: []error{mongo.ErrNoDocuments, mongo.ErrNoDocuments}}
	svc := NewPaymentService(repo, nil, nil, nil, PaymentConfig{LookupRetries: 3, LookupRetryDelay: time.Millisecond})
	svc.sleep = func(ctx context.Context, _ time.Duration) error { return context.Canceled }

	_, err := svc.Update(context.Background(), primitive.NewObjectID().Hex(),
		UpdatePaymentRequest{PaymentStatus: stringPtr("approved")})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStore.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 1, repo.calls)
}
