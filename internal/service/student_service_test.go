package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/firstclass-tutorials/fct-api/internal/models"
	appErrors "github.com/firstclass-tutorials/fct-api/pkg/errors"
)

type fakeStudentRepo struct {
	byEmail    map[string]*models.StudentRecord
	byID       map[primitive.ObjectID]*models.StudentRecord
	inserted   []*models.StudentRecord
	insertErr  error
	listResp   []models.StudentRecord
	listTotal  int64
	listErr    error
	lastFilter models.StudentFilter
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{
		byEmail: make(map[string]*models.StudentRecord),
		byID:    make(map[primitive.ObjectID]*models.StudentRecord),
	}
}

func (f *fakeStudentRepo) Insert(_ context.Context, student *models.StudentRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	student.ID = primitive.NewObjectID()
	f.inserted = append(f.inserted, student)
	f.byEmail[student.Email] = student
	f.byID[student.ID] = student
	return nil
}

func (f *fakeStudentRepo) FindByEmail(_ context.Context, email string) (*models.StudentRecord, error) {
	if student, ok := f.byEmail[email]; ok {
		return student, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeStudentRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.StudentRecord, error) {
	if student, ok := f.byID[id]; ok {
		return student, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeStudentRepo) List(_ context.Context, filter models.StudentFilter) ([]models.StudentRecord, int64, error) {
	f.lastFilter = filter
	return f.listResp, f.listTotal, f.listErr
}

func validRegistration() RegisterStudentRequest {
	return RegisterStudentRequest{
		FullName:         "Jane Doe",
		Email:            "Jane@Example.com",
		Phone:            "08012345678",
		Address:          "12 Main Street",
		DateOfBirth:      "2004-05-01",
		SelectedPrograms: []string{"jamb", "waec"},
		ClassTiming:      "morning",
	}
}

func TestStudentServiceRegisterInitialState(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := NewStudentService(repo, nil, nil, nil, nil)
	registeredAt := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return registeredAt }

	record, err := svc.Register(context.Background(), validRegistration())

	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, record.PaymentStatus)
	assert.Equal(t, float64(0), record.AmountPaid)
	assert.Nil(t, record.LastPaymentDate)
	assert.Nil(t, record.NextPaymentDueDate)
	assert.Equal(t, registeredAt, record.RegistrationDate)
	assert.Equal(t, "jane@example.com", record.Email)
	assert.Equal(t, time.Date(2004, 5, 1, 0, 0, 0, 0, time.UTC), record.DateOfBirth)
	assert.False(t, record.ID.IsZero())
}

func TestStudentServiceRegisterAcceptsTimestampDateOfBirth(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := NewStudentService(repo, nil, nil, nil, nil)

	req := validRegistration()
	req.DateOfBirth = "2004-05-01T00:00:00Z"
	record, err := svc.Register(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2004, 5, 1, 0, 0, 0, 0, time.UTC), record.DateOfBirth)
}

func TestStudentServiceRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := NewStudentService(repo, nil, nil, nil, nil)

	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	second := validRegistration()
	second.Phone = "08099999999"
	_, err = svc.Register(context.Background(), second)

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDuplicateEmail.Code, appErr.Code)
	assert.Len(t, repo.inserted, 1)
}

func TestStudentServiceRegisterValidation(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := NewStudentService(repo, nil, nil, nil, nil)

	cases := []struct {
		name   string
		mutate func(*RegisterStudentRequest)
	}{
		{"missing email", func(r *RegisterStudentRequest) { r.Email = "" }},
		{"bad email", func(r *RegisterStudentRequest) { r.Email = "not-an-email" }},
		{"no programs", func(r *RegisterStudentRequest) { r.SelectedPrograms = nil }},
		{"unknown program", func(r *RegisterStudentRequest) { r.SelectedPrograms = []string{"alevels"} }},
		{"bad timing", func(r *RegisterStudentRequest) { r.ClassTiming = "evening" }},
		{"short name", func(r *RegisterStudentRequest) { r.FullName = "J" }},
		{"missing dob", func(r *RegisterStudentRequest) { r.DateOfBirth = "" }},
		{"bad dob format", func(r *RegisterStudentRequest) { r.DateOfBirth = "01/05/2004" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRegistration()
			tc.mutate(&req)
			_, err := svc.Register(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
			assert.Empty(t, repo.inserted)
		})
	}
}

func TestStudentServiceGet(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := NewStudentService(repo, nil, nil, nil, nil)

	record, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), record.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, record.Email, got.Email)

	_, err = svc.Get(context.Background(), primitive.NewObjectID().Hex())
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), "not-an-object-id")
	assert.Equal(t, appErrors.ErrInvalidID.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceListRejectsUnknownStatus(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := NewStudentService(repo, nil, nil, nil, nil)

	_, _, err := svc.List(context.Background(), models.StudentFilter{PaymentStatus: "paid"})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidStatus.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceListPaginationDefaults(t *testing.T) {
	repo := newFakeStudentRepo()
	repo.listTotal = 120
	svc := NewStudentService(repo, nil, nil, nil, nil)

	_, pagination, err := svc.List(context.Background(), models.StudentFilter{})

	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 50, pagination.PageSize)
	assert.Equal(t, 120, pagination.TotalCount)
	assert.Equal(t, 1, repo.lastFilter.Page)
	assert.Equal(t, 50, repo.lastFilter.PageSize)
}

func TestStudentServiceListClampsPageSize(t *testing.T) {
	repo := newFakeStudentRepo()
	svc := NewStudentService(repo, nil, nil, nil, nil)

	_, pagination, err := svc.List(context.Background(), models.StudentFilter{Page: 0, PageSize: 500})

	require.NoError(t, err)
	// reported window matches the query the store ran
	assert.Equal(t, 200, pagination.PageSize)
	assert.Equal(t, 200, repo.lastFilter.PageSize)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 1, repo.lastFilter.Page)
}
