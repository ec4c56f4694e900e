package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/firstclass-tutorials/fct-api/internal/models"
)

const adminsCollection = "admins"

// AdminRepository manages persistence for dashboard operators.
type AdminRepository struct {
	col *mongo.Collection
}

// NewAdminRepository constructs an AdminRepository.
func NewAdminRepository(db *mongo.Database) *AdminRepository {
	return &AdminRepository{col: db.Collection(adminsCollection)}
}

// FindByEmail fetches an admin by email. Returns mongo.ErrNoDocuments when
// absent.
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var admin models.AdminUser
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&admin); err != nil {
		return nil, err
	}
	return &admin, nil
}

// Count returns the number of admin documents.
func (r *AdminRepository) Count(ctx context.Context) (int64, error) {
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return total, nil
}

// Create inserts a new admin.
func (r *AdminRepository) Create(ctx context.Context, admin *models.AdminUser) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}
	if _, err := r.col.InsertOne(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// UpdateLastLogin stamps the most recent successful login.
func (r *AdminRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastLoginAt": ts}}); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}
