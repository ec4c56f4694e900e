package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/firstclass-tutorials/fct-api/internal/models"
)

const studentsCollection = "students"

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	col *mongo.Collection
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *mongo.Database) *StudentRepository {
	return &StudentRepository{col: db.Collection(studentsCollection)}
}

// Insert stores a new student record and assigns its id.
func (r *StudentRepository) Insert(ctx context.Context, student *models.StudentRecord) error {
	if student.ID.IsZero() {
		student.ID = primitive.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, student); err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// FindByEmail fetches a record by its email, the application-level uniqueness
// key. Returns mongo.ErrNoDocuments when absent.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*models.StudentRecord, error) {
	var record models.StudentRecord
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByID fetches a record by id. Returns mongo.ErrNoDocuments when absent.
func (r *StudentRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.StudentRecord, error) {
	var record models.StudentRecord
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

// allowedSorts whitelists the scalar fields the listing may sort on.
var allowedSorts = map[string]string{
	"fullName":           "fullName",
	"email":              "email",
	"phone":              "phone",
	"classTiming":        "classTiming",
	"dateOfBirth":        "dateOfBirth",
	"registrationDate":   "registrationDate",
	"amountPaid":         "amountPaid",
	"paymentStatus":      "paymentStatus",
	"lastPaymentDate":    "lastPaymentDate",
	"nextPaymentDueDate": "nextPaymentDueDate",
}

// List returns students matching the provided filters along with the total
// match count. Filters combine conjunctively.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentRecord, int64, error) {
	query := listQuery(filter)

	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "registrationDate"
	}
	order := -1
	if filter.SortOrder == "asc" {
		order = 1
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	} else if size > 200 {
		size = 200
	}

	opts := options.Find().
		SetSort(bson.D{{Key: column, Value: order}, {Key: "_id", Value: order}}).
		SetSkip(int64((page - 1) * size)).
		SetLimit(int64(size)).
		SetCollation(&options.Collation{Locale: "en", Strength: 2})

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}
	defer cursor.Close(ctx)

	students := make([]models.StudentRecord, 0)
	if err := cursor.All(ctx, &students); err != nil {
		return nil, 0, fmt.Errorf("decode students: %w", err)
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

func listQuery(filter models.StudentFilter) bson.M {
	query := bson.M{}
	if filter.ClassTiming != "" {
		query["classTiming"] = filter.ClassTiming
	}
	if filter.Program != "" {
		query["selectedPrograms"] = filter.Program
	}
	if filter.PaymentStatus != "" {
		query["paymentStatus"] = filter.PaymentStatus
	}
	if filter.AmountMin != nil || filter.AmountMax != nil {
		amount := bson.M{}
		if filter.AmountMin != nil {
			amount["$gte"] = *filter.AmountMin
		}
		if filter.AmountMax != nil {
			amount["$lte"] = *filter.AmountMax
		}
		query["amountPaid"] = amount
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"fullName": pattern},
			bson.M{"email": pattern},
			bson.M{"phone": pattern},
		}
	}
	return query
}

// UpdatePayment applies a payment patch as one atomic conditional update and
// returns the post-update document. Renewal and approval date derivation read
// the document's own stored values inside the same operation, so concurrent
// updates to the same record cannot interleave between a read and a write.
// Returns mongo.ErrNoDocuments when no record has the given id.
func (r *StudentRepository) UpdatePayment(ctx context.Context, id primitive.ObjectID, patch models.PaymentPatch, now time.Time) (*models.StudentRecord, error) {
	var update interface{}
	if patch.IsMonthlyRenewal {
		update = paymentUpdatePipeline(patch, now)
	} else {
		set := bson.M{}
		if patch.PaymentStatus != nil {
			set["paymentStatus"] = *patch.PaymentStatus
			if *patch.PaymentStatus == models.PaymentApproved {
				set["lastPaymentDate"] = now
				set["nextPaymentDueDate"] = now.AddDate(0, 1, 0)
			}
		}
		if patch.AmountPaid != nil {
			set["amountPaid"] = *patch.AmountPaid
		}
		if patch.SenderName != nil {
			set["senderName"] = *patch.SenderName
		}
		update = bson.M{"$set": set}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var record models.StudentRecord
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&record); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, err
		}
		return nil, fmt.Errorf("update payment for %s: %w", id.Hex(), err)
	}
	return &record, nil
}

// paymentUpdatePipeline builds the aggregation-pipeline update used when the
// patch carries the monthly renewal flag. The renewal branch only applies
// while the record is approved and its due date has not already been pushed a
// full month ahead; re-issuing the identical renewal immediately is therefore
// a no-op instead of a double advancement. When the record is not approved,
// the patch falls back to the plain transition rules, including first-approval
// date derivation when the patch sets status to approved.
func paymentUpdatePipeline(patch models.PaymentPatch, now time.Time) mongo.Pipeline {
	isApproved := bson.M{"$eq": bson.A{"$paymentStatus", models.PaymentApproved}}
	renewable := bson.M{"$and": bson.A{
		isApproved,
		bson.M{"$lt": bson.A{
			bson.M{"$ifNull": bson.A{"$nextPaymentDueDate", time.Unix(0, 0).UTC()}},
			now.AddDate(0, 1, 0),
		}},
	}}
	patchApproves := patch.PaymentStatus != nil && *patch.PaymentStatus == models.PaymentApproved
	firstApproval := bson.M{"$not": bson.A{isApproved}}

	lastBranches := bson.A{bson.M{"case": renewable, "then": now}}
	nextBranches := bson.A{bson.M{"case": renewable, "then": bson.M{"$dateAdd": bson.M{
		"startDate": bson.M{"$max": bson.A{"$nextPaymentDueDate", now}},
		"unit":      "month",
		"amount":    1,
	}}}}
	if patchApproves {
		lastBranches = append(lastBranches, bson.M{"case": firstApproval, "then": now})
		nextBranches = append(nextBranches, bson.M{"case": firstApproval, "then": now.AddDate(0, 1, 0)})
	}

	set := bson.M{
		"lastPaymentDate": bson.M{"$switch": bson.M{
			"branches": lastBranches,
			"default":  "$lastPaymentDate",
		}},
		"nextPaymentDueDate": bson.M{"$switch": bson.M{
			"branches": nextBranches,
			"default":  "$nextPaymentDueDate",
		}},
	}

	if patch.PaymentStatus != nil {
		// Rule 1 precedence: a renewal on an approved record keeps the
		// record approved regardless of the supplied status.
		set["paymentStatus"] = bson.M{"$cond": bson.A{
			isApproved,
			models.PaymentApproved,
			bson.M{"$literal": *patch.PaymentStatus},
		}}
	}
	if patch.AmountPaid != nil {
		set["amountPaid"] = *patch.AmountPaid
	}
	if patch.SenderName != nil {
		set["senderName"] = bson.M{"$literal": *patch.SenderName}
	}

	return mongo.Pipeline{{{Key: "$set", Value: set}}}
}

// CountStudents returns the total number of records.
func (r *StudentRepository) CountStudents(ctx context.Context) (int64, error) {
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// CountByStatus groups record counts by payment status.
func (r *StudentRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$paymentStatus", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer cursor.Close(ctx)

	counts := make(map[string]int64)
	for cursor.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode status count: %w", err)
		}
		counts[row.ID] = row.Count
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}
	return counts, nil
}

// ProgramCounts groups record counts by program membership. A record enrolled
// in several programs contributes to each.
func (r *StudentRepository) ProgramCounts(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$selectedPrograms"}},
		{{Key: "$group", Value: bson.M{"_id": "$selectedPrograms", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("program counts: %w", err)
	}
	defer cursor.Close(ctx)

	counts := make(map[string]int64)
	for cursor.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode program count: %w", err)
		}
		counts[row.ID] = row.Count
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate program counts: %w", err)
	}
	return counts, nil
}

// ApprovedRevenue sums amountPaid across approved records. This reflects the
// latest asserted amount per record, not cumulative historical payments.
func (r *StudentRepository) ApprovedRevenue(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"paymentStatus": models.PaymentApproved}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amountPaid"}}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("approved revenue: %w", err)
	}
	defer cursor.Close(ctx)

	var row struct {
		Total float64 `bson:"total"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&row); err != nil {
			return 0, fmt.Errorf("decode revenue: %w", err)
		}
	}
	if err := cursor.Err(); err != nil {
		return 0, fmt.Errorf("iterate revenue: %w", err)
	}
	return row.Total, nil
}
