package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentStatus is the four-state enum governing a student's billing lifecycle.
type PaymentStatus string

const (
	PaymentPending      PaymentStatus = "pending_payment"
	PaymentVerification PaymentStatus = "pending_verification"
	PaymentApproved     PaymentStatus = "approved"
	PaymentRejected     PaymentStatus = "rejected"
)

// Valid reports whether the status is one of the four known values.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentVerification, PaymentApproved, PaymentRejected:
		return true
	}
	return false
}

// ClassTiming values accepted at registration.
const (
	TimingMorning   = "morning"
	TimingAfternoon = "afternoon"
)

// ProgramCodes lists the tutorial programs open for enrollment.
var ProgramCodes = []string{"jamb", "waec", "post_utme", "jss"}

// StudentRecord is one registrant document in the students collection.
// amountPaid holds the most recently asserted amount, not a running total.
type StudentRecord struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName           string             `bson:"fullName" json:"fullName"`
	Email              string             `bson:"email" json:"email"`
	Phone              string             `bson:"phone" json:"phone"`
	Address            string             `bson:"address" json:"address"`
	DateOfBirth        time.Time          `bson:"dateOfBirth" json:"dateOfBirth"`
	SelectedPrograms   []string           `bson:"selectedPrograms" json:"selectedPrograms"`
	ClassTiming        string             `bson:"classTiming" json:"classTiming"`
	RegistrationDate   time.Time          `bson:"registrationDate" json:"registrationDate"`
	AmountPaid         float64            `bson:"amountPaid" json:"amountPaid"`
	SenderName         *string            `bson:"senderName" json:"senderName"`
	PaymentStatus      PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	LastPaymentDate    *time.Time         `bson:"lastPaymentDate" json:"lastPaymentDate"`
	NextPaymentDueDate *time.Time         `bson:"nextPaymentDueDate" json:"nextPaymentDueDate"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
// Filters combine conjunctively.
type StudentFilter struct {
	Search        string
	ClassTiming   string
	Program       string
	PaymentStatus string
	AmountMin     *float64
	AmountMax     *float64
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}

// PaymentPatch is the recognized subset of updatable payment fields. Nil
// pointers mean the field was absent from the request.
type PaymentPatch struct {
	PaymentStatus    *PaymentStatus
	SenderName       *string
	AmountPaid       *float64
	IsMonthlyRenewal bool
}

// Empty reports whether the patch carries no recognized field.
func (p PaymentPatch) Empty() bool {
	return p.PaymentStatus == nil && p.SenderName == nil && p.AmountPaid == nil && !p.IsMonthlyRenewal
}
