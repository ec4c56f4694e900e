package dto

import "time"

// ProgramBreakdown counts registrants enrolled in one program.
type ProgramBreakdown struct {
	Program    string  `json:"program"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// DashboardSummary aggregates the student collection for the admin overview.
// ApprovedRevenue sums the latest asserted amount per approved record; it is
// not a ledger of historical payments.
type DashboardSummary struct {
	TotalStudents   int64              `json:"totalStudents"`
	StatusCounts    map[string]int64   `json:"statusCounts"`
	Programs        []ProgramBreakdown `json:"programs"`
	ApprovedRevenue float64            `json:"approvedRevenue"`
	GeneratedAt     time.Time          `json:"generatedAt"`
}
