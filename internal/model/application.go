package model

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a job application.
type Status string

const (
	StatusApplied            Status = "Applied"
	StatusInterviewScheduled Status = "Interview Scheduled"
	StatusRejected           Status = "Rejected"
	StatusOffer              Status = "Offer"
)

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusApplied, StatusInterviewScheduled, StatusRejected, StatusOffer:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// Application represents a job application in the database. Every
// application is owned by exactly one user.
type Application struct {
	ID        int64
	UserID    int64
	Company   string
	Position  string
	Date      time.Time
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ApplicationRequest represents a create or update request. The owner is
// never taken from the request body; it always comes from the validated
// token.
type ApplicationRequest struct {
	Company  string `json:"company"`
	Position string `json:"position"`
	Date     string `json:"date"` // YYYY-MM-DD
	Status   string `json:"status"`
}

// ApplicationResponse represents an application in API responses.
type ApplicationResponse struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	Company  string `json:"company"`
	Position string `json:"position"`
	Date     string `json:"date"` // YYYY-MM-DD
	Status   Status `json:"status"`
}
