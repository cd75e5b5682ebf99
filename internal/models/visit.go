package models

import "time"

// Visit represents a recorded access event against a shortened link.
// Visits are immutable after creation except for deletion.
type Visit struct {
	ID int64
	// LinkID references the link that was visited.
	LinkID int64
	// UserID references the user who triggered the visit, if tracked.
	UserID *int64
	// VisitedAt is the timestamp of the access.
	VisitedAt time.Time
	// Client metadata, empty when unknown.
	OS        string
	Browser   string
	IPAddress string
	Country   string
	City      string
}
