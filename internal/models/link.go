package models

import "time"

// Link represents a shortened link and its associated metadata.
type Link struct {
	// ID is the unique identifier for the link record.
	ID int64
	// OriginalLink is the original, full-length URL that the short link points to.
	OriginalLink string
	// ShortLink is the 4-character code assigned to the original link.
	ShortLink string
	// UserID references the user who owns the link.
	UserID int64
	// RegistrationDate is the timestamp indicating when the link was created.
	RegistrationDate time.Time
}
