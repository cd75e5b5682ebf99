package database

import "errors"

var (
	// ErrShortLinkExists is returned when an insert collides with an
	// already assigned short link.
	ErrShortLinkExists = errors.New("short link exists")
	// ErrLinkExists is returned when the same original link is already
	// registered for the same user.
	ErrLinkExists = errors.New("link already exists for this user")
	// ErrLinkNotFound is returned when no link matches the given
	// identifier or short link.
	ErrLinkNotFound = errors.New("link not found")
	// ErrEmailExists is returned when an account with the given email
	// is already registered.
	ErrEmailExists = errors.New("email exists")
	// ErrUserNotFound is returned when no user matches the given
	// identifier or email.
	ErrUserNotFound = errors.New("user not found")
	// ErrVisitNotFound is returned when no visit matches the given identifier.
	ErrVisitNotFound = errors.New("visit not found")
	// ErrUnknownAttribute is returned when a filter attribute is not in
	// the allow-list of queryable link fields.
	ErrUnknownAttribute = errors.New("unknown filter attribute")
)
