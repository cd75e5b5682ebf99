package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/periko-gan/linkcurt-backend/internal/database"
	"github.com/periko-gan/linkcurt-backend/internal/models"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// shortLinkAlphabet is the 62-symbol, case-sensitive alphabet short
// links are drawn from.
const shortLinkAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	// ErrMaxRetriesExceeded is returned when the maximum number of retries for generating a short link is exceeded.
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short link")
	// ErrInvalidURL is returned when the original link is not a structurally valid URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrUserIDRequired is returned when no owning user is supplied for an allocation.
	ErrUserIDRequired = errors.New("user id is required")
)

// LinkRepository defines the interface for working with links at the business logic layer.
type LinkRepository interface {
	// Create inserts a new shortened link into the repository.
	Create(ctx context.Context, originalLink, shortLink string, userID int64) (*models.Link, error)

	// ExistsByShortLink reports whether a short link is already assigned.
	ExistsByShortLink(ctx context.Context, shortLink string) (bool, error)

	// ExistsByOriginalAndUser reports whether the user already registered the original link.
	ExistsByOriginalAndUser(ctx context.Context, originalLink string, userID int64) (bool, error)

	// GetByShortLink retrieves a link by its short link.
	GetByShortLink(ctx context.Context, shortLink string) (*models.Link, error)

	// GetByID retrieves a link by its identifier.
	GetByID(ctx context.Context, id int64) (*models.Link, error)

	// Update replaces the original link of an existing record.
	Update(ctx context.Context, id int64, originalLink string) (*models.Link, error)

	// Delete removes a link by its identifier.
	Delete(ctx context.Context, id int64) error

	// FilterByAttribute returns links matching an allow-listed attribute.
	FilterByAttribute(ctx context.Context, attribute, value string) ([]models.Link, error)

	// ListByDateRange returns links registered within the given range.
	ListByDateRange(ctx context.Context, from, to time.Time) ([]models.Link, error)
}

// LinkService manages short link allocation and lookup.
type LinkService struct {
	repo            LinkRepository
	shortLinkLength int
	baseURLs        []string
}

// NewLinkService creates a new LinkService. baseURLs are the canonical
// domain prefixes stripped from lookup input.
func NewLinkService(repo LinkRepository, shortLinkLength int, baseURLs []string) *LinkService {
	return &LinkService{
		repo:            repo,
		shortLinkLength: shortLinkLength,
		baseURLs:        baseURLs,
	}
}

// validateURL performs the structural URL check required before allocation.
func validateURL(originalLink string) error {
	u, err := url.ParseRequestURI(originalLink)
	if err != nil {
		return ErrInvalidURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

// ShortenLink allocates a short link for the original link on behalf of
// the owning user. Duplicate prevention is scoped per user: the same
// original link may be shortened by different users, each receiving a
// distinct code.
//
// Candidate codes are generated in a bounded retry loop. The existence
// probe is only a fast path; the store's unique constraint on
// short_link is the source of truth, and a lost insert race simply
// moves on to the next candidate.
func (s *LinkService) ShortenLink(ctx context.Context, originalLink string, userID int64) (*models.Link, error) {
	const op = "service.LinkService.ShortenLink"
	const maxRetries = 5

	if userID <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrUserIDRequired)
	}

	if err := validateURL(originalLink); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := s.repo.ExistsByOriginalAndUser(ctx, originalLink, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to check for duplicate link: %w", op, err)
	}
	if exists {
		return nil, fmt.Errorf("%s: %w", op, database.ErrLinkExists)
	}

	for i := 0; i < maxRetries; i++ {
		shortLink, err := gonanoid.Generate(shortLinkAlphabet, s.shortLinkLength)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short link: %w", op, err)
		}

		taken, err := s.repo.ExistsByShortLink(ctx, shortLink)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to check short link: %w", op, err)
		}
		if taken {
			continue
		}

		link, err := s.repo.Create(ctx, originalLink, shortLink, userID)
		if err != nil {
			if errors.Is(err, database.ErrShortLinkExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to shorten link: %w", op, err)
		}

		return link, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// ResolveShortLink retrieves the link associated with a raw short link
// string. A canonical domain prefix, if present, is stripped before the
// case-sensitive lookup.
func (s *LinkService) ResolveShortLink(ctx context.Context, raw string) (*models.Link, error) {
	const op = "service.LinkService.ResolveShortLink"

	link, err := s.repo.GetByShortLink(ctx, s.stripBaseURL(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short link: %w", op, err)
	}

	return link, nil
}

func (s *LinkService) stripBaseURL(raw string) string {
	for _, base := range s.baseURLs {
		if base != "" && strings.HasPrefix(raw, base) {
			return strings.TrimPrefix(raw, base)
		}
	}
	return raw
}

// GetLink retrieves a link by its identifier.
func (s *LinkService) GetLink(ctx context.Context, id int64) (*models.Link, error) {
	const op = "service.LinkService.GetLink"

	link, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link: %w", op, err)
	}

	return link, nil
}

// ModifyLink updates the original link associated with a link record.
func (s *LinkService) ModifyLink(ctx context.Context, id int64, originalLink string) (*models.Link, error) {
	const op = "service.LinkService.ModifyLink"

	if err := validateURL(originalLink); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	link, err := s.repo.Update(ctx, id, originalLink)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to modify link: %w", op, err)
	}

	return link, nil
}

// RemoveLink deletes a link and, through the schema's cascade rule, its visits.
func (s *LinkService) RemoveLink(ctx context.Context, id int64) error {
	const op = "service.LinkService.RemoveLink"

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: failed to remove link: %w", op, err)
	}

	return nil
}

// FilterLinks returns links matching an allow-listed attribute.
func (s *LinkService) FilterLinks(ctx context.Context, attribute, value string) ([]models.Link, error) {
	const op = "service.LinkService.FilterLinks"

	links, err := s.repo.FilterByAttribute(ctx, attribute, value)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to filter links: %w", op, err)
	}

	return links, nil
}

// ListLinksByDateRange returns links registered within [from, to].
func (s *LinkService) ListLinksByDateRange(ctx context.Context, from, to time.Time) ([]models.Link, error) {
	const op = "service.LinkService.ListLinksByDateRange"

	links, err := s.repo.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list links: %w", op, err)
	}

	return links, nil
}
