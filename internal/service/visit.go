package service

import (
	"context"
	"fmt"

	"github.com/mssola/user_agent"
	"github.com/periko-gan/linkcurt-backend/internal/geoip"
	"github.com/periko-gan/linkcurt-backend/internal/models"
)

// VisitRepository defines the interface for working with visits at the business logic layer.
type VisitRepository interface {
	Create(ctx context.Context, visit *models.Visit) (*models.Visit, error)
	GetByID(ctx context.Context, id int64) (*models.Visit, error)
	ListByLink(ctx context.Context, linkID int64) ([]models.Visit, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Visit, error)
	Delete(ctx context.Context, id int64) error
}

// LinkGetter is the slice of the link repository the visit service
// needs to verify a visit's target.
type LinkGetter interface {
	GetByID(ctx context.Context, id int64) (*models.Link, error)
}

// VisitService records and queries access events against shortened links.
type VisitService struct {
	repo    VisitRepository
	links   LinkGetter
	locator *geoip.Locator
}

// NewVisitService creates a new VisitService. locator may be nil, which
// disables country/city enrichment.
func NewVisitService(repo VisitRepository, links LinkGetter, locator *geoip.Locator) *VisitService {
	return &VisitService{
		repo:    repo,
		links:   links,
		locator: locator,
	}
}

// RecordVisit stores an access event against a link. The User-Agent
// header is parsed into browser and OS, and the client IP is resolved
// to country and city when a GeoIP database is configured. Enrichment
// is best effort and never fails the request.
func (s *VisitService) RecordVisit(ctx context.Context, linkID int64, userID *int64, userAgent, ip string) (*models.Visit, error) {
	const op = "service.VisitService.RecordVisit"

	if _, err := s.links.GetByID(ctx, linkID); err != nil {
		return nil, fmt.Errorf("%s: failed to load visited link: %w", op, err)
	}

	visit := &models.Visit{
		LinkID:    linkID,
		UserID:    userID,
		IPAddress: ip,
	}

	if userAgent != "" {
		ua := user_agent.New(userAgent)
		visit.Browser, _ = ua.Browser()
		visit.OS = ua.OSInfo().Name
	}

	visit.Country, visit.City = s.locator.Locate(ip)

	visit, err := s.repo.Create(ctx, visit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to record visit: %w", op, err)
	}

	return visit, nil
}

// GetVisit retrieves a visit by identifier.
func (s *VisitService) GetVisit(ctx context.Context, id int64) (*models.Visit, error) {
	const op = "service.VisitService.GetVisit"

	visit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get visit: %w", op, err)
	}

	return visit, nil
}

// ListVisitsByLink returns the visits recorded against a link.
func (s *VisitService) ListVisitsByLink(ctx context.Context, linkID int64) ([]models.Visit, error) {
	const op = "service.VisitService.ListVisitsByLink"

	if _, err := s.links.GetByID(ctx, linkID); err != nil {
		return nil, fmt.Errorf("%s: failed to load link: %w", op, err)
	}

	visits, err := s.repo.ListByLink(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list visits: %w", op, err)
	}

	return visits, nil
}

// ListVisitsByUser returns the visits triggered by a user.
func (s *VisitService) ListVisitsByUser(ctx context.Context, userID int64) ([]models.Visit, error) {
	const op = "service.VisitService.ListVisitsByUser"

	visits, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list visits: %w", op, err)
	}

	return visits, nil
}

// RemoveVisit deletes a visit record.
func (s *VisitService) RemoveVisit(ctx context.Context, id int64) error {
	const op = "service.VisitService.RemoveVisit"

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: failed to remove visit: %w", op, err)
	}

	return nil
}
