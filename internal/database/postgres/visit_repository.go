package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/periko-gan/linkcurt-backend/internal/database"
	"github.com/periko-gan/linkcurt-backend/internal/models"
)

type visitRecord struct {
	ID        int64     `db:"id"`
	LinkID    int64     `db:"link_id"`
	UserID    *int64    `db:"user_id"`
	VisitedAt time.Time `db:"visited_at"`
	OS        string    `db:"os"`
	Browser   string    `db:"browser"`
	IPAddress string    `db:"ip_address"`
	Country   string    `db:"country"`
	City      string    `db:"city"`
}

func (r *visitRecord) ToVisit() *models.Visit {
	return &models.Visit{
		ID:        r.ID,
		LinkID:    r.LinkID,
		UserID:    r.UserID,
		VisitedAt: r.VisitedAt,
		OS:        r.OS,
		Browser:   r.Browser,
		IPAddress: r.IPAddress,
		Country:   r.Country,
		City:      r.City,
	}
}

func toVisits(recs []visitRecord) []models.Visit {
	visits := make([]models.Visit, 0, len(recs))
	for i := range recs {
		visits = append(visits, *recs[i].ToVisit())
	}
	return visits
}

type VisitRepository struct {
	db *sqlx.DB
}

func NewVisitRepository(db *sqlx.DB) *VisitRepository {
	return &VisitRepository{
		db: db,
	}
}

// Create inserts a new visit record.
func (r *VisitRepository) Create(ctx context.Context, visit *models.Visit) (*models.Visit, error) {
	const op = "database.postgres.VisitRepository.Create"

	rec := new(visitRecord)
	query := `INSERT INTO visits(link_id, user_id, os, browser, ip_address, country, city)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query,
		visit.LinkID, visit.UserID, visit.OS, visit.Browser, visit.IPAddress, visit.Country, visit.City)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create visit record: %w", op, err)
	}

	return rec.ToVisit(), nil
}

func (r *VisitRepository) GetByID(ctx context.Context, id int64) (*models.Visit, error) {
	const op = "database.postgres.VisitRepository.GetByID"

	rec := new(visitRecord)
	query := `SELECT * FROM visits WHERE id = $1`

	err := r.db.GetContext(ctx, rec, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrVisitNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get visit record: %w", op, err)
	}

	return rec.ToVisit(), nil
}

func (r *VisitRepository) ListByLink(ctx context.Context, linkID int64) ([]models.Visit, error) {
	const op = "database.postgres.VisitRepository.ListByLink"

	var recs []visitRecord
	query := `SELECT * FROM visits WHERE link_id = $1 ORDER BY visited_at`

	if err := r.db.SelectContext(ctx, &recs, query, linkID); err != nil {
		return nil, fmt.Errorf("%s: failed to list visit records: %w", op, err)
	}

	return toVisits(recs), nil
}

func (r *VisitRepository) ListByUser(ctx context.Context, userID int64) ([]models.Visit, error) {
	const op = "database.postgres.VisitRepository.ListByUser"

	var recs []visitRecord
	query := `SELECT * FROM visits WHERE user_id = $1 ORDER BY visited_at`

	if err := r.db.SelectContext(ctx, &recs, query, userID); err != nil {
		return nil, fmt.Errorf("%s: failed to list visit records: %w", op, err)
	}

	return toVisits(recs), nil
}

func (r *VisitRepository) Delete(ctx context.Context, id int64) error {
	const op = "database.postgres.VisitRepository.Delete"

	query := `DELETE FROM visits WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: failed to delete visit record: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrVisitNotFound)
	}

	return nil
}
