package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/periko-gan/linkcurt-backend/internal/database"
	"github.com/periko-gan/linkcurt-backend/internal/models"

	sq "github.com/Masterminds/squirrel"
)

type linkRecord struct {
	ID               int64     `db:"id"`
	OriginalLink     string    `db:"original_link"`
	ShortLink        string    `db:"short_link"`
	UserID           int64     `db:"user_id"`
	RegistrationDate time.Time `db:"registration_date"`
}

func (r *linkRecord) ToLink() *models.Link {
	return &models.Link{
		ID:               r.ID,
		OriginalLink:     r.OriginalLink,
		ShortLink:        r.ShortLink,
		UserID:           r.UserID,
		RegistrationDate: r.RegistrationDate,
	}
}

func toLinks(recs []linkRecord) []models.Link {
	links := make([]models.Link, 0, len(recs))
	for i := range recs {
		links = append(links, *recs[i].ToLink())
	}
	return links
}

// linkFilterColumns is the allow-list of attributes clients may filter
// links by. Values are the actual column names; client input never
// reaches the query as an identifier.
var linkFilterColumns = map[string]string{
	"original_link": "original_link",
	"short_link":    "short_link",
	"user":          "user_id",
}

type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{
		db: db,
	}
}

// Create inserts a new link record. The unique constraints arbitrate
// races: a violation on short_link maps to database.ErrShortLinkExists,
// a violation on (original_link, user_id) maps to database.ErrLinkExists.
func (r *LinkRepository) Create(ctx context.Context, originalLink, shortLink string, userID int64) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.Create"

	rec := new(linkRecord)
	query := `INSERT INTO links(original_link, short_link, user_id)
		VALUES ($1, $2, $3)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, originalLink, shortLink, userID)
	if err != nil {
		if isUniqueViolationError(err, "short_link_key") {
			return nil, fmt.Errorf("%s: %w", op, database.ErrShortLinkExists)
		}
		if isUniqueViolationError(err, "original_link_user_id") {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkExists)
		}

		return nil, fmt.Errorf("%s: failed to create link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

// ExistsByShortLink reports whether a link with the given short link is
// already assigned.
func (r *LinkRepository) ExistsByShortLink(ctx context.Context, shortLink string) (bool, error) {
	const op = "database.postgres.LinkRepository.ExistsByShortLink"

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM links WHERE short_link = $1)`

	err := r.db.GetContext(ctx, &exists, query, shortLink)
	if err != nil {
		return false, fmt.Errorf("%s: failed to check short link: %w", op, err)
	}

	return exists, nil
}

// ExistsByOriginalAndUser reports whether the user already registered
// the given original link.
func (r *LinkRepository) ExistsByOriginalAndUser(ctx context.Context, originalLink string, userID int64) (bool, error) {
	const op = "database.postgres.LinkRepository.ExistsByOriginalAndUser"

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM links WHERE original_link = $1 AND user_id = $2)`

	err := r.db.GetContext(ctx, &exists, query, originalLink, userID)
	if err != nil {
		return false, fmt.Errorf("%s: failed to check original link: %w", op, err)
	}

	return exists, nil
}

func (r *LinkRepository) GetByShortLink(ctx context.Context, shortLink string) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.GetByShortLink"

	rec := new(linkRecord)
	query := `SELECT * FROM links WHERE short_link = $1`

	err := r.db.GetContext(ctx, rec, query, shortLink)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

func (r *LinkRepository) GetByID(ctx context.Context, id int64) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.GetByID"

	rec := new(linkRecord)
	query := `SELECT * FROM links WHERE id = $1`

	err := r.db.GetContext(ctx, rec, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

// Update replaces the original link of an existing record.
func (r *LinkRepository) Update(ctx context.Context, id int64, originalLink string) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.Update"

	rec := new(linkRecord)
	query := `UPDATE links
		SET original_link = $1
		WHERE id = $2
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, originalLink, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}
		if isUniqueViolationError(err, "original_link_user_id") {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkExists)
		}

		return nil, fmt.Errorf("%s: failed to update link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

// Delete removes a link. Dependent visits are removed by the schema's
// cascade rule.
func (r *LinkRepository) Delete(ctx context.Context, id int64) error {
	const op = "database.postgres.LinkRepository.Delete"

	query := `DELETE FROM links WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: failed to delete link record: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
	}

	return nil
}

// FilterByAttribute returns links matching an allow-listed attribute.
// Unknown attributes map to database.ErrUnknownAttribute.
func (r *LinkRepository) FilterByAttribute(ctx context.Context, attribute, value string) ([]models.Link, error) {
	const op = "database.postgres.LinkRepository.FilterByAttribute"

	column, ok := linkFilterColumns[attribute]
	if !ok {
		return nil, fmt.Errorf("%s: %q: %w", op, attribute, database.ErrUnknownAttribute)
	}

	query, args, err := qb.Select("*").
		From("links").
		Where(sq.Eq{column: value}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var recs []linkRecord
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to filter link records: %w", op, err)
	}

	return toLinks(recs), nil
}

// ListByDateRange returns links registered within [from, to].
func (r *LinkRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]models.Link, error) {
	const op = "database.postgres.LinkRepository.ListByDateRange"

	query, args, err := qb.Select("*").
		From("links").
		Where(sq.GtOrEq{"registration_date": from}).
		Where(sq.LtOrEq{"registration_date": to}).
		OrderBy("registration_date").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var recs []linkRecord
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to list link records: %w", op, err)
	}

	return toLinks(recs), nil
}
