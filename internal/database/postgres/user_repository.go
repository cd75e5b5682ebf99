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

type userRecord struct {
	ID               int64      `db:"id"`
	Email            string     `db:"email"`
	PasswordHash     string     `db:"password_hash"`
	Name             string     `db:"name"`
	BirthDate        *time.Time `db:"birth_date"`
	Role             string     `db:"role"`
	RegistrationDate time.Time  `db:"registration_date"`
}

func (r *userRecord) ToUser() *models.User {
	return &models.User{
		ID:               r.ID,
		Email:            r.Email,
		PasswordHash:     r.PasswordHash,
		Name:             r.Name,
		BirthDate:        r.BirthDate,
		Role:             models.Role(r.Role),
		RegistrationDate: r.RegistrationDate,
	}
}

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// Create inserts a new user. The unique constraint on email maps to
// database.ErrEmailExists.
func (r *UserRepository) Create(ctx context.Context, email, passwordHash, name string, birthDate *time.Time, role models.Role) (*models.User, error) {
	const op = "database.postgres.UserRepository.Create"

	rec := new(userRecord)
	query := `INSERT INTO users(email, password_hash, name, birth_date, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, email, passwordHash, name, birthDate, string(role))
	if err != nil {
		if isUniqueViolationError(err, "email") {
			return nil, fmt.Errorf("%s: %w", op, database.ErrEmailExists)
		}

		return nil, fmt.Errorf("%s: failed to create user record: %w", op, err)
	}

	return rec.ToUser(), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "database.postgres.UserRepository.GetByID"

	rec := new(userRecord)
	query := `SELECT * FROM users WHERE id = $1`

	err := r.db.GetContext(ctx, rec, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get user record: %w", op, err)
	}

	return rec.ToUser(), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "database.postgres.UserRepository.GetByEmail"

	rec := new(userRecord)
	query := `SELECT * FROM users WHERE email = $1`

	err := r.db.GetContext(ctx, rec, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get user record: %w", op, err)
	}

	return rec.ToUser(), nil
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	const op = "database.postgres.UserRepository.List"

	var recs []userRecord
	query := `SELECT * FROM users ORDER BY id`

	if err := r.db.SelectContext(ctx, &recs, query); err != nil {
		return nil, fmt.Errorf("%s: failed to list user records: %w", op, err)
	}

	users := make([]models.User, 0, len(recs))
	for i := range recs {
		users = append(users, *recs[i].ToUser())
	}

	return users, nil
}

// Update replaces the mutable profile fields of an existing user.
func (r *UserRepository) Update(ctx context.Context, id int64, name string, birthDate *time.Time) (*models.User, error) {
	const op = "database.postgres.UserRepository.Update"

	rec := new(userRecord)
	query := `UPDATE users
		SET name = $1, birth_date = $2
		WHERE id = $3
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, name, birthDate, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update user record: %w", op, err)
	}

	return rec.ToUser(), nil
}

// Delete removes a user. Owned links and visits are removed by the
// schema's cascade rules.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	const op = "database.postgres.UserRepository.Delete"

	query := `DELETE FROM users WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: failed to delete user record: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrUserNotFound)
	}

	return nil
}
