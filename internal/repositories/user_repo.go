package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/michelvankessel/nedcloud-website/internal/database"
	"github.com/michelvankessel/nedcloud-website/internal/models"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUserRow handles nullable fields and populates a User model from a database row
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var passwordHash, twoFactorSecret *string
	var verifiedAt *time.Time

	err := scanner.Scan(
		&user.ID, &user.Email, &passwordHash, &user.Name, &user.Role,
		&user.TwoFactorEnabled, &twoFactorSecret, &user.TwoFactorBackupCodes,
		&verifiedAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}
	if twoFactorSecret != nil {
		secret := models.EncryptedSecret(*twoFactorSecret)
		user.TwoFactorSecret = &secret
	}
	user.TwoFactorVerifiedAt = verifiedAt

	return &user, nil
}

const userColumns = `id, email, password_hash, name, role, two_factor_enabled,
	two_factor_secret, two_factor_backup_codes, two_factor_verified_at,
	created_at, updated_at`

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = models.RoleEditor
	}
	if user.TwoFactorBackupCodes == nil {
		user.TwoFactorBackupCodes = []string{}
	}

	var passwordHash *string
	if user.PasswordHash != "" {
		passwordHash = &user.PasswordHash
	}

	query := `
		INSERT INTO users (id, email, password_hash, name, role, two_factor_enabled,
			two_factor_secret, two_factor_backup_codes, two_factor_verified_at,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, NULL, $6, NULL, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Email, passwordHash, user.Name, user.Role,
		user.TwoFactorBackupCodes, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return user, nil
}

// EnableTwoFactor commits the verified secret, the backup code hashes and
// the enabled flag in a single update. This is the only point at which a
// secret reaches persistent storage.
func (r *UserRepository) EnableTwoFactor(ctx context.Context, id string, secret models.EncryptedSecret, codeHashes []string, verifiedAt time.Time) error {
	query := `
		UPDATE users
		SET two_factor_enabled = TRUE,
			two_factor_secret = $2,
			two_factor_backup_codes = $3,
			two_factor_verified_at = $4,
			updated_at = now()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, string(secret), codeHashes, verifiedAt)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DisableTwoFactor clears all two-factor fields in a single update.
func (r *UserRepository) DisableTwoFactor(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET two_factor_enabled = FALSE,
			two_factor_secret = NULL,
			two_factor_backup_codes = '{}',
			two_factor_verified_at = NULL,
			updated_at = now()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateBackupCodes replaces the stored hash list with remaining, but only
// if the stored list still equals expected. Two concurrent attempts to
// consume the same code therefore cannot both succeed: the loser sees
// ErrConflict.
func (r *UserRepository) UpdateBackupCodes(ctx context.Context, id string, expected, remaining []string) error {
	query := `
		UPDATE users
		SET two_factor_backup_codes = $3, updated_at = now()
		WHERE id = $1 AND two_factor_backup_codes = $2
	`
	tag, err := r.pool.Exec(ctx, query, id, expected, remaining)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrConflict
	}
	return nil
}

// UpdatePassword replaces the stored bcrypt hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}
