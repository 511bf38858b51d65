package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/michelvankessel/nedcloud-website/internal/auth"
	"github.com/michelvankessel/nedcloud-website/internal/database"
	"github.com/michelvankessel/nedcloud-website/internal/models"
	"github.com/michelvankessel/nedcloud-website/internal/repositories"
	pkgauth "github.com/michelvankessel/nedcloud-website/pkg/auth"
)

// testEncryptionKey is the secret-at-rest key used across integration tests
const testEncryptionKey = "integration-test-encryption-key"

// TestDB manages a PostgreSQL testcontainer and database access
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase starts a PostgreSQL container and applies the embedded
// migrations.
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("nedcloud"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	if err := database.Migrate(connStr); err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         &database.DB{Pool: pool},
	}, nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{"contact_submissions", "services", "posts", "users"}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}
	return nil
}

// SeedUser inserts a user with a hashed password
func SeedUser(ctx context.Context, db *database.DB, email, password, role string) (*models.User, error) {
	hashedPassword, err := pkgauth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	repo := repositories.NewUserRepository(db)
	return repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         "Test User",
		Role:         role,
	})
}

// SeedTwoFactorUser inserts a user with two-factor enabled and returns the
// user together with the plaintext TOTP secret and backup codes.
func SeedTwoFactorUser(ctx context.Context, db *database.DB, email, password string) (*models.User, string, []string, error) {
	user, err := SeedUser(ctx, db, email, password, models.RoleAdmin)
	if err != nil {
		return nil, "", nil, err
	}

	tm := auth.NewTOTPManager("Nedcloud Test")
	enrollment, err := tm.GenerateEnrollment(email)
	if err != nil {
		return nil, "", nil, err
	}

	encrypted, err := auth.EncryptSecret(enrollment.Secret, testEncryptionKey)
	if err != nil {
		return nil, "", nil, err
	}

	codes, err := auth.GenerateBackupCodes(8)
	if err != nil {
		return nil, "", nil, err
	}

	repo := repositories.NewUserRepository(db)
	if err := repo.EnableTwoFactor(ctx, user.ID, encrypted, auth.HashBackupCodes(codes), time.Now()); err != nil {
		return nil, "", nil, err
	}

	fresh, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, "", nil, err
	}
	return fresh, enrollment.Secret, codes, nil
}
