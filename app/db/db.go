package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	uuid "github.com/vgarvardt/pgx-google-uuid/v5"

	"github.com/FACorreiaa/go-day-planner/config"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const defaultRetries = 5

type DatabaseConfig struct {
	ConnectionURL string
}

// WaitForDB pings the pool with a linear backoff until it answers or retries run out.
func WaitForDB(ctx context.Context, pgpool *pgxpool.Pool, logger *slog.Logger) bool {
	for attempts := 1; attempts <= defaultRetries; attempts++ {
		err := pgpool.Ping(ctx)
		if err == nil {
			logger.InfoContext(ctx, "Database connection successful")
			return true
		}

		waitDuration := time.Duration(attempts) * 200 * time.Millisecond
		logger.WarnContext(ctx, "Database ping failed, retrying...",
			slog.Int("attempt", attempts),
			slog.Int("max_attempts", defaultRetries),
			slog.Duration("wait_duration", waitDuration),
			slog.String("error", err.Error()),
		)
		if attempts < defaultRetries {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(waitDuration):
			}
		}
	}
	logger.ErrorContext(ctx, "Database connection failed after multiple retries")
	return false
}

// RunMigrations applies the embedded migrations in app/db/migrations.
func RunMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	sourceDriver, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		logger.Error("Failed to create migration source driver", slog.Any("error", err))
		return fmt.Errorf("failed to create migration source driver: %w", err)
	}

	if !strings.HasPrefix(databaseURL, "postgres://") && !strings.HasPrefix(databaseURL, "postgresql://") {
		logger.Error("Invalid database URL scheme for migrate")
		return errors.New("invalid database URL scheme for migrate, ensure it starts with postgresql://")
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, databaseURL)
	if err != nil {
		logger.Error("Failed to initialize migrate instance", slog.Any("error", err))
		return fmt.Errorf("failed to initialize migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("Error closing migration source", slog.Any("error", srcErr))
		}
		if dbErr != nil {
			logger.Warn("Error closing migration database connection", slog.Any("error", dbErr))
		}
	}()

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.Error("Failed to apply migrations", slog.Any("error", upErr))
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}

	version, dirty, err := m.Version()
	switch {
	case err != nil:
		logger.Warn("Could not determine migration version", slog.Any("error", err))
	case dirty:
		logger.Error("Database migration state is dirty", slog.Uint64("version", uint64(version)))
		return fmt.Errorf("database migration state is dirty at version %d", version)
	case errors.Is(upErr, migrate.ErrNoChange):
		logger.Info("No new migrations to apply", slog.Uint64("current_version", uint64(version)))
	default:
		logger.Info("Database migrations applied successfully", slog.Uint64("new_version", uint64(version)))
	}
	return nil
}

// NewDatabaseConfig builds the connection URL from the postgres section of the config.
func NewDatabaseConfig(cfg *config.Config, logger *slog.Logger) (*DatabaseConfig, error) {
	if cfg == nil || cfg.Repositories.Postgres.Host == "" {
		logger.Error("Postgres configuration is missing or invalid")
		return nil, errors.New("postgres configuration is missing or invalid")
	}
	pg := cfg.Repositories.Postgres

	sslMode := pg.SSLMODE
	if sslMode == "" {
		sslMode = "disable"
	}
	query := url.Values{}
	query.Set("sslmode", sslMode)
	query.Set("timezone", "utc")
	if pg.MAXCONWAITINGTIME > 0 {
		query.Set("connect_timeout", fmt.Sprintf("%d", pg.MAXCONWAITINGTIME))
	}

	connURL := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(pg.Username, pg.Password),
		Host:     fmt.Sprintf("%s:%s", pg.Host, pg.Port),
		Path:     pg.DB,
		RawQuery: query.Encode(),
	}

	logger.Info("Database connection URL generated", slog.String("host", connURL.Host), slog.String("database", connURL.Path))
	return &DatabaseConfig{
		ConnectionURL: connURL.String(),
	}, nil
}

// Init creates the pgxpool and registers google/uuid with every connection.
func Init(ctx context.Context, connectionURL string, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.Info("Initializing database connection pool...")
	cfg, err := pgxpool.ParseConfig(connectionURL)
	if err != nil {
		logger.Error("Failed to parse database config", slog.Any("error", err))
		return nil, fmt.Errorf("failed parsing db config: %w", err)
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		uuid.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		logger.Error("Failed to create database connection pool", slog.Any("error", err))
		return nil, fmt.Errorf("failed creating db pool: %w", err)
	}

	logger.Info("Database connection pool initialized")
	return pool, nil
}
