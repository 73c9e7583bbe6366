// Package postgresql stores deployment, call and verification history in
// PostgreSQL.
package postgresql

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/manifest-network/tealcounter/internal/models"
	"github.com/manifest-network/tealcounter/internal/output"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type PostgresOutputHandler struct {
	db *sql.DB
}

// NewPostgresOutputHandler connects to connString and applies pending
// migrations.
func NewPostgresOutputHandler(ctx context.Context, connString string) (*PostgresOutputHandler, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return NewWithDB(db), nil
}

// NewWithDB wraps an open database without migrating it.
func NewWithDB(db *sql.DB) *PostgresOutputHandler {
	return &PostgresOutputHandler{db: db}
}

// RunMigrations applies the embedded schema migrations to db.
func RunMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Debug("Database schema is up to date")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	slog.Info("Applied database migrations")
	return nil
}

func (h *PostgresOutputHandler) WriteDeployment(ctx context.Context, d *models.Deployment) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO deployments (app_id, app_address, creator, tx_id, confirmed_round, initial_value, deleted)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (app_id) DO NOTHING`,
		d.AppID, d.AppAddress, d.Creator, d.TxID, d.ConfirmedRound, d.InitialValue, d.Deleted,
	)
	if err != nil {
		return fmt.Errorf("failed to write deployment %d: %w", d.AppID, err)
	}
	return nil
}

func (h *PostgresOutputHandler) WriteCall(ctx context.Context, c *models.Call) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO calls (tx_id, app_id, sender, method, confirmed_round)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (tx_id) DO NOTHING`,
		c.TxID, c.AppID, c.Sender, c.Method, c.ConfirmedRound,
	)
	if err != nil {
		return fmt.Errorf("failed to write call %s: %w", c.TxID, err)
	}
	return nil
}

func (h *PostgresOutputHandler) WriteVerification(ctx context.Context, v *models.Verification) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO verifications (kind, target, ok, detail) VALUES ($1, $2, $3, $4)`,
		v.Kind, v.Target, v.OK, v.Detail,
	)
	if err != nil {
		return fmt.Errorf("failed to write verification of %s: %w", v.Target, err)
	}
	return nil
}

func (h *PostgresOutputHandler) GetLatestDeployment(ctx context.Context, creator string) (*models.Deployment, error) {
	row := h.db.QueryRowContext(ctx,
		`SELECT app_id, app_address, creator, tx_id, confirmed_round, initial_value, deleted
		 FROM deployments
		 WHERE creator = $1 AND NOT deleted
		 ORDER BY confirmed_round DESC
		 LIMIT 1`,
		creator,
	)

	var d models.Deployment
	err := row.Scan(&d.AppID, &d.AppAddress, &d.Creator, &d.TxID, &d.ConfirmedRound, &d.InitialValue, &d.Deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest deployment: %w", err)
	}
	return &d, nil
}

func (h *PostgresOutputHandler) MarkDeleted(ctx context.Context, appID uint64) error {
	res, err := h.db.ExecContext(ctx, `UPDATE deployments SET deleted = TRUE WHERE app_id = $1`, appID)
	if err != nil {
		return fmt.Errorf("failed to mark deployment %d deleted: %w", appID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		slog.Warn("No recorded deployment to mark deleted", "appID", appID)
	}
	return nil
}

func (h *PostgresOutputHandler) Close() error {
	return h.db.Close()
}

var _ output.OutputHandler = (*PostgresOutputHandler)(nil)
