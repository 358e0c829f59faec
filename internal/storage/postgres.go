package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	madcow "github.com/meltforce/madcow"
	"github.com/meltforce/madcow/internal/models"
)

// Postgres stores the tables in PostgreSQL through a connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

// NewPostgres creates a pool and checks the connection.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Postgres{Pool: pool}, nil
}

// RunMigrations applies all pending embedded migrations.
func RunMigrations(dsn string) error {
	src, err := iofs.New(madcow.Migrations, "migrations")
	if err != nil {
		return fmt.Errorf("opening migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

func (p *Postgres) Name() string { return "postgres" }

// Collector exports the pool statistics, labelled with the database name.
func (p *Postgres) Collector() prometheus.Collector {
	return pgxpoolprometheus.NewCollector(p.Pool, map[string]string{"db_name": p.Pool.Config().ConnConfig.Database})
}

func (p *Postgres) Load(ctx context.Context) (*models.Sheet, error) {
	rows, err := p.Pool.Query(ctx, `SELECT lifter, lift, five_rm, increment FROM lift_records ORDER BY position`)
	if err != nil {
		return nil, transportErr(p.Name(), "load", fmt.Errorf("querying records: %w", err))
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.RecordRow])
	if err != nil {
		return nil, transportErr(p.Name(), "load", fmt.Errorf("reading records: %w", err))
	}

	rows, err = p.Pool.Query(ctx, `SELECT attribute, value FROM settings ORDER BY position`)
	if err != nil {
		return nil, transportErr(p.Name(), "load", fmt.Errorf("querying settings: %w", err))
	}
	settings, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.SettingRow])
	if err != nil {
		return nil, transportErr(p.Name(), "load", fmt.Errorf("reading settings: %w", err))
	}

	return &models.Sheet{Records: records, Settings: settings}, nil
}

func (p *Postgres) Save(ctx context.Context, sheet *models.Sheet) error {
	return transportErr(p.Name(), "save", p.save(ctx, sheet))
}

func (p *Postgres) save(ctx context.Context, sheet *models.Sheet) error {
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM lift_records`); err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM settings`); err != nil {
		return fmt.Errorf("clearing settings: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"lift_records"},
		[]string{"position", "lifter", "lift", "five_rm", "increment"},
		pgx.CopyFromSlice(len(sheet.Records), func(i int) ([]any, error) {
			r := sheet.Records[i]
			return []any{i + 1, r.Lifter, r.Lift, r.Max, r.Increment}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copying records: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"settings"},
		[]string{"position", "attribute", "value"},
		pgx.CopyFromSlice(len(sheet.Settings), func(i int) ([]any, error) {
			r := sheet.Settings[i]
			return []any{i + 1, r.Attribute, r.Value}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copying settings: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	p.Pool.Close()
	return nil
}
