package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/LeslieKogi/sunrise-backend/internal/entity"
	"github.com/LeslieKogi/sunrise-backend/migrations"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "repository").Logger()

// SetLogger replaces the package logger; main uses it to apply the configured writer.
func SetLogger(l zerolog.Logger) {
	logger = l.With().Str("component", "repository").Logger()
}

var (
	// ErrNotFound is returned when a requested row doesn't exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("duplicate key")
	// ErrGuardRejected is returned when a conditional update matched the row
	// but its guard condition did not hold.
	ErrGuardRejected = errors.New("update rejected by guard")
)

// querier is implemented by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// Store is the single shared persistence handle. It is built once in main and
// passed to every repository constructor.
type Store struct {
	DB      *sql.DB
	Dialect migrations.Dialect
}

type MySQLConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// OpenSQLite opens (or creates) the sqlite database at path. ":memory:" gives
// a private in-memory database, which is what tests use.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// sqlite has a single writer, and an in-memory database only lives as long
	// as its one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	return &Store{DB: db, Dialect: migrations.DialectSQLite}, nil
}

// OpenMySQL connects to MySQL, retrying while the server comes up.
func OpenMySQL(ctx context.Context, cfg MySQLConfig, attempts int, wait time.Duration) (*Store, error) {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	// Report matched rather than changed rows so idempotent updates still
	// count as hits.
	mc.ClientFoundRows = true

	db, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return nil, err
	}

	for i := 0; i < attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			logger.Info().Msgf("Connected to DB %s", cfg.Name)
			return &Store{DB: db, Dialect: migrations.DialectMySQL}, nil
		}
		logger.Warn().Err(err).Msgf("Retry %d: failed to connect to DB %s (%s)", i+1, cfg.Name, mc.Addr)
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("failed to connect to DB %s at %s after %d attempts: %w", cfg.Name, mc.Addr, attempts, err)
}

// Migrate creates the schema for the store's dialect.
func (s *Store) Migrate(ctx context.Context, retries int) error {
	return migrations.AutoMigrate(ctx, s.DB, s.Dialect, retries)
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// isDuplicate reports whether err is a unique-constraint violation from either
// supported driver.
func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// rollback is deferred by every transactional write; after a successful
// commit it is a no-op.
func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Error().Err(err).Msg("Error rolling back transaction")
	}
}

// nullable turns an optional value into a driver argument: nil stays NULL,
// anything else is dereferenced.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// decimalArg binds a decimal as its exact string form; both drivers coerce it
// into the DECIMAL column without going through float64.
func decimalArg(o entity.Optional[decimal.Decimal]) any {
	if o.Null {
		return nil
	}
	return o.Value.String()
}
