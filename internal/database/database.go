package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL backend behind a DB.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate record")

// DB wraps a PostgreSQL or SQLite connection pool.
type DB struct {
	conn    *sql.DB
	pool    *pgxpool.Pool
	dialect Dialect
	url     string
}

// Option configures Open.
type Option func(*options)

type options struct {
	maxConns int32
}

// WithMaxConns caps the PostgreSQL pool size.
func WithMaxConns(n int32) Option {
	return func(o *options) { o.maxConns = n }
}

// Open connects to the database named by rawURL and applies pending migrations.
// postgres:// and postgresql:// URLs use pgx; sqlite:// URLs and bare paths use
// an embedded SQLite file.
func Open(rawURL string, opts ...Option) (*DB, error) {
	o := options{maxConns: 10}
	for _, opt := range opts {
		opt(&o)
	}

	var db *DB
	var err error
	switch {
	case strings.HasPrefix(rawURL, "postgres://"), strings.HasPrefix(rawURL, "postgresql://"):
		db, err = openPostgres(rawURL, o)
	default:
		db, err = openSQLite(strings.TrimPrefix(rawURL, "sqlite://"))
	}
	if err != nil {
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return db, nil
}

func openPostgres(rawURL string, o options) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	cfg.MaxConns = o.maxConns
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	return &DB{
		conn:    stdlib.OpenDBFromPool(pool),
		pool:    pool,
		dialect: Postgres,
		url:     rawURL,
	}, nil
}

func openSQLite(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &DB{conn: conn, dialect: SQLite, url: "sqlite://" + path}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	err := db.conn.Close()
	if db.pool != nil {
		db.pool.Close()
	}
	return err
}

// Dialect reports which backend the DB is connected to.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (db *DB) rebind(query string) string {
	return rebind(db.dialect, query)
}

func rebind(d Dialect, query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) exec(query string, args ...any) (sql.Result, error) {
	return db.conn.Exec(db.rebind(query), args...)
}

func (db *DB) query(query string, args ...any) (*sql.Rows, error) {
	return db.conn.Query(db.rebind(query), args...)
}

func (db *DB) queryRow(query string, args ...any) *sql.Row {
	return db.conn.QueryRow(db.rebind(query), args...)
}

// insert runs an INSERT ... RETURNING id and returns the new id.
func (db *DB) insert(query string, args ...any) (int64, error) {
	var id int64
	if err := db.queryRow(query+" RETURNING id", args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

// count runs a SELECT COUNT(*) style query.
func (db *DB) count(query string, args ...any) (int, error) {
	var n int
	err := db.queryRow(query, args...).Scan(&n)
	return n, err
}

// withTx runs fn inside a transaction, committing on success.
func (db *DB) withTx(fn func(tx *txn) error) error {
	sqlTx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	if err := fn(&txn{tx: sqlTx, dialect: db.dialect}); err != nil {
		sqlTx.Rollback()
		return err
	}
	return sqlTx.Commit()
}

// txn is a transaction that applies the same placeholder rebinding as DB.
type txn struct {
	tx      *sql.Tx
	dialect Dialect
}

func (t *txn) exec(query string, args ...any) (sql.Result, error) {
	return t.tx.Exec(rebind(t.dialect, query), args...)
}

func (t *txn) queryRow(query string, args ...any) *sql.Row {
	return t.tx.QueryRow(rebind(t.dialect, query), args...)
}

func (t *txn) insert(query string, args ...any) (int64, error) {
	var id int64
	if err := t.queryRow(query+" RETURNING id", args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// now returns the current time in the form every timestamp column is written.
func now() time.Time {
	return time.Now().UTC()
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
