package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("infra/kvstore")

var validTable = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Dialect captures the few differences between the supported databases.
type Dialect struct {
	Name   string
	Driver string
	// bind returns the placeholder for the n-th (1-based) argument.
	bind func(n int) string
}

var (
	Postgres = Dialect{Name: "postgres", Driver: "pgx", bind: func(n int) string { return fmt.Sprintf("$%d", n) }}
	SQLite   = Dialect{Name: "sqlite", Driver: "sqlite", bind: func(int) string { return "?" }}
)

// SQL is a KV store over a single two-column table.
type SQL struct {
	db      *sql.DB
	dialect Dialect
	table   string

	getQuery string
	putQuery string
}

// OpenSQL opens a connection pool for the dialect and ensures the table exists.
func OpenSQL(ctx context.Context, d Dialect, dsn, table string) (*SQL, error) {
	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, err
	}
	if d.Name == SQLite.Name {
		// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(15 * time.Minute)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	s, err := NewSQL(db, d, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQL wraps an existing pool. The table name is validated because it is
// interpolated into the statements.
func NewSQL(db *sql.DB, d Dialect, table string) (*SQL, error) {
	if !validTable.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	getQuery := fmt.Sprintf(`select value from %s where key = %s`, table, d.bind(1))
	putQuery := fmt.Sprintf(`insert into %s(key, value, updated_at) values (%s, %s, CURRENT_TIMESTAMP)
		on conflict (key) do update set value = excluded.value, updated_at = excluded.updated_at`,
		table, d.bind(1), d.bind(2))

	return &SQL{
		db:       db,
		dialect:  d,
		table:    table,
		getQuery: getQuery,
		putQuery: putQuery,
	}, nil
}

// Migrate creates the table if it does not exist.
func (s *SQL) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`create table if not exists %s (
		key text primary key,
		value text not null,
		updated_at timestamp not null default CURRENT_TIMESTAMP
	)`, s.table))
	if err != nil {
		return fmt.Errorf("migrate %s: %w", s.table, err)
	}
	return nil
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := tracer.Start(ctx, "SQL.Get")
	defer span.End()
	span.SetAttributes(attribute.String("db.system", s.dialect.Name), attribute.String("kv.key", key))

	var value string
	err := s.db.QueryRowContext(ctx, s.getQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, false, err
	}
	return []byte(value), true, nil
}

func (s *SQL) Put(ctx context.Context, key string, value []byte) error {
	ctx, span := tracer.Start(ctx, "SQL.Put")
	defer span.End()
	span.SetAttributes(attribute.String("db.system", s.dialect.Name), attribute.String("kv.key", key))

	if _, err := s.db.ExecContext(ctx, s.putQuery, key, string(value)); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *SQL) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQL) Close() error { return s.db.Close() }
