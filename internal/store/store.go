// Package store implements the backing store adapter: parameterized
// reads and writes against PostgreSQL over a single shared connection.
//
// Failures never leave this package as error values. Every failed
// operation is logged with its context and reported to the caller as a
// negative row count or a false result; callers treat that as the sole
// failure signal.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/redbird/connect/internal/config"
)

// Rows is the minimal row cursor handed to query callbacks.
// pgx.Rows satisfies it; test fakes implement it over slices.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
}

// Store is the query contract consumed by all repositories.
type Store interface {
	// Execute runs a mutation and returns the affected row count.
	// A negative count signals failure. desc is a human-readable
	// description of the mutation, logged before the attempt.
	Execute(ctx context.Context, desc, sql string, args ...any) int64

	// ExecuteReturning runs a mutation with a RETURNING clause and
	// scans the single returned row into dest.
	ExecuteReturning(ctx context.Context, desc, sql string, args []any, dest ...any) bool

	// Query runs a read and hands the row cursor to scan.
	Query(ctx context.Context, sql string, args []any, scan func(Rows) error) bool

	// QueryRow runs a single-row read. A missing row reports false
	// without error-level noise.
	QueryRow(ctx context.Context, sql string, args []any, dest ...any) bool
}

// Conn is the slice of a pgx connection the adapter uses.
// *pgx.Conn satisfies it, as does a pgxmock connection in tests.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Dialer opens a new connection to the backing store
type Dialer func(ctx context.Context) (Conn, error)

// PgStore is the PostgreSQL-backed Store. It holds one long-lived
// connection, opened lazily before the first operation and reused for
// every call after that. Connection-state transitions are mutually
// exclusive; queries themselves are not serialized here.
type PgStore struct {
	dial Dialer

	mu   sync.Mutex // guards conn transitions only
	conn Conn

	log zerolog.Logger
}

// NewPgStore creates a store adapter for the configured database.
// No connection is opened yet; the first operation dials.
func NewPgStore(cfg *config.Config, lgr zerolog.Logger) *PgStore {
	connString := cfg.GetPostgresConnectionString()
	dial := func(ctx context.Context) (Conn, error) {
		conn, err := pgx.Connect(ctx, connString)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
	return NewPgStoreWithDialer(dial, lgr)
}

// NewPgStoreWithDialer creates a store adapter with a custom dialer
func NewPgStoreWithDialer(dial Dialer, lgr zerolog.Logger) *PgStore {
	return &PgStore{
		dial: dial,
		log:  lgr.With().Str("component", "store").Logger(),
	}
}

// Connect opens the shared connection. Calling it while already
// connected is a no-op, logged, not an error.
func (s *PgStore) Connect(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(ctx)
}

func (s *PgStore) connectLocked(ctx context.Context) bool {
	if s.conn != nil {
		s.log.Info().Msg("store already connected")
		return true
	}

	conn, err := s.dial(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to connect to store")
		return false
	}
	if err := conn.Ping(ctx); err != nil {
		s.log.Error().Err(err).Msg("store connection failed ping")
		_ = conn.Close(ctx)
		return false
	}

	s.conn = conn
	s.log.Info().Msg("store connected")
	return true
}

// Disconnect closes the shared connection if one is open
func (s *PgStore) Disconnect(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		s.log.Info().Msg("store already disconnected")
		return true
	}

	err := s.conn.Close(ctx)
	s.conn = nil
	if err != nil {
		s.log.Error().Err(err).Msg("error closing store connection")
		return false
	}
	s.log.Info().Msg("store disconnected")
	return true
}

// connection returns the shared connection, dialing lazily if needed
func (s *PgStore) connection(ctx context.Context) Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		if !s.connectLocked(ctx) {
			return nil
		}
	}
	return s.conn
}

// Execute implements Store
func (s *PgStore) Execute(ctx context.Context, desc, sql string, args ...any) int64 {
	conn := s.connection(ctx)
	if conn == nil {
		return -1
	}

	s.log.Info().Str("op", desc).Msg("executing store mutation")
	tag, err := conn.Exec(ctx, sql, args...)
	if err != nil {
		s.log.Error().Err(err).Str("op", desc).Str("sql", sql).Msg("store mutation failed")
		return -1
	}
	return tag.RowsAffected()
}

// ExecuteReturning implements Store
func (s *PgStore) ExecuteReturning(ctx context.Context, desc, sql string, args []any, dest ...any) bool {
	conn := s.connection(ctx)
	if conn == nil {
		return false
	}

	s.log.Info().Str("op", desc).Msg("executing store mutation")
	if err := conn.QueryRow(ctx, sql, args...).Scan(dest...); err != nil {
		s.log.Error().Err(err).Str("op", desc).Str("sql", sql).Msg("store mutation failed")
		return false
	}
	return true
}

// Query implements Store
func (s *PgStore) Query(ctx context.Context, sql string, args []any, scan func(Rows) error) bool {
	conn := s.connection(ctx)
	if conn == nil {
		return false
	}

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		s.log.Error().Err(err).Str("sql", sql).Msg("store query failed")
		return false
	}
	defer rows.Close()

	if err := scan(rows); err != nil {
		s.log.Error().Err(err).Str("sql", sql).Msg("error scanning query result")
		return false
	}
	if err := rows.Err(); err != nil {
		s.log.Error().Err(err).Str("sql", sql).Msg("error reading query result")
		return false
	}
	return true
}

// QueryRow implements Store
func (s *PgStore) QueryRow(ctx context.Context, sql string, args []any, dest ...any) bool {
	conn := s.connection(ctx)
	if conn == nil {
		return false
	}

	err := conn.QueryRow(ctx, sql, args...).Scan(dest...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.log.Debug().Str("sql", sql).Msg("store query matched no rows")
			return false
		}
		s.log.Error().Err(err).Str("sql", sql).Msg("store query failed")
		return false
	}
	return true
}
