// Package mds is the thin session-oriented driver for the metadata store.
//
// The store is a single-file SQLite database reached through database/sql
// with the pure-Go glebarez driver. Each request handler opens its own
// Client; sessions are never shared across concurrent requests. Statements
// bind parameters positionally; the only interpolated identifier is the
// table name, which comes from configuration, never from the network.
//
// Failures are classified into three kinds (connect, execute, commit) that
// the HTTP layer surfaces verbatim as 520/521/522.
package mds

import (
	"database/sql"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"github.com/ericlee/eoss/internal/logger"
)

// Config locates the metadata store.
type Config struct {
	// Path is the SQLite database file.
	Path string

	// Table is the metadata table name.
	Table string
}

// Client is a single metadata session. Mutations accumulate in one open
// transaction until Commit; Close rolls back anything uncommitted.
//
// A Client is not safe for concurrent use; open one per request.
type Client struct {
	cfg Config
	log *logger.Logger

	db *sql.DB
	tx *sql.Tx
}

// NewClient creates a client for the configured store. No I/O happens until
// Open.
func NewClient(cfg Config, log *logger.Logger) *Client {
	return &Client{cfg: cfg, log: log}
}

// Table returns the configured metadata table name for use in statements.
func (c *Client) Table() string {
	return c.cfg.Table
}

// Open establishes the session. Failures are KindConnect.
func (c *Client) Open() error {
	db, err := sql.Open("sqlite", c.cfg.Path)
	if err != nil {
		c.log.Error("failed to open metadata database", "path", c.cfg.Path, "error", err)
		return newError(KindConnect, "open "+c.cfg.Path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		c.log.Error("failed to connect to metadata database", "path", c.cfg.Path, "error", err)
		return newError(KindConnect, "connect "+c.cfg.Path, err)
	}

	c.db = db
	c.log.Debug("metadata database session opened", "path", c.cfg.Path)
	return nil
}

// Exec runs a mutating statement inside the session transaction. Failures
// are KindExec.
func (c *Client) Exec(stmt string, args ...any) error {
	tx, err := c.ensureTx()
	if err != nil {
		return err
	}

	c.log.Debug("executing statement", "stmt", stmt, "params", len(args))
	if _, err := tx.Exec(stmt, args...); err != nil {
		c.log.Error("failed to execute statement", "stmt", stmt, "error", err)
		return newError(KindExec, stmt, err)
	}
	return nil
}

// QueryStrings runs a single-string-column query and returns all rows.
// "No rows" is an empty, non-nil slice; nil is returned only with an error.
func (c *Client) QueryStrings(stmt string, args ...any) ([]string, error) {
	tx, err := c.ensureTx()
	if err != nil {
		return nil, err
	}

	c.log.Debug("executing query", "stmt", stmt, "params", len(args))
	rows, err := tx.Query(stmt, args...)
	if err != nil {
		c.log.Error("failed to execute query", "stmt", stmt, "error", err)
		return nil, newError(KindExec, stmt, err)
	}
	defer rows.Close()

	out := make([]string, 0, 4)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, newError(KindExec, stmt, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, newError(KindExec, stmt, err)
	}
	return out, nil
}

// QueryInts runs a single-integer-column query and returns all rows. NULL
// cells are skipped by scanning into a nullable and dropping empty values;
// callers that care about NULL use QueryNullableInts.
func (c *Client) QueryInts(stmt string, args ...any) ([]int64, error) {
	vals, err := c.QueryNullableInts(stmt, args...)
	if err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(vals))
	for _, v := range vals {
		if v.Valid {
			out = append(out, v.Int64)
		}
	}
	return out, nil
}

// QueryNullableInts runs a single-integer-column query preserving NULLs.
func (c *Client) QueryNullableInts(stmt string, args ...any) ([]sql.NullInt64, error) {
	tx, err := c.ensureTx()
	if err != nil {
		return nil, err
	}

	c.log.Debug("executing query", "stmt", stmt, "params", len(args))
	rows, err := tx.Query(stmt, args...)
	if err != nil {
		c.log.Error("failed to execute query", "stmt", stmt, "error", err)
		return nil, newError(KindExec, stmt, err)
	}
	defer rows.Close()

	out := make([]sql.NullInt64, 0, 4)
	for rows.Next() {
		var v sql.NullInt64
		if err := rows.Scan(&v); err != nil {
			return nil, newError(KindExec, stmt, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, newError(KindExec, stmt, err)
	}
	return out, nil
}

// Commit commits pending mutations. The next Exec starts a fresh
// transaction. Failures are KindCommit. Committing with nothing pending is
// a no-op.
func (c *Client) Commit() error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Commit(); err != nil {
		c.log.Error("failed to commit", "error", err)
		return newError(KindCommit, "commit", err)
	}
	return nil
}

// Close releases session resources unconditionally. Uncommitted mutations
// are rolled back.
func (c *Client) Close() {
	if c.tx != nil {
		_ = c.tx.Rollback()
		c.tx = nil
	}
	if c.db != nil {
		_ = c.db.Close()
		c.db = nil
	}
}

func (c *Client) ensureTx() (*sql.Tx, error) {
	if c.db == nil {
		return nil, newError(KindConnect, "session not open", fmt.Errorf("no database handle"))
	}
	if c.tx == nil {
		tx, err := c.db.Begin()
		if err != nil {
			c.log.Error("failed to begin transaction", "error", err)
			return nil, newError(KindExec, "begin", err)
		}
		c.tx = tx
	}
	return c.tx, nil
}
