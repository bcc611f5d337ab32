// Package buildcache persists compiled LLVM IR behind a keyed
// database/sql Store, so a repeated compile of unchanged source (and
// unchanged flags) can skip the parse/bounds/optimize/speculate/lower
// pipeline entirely. Grounded in the teacher's internal/database
// package: the same multi-driver sql.Open registration and connection
// pool tuning as db_manager.go's DBManager, repurposed from "database
// security testing connections" to "one compiled-artifact cache table".
package buildcache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Key identifies a cache entry: the SHA-256 of every input that can
// affect the produced LLVM IR. Anything added to the pipeline that
// changes its output must be folded into NewKey.
type Key string

// NewKey hashes the source bytes together with the flags that affect
// codegen: opt level, step budget, and LLVM optimization level.
func NewKey(source string, optLevel, stepBudget, llvmOptLevel int) Key {
	h := sha256.New()
	fmt.Fprintf(h, "opt=%d;steps=%d;llvm-opt=%d;src=", optLevel, stepBudget, llvmOptLevel)
	h.Write([]byte(source))
	return Key(hex.EncodeToString(h.Sum(nil)))
}

// Entry is one stored compile result.
type Entry struct {
	Key         Key
	RunID       string
	SourceFile  string
	LLVMIR      string
	ResidualLen int
	CreatedAt   time.Time
}

// Store is the cache's interface, small enough that the pipeline
// callers (CLI, batch pool) don't need to know which driver backs it.
type Store interface {
	Get(key Key) (*Entry, bool, error)
	Put(entry Entry) error
	Close() error
}

// sqlStore is the database/sql-backed Store implementation.
type sqlStore struct {
	db     *sql.DB
	driver string
}

// driverForDSN maps a DSN's scheme prefix to the registered
// database/sql driver name, matching db_manager.go's Connect dispatch.
func driverForDSN(dsn string) (driver string, source string, err error) {
	switch {
	case strings.HasPrefix(dsn, "sqlite3-cgo:"):
		return "sqlite3", strings.TrimPrefix(dsn, "sqlite3-cgo:"), nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite:"), nil
	case strings.HasPrefix(dsn, "postgres:"), strings.HasPrefix(dsn, "postgresql:"):
		return "postgres", dsn, nil
	case strings.HasPrefix(dsn, "mysql:"):
		return "mysql", strings.TrimPrefix(dsn, "mysql:"), nil
	case strings.HasPrefix(dsn, "sqlserver:"):
		return "mssql", strings.TrimPrefix(dsn, "sqlserver:"), nil
	default:
		return "sqlite", dsn, nil
	}
}

// Open opens (creating if necessary) a cache backed by the driver the
// dsn's scheme selects, and ensures the cache_entries table exists.
func Open(dsn string) (Store, error) {
	driver, source, err := driverForDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("buildcache: opening %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("buildcache: pinging %s: %w", driver, err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("buildcache: creating cache_entries: %w", err)
	}

	return &sqlStore{db: db, driver: driver}, nil
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS cache_entries (
	cache_key    TEXT PRIMARY KEY,
	run_id       TEXT NOT NULL,
	source_file  TEXT NOT NULL,
	llvm_ir      TEXT NOT NULL,
	residual_len INTEGER NOT NULL,
	created_at   TEXT NOT NULL
)`

// rebind rewrites `?` placeholders into the target driver's native
// syntax: lib/pq accepts only `$1, $2, ...` and go-mssqldb only
// `@p1, @p2, ...`; sqlite and mysql accept `?` as-is.
func (s *sqlStore) rebind(query string) string {
	if s.driver != "postgres" && s.driver != "mssql" {
		return query
	}

	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			if s.driver == "postgres" {
				fmt.Fprintf(&sb, "$%d", n)
			} else {
				fmt.Fprintf(&sb, "@p%d", n)
			}
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Get looks up key, reporting whether it was present.
func (s *sqlStore) Get(key Key) (*Entry, bool, error) {
	row := s.db.QueryRow(
		s.rebind(`SELECT run_id, source_file, llvm_ir, residual_len, created_at FROM cache_entries WHERE cache_key = ?`),
		string(key),
	)

	var e Entry
	var createdAt string
	if err := row.Scan(&e.RunID, &e.SourceFile, &e.LLVMIR, &e.ResidualLen, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("buildcache: get: %w", err)
	}
	e.Key = key
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &e, true, nil
}

// Put stores (or overwrites) an entry. RunID and CreatedAt are filled
// in if the caller left them zero. SQLite and Postgres support the
// single-statement upsert below; MySQL and SQL Server's upsert syntax
// differs, so those two drivers instead delete any existing row first.
func (s *sqlStore) Put(entry Entry) error {
	if entry.RunID == "" {
		entry.RunID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	insert := `INSERT INTO cache_entries (cache_key, run_id, source_file, llvm_ir, residual_len, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`
	args := []interface{}{
		string(entry.Key), entry.RunID, entry.SourceFile, entry.LLVMIR, entry.ResidualLen,
		entry.CreatedAt.Format(time.RFC3339),
	}

	switch s.driver {
	case "mysql", "mssql":
		if _, err := s.db.Exec(s.rebind(`DELETE FROM cache_entries WHERE cache_key = ?`), string(entry.Key)); err != nil {
			return fmt.Errorf("buildcache: put (clearing old entry): %w", err)
		}
	default:
		insert += ` ON CONFLICT(cache_key) DO UPDATE SET
		   run_id = excluded.run_id,
		   source_file = excluded.source_file,
		   llvm_ir = excluded.llvm_ir,
		   residual_len = excluded.residual_len,
		   created_at = excluded.created_at`
	}

	if _, err := s.db.Exec(s.rebind(insert), args...); err != nil {
		return fmt.Errorf("buildcache: put: %w", err)
	}
	return nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
