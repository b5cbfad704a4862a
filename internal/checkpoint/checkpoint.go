// Package checkpoint persists the DFS frontier (spec.md §4.5's
// identifierSubregion sharding and the runner's resume story, made
// concrete per SPEC_FULL.md §B.1): not full states — a State carries
// unserializable borrowed services (the calculator, the class hierarchy)
// — but the lightweight (identifier, seq_number, depth) record that lets
// a resumed run re-derive each frontier state by re-stepping the engine
// from root along the branch choices the identifier encodes.
//
// Grounded on the teacher's internal/database/db_manager.go: a
// *sql.DB held behind a small manager type, driver selected by name over
// the same blank-imported driver set, pool tuned the same way. Schema and
// purpose are new — the teacher manager is a generic ad hoc SQL client,
// this Store owns one fixed table.
package checkpoint

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Entry is one frontier record: a state discovered but not yet
// (re-)explored.
type Entry struct {
	Identifier string
	SeqNumber  int
	Depth      int
}

// Store persists a run's frontier across a fixed schema, driver-agnostic
// over the teacher's four SQL backends.
type Store struct {
	db     *sql.DB
	driver string
	runID  string
	opened time.Time
}

// rebind rewrites a query written with sqlite/mysql-style `?` ordinal
// placeholders into the driver's native placeholder syntax. sqlite and
// mysql accept `?` as-is; lib/pq (postgres) only understands `$1, $2, …`;
// go-mssqldb accepts both but is rebound to `@p1, @p2, …` here to match
// its own documented convention rather than relying on its `?`
// compatibility shim.
func (s *Store) rebind(query string) string {
	switch s.driver {
	case "postgres":
		return rebindOrdinal(query, func(n int) string { return fmt.Sprintf("$%d", n) })
	case "sqlserver":
		return rebindOrdinal(query, func(n int) string { return fmt.Sprintf("@p%d", n) })
	default:
		return query
	}
}

func rebindOrdinal(query string, placeholder func(n int) string) string {
	var out []byte
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, placeholder(n)...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

// driverName maps a short backend name to the database/sql driver that
// handles it, the same dispatch db_manager.go's Connect does.
func driverName(backend string) (string, error) {
	switch backend {
	case "", "sqlite", "sqlite3":
		return "sqlite", nil
	case "postgres", "postgresql":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "mssql", "sqlserver":
		return "sqlserver", nil
	default:
		return "", fmt.Errorf("checkpoint: unsupported backend %q", backend)
	}
}

// Open connects to dsn using backend (one of "sqlite" (default, pure
// Go), "postgres", "mysql", "mssql") and ensures the frontier table
// exists. runID tags every row Store writes for the lifetime of this
// handle; pass uuid.NewString() for a fresh run or a previously issued
// run ID to resume it.
func Open(backend, dsn, runID string) (*Store, error) {
	driver, err := driverName(backend)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("checkpoint: ping: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("checkpoint: schema: %w", err)
	}

	if runID == "" {
		runID = uuid.NewString()
	}
	return &Store{db: db, driver: driver, runID: runID, opened: time.Now()}, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS symbex_frontier (
	run_id      TEXT NOT NULL,
	identifier  TEXT NOT NULL,
	seq_number  INTEGER NOT NULL,
	depth       INTEGER NOT NULL,
	PRIMARY KEY (run_id, identifier)
)`

// RunID returns the run this Store is partitioned under.
func (s *Store) RunID() string { return s.runID }

// SaveFrontier replaces this run's persisted frontier with entries —
// called whenever the runner pauses (timeout, countScope reached, or an
// explicit checkpoint request) with its current worklist.
func (s *Store) SaveFrontier(entries []Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("checkpoint: begin: %w", err)
	}
	if _, err := tx.Exec(s.rebind(`DELETE FROM symbex_frontier WHERE run_id = ?`), s.runID); err != nil {
		tx.Rollback()
		return fmt.Errorf("checkpoint: clear: %w", err)
	}
	insert := s.rebind(`INSERT INTO symbex_frontier (run_id, identifier, seq_number, depth) VALUES (?, ?, ?, ?)`)
	for _, e := range entries {
		if _, err := tx.Exec(
			insert,
			s.runID, e.Identifier, e.SeqNumber, e.Depth,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("checkpoint: insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("checkpoint: commit: %w", err)
	}
	return nil
}

// LoadFrontier returns this run's persisted frontier, optionally
// restricted to identifiers with the given subregion prefix (empty
// means all of it) — the sharding/resume split spec.md §4.5 names.
func (s *Store) LoadFrontier(identifierSubregion string) ([]Entry, error) {
	rows, err := s.db.Query(
		s.rebind(`SELECT identifier, seq_number, depth FROM symbex_frontier WHERE run_id = ? AND identifier LIKE ? ORDER BY seq_number`),
		s.runID, identifierSubregion+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Identifier, &e.SeqNumber, &e.Depth); err != nil {
			return nil, fmt.Errorf("checkpoint: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Diagnostics renders a one-line human-readable summary of this store's
// age and frontier size, printed by cmd/symbex when the store is opened.
func (s *Store) Diagnostics(frontierSize int) string {
	return fmt.Sprintf("run=%s frontier=%d age=%s", s.runID, frontierSize, humanize.Time(s.opened))
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}
