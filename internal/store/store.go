// Package store persists solver runs to a local SQLite database so that
// anneal sweeps can be compared across sessions. Schema changes are applied
// through embedded golang-migrate migrations.
package store

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunKind labels which geometry a solver run was computed against.
type RunKind string

const (
	RunKindTrap      RunKind = "trap"
	RunKindResonator RunKind = "resonator"
)

// SolverRun is one persisted anneal result: the final configuration together
// with the solver outcome and the tuning parameters that produced it.
type SolverRun struct {
	RunID        string          `json:"run_id"`
	Kind         RunKind         `json:"kind"`
	Source       string          `json:"source"`
	NumElectrons int             `json:"num_electrons"`
	Energy       float64         `json:"energy"`
	GradNorm     float64         `json:"grad_norm"`
	Converged    bool            `json:"converged"`
	Status       string          `json:"status"`
	Iterations   int             `json:"iterations"`
	FuncEvals    int             `json:"func_evals"`
	ParamsJSON   json.RawMessage `json:"params_json,omitempty"`
	CreatedAt    int64           `json:"created_at"`

	// Positions is the interleaved configuration [x0, y0, x1, y1, ...]
	// in metres.
	Positions []float64 `json:"positions"`
}

// Store wraps the run database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the run database at path and applies any
// pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	// Note: m is not closed because that would close the shared DB
	// connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// SchemaVersion reports the applied migration version and dirty state.
// A fresh database with no migrations reports (0, false, nil).
func (s *Store) SchemaVersion() (version uint, dirty bool, err error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, false, err
	}
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return 0, false, err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// InsertRun persists a run with its electron positions. If RunID is empty a
// UUID is generated; if CreatedAt is zero the current time is used.
func (s *Store) InsertRun(run *SolverRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}
	if len(run.Positions)%2 != 0 {
		return fmt.Errorf("store: odd position count %d", len(run.Positions))
	}
	run.NumElectrons = len(run.Positions) / 2

	var paramsStr interface{}
	if len(run.ParamsJSON) > 0 {
		paramsStr = string(run.ParamsJSON)
	}

	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		_, err = tx.Exec(`
			INSERT INTO solver_runs (
				run_id, kind, source, num_electrons,
				energy, grad_norm, converged, status,
				iterations, func_evals, params_json, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, string(run.Kind), run.Source, run.NumElectrons,
			run.Energy, run.GradNorm, run.Converged, run.Status,
			run.Iterations, run.FuncEvals, paramsStr, run.CreatedAt,
		)
		if err != nil {
			return err
		}
		for i := 0; i < run.NumElectrons; i++ {
			_, err = tx.Exec(`
				INSERT INTO run_positions (run_id, electron, x, y)
				VALUES (?, ?, ?, ?)`,
				run.RunID, i, run.Positions[2*i], run.Positions[2*i+1],
			)
			if err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// GetRun returns a run by ID, positions included.
func (s *Store) GetRun(runID string) (*SolverRun, error) {
	row := s.db.QueryRow(`
		SELECT run_id, kind, source, num_electrons,
		       energy, grad_norm, converged, status,
		       iterations, func_evals, params_json, created_at
		FROM solver_runs
		WHERE run_id = ?`, runID)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("store: run %s not found", runID)
		}
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT x, y FROM run_positions
		WHERE run_id = ?
		ORDER BY electron`, runID)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var x, y float64
		if err := rows.Scan(&x, &y); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		run.Positions = append(run.Positions, x, y)
	}
	return run, rows.Err()
}

// ListRuns returns up to limit runs of the given kind, newest first;
// kind "" matches all kinds and limit <= 0 means no limit. Positions are
// not loaded.
func (s *Store) ListRuns(kind RunKind, limit int) ([]*SolverRun, error) {
	query := `
		SELECT run_id, kind, source, num_electrons,
		       energy, grad_norm, converged, status,
		       iterations, func_evals, params_json, created_at
		FROM solver_runs`
	var args []interface{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*SolverRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// BestRun returns the lowest-energy converged run of the given kind with
// the given electron count, or an error if none exists.
func (s *Store) BestRun(kind RunKind, numElectrons int) (*SolverRun, error) {
	row := s.db.QueryRow(`
		SELECT run_id, kind, source, num_electrons,
		       energy, grad_norm, converged, status,
		       iterations, func_evals, params_json, created_at
		FROM solver_runs
		WHERE kind = ? AND num_electrons = ? AND converged = 1
		ORDER BY energy ASC
		LIMIT 1`, string(kind), numElectrons)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("store: no converged %s run with %d electrons", kind, numElectrons)
		}
		return nil, err
	}
	return s.GetRun(run.RunID)
}

// DeleteRun removes a run and its positions.
func (s *Store) DeleteRun(runID string) error {
	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()
		if _, err := tx.Exec(`DELETE FROM run_positions WHERE run_id = ?`, runID); err != nil {
			return err
		}
		res, err := tx.Exec(`DELETE FROM solver_runs WHERE run_id = ?`, runID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("store: run %s not found", runID)
		}
		return tx.Commit()
	})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*SolverRun, error) {
	var run SolverRun
	var kind string
	var paramsStr sql.NullString
	err := row.Scan(
		&run.RunID, &kind, &run.Source, &run.NumElectrons,
		&run.Energy, &run.GradNorm, &run.Converged, &run.Status,
		&run.Iterations, &run.FuncEvals, &paramsStr, &run.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Kind = RunKind(kind)
	if paramsStr.Valid {
		run.ParamsJSON = json.RawMessage(paramsStr.String)
	}
	return &run, nil
}
