package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/DorukKorkmaz/crypto-backtest/internal/sweep"
)

// ErrUnknownSweep is returned by Load for an id that was never recorded.
var ErrUnknownSweep = errors.New("unknown sweep")

// SQLiteRecorder persists sweeps to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sweeps (
			id           TEXT PRIMARY KEY,
			strategy     TEXT NOT NULL,
			instruments  TEXT,
			combinations INTEGER,
			started      INTEGER NOT NULL,
			finished     INTEGER,
			status       TEXT NOT NULL,
			best_params  TEXT,
			best_value   REAL,
			evaluated    INTEGER,
			skipped      INTEGER,
			failures     INTEGER
		)`,

		`CREATE TABLE IF NOT EXISTS aggregates (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			sweep_id TEXT NOT NULL,
			idx      INTEGER NOT NULL,
			params   TEXT,
			value    REAL,
			runs     INTEGER,
			failed   INTEGER,
			trades   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_aggregates_sweep ON aggregates(sweep_id, value)`,

		`CREATE TABLE IF NOT EXISTS failures (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			sweep_id TEXT NOT NULL,
			idx      INTEGER NOT NULL,
			params   TEXT,
			symbol   TEXT,
			error    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_sweep ON failures(sweep_id)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) Begin(strategy string, instruments []string, combinations int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	_, err := r.db.Exec(`INSERT INTO sweeps (id, strategy, instruments, combinations, started, status)
		VALUES (?,?,?,?,?,?)`,
		id, strategy, strings.Join(instruments, ","), combinations, time.Now().Unix(), StatusRunning,
	)
	if err != nil {
		return "", fmt.Errorf("insert sweep: %w", err)
	}
	return id, nil
}

func (r *SQLiteRecorder) RecordAggregate(sweepID string, a sweep.Aggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO aggregates (sweep_id, idx, params, value, runs, failed, trades)
		VALUES (?,?,?,?,?,?,?)`,
		sweepID, a.Index, a.Combination.String(), a.Value, a.Runs, a.Failed, a.Trades,
	)
	return err
}

func (r *SQLiteRecorder) RecordFailure(sweepID string, f sweep.Failure) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO failures (sweep_id, idx, params, symbol, error)
		VALUES (?,?,?,?,?)`,
		sweepID, f.Index, f.Combination.String(), f.Symbol, f.Err.Error(),
	)
	return err
}

func (r *SQLiteRecorder) Finish(sweepID string, out sweep.Outcome, searchErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := StatusDone
	if searchErr != nil {
		status = StatusInterrupted
	}
	var bestParams sql.NullString
	var bestValue sql.NullFloat64
	if out.Best.Found {
		bestParams = sql.NullString{String: out.Best.Combination.String(), Valid: true}
		bestValue = sql.NullFloat64{Float64: out.Best.Value, Valid: true}
	}
	res, err := r.db.Exec(`UPDATE sweeps SET finished=?, status=?, best_params=?, best_value=?,
		evaluated=?, skipped=?, failures=? WHERE id=?`,
		time.Now().Unix(), status, bestParams, bestValue,
		out.Evaluated, out.Skipped, len(out.Failures), sweepID,
	)
	if err != nil {
		return fmt.Errorf("update sweep: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSweep, sweepID)
	}
	return nil
}

// Load reads back the header of a sweep.
func (r *SQLiteRecorder) Load(sweepID string) (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		s           Summary
		instruments string
		started     int64
		finished    sql.NullInt64
		bestParams  sql.NullString
		bestValue   sql.NullFloat64
		evaluated   sql.NullInt64
		skipped     sql.NullInt64
		failures    sql.NullInt64
	)
	err := r.db.QueryRow(`SELECT id, strategy, instruments, combinations, started, finished, status,
		best_params, best_value, evaluated, skipped, failures FROM sweeps WHERE id=?`, sweepID).
		Scan(&s.ID, &s.Strategy, &instruments, &s.Combinations, &started, &finished, &s.Status,
			&bestParams, &bestValue, &evaluated, &skipped, &failures)
	if errors.Is(err, sql.ErrNoRows) {
		return Summary{}, fmt.Errorf("%w: %s", ErrUnknownSweep, sweepID)
	}
	if err != nil {
		return Summary{}, fmt.Errorf("load sweep: %w", err)
	}
	if instruments != "" {
		s.Instruments = strings.Split(instruments, ",")
	}
	s.Started = time.Unix(started, 0)
	if finished.Valid {
		s.Finished = time.Unix(finished.Int64, 0)
	}
	s.BestParams = bestParams.String
	s.BestValue = bestValue.Float64
	s.Evaluated = int(evaluated.Int64)
	s.Skipped = int(skipped.Int64)
	s.Failures = int(failures.Int64)
	return s, nil
}

// Ranked is a stored aggregate as read back from the database.
type Ranked struct {
	Index  int
	Params string
	Value  float64
	Runs   int
	Trades int
}

// Top returns the n best aggregates of a sweep, best first. Equal values keep enumeration order.
func (r *SQLiteRecorder) Top(sweepID string, n int) ([]Ranked, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT idx, params, value, runs, trades FROM aggregates
		WHERE sweep_id=? ORDER BY value DESC, idx ASC LIMIT ?`, sweepID, n)
	if err != nil {
		return nil, fmt.Errorf("query aggregates: %w", err)
	}
	defer rows.Close()

	var out []Ranked
	for rows.Next() {
		var a Ranked
		if err := rows.Scan(&a.Index, &a.Params, &a.Value, &a.Runs, &a.Trades); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
