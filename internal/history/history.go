// Package history persists per-action execution outcomes and answers
// decay-weighted per-rule success queries — the learning signal callers
// log after acting on a match.
package history

// #region imports
import (
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Naloam/scenelens/internal/executor"
)

// #endregion

// #region schema

const executionLogSchema = `
CREATE TABLE IF NOT EXISTS execution_log (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    batch_id      TEXT NOT NULL,
    rule_id       TEXT NOT NULL,
    action_target TEXT NOT NULL,
    action_name   TEXT NOT NULL,
    success       INTEGER NOT NULL DEFAULT 0,
    degraded      INTEGER NOT NULL DEFAULT 0,
    via_fallback  INTEGER NOT NULL DEFAULT 0,
    error         TEXT NOT NULL DEFAULT '',
    duration_ms   INTEGER NOT NULL DEFAULT 0,
    created_at    TEXT NOT NULL
);
`

const executionLogIndex = `
CREATE INDEX IF NOT EXISTS idx_execution_log_rule
ON execution_log(rule_id, created_at);
`

// #endregion

// #region store-struct

// Store keeps the execution log in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens the database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(executionLogSchema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if _, err := db.Exec(executionLogIndex); err != nil {
		return nil, fmt.Errorf("migrate index: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion

// #region record

// RecordBatch persists one row per action result. Implements the
// executor's Recorder interface.
func (s *Store) RecordBatch(batchID, ruleID string, results []executor.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, r := range results {
		_, err := tx.Exec(`
			INSERT INTO execution_log
			(batch_id, rule_id, action_target, action_name, success, degraded, via_fallback, error, duration_ms, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			batchID,
			ruleID,
			string(r.Action.Target),
			r.Action.Name,
			boolInt(r.Success),
			boolInt(r.Degraded),
			boolInt(r.ViaFallback),
			r.Err,
			r.DurationMS,
			s.now().UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
	}
	return tx.Commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion

// #region entries

// Entry is one persisted action outcome.
type Entry struct {
	BatchID      string
	RuleID       string
	ActionTarget string
	ActionName   string
	Success      bool
	Degraded     bool
	ViaFallback  bool
	Err          string
	DurationMS   int64
	CreatedAt    time.Time
}

// Recent returns the newest entries, optionally filtered by rule.
func (s *Store) Recent(ruleID string, limit int) ([]Entry, error) {
	query := `
		SELECT batch_id, rule_id, action_target, action_name, success, degraded, via_fallback, error, duration_ms, created_at
		FROM execution_log`
	args := []interface{}{}
	if ruleID != "" {
		query += ` WHERE rule_id = ?`
		args = append(args, ruleID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var success, degraded, viaFallback int
		var createdStr string
		if err := rows.Scan(&e.BatchID, &e.RuleID, &e.ActionTarget, &e.ActionName,
			&success, &degraded, &viaFallback, &e.Err, &e.DurationMS, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.Success = success == 1
		e.Degraded = degraded == 1
		e.ViaFallback = viaFallback == 1
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion

// #region stats

// Stats is the decay-weighted execution summary for one rule.
type Stats struct {
	RuleID        string
	Samples       int
	SuccessRate   float64 // decay-weighted, 7-day half-life
	DegradedShare float64 // fraction of successes that were degraded
	AvgDurationMS float64
}

// RuleStats aggregates a rule's outcomes with exponential age decay.
func (s *Store) RuleStats(ruleID string) (Stats, error) {
	rows, err := s.db.Query(`
		SELECT success, degraded, duration_ms, created_at
		FROM execution_log WHERE rule_id = ?`, ruleID)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	const halfLifeHours = 7.0 * 24.0
	now := s.now()

	st := Stats{RuleID: ruleID}
	var weightedSuccess, totalWeight float64
	var degradedCount, successCount int
	var durationSum float64

	for rows.Next() {
		var success, degraded int
		var durationMS int64
		var createdStr string
		if err := rows.Scan(&success, &degraded, &durationMS, &createdStr); err != nil {
			return Stats{}, fmt.Errorf("scan row: %w", err)
		}
		createdAt, err := time.Parse(time.RFC3339Nano, createdStr)
		if err != nil {
			continue
		}
		weight := math.Exp(-now.Sub(createdAt).Hours() / halfLifeHours)

		st.Samples++
		totalWeight += weight
		if success == 1 {
			weightedSuccess += weight
			successCount++
			if degraded == 1 {
				degradedCount++
			}
		}
		durationSum += float64(durationMS)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	if totalWeight > 0 {
		st.SuccessRate = weightedSuccess / totalWeight
	}
	if successCount > 0 {
		st.DegradedShare = float64(degradedCount) / float64(successCount)
	}
	if st.Samples > 0 {
		st.AvgDurationMS = durationSum / float64(st.Samples)
	}
	return st, nil
}

// #endregion
