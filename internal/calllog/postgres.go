package calllog

import (
	"context"
	"database/sql"
	"fmt"

	"callcenter-platform/pkg/utils"
)

// PostgresRepo archives call records in a single append-only table.
//
//	CREATE TABLE IF NOT EXISTS call_log (
//	    call_id            TEXT PRIMARY KEY,
//	    group_id           TEXT NOT NULL,
//	    agent_id           TEXT NOT NULL DEFAULT '',
//	    phone_number       TEXT NOT NULL,
//	    start_time         TIMESTAMPTZ NOT NULL,
//	    end_time           TIMESTAMPTZ NOT NULL,
//	    duration_seconds   INTEGER NOT NULL,
//	    wait_time_seconds  INTEGER NOT NULL,
//	    archived_at        TIMESTAMPTZ NOT NULL
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const createCallLogTable = `
CREATE TABLE IF NOT EXISTS call_log (
    call_id            TEXT PRIMARY KEY,
    group_id           TEXT NOT NULL,
    agent_id           TEXT NOT NULL DEFAULT '',
    phone_number       TEXT NOT NULL,
    start_time         TIMESTAMPTZ NOT NULL,
    end_time           TIMESTAMPTZ NOT NULL,
    duration_seconds   INTEGER NOT NULL,
    wait_time_seconds  INTEGER NOT NULL,
    archived_at        TIMESTAMPTZ NOT NULL
)`

// Migrate creates the archive table if it does not exist yet.
func (r *PostgresRepo) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCallLogTable); err != nil {
		return fmt.Errorf("calllog: migrate: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Insert(ctx context.Context, rec Record) error {
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		// ON CONFLICT DO NOTHING keeps re-archiving a replayed end event
		// from failing; the first write wins.
		_, err := tx.ExecContext(ctx, `
			INSERT INTO call_log
			    (call_id, group_id, agent_id, phone_number,
			     start_time, end_time, duration_seconds, wait_time_seconds, archived_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (call_id) DO NOTHING`,
			rec.CallID, rec.GroupID, rec.AgentID, rec.PhoneNumber,
			rec.StartTime, rec.EndTime, rec.DurationSeconds, rec.WaitTimeSeconds, rec.ArchivedAt,
		)
		return err
	})
}

func (r *PostgresRepo) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	return r.list(ctx, `
		SELECT call_id, group_id, agent_id, phone_number,
		       start_time, end_time, duration_seconds, wait_time_seconds, archived_at
		FROM call_log ORDER BY end_time DESC LIMIT $1`, clampLimit(limit))
}

func (r *PostgresRepo) ListByAgent(ctx context.Context, agentID string, limit int) ([]Record, error) {
	return r.list(ctx, `
		SELECT call_id, group_id, agent_id, phone_number,
		       start_time, end_time, duration_seconds, wait_time_seconds, archived_at
		FROM call_log WHERE agent_id = $2 ORDER BY end_time DESC LIMIT $1`, clampLimit(limit), agentID)
}

func (r *PostgresRepo) ListByGroup(ctx context.Context, groupID string, limit int) ([]Record, error) {
	return r.list(ctx, `
		SELECT call_id, group_id, agent_id, phone_number,
		       start_time, end_time, duration_seconds, wait_time_seconds, archived_at
		FROM call_log WHERE group_id = $2 ORDER BY end_time DESC LIMIT $1`, clampLimit(limit), groupID)
}

func (r *PostgresRepo) list(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("calllog: query: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.CallID, &rec.GroupID, &rec.AgentID, &rec.PhoneNumber,
			&rec.StartTime, &rec.EndTime, &rec.DurationSeconds, &rec.WaitTimeSeconds, &rec.ArchivedAt,
		); err != nil {
			return nil, fmt.Errorf("calllog: scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}
