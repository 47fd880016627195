// Package history records completed tool runs in a sqltool.runs ClickHouse
// table, giving operators an audit trail of what maintenance ran where,
// how long it took, and whether anything failed.
package history

import (
	"context"
	"time"

	"github.com/angusholder/sqltool/pkg/clickhouse"
	"github.com/pkg/errors"
)

type (
	// Record is one completed tool run. Isolated per-action failures are
	// counted in ActionsFailed; Error carries only the run's fatal error,
	// when there was one.
	Record struct {
		// Task is the configured task name.
		Task string

		// Tool is the tool that ran.
		Tool string

		// StartedAt is the UTC time the run began.
		StartedAt time.Time

		// ExecutionTime is the total run duration.
		ExecutionTime time.Duration

		// Objects is the number of objects processed.
		Objects int

		// ActionsExecuted is the number of actions that executed
		// successfully.
		ActionsExecuted int

		// ActionsFailed is the number of isolated per-action failures.
		ActionsFailed int

		// Error is the run's fatal error message, if any.
		Error *string

		// Version is the sqltool version that performed the run.
		Version string
	}

	// Recorder reads and writes run records, bootstrapping the tracking
	// table on first use.
	Recorder struct {
		ch      clickhouse.ClickHouse
		version string
	}
)

const bootstrapDatabaseSQL = `
CREATE DATABASE IF NOT EXISTS sqltool
ENGINE = Atomic
COMMENT 'sqltool run tracking database'
`

const bootstrapTableSQL = `
CREATE TABLE IF NOT EXISTS sqltool.runs (
    task String COMMENT 'The configured task name',
    tool String COMMENT 'The tool that ran',
    started_at DateTime(3, 'UTC') COMMENT 'The UTC time at which the run started',
    execution_time_ms UInt64 COMMENT 'How long the run took',
    objects UInt32 COMMENT 'The number of objects processed',
    actions_executed UInt32 COMMENT 'The number of actions executed successfully',
    actions_failed UInt32 COMMENT 'The number of isolated action failures',
    error Nullable(String) COMMENT 'The fatal error of the run (if any)',
    sqltool_version String COMMENT 'The version of sqltool used for the run'
)
ENGINE = MergeTree()
ORDER BY started_at
PARTITION BY toYYYYMM(started_at)
COMMENT 'Table used to track tool runs'
`

// NewRecorder creates a recorder that stamps records with the given sqltool
// version.
func NewRecorder(ch clickhouse.ClickHouse, version string) *Recorder {
	return &Recorder{ch: ch, version: version}
}

// IsBootstrapped checks whether the sqltool database and runs table exist.
func (r *Recorder) IsBootstrapped(ctx context.Context) (bool, error) {
	rows, err := r.ch.Query(ctx, "SELECT 1 FROM system.databases WHERE name = 'sqltool'")
	if err != nil {
		return false, errors.Wrap(err, "failed to check for sqltool database")
	}
	defer rows.Close()

	if !rows.Next() {
		return false, nil
	}

	rows, err = r.ch.Query(ctx, "SELECT 1 FROM system.tables WHERE database = 'sqltool' AND name = 'runs'")
	if err != nil {
		return false, errors.Wrap(err, "failed to check for runs table")
	}
	defer rows.Close()

	return rows.Next(), nil
}

// Save persists one run record, creating the tracking infrastructure first
// when needed.
func (r *Recorder) Save(ctx context.Context, record *Record) error {
	if err := r.ensureBootstrap(ctx); err != nil {
		return errors.Wrap(err, "failed to bootstrap run tracking")
	}

	insertSQL := `
		INSERT INTO sqltool.runs (
			task,
			tool,
			started_at,
			execution_time_ms,
			objects,
			actions_executed,
			actions_failed,
			error,
			sqltool_version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	return r.ch.Exec(ctx, insertSQL,
		record.Task,
		record.Tool,
		record.StartedAt,
		record.ExecutionTime.Milliseconds(),
		record.Objects,
		record.ActionsExecuted,
		record.ActionsFailed,
		record.Error,
		r.version,
	)
}

// Load returns all recorded runs, most recent first.
func (r *Recorder) Load(ctx context.Context) ([]*Record, error) {
	query := `
		SELECT
			task,
			tool,
			started_at,
			execution_time_ms,
			objects,
			actions_executed,
			actions_failed,
			error,
			sqltool_version
		FROM sqltool.runs
		ORDER BY started_at DESC
	`

	rows, err := r.ch.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var (
			record   Record
			execMS   uint64
			objects  uint32
			executed uint32
			failed   uint32
		)
		if err := rows.Scan(
			&record.Task,
			&record.Tool,
			&record.StartedAt,
			&execMS,
			&objects,
			&executed,
			&failed,
			&record.Error,
			&record.Version,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan run row")
		}

		record.ExecutionTime = time.Duration(execMS) * time.Millisecond
		record.Objects = int(objects)
		record.ActionsExecuted = int(executed)
		record.ActionsFailed = int(failed)
		records = append(records, &record)
	}

	return records, rows.Err()
}

func (r *Recorder) ensureBootstrap(ctx context.Context) error {
	bootstrapped, err := r.IsBootstrapped(ctx)
	if err != nil {
		return err
	}
	if bootstrapped {
		return nil
	}

	if err := r.ch.Exec(ctx, bootstrapDatabaseSQL); err != nil {
		return errors.Wrap(err, "failed to create sqltool database")
	}
	if err := r.ch.Exec(ctx, bootstrapTableSQL); err != nil {
		return errors.Wrap(err, "failed to create runs table")
	}
	return nil
}
