// Package archive persists finished task records to SQLite so completed runs
// can be inspected after the in-memory knowledge store is cleared. Best
// effort: the live system never depends on archive durability.
package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/planweave/planweave/models"
)

// SQLiteArchive stores one row per archived task record, grouped by run.
type SQLiteArchive struct {
	db *sql.DB
}

// NewSQLiteArchive opens (or creates) the archive database. Pass ":memory:"
// for an ephemeral archive.
func NewSQLiteArchive(basePath string) (*SQLiteArchive, error) {
	var dbPath string
	if basePath == ":memory:" {
		dbPath = ":memory:"
	} else {
		dbPath = filepath.Join(basePath, "runs.db")
		if err := os.MkdirAll(basePath, 0755); err != nil {
			return nil, fmt.Errorf("create archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	a := &SQLiteArchive{db: db}
	if err := a.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return a, nil
}

func (a *SQLiteArchive) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		project_goal TEXT NOT NULL,
		archived_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS task_records (
		run_id TEXT NOT NULL,
		task_id TEXT NOT NULL,
		goal TEXT NOT NULL,
		task_type TEXT,
		node_type TEXT,
		status TEXT NOT NULL,
		parent_task_id TEXT,
		child_task_ids TEXT,            -- JSON array, plan order
		layer INTEGER NOT NULL,
		output_content TEXT,            -- JSON-rendered raw output
		output_summary TEXT,
		output_type_description TEXT,
		error_message TEXT,
		created_at TEXT,
		updated_at TEXT,
		completed_at TEXT,
		sub_graph_id TEXT,
		aux_data TEXT,                  -- JSON object
		PRIMARY KEY (run_id, task_id),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_task_records_run ON task_records(run_id);
	CREATE INDEX IF NOT EXISTS idx_task_records_status ON task_records(run_id, status);
	`
	_, err := a.db.Exec(schema)
	return err
}

// nullTimeString returns nil for zero time, RFC3339 string otherwise.
func nullTimeString(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339)
}

// ArchiveRun writes all records of a finished run atomically and returns the
// run id. Records are validated before persisting; one invalid record fails
// the whole run so the archive never holds partial state.
func (a *SQLiteArchive) ArchiveRun(projectGoal string, records []*models.TaskRecord) (string, error) {
	for _, rec := range records {
		if err := models.ValidateRecord(rec); err != nil {
			return "", fmt.Errorf("validate task record %s: %w", rec.TaskID, err)
		}
	}

	runID := "run-" + uuid.NewString()

	tx, err := a.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, project_goal, archived_at) VALUES (?, ?, ?)`,
		runID, projectGoal, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, rec := range records {
		if err := insertRecordTx(tx, runID, rec); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

func insertRecordTx(tx *sql.Tx, runID string, rec *models.TaskRecord) error {
	childJSON, _ := json.Marshal(rec.ChildTaskIDs)
	auxJSON, _ := json.Marshal(rec.AuxData)

	var outputJSON interface{}
	if rec.OutputContent != nil {
		if b, err := json.Marshal(rec.OutputContent); err == nil {
			outputJSON = string(b)
		} else {
			outputJSON = fmt.Sprintf("%v", rec.OutputContent)
		}
	}

	var nodeType interface{}
	if rec.NodeType != nil {
		nodeType = string(*rec.NodeType)
	}
	var parentID interface{}
	if rec.ParentTaskID != nil {
		parentID = *rec.ParentTaskID
	}
	var subGraphID interface{}
	if rec.SubGraphID != nil {
		subGraphID = *rec.SubGraphID
	}
	var completedAt interface{}
	if rec.CompletedAt != nil {
		completedAt = nullTimeString(*rec.CompletedAt)
	}

	_, err := tx.Exec(`
		INSERT INTO task_records (
			run_id, task_id, goal, task_type, node_type, status,
			parent_task_id, child_task_ids, layer,
			output_content, output_summary, output_type_description, error_message,
			created_at, updated_at, completed_at, sub_graph_id, aux_data
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, rec.TaskID, rec.Goal, rec.TaskType, nodeType, string(rec.Status),
		parentID, string(childJSON), rec.Layer,
		outputJSON, rec.OutputSummary, rec.OutputTypeDescription, rec.ErrorMessage,
		nullTimeString(rec.CreatedAt), nullTimeString(rec.UpdatedAt), completedAt,
		subGraphID, string(auxJSON))
	if err != nil {
		return fmt.Errorf("insert task record %s: %w", rec.TaskID, err)
	}
	return nil
}

// RunSummary describes one archived run.
type RunSummary struct {
	RunID       string
	ProjectGoal string
	ArchivedAt  time.Time
	Records     int
}

// ListRuns returns archived runs, newest first.
func (a *SQLiteArchive) ListRuns() ([]RunSummary, error) {
	rows, err := a.db.Query(`
		SELECT r.id, r.project_goal, r.archived_at, COUNT(t.task_id)
		FROM runs r LEFT JOIN task_records t ON t.run_id = r.id
		GROUP BY r.id ORDER BY r.archived_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var archivedAt string
		if err := rows.Scan(&s.RunID, &s.ProjectGoal, &archivedAt, &s.Records); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.ArchivedAt, _ = time.Parse(time.RFC3339, archivedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

// RecordStatuses returns task id to status for an archived run.
func (a *SQLiteArchive) RecordStatuses(runID string) (map[string]models.TaskStatus, error) {
	rows, err := a.db.Query(`SELECT task_id, status FROM task_records WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]models.TaskStatus)
	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out[id] = models.TaskStatus(strings.TrimSpace(status))
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}
