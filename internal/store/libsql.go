package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/mailflow/mailflow/pkg/schema"
)

// LibSQLStore implements the Store interface using libSQL (embedded SQLite fork).
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database at the given path and returns a Store.
// The path should be a file URI, e.g. "file:/path/to/db.db".
func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Connection-level PRAGMAs. Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLStore{db: db}, nil
}

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// --- Workflows ---

func (s *LibSQLStore) CreateWorkflow(ctx context.Context, wf *Workflow) error {
	nodes, err := json.Marshal(wf.Nodes)
	if err != nil {
		return fmt.Errorf("marshal nodes: %w", err)
	}
	conns, err := json.Marshal(wf.Connections)
	if err != nil {
		return fmt.Errorf("marshal connections: %w", err)
	}
	settings, err := nullableJSON(wf.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO workflows (id, user_id, connection_id, name, description, active, nodes, connections, settings, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		wf.ID, wf.UserID, wf.ConnectionID, wf.Name, wf.Description, boolInt(wf.Active),
		string(nodes), string(conns), settings, timeOrNow(wf.CreatedAt), timeOrNow(wf.UpdatedAt),
	)
	return err
}

func (s *LibSQLStore) GetWorkflow(ctx context.Context, id string) (*Workflow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, connection_id, name, description, active, nodes, connections, settings, created_at, updated_at
		 FROM workflows WHERE id = ?`, id)
	wf, err := scanWorkflow(row)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("workflow", id)
	}
	return wf, err
}

func (s *LibSQLStore) UpdateWorkflow(ctx context.Context, wf *Workflow) error {
	nodes, err := json.Marshal(wf.Nodes)
	if err != nil {
		return fmt.Errorf("marshal nodes: %w", err)
	}
	conns, err := json.Marshal(wf.Connections)
	if err != nil {
		return fmt.Errorf("marshal connections: %w", err)
	}
	settings, err := nullableJSON(wf.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE workflows SET name=?, description=?, active=?, nodes=?, connections=?, settings=?, updated_at=?
		 WHERE id = ?`,
		wf.Name, wf.Description, boolInt(wf.Active), string(nodes), string(conns), settings,
		time.Now().UTC(), wf.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, "workflow", wf.ID)
}

func (s *LibSQLStore) DeleteWorkflow(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "workflow", id)
}

func (s *LibSQLStore) ListEnabledWorkflows(ctx context.Context, userID, connectionID string) ([]*Workflow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, connection_id, name, description, active, nodes, connections, settings, created_at, updated_at
		 FROM workflows WHERE user_id = ? AND connection_id = ? AND active = 1 ORDER BY created_at`,
		userID, connectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workflows []*Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, wf)
	}
	return workflows, rows.Err()
}

func (s *LibSQLStore) ListActiveWorkflows(ctx context.Context) ([]*Workflow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, connection_id, name, description, active, nodes, connections, settings, created_at, updated_at
		 FROM workflows WHERE active = 1 ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workflows []*Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, wf)
	}
	return workflows, rows.Err()
}

// --- Executions ---

func (s *LibSQLStore) CreateExecution(ctx context.Context, ex *Execution) error {
	trig, err := nullableJSON(ex.TriggerContext)
	if err != nil {
		return fmt.Errorf("marshal trigger context: %w", err)
	}
	results, err := nullableJSON(ex.NodeResults)
	if err != nil {
		return fmt.Errorf("marshal node results: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO executions (id, workflow_id, thread_id, status, trigger_context, node_results, error, created_at, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.ID, ex.WorkflowID, ex.ThreadID, string(ex.Status), trig, results,
		nullString(ex.Error), timeOrNow(ex.CreatedAt), ex.StartedAt, ex.CompletedAt,
	)
	return err
}

func (s *LibSQLStore) GetExecution(ctx context.Context, id string) (*Execution, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, workflow_id, thread_id, status, trigger_context, node_results, error, created_at, started_at, completed_at
		 FROM executions WHERE id = ?`, id)
	ex, err := scanExecution(row)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("execution", id)
	}
	return ex, err
}

func (s *LibSQLStore) UpdateExecution(ctx context.Context, id string, update ExecutionUpdate) error {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)

	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*update.Status))
	}
	if update.NodeResults != nil {
		results, err := json.Marshal(update.NodeResults)
		if err != nil {
			return fmt.Errorf("marshal node results: %w", err)
		}
		sets = append(sets, "node_results = ?")
		args = append(args, string(results))
	}
	if update.Error != nil {
		sets = append(sets, "error = ?")
		args = append(args, *update.Error)
	}
	if update.StartedAt != nil {
		sets = append(sets, "started_at = ?")
		args = append(args, *update.StartedAt)
	}
	if update.CompletedAt != nil {
		sets = append(sets, "completed_at = ?")
		args = append(args, *update.CompletedAt)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := "UPDATE executions SET " + joinSets(sets) + " WHERE id = ?"
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireRow(res, "execution", id)
}

func (s *LibSQLStore) ListExecutions(ctx context.Context, filter ExecutionFilter) ([]*Execution, error) {
	query := `SELECT id, workflow_id, thread_id, status, trigger_context, node_results, error, created_at, started_at, completed_at
		 FROM executions WHERE 1=1`
	var args []any
	if filter.WorkflowID != "" {
		query += " AND workflow_id = ?"
		args = append(args, filter.WorkflowID)
	}
	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*filter.Status))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var executions []*Execution
	for rows.Next() {
		ex, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		executions = append(executions, ex)
	}
	return executions, rows.Err()
}

// --- scanning helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*Workflow, error) {
	wf := &Workflow{}
	var description, settings sql.NullString
	var active int
	var nodes, conns string

	err := row.Scan(&wf.ID, &wf.UserID, &wf.ConnectionID, &wf.Name, &description, &active,
		&nodes, &conns, &settings, &wf.CreatedAt, &wf.UpdatedAt)
	if err != nil {
		return nil, err
	}

	wf.Description = description.String
	wf.Active = active != 0
	if err := json.Unmarshal([]byte(nodes), &wf.Nodes); err != nil {
		return nil, fmt.Errorf("unmarshal nodes: %w", err)
	}
	if err := json.Unmarshal([]byte(conns), &wf.Connections); err != nil {
		return nil, fmt.Errorf("unmarshal connections: %w", err)
	}
	if settings.Valid && settings.String != "" {
		if err := json.Unmarshal([]byte(settings.String), &wf.Settings); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	}
	return wf, nil
}

func scanExecution(row rowScanner) (*Execution, error) {
	ex := &Execution{}
	var threadID, trig, results, errMsg sql.NullString
	var status string
	var startedAt, completedAt sql.NullTime

	err := row.Scan(&ex.ID, &ex.WorkflowID, &threadID, &status, &trig, &results, &errMsg,
		&ex.CreatedAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	ex.ThreadID = threadID.String
	ex.Status = schema.ExecutionStatus(status)
	ex.Error = errMsg.String
	if trig.Valid && trig.String != "" {
		if err := json.Unmarshal([]byte(trig.String), &ex.TriggerContext); err != nil {
			return nil, fmt.Errorf("unmarshal trigger context: %w", err)
		}
	}
	if results.Valid && results.String != "" {
		if err := json.Unmarshal([]byte(results.String), &ex.NodeResults); err != nil {
			return nil, fmt.Errorf("unmarshal node results: %w", err)
		}
	}
	if startedAt.Valid {
		ex.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		ex.CompletedAt = &completedAt.Time
	}
	return ex, nil
}

// --- small helpers ---

func storeNotFound(kind, id string) error {
	return schema.NewErrorf(schema.ErrCodeNotFound, "%s not found: %s", kind, id)
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storeNotFound(kind, id)
	}
	return nil
}

func nullableJSON(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(b)
	if s == "null" {
		return nil, nil
	}
	return s, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func joinSets(sets []string) string {
	out := sets[0]
	for _, s := range sets[1:] {
		out += ", " + s
	}
	return out
}
