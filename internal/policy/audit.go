package policy

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrDecisionNotFound is returned when no audit entry has the requested id.
var ErrDecisionNotFound = errors.New("decision not found")

// timeLayout is fixed-width so evaluated_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// AuditSchema creates the policy_decisions table. The snapshot store runs it
// when it opens its database.
const AuditSchema = `
CREATE TABLE IF NOT EXISTS policy_decisions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	decision_id TEXT NOT NULL UNIQUE,
	policy_path TEXT NOT NULL,
	result TEXT NOT NULL,
	violations TEXT NOT NULL DEFAULT '[]',
	warnings TEXT NOT NULL DEFAULT '[]',
	input_json TEXT NOT NULL DEFAULT '{}',
	request_id TEXT,
	user_id TEXT,
	evaluated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_policy_decisions_request ON policy_decisions(request_id);
`

// AuditStore persists policy decisions for compliance and audit trail.
// It shares the snapshot store's SQLite database.
type AuditStore struct {
	db *sql.DB
}

// NewAuditStore creates a new audit store using an existing database connection.
func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

// SaveDecision persists a policy decision to the database.
// If DecisionID is empty, a new UUID will be generated.
func (s *AuditStore) SaveDecision(decision *PolicyDecision) error {
	if decision == nil {
		return fmt.Errorf("decision is nil")
	}
	if decision.DecisionID == "" {
		decision.DecisionID = uuid.New().String()
	}
	if decision.EvaluatedAt.IsZero() {
		decision.EvaluatedAt = time.Now().UTC()
	}

	res, err := s.db.Exec(`
		INSERT INTO policy_decisions (
			decision_id, policy_path, result, violations, warnings, input_json, request_id, user_id, evaluated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		decision.DecisionID,
		decision.PolicyPath,
		decision.Result,
		marshalList(decision.Violations),
		marshalList(decision.Warnings),
		decision.InputJSON(),
		nullString(decision.RequestID),
		nullString(decision.UserID),
		decision.EvaluatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert policy decision: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		decision.ID = id
	}
	return nil
}

const decisionColumns = `id, decision_id, policy_path, result, violations, warnings, input_json, request_id, user_id, evaluated_at`

// GetDecision retrieves a policy decision by its UUID.
func (s *AuditStore) GetDecision(decisionID string) (*PolicyDecision, error) {
	row := s.db.QueryRow(`SELECT `+decisionColumns+` FROM policy_decisions WHERE decision_id = ?`, decisionID)
	d, err := scanDecision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDecisionNotFound, decisionID)
	}
	return d, err
}

// ListDecisionsOptions provides filtering options for ListDecisions.
type ListDecisionsOptions struct {
	RequestID string    // Filter by credit request
	Result    string    // Filter by result ("allow" or "deny")
	Since     time.Time // Filter by evaluated_at >= since
	Limit     int       // Maximum number of results (0 = no limit)
}

// ListDecisions retrieves policy decisions with optional filters, newest first.
func (s *AuditStore) ListDecisions(opts ListDecisionsOptions) ([]*PolicyDecision, error) {
	query := `SELECT ` + decisionColumns + ` FROM policy_decisions WHERE 1=1`
	args := []any{}

	if opts.RequestID != "" {
		query += " AND request_id = ?"
		args = append(args, opts.RequestID)
	}
	if opts.Result != "" {
		query += " AND result = ?"
		args = append(args, opts.Result)
	}
	if !opts.Since.IsZero() {
		query += " AND evaluated_at >= ?"
		args = append(args, opts.Since.UTC().Format(timeLayout))
	}
	query += " ORDER BY evaluated_at DESC, id DESC"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query policy decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var decisions []*PolicyDecision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// PruneOldDecisions removes decisions older than the specified duration.
func (s *AuditStore) PruneOldDecisions(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	result, err := s.db.Exec(
		"DELETE FROM policy_decisions WHERE evaluated_at < ?",
		cutoff.Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune old decisions: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDecision(row scanner) (*PolicyDecision, error) {
	var d PolicyDecision
	var violationsJSON, warningsJSON, inputJSON, evaluatedAt string
	var requestID, userID sql.NullString

	err := row.Scan(
		&d.ID,
		&d.DecisionID,
		&d.PolicyPath,
		&d.Result,
		&violationsJSON,
		&warningsJSON,
		&inputJSON,
		&requestID,
		&userID,
		&evaluatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan policy decision: %w", err)
	}

	d.Violations = parseList(violationsJSON)
	d.Warnings = parseList(warningsJSON)
	if inputJSON != "" && inputJSON != "{}" {
		var input any
		if err := json.Unmarshal([]byte(inputJSON), &input); err == nil {
			d.Input = input
		}
	}
	d.RequestID = requestID.String
	d.UserID = userID.String
	d.EvaluatedAt, _ = time.Parse(time.RFC3339Nano, evaluatedAt)
	return &d, nil
}

// nullString converts an empty string to sql.NullString.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
