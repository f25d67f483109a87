package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore implements driven.SessionStore on SQLite.
type SessionStore struct {
	db *sql.DB
}

// CreateSession stores a new session.
func (s *SessionStore) CreateSession(ctx context.Context, session *domain.Session) error {
	taskJSON, err := json.Marshal(session.Task)
	if err != nil {
		return fmt.Errorf("marshalling task: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	exists, err := rowExists(ctx, tx, "SELECT 1 FROM sessions WHERE id = ?", session.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("session %s: %w", session.ID, domain.ErrAlreadyExists)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, name, task_json, status, best_round, error, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, session.ID, session.Name, string(taskJSON), string(session.Status), session.BestRound,
		session.Error, formatTime(session.CreatedAt), nullTime(session.CompletedAt))
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return tx.Commit()
}

// UpdateSession replaces a session's mutable fields.
func (s *SessionStore) UpdateSession(ctx context.Context, session *domain.Session) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET status = ?, best_round = ?, error = ?, completed_at = ?
		WHERE id = ?
	`, string(session.Status), session.BestRound, session.Error, nullTime(session.CompletedAt), session.ID)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", session.ID, domain.ErrNotFound)
	}
	return nil
}

const sessionColumns = "id, name, task_json, status, best_round, error, created_at, completed_at"

// GetSession retrieves a session by ID.
func (s *SessionStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return session, nil
}

// ListSessions returns all sessions, newest first.
func (s *SessionStore) ListSessions(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]domain.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// AppendRound adds a round to a session's history.
func (s *SessionStore) AppendRound(ctx context.Context, round domain.Round) error {
	execJSON, err := json.Marshal(round.Execution)
	if err != nil {
		return fmt.Errorf("marshalling execution: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	exists, err := rowExists(ctx, tx, "SELECT 1 FROM sessions WHERE id = ?", round.SessionID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("session %s: %w", round.SessionID, domain.ErrNotFound)
	}
	exists, err = rowExists(ctx, tx,
		"SELECT 1 FROM rounds WHERE session_id = ? AND idx = ?", round.SessionID, round.Index)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("round %d: %w", round.Index, domain.ErrAlreadyExists)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rounds (session_id, idx, instruction, accepted, score, judgment, failure,
			execution_json, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, round.SessionID, round.Index, round.Candidate.Instruction, round.Accepted, round.Score,
		string(round.Judgment), round.Failure, string(execJSON),
		formatTime(round.StartedAt), formatTime(round.EndedAt))
	if err != nil {
		return fmt.Errorf("inserting round: %w", err)
	}
	return tx.Commit()
}

// ListRounds returns a session's rounds ordered by index.
func (s *SessionStore) ListRounds(ctx context.Context, sessionID string) ([]domain.Round, error) {
	exists, err := rowExists(ctx, s.db, "SELECT 1 FROM sessions WHERE id = ?", sessionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, instruction, accepted, score, judgment, failure, execution_json, started_at, ended_at
		FROM rounds WHERE session_id = ? ORDER BY idx
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying rounds: %w", err)
	}
	defer rows.Close()

	rounds := make([]domain.Round, 0)
	for rows.Next() {
		var (
			r              domain.Round
			judgment       string
			execJSON       string
			started, ended string
		)
		if err := rows.Scan(&r.Index, &r.Candidate.Instruction, &r.Accepted, &r.Score,
			&judgment, &r.Failure, &execJSON, &started, &ended); err != nil {
			return nil, fmt.Errorf("scanning round: %w", err)
		}
		if err := json.Unmarshal([]byte(execJSON), &r.Execution); err != nil {
			return nil, fmt.Errorf("unmarshalling execution of round %d: %w", r.Index, err)
		}
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		if r.EndedAt, err = parseTime(ended); err != nil {
			return nil, fmt.Errorf("parsing ended_at: %w", err)
		}
		r.SessionID = sessionID
		r.Candidate.Round = r.Index
		r.Judgment = domain.Judgment(judgment)
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func rowExists(ctx context.Context, q querier, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking existence: %w", err)
	}
	return true, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (*domain.Session, error) {
	var (
		session   domain.Session
		taskJSON  string
		status    string
		created   string
		completed sql.NullString
	)
	err := sc.Scan(&session.ID, &session.Name, &taskJSON, &status, &session.BestRound,
		&session.Error, &created, &completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	if err := json.Unmarshal([]byte(taskJSON), &session.Task); err != nil {
		return nil, fmt.Errorf("unmarshalling task: %w", err)
	}
	session.Status = domain.SessionStatus(status)
	if session.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if completed.Valid {
		if session.CompletedAt, err = parseTime(completed.String); err != nil {
			return nil, fmt.Errorf("parsing completed_at: %w", err)
		}
	}
	return &session, nil
}
