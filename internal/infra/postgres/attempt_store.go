package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-engine/internal/app"
	"quiz-engine/internal/domain"
)

// AttemptStore keeps finished attempts as JSONB rows, with the columns
// attempts are filtered and ordered by broken out.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) SaveAttempt(ctx context.Context, attempt domain.Attempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO attempts (id, quiz_id, user_id, status, started_at, data)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		attempt.ID, attempt.QuizID, attempt.UserID, string(attempt.Status), attempt.StartedAt, data)
	if err != nil {
		return fmt.Errorf("insert attempt %s: %w", attempt.ID, err)
	}
	return nil
}

func (s *AttemptStore) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM attempts WHERE id = $1`, attemptID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, fmt.Errorf("%w: %s", domain.ErrAttemptNotFound, attemptID)
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("load attempt: %w", err)
	}
	return decodeAttempt(raw)
}

// UpdateAttempt replaces a stored attempt, as manual grading does.
func (s *AttemptStore) UpdateAttempt(ctx context.Context, attempt domain.Attempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE attempts SET status = $2, data = $3 WHERE id = $1`,
		attempt.ID, string(attempt.Status), data)
	if err != nil {
		return fmt.Errorf("update attempt %s: %w", attempt.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrAttemptNotFound, attempt.ID)
	}
	return nil
}

// ListAttempts returns matching attempts, newest first.
func (s *AttemptStore) ListAttempts(ctx context.Context, filter app.AttemptFilter) ([]domain.Attempt, error) {
	query, args := listQuery(filter)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var out []domain.Attempt
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempt, err := decodeAttempt(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, attempt)
	}
	return out, rows.Err()
}

func listQuery(filter app.AttemptFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if filter.QuizID != "" {
		args = append(args, filter.QuizID)
		where = append(where, fmt.Sprintf("quiz_id = $%d", len(args)))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	query := `SELECT data FROM attempts`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	return query + ` ORDER BY started_at DESC, id DESC`, args
}

func decodeAttempt(raw []byte) (domain.Attempt, error) {
	var attempt domain.Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return domain.Attempt{}, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return attempt, nil
}
