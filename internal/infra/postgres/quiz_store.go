package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-engine/internal/domain"
)

// QuizStore keeps quiz content as JSONB in Postgres. Stats live in their
// own columns so attempts can update them without rewriting the document.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

// SaveQuiz upserts the quiz document. Existing stats are preserved.
func (s *QuizStore) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	quiz.Stats = domain.QuizStats{}
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quizzes (id, data, status, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET data = EXCLUDED.data, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`,
		quiz.ID, data, string(quiz.Status), quiz.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save quiz %s: %w", quiz.ID, err)
	}
	return nil
}

func (s *QuizStore) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT data, attempt_count, average_score, average_time_spent
		FROM quizzes WHERE id = $1`, quizID)
	quiz, err := scanQuiz(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, fmt.Errorf("%w: %s", domain.ErrQuizNotFound, quizID)
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return quiz, nil
}

// ListQuizzes returns every quiz, ordered by id.
func (s *QuizStore) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT data, attempt_count, average_score, average_time_spent
		FROM quizzes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var out []domain.Quiz
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, fmt.Errorf("list quizzes: %w", err)
		}
		out = append(out, quiz)
	}
	return out, rows.Err()
}

// RecordAttemptStats folds one scored attempt into the quiz's running means.
func (s *QuizStore) RecordAttemptStats(ctx context.Context, quizID string, percentage, timeSpent int) error {
	return s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		var stats domain.QuizStats
		err := tx.QueryRow(ctx, `
			SELECT attempt_count, average_score, average_time_spent
			FROM quizzes WHERE id = $1 FOR UPDATE`, quizID).
			Scan(&stats.AttemptCount, &stats.AverageScore, &stats.AverageTimeSpent)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", domain.ErrQuizNotFound, quizID)
		}
		if err != nil {
			return fmt.Errorf("read quiz stats: %w", err)
		}

		stats = stats.Record(percentage, timeSpent)
		_, err = tx.Exec(ctx, `
			UPDATE quizzes
			SET attempt_count = $2, average_score = $3, average_time_spent = $4
			WHERE id = $1`,
			quizID, stats.AttemptCount, stats.AverageScore, stats.AverageTimeSpent)
		if err != nil {
			return fmt.Errorf("update quiz stats: %w", err)
		}
		return nil
	})
}

func scanQuiz(row pgx.Row) (domain.Quiz, error) {
	var (
		raw   []byte
		stats domain.QuizStats
	)
	if err := row.Scan(&raw, &stats.AttemptCount, &stats.AverageScore, &stats.AverageTimeSpent); err != nil {
		return domain.Quiz{}, err
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	quiz.Stats = stats
	return quiz, nil
}
