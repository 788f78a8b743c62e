package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CuratedQuestion is a row of the curated_questions table. These rows
// augment the built-in fallback bank at startup.
type CuratedQuestion struct {
	Category      string
	Difficulty    string
	Prompt        string
	Options       []string
	CorrectAnswer string
}

// CuratedRepository reads and writes the curated question bank.
type CuratedRepository struct {
	pool *pgxpool.Pool
}

func NewCuratedRepository(pool *pgxpool.Pool) *CuratedRepository {
	return &CuratedRepository{pool: pool}
}

// FetchAll returns every verified curated question.
func (r *CuratedRepository) FetchAll(ctx context.Context) ([]CuratedQuestion, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT category, difficulty, prompt, options, correct_answer
		FROM curated_questions
		WHERE verified
		ORDER BY category, difficulty, id`)
	if err != nil {
		return nil, fmt.Errorf("query curated questions: %w", err)
	}
	defer rows.Close()

	var out []CuratedQuestion
	for rows.Next() {
		var q CuratedQuestion
		if err := rows.Scan(&q.Category, &q.Difficulty, &q.Prompt, &q.Options, &q.CorrectAnswer); err != nil {
			return nil, fmt.Errorf("scan curated question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Insert stores a curated question (unverified until reviewed).
func (r *CuratedRepository) Insert(ctx context.Context, q CuratedQuestion) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO curated_questions (category, difficulty, prompt, options, correct_answer, verified)
		VALUES ($1, $2, $3, $4, $5, false)
		ON CONFLICT (prompt) DO NOTHING`,
		q.Category, q.Difficulty, q.Prompt, q.Options, q.CorrectAnswer)
	if err != nil {
		return fmt.Errorf("insert curated question: %w", err)
	}
	return nil
}
