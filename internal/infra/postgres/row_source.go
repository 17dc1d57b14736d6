package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v4/pgxpool"

	"kanji-quiz-service/internal/loader"
)

// RowSource reads question and card rows from Postgres. It only produces raw
// field maps; validation stays in the loader so every source is held to the
// same rules.
type RowSource struct {
	pool *pgxpool.Pool
}

func NewRowSource(pool *pgxpool.Pool) *RowSource {
	return &RowSource{pool: pool}
}

func (s *RowSource) QuestionRows(ctx context.Context) ([]loader.Row, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, question, answer, alt, source FROM questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var out []loader.Row
	for rows.Next() {
		var id, question, answer, alt, source string
		if err := rows.Scan(&id, &question, &answer, &alt, &source); err != nil {
			return nil, fmt.Errorf("scan question row: %w", err)
		}
		out = append(out, loader.Row{
			"id":       id,
			"question": question,
			"answer":   answer,
			"alt":      alt,
			"source":   source,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return out, nil
}

func (s *RowSource) CardRows(ctx context.Context) ([]loader.Row, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, rarity, name, img, wiki, weight FROM cards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load cards: %w", err)
	}
	defer rows.Close()

	var out []loader.Row
	for rows.Next() {
		var id, name, img, wiki string
		var rarity int
		var weight float64
		if err := rows.Scan(&id, &rarity, &name, &img, &wiki, &weight); err != nil {
			return nil, fmt.Errorf("scan card row: %w", err)
		}
		out = append(out, loader.Row{
			"id":     id,
			"rarity": strconv.Itoa(rarity),
			"name":   name,
			"img":    img,
			"wiki":   wiki,
			"weight": strconv.FormatFloat(weight, 'f', -1, 64),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read cards: %w", err)
	}
	return out, nil
}
