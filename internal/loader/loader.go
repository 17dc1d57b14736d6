// Package loader validates pre-parsed tabular rows into domain records.
// Parsing the source itself (CSV, Postgres, ...) is the row source's job.
package loader

import (
	"strconv"
	"strings"

	"kanji-quiz-service/internal/domain"
)

// Row is one record from a tabular source, keyed by column name.
type Row map[string]string

// Recognized question columns: id, question, answer, alt, source.
// Recognized card columns: id, rarity, name, img, wiki, weight.

// Questions validates a batch of question rows. Any malformed required field
// fails the whole batch; a session must not start over partial content.
func Questions(rows []Row) ([]domain.Question, error) {
	out := make([]domain.Question, 0, len(rows))
	seen := make(map[string]int, len(rows))
	for i, row := range rows {
		id := strings.TrimSpace(row["id"])
		prompt := strings.TrimSpace(row["question"])
		answer := strings.TrimSpace(row["answer"])
		switch {
		case id == "":
			return nil, &domain.ValidationError{Row: i, Field: "id"}
		case prompt == "":
			return nil, &domain.ValidationError{Row: i, Field: "question"}
		case answer == "":
			return nil, &domain.ValidationError{Row: i, Field: "answer"}
		}
		if _, dup := seen[id]; dup {
			return nil, &domain.DuplicateIDError{Row: i, ID: id}
		}
		seen[id] = i
		out = append(out, domain.Question{
			ID:          id,
			Prompt:      prompt,
			Answer:      answer,
			Alternates:  splitAlternates(row["alt"]),
			SourceLabel: strings.TrimSpace(row["source"]),
		})
	}
	return out, nil
}

// Cards validates a batch of card rows. Duplicate ids fail the batch; a row
// with a missing or out-of-range rarity is skipped rather than fatal, since
// card rewards are an optional enhancement.
func Cards(rows []Row) ([]domain.Card, error) {
	out := make([]domain.Card, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for i, row := range rows {
		id := strings.TrimSpace(row["id"])
		if id == "" {
			return nil, &domain.ValidationError{Row: i, Field: "id"}
		}
		if _, dup := seen[id]; dup {
			return nil, &domain.DuplicateIDError{Row: i, ID: id}
		}
		seen[id] = struct{}{}

		rarity, err := strconv.Atoi(strings.TrimSpace(row["rarity"]))
		if err != nil || rarity < 3 || rarity > 5 {
			continue
		}
		weight := 1.0
		if raw := strings.TrimSpace(row["weight"]); raw != "" {
			if w, err := strconv.ParseFloat(raw, 64); err == nil && w > 0 {
				weight = w
			}
		}
		out = append(out, domain.Card{
			ID:          id,
			RarityTier:  rarity,
			DisplayName: strings.TrimSpace(row["name"]),
			ImageRef:    strings.TrimSpace(row["img"]),
			InfoRef:     strings.TrimSpace(row["wiki"]),
			Weight:      weight,
		})
	}
	return out, nil
}

// splitAlternates splits a pipe-delimited alt field, discarding empty
// segments and preserving order.
func splitAlternates(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var alts []string
	for _, part := range strings.Split(raw, "|") {
		if part = strings.TrimSpace(part); part != "" {
			alts = append(alts, part)
		}
	}
	return alts
}
