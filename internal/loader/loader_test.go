package loader

import (
	"errors"
	"testing"

	"kanji-quiz-service/internal/domain"
)

func TestQuestionsValidBatch(t *testing.T) {
	rows := []Row{
		{"id": "q1", "question": "【猫】の読みは？", "answer": "ねこ", "alt": "ネコ|猫", "source": "N5"},
		{"id": "q2", "question": "【犬】の読みは？", "answer": "いぬ"},
	}
	qs, err := Questions(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
	if got := qs[0].Alternates; len(got) != 2 || got[0] != "ネコ" || got[1] != "猫" {
		t.Fatalf("unexpected alternates: %v", got)
	}
	if qs[1].Alternates != nil {
		t.Fatalf("expected no alternates, got %v", qs[1].Alternates)
	}
}

func TestQuestionsRequiredFields(t *testing.T) {
	cases := []struct {
		row   Row
		field string
	}{
		{Row{"id": " ", "question": "x", "answer": "y"}, "id"},
		{Row{"id": "q1", "question": "", "answer": "y"}, "question"},
		{Row{"id": "q1", "question": "x", "answer": "  "}, "answer"},
	}
	for _, tc := range cases {
		_, err := Questions([]Row{tc.row})
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if verr.Field != tc.field {
			t.Fatalf("expected field %q, got %q", tc.field, verr.Field)
		}
	}
}

func TestQuestionsDuplicateID(t *testing.T) {
	rows := []Row{
		{"id": "q1", "question": "a", "answer": "b"},
		{"id": "q1", "question": "c", "answer": "d"},
	}
	_, err := Questions(rows)
	var derr *domain.DuplicateIDError
	if !errors.As(err, &derr) || derr.ID != "q1" {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestQuestionsAlternatesDropEmptySegments(t *testing.T) {
	qs, err := Questions([]Row{{"id": "q1", "question": "a", "answer": "b", "alt": "x||y| "}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := qs[0].Alternates; len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Fatalf("unexpected alternates: %v", got)
	}
}

func TestCardsSkipBadRarity(t *testing.T) {
	rows := []Row{
		{"id": "c1", "rarity": "5", "name": "金", "weight": "0.5"},
		{"id": "c2", "rarity": "2", "name": "out of range"},
		{"id": "c3", "rarity": "abc", "name": "not numeric"},
		{"id": "c4", "rarity": "3", "name": "銅"},
	}
	cards, err := Cards(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	if cards[0].ID != "c1" || cards[0].Weight != 0.5 {
		t.Fatalf("unexpected first card: %+v", cards[0])
	}
	if cards[1].ID != "c4" || cards[1].Weight != 1 {
		t.Fatalf("expected default weight 1, got %+v", cards[1])
	}
}

func TestCardsDuplicateIDFatal(t *testing.T) {
	rows := []Row{
		{"id": "c1", "rarity": "3"},
		{"id": "c1", "rarity": "4"},
	}
	if _, err := Cards(rows); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}
