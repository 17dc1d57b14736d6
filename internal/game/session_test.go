package game

import (
	"math/rand"
	"testing"
	"time"

	"kanji-quiz-service/internal/domain"
)

func testQuestions(n int) []domain.Question {
	qs := make([]domain.Question, 0, n)
	base := []domain.Question{
		{ID: "q1", Prompt: "【猫】の読みは？", Answer: "ねこ", Alternates: []string{"ニャー", "猫"}},
		{ID: "q2", Prompt: "【犬】の読みは？", Answer: "いぬ"},
		{ID: "q3", Prompt: "【空】の読みは？", Answer: "そら"},
	}
	for i := 0; i < n; i++ {
		q := base[i%len(base)]
		q.ID = q.ID + "-" + string(rune('a'+i))
		qs = append(qs, q)
	}
	return qs
}

func newTestSession(t *testing.T, rules Rules) (*Session, <-chan Event) {
	t.Helper()
	s := NewSession("s1", rules, NopCountdown{}, nil, rand.New(rand.NewSource(1)))
	ch, cancel := s.Subscribe()
	t.Cleanup(cancel)
	t.Cleanup(s.Close)
	return s, ch
}

func waitEvent(t *testing.T, ch <-chan Event, typ EventType) Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event channel closed while waiting for %s", typ)
			}
			if ev.Type == typ {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", typ)
		}
	}
}

func TestBeginNormalTruncatesPool(t *testing.T) {
	s, ch := newTestSession(t, Rules{QuestionTime: time.Hour, NormalPoolSize: 2})
	if err := s.Begin(domain.ModeNormal, testQuestions(9)); err != nil {
		t.Fatalf("begin: %v", err)
	}
	ev := waitEvent(t, ch, EventQuestion)
	if ev.Question.Total != 2 {
		t.Fatalf("expected pool of 2 in normal mode, got %d", ev.Question.Total)
	}
}

func TestBeginEndlessUsesEverything(t *testing.T) {
	s, ch := newTestSession(t, Rules{QuestionTime: time.Hour, NormalPoolSize: 2})
	if err := s.Begin(domain.ModeEndless, testQuestions(9)); err != nil {
		t.Fatalf("begin: %v", err)
	}
	ev := waitEvent(t, ch, EventQuestion)
	if ev.Question.Total != 9 {
		t.Fatalf("expected full pool of 9 in endless mode, got %d", ev.Question.Total)
	}
}

func TestBeginEmptyPool(t *testing.T) {
	s, _ := newTestSession(t, Rules{})
	if err := s.Begin(domain.ModeNormal, nil); err != domain.ErrNoQuestions {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestJudgingFoldsKatakana(t *testing.T) {
	s, ch := newTestSession(t, Rules{QuestionTime: time.Hour, PointsPerCorrect: 1})
	qs := []domain.Question{{ID: "q1", Prompt: "猫", Answer: "ねこ", Alternates: []string{"ニャー", "猫"}}}
	if err := s.Begin(domain.ModeEndless, qs); err != nil {
		t.Fatalf("begin: %v", err)
	}
	waitEvent(t, ch, EventQuestion)

	s.Submit("ネコ")
	ev := waitEvent(t, ch, EventJudged)
	if !ev.Judged.Correct {
		t.Fatalf("katakana input should fold to hiragana and match: %+v", ev.Judged)
	}
	if ev.Judged.Score != 1 || ev.Judged.Combo != 1 {
		t.Fatalf("expected score 1 combo 1, got %+v", ev.Judged)
	}
}

func TestEmptySubmissionAlwaysIncorrect(t *testing.T) {
	s, ch := newTestSession(t, Rules{QuestionTime: time.Hour})
	qs := []domain.Question{{ID: "q1", Prompt: "p", Answer: "ねこ"}}
	if err := s.Begin(domain.ModeEndless, qs); err != nil {
		t.Fatalf("begin: %v", err)
	}
	waitEvent(t, ch, EventQuestion)

	s.Submit("   ")
	ev := waitEvent(t, ch, EventJudged)
	if ev.Judged.Correct {
		t.Fatalf("whitespace-only input must never be correct")
	}
	if ev.Judged.Timeout {
		t.Fatalf("manual submission must not be flagged as timeout")
	}
}

func TestDoubleSubmitIsNoOp(t *testing.T) {
	s, ch := newTestSession(t, Rules{QuestionTime: time.Hour, PointsPerCorrect: 1})
	qs := []domain.Question{{ID: "q1", Prompt: "p", Answer: "ねこ"}}
	_ = s.Begin(domain.ModeEndless, qs)
	waitEvent(t, ch, EventQuestion)

	s.Submit("ねこ")
	waitEvent(t, ch, EventJudged)
	s.Submit("ねこ") // locked: must not judge again

	if got := len(s.History()); got != 1 {
		t.Fatalf("expected exactly one record, got %d", got)
	}
	if snap := s.Snapshot(); snap.Score != 1 {
		t.Fatalf("expected score unchanged at 1, got %d", snap.Score)
	}
}

func TestTimeoutJudgesOnce(t *testing.T) {
	s, ch := newTestSession(t, Rules{QuestionTime: 30 * time.Millisecond})
	qs := []domain.Question{{ID: "q1", Prompt: "p", Answer: "ねこ"}}
	_ = s.Begin(domain.ModeEndless, qs)
	waitEvent(t, ch, EventQuestion)

	ev := waitEvent(t, ch, EventJudged)
	if !ev.Judged.Timeout || ev.Judged.Correct {
		t.Fatalf("expected incorrect timeout judgment, got %+v", ev.Judged)
	}
	records := s.History()
	if len(records) != 1 || !records[0].IsTimeout || records[0].RawInput != "" {
		t.Fatalf("unexpected timeout record: %+v", records)
	}
}

func TestSubmissionCancelsPendingTimeout(t *testing.T) {
	s, ch := newTestSession(t, Rules{QuestionTime: 50 * time.Millisecond, PointsPerCorrect: 1})
	qs := []domain.Question{{ID: "q1", Prompt: "p", Answer: "ねこ"}}
	_ = s.Begin(domain.ModeEndless, qs)
	waitEvent(t, ch, EventQuestion)

	s.Submit("ねこ")
	ev := waitEvent(t, ch, EventJudged)
	if ev.Judged.Timeout || !ev.Judged.Correct {
		t.Fatalf("expected correct manual judgment, got %+v", ev.Judged)
	}

	// Let the original deadline pass; the stale callback must not add a
	// second record or flip the judgment.
	time.Sleep(120 * time.Millisecond)
	records := s.History()
	if len(records) != 1 || records[0].IsTimeout {
		t.Fatalf("stale timeout fired after submission: %+v", records)
	}
}

func TestComboBookkeeping(t *testing.T) {
	s, ch := newTestSession(t, Rules{QuestionTime: time.Hour, PointsPerCorrect: 1})
	qs := []domain.Question{
		{ID: "q1", Prompt: "p", Answer: "あ"},
		{ID: "q2", Prompt: "p", Answer: "あ"},
		{ID: "q3", Prompt: "p", Answer: "あ"},
		{ID: "q4", Prompt: "p", Answer: "あ"},
	}
	_ = s.Begin(domain.ModeEndless, qs)
	waitEvent(t, ch, EventQuestion)

	answers := []string{"あ", "あ", "ちがう", "あ"}
	wantCombo := []int{1, 2, 0, 1}
	wantBest := []int{1, 2, 2, 2}
	for i, ans := range answers {
		s.Submit(ans)
		ev := waitEvent(t, ch, EventJudged)
		if ev.Judged.Combo != wantCombo[i] {
			t.Fatalf("question %d: combo = %d, want %d", i+1, ev.Judged.Combo, wantCombo[i])
		}
		if ev.Judged.BestCombo != wantBest[i] {
			t.Fatalf("question %d: bestCombo = %d, want %d", i+1, ev.Judged.BestCombo, wantBest[i])
		}
		s.Advance()
		if i < len(answers)-1 {
			waitEvent(t, ch, EventQuestion)
		}
	}
	waitEvent(t, ch, EventFinished)
}

func TestFullSessionSummary(t *testing.T) {
	s, ch := newTestSession(t, Rules{QuestionTime: time.Hour, PointsPerCorrect: 1, NormalPoolSize: 10, ComboBonus: 10})
	qs := make([]domain.Question, 10)
	for i := range qs {
		qs[i] = domain.Question{ID: string(rune('a' + i)), Prompt: "p", Answer: "あ"}
	}
	_ = s.Begin(domain.ModeNormal, qs)
	waitEvent(t, ch, EventQuestion)

	// One early miss, then seven correct, then two misses: score 7,
	// best combo 7.
	answers := []string{"x", "あ", "あ", "あ", "あ", "あ", "あ", "あ", "x", ""}
	for i, ans := range answers {
		s.Submit(ans)
		waitEvent(t, ch, EventJudged)
		s.Advance()
		if i < len(answers)-1 {
			waitEvent(t, ch, EventQuestion)
		}
	}

	ev := waitEvent(t, ch, EventFinished)
	sum := ev.Finished
	if sum.Score != 7 || sum.Correct != 7 || sum.Total != 10 {
		t.Fatalf("unexpected totals: %+v", sum)
	}
	if sum.BestCombo != 7 {
		t.Fatalf("expected best combo 7, got %d", sum.BestCombo)
	}
	if sum.Stars != 3 {
		t.Fatalf("expected 3 stars for 7/10, got %d", sum.Stars)
	}
	if sum.Rank != "S" {
		t.Fatalf("expected rank S (3 stars, no combo bonus), got %s", sum.Rank)
	}
	if len(sum.Missed) != 3 {
		t.Fatalf("expected 3 missed records, got %d", len(sum.Missed))
	}
	if len(s.History()) != 10 {
		t.Fatalf("history length %d, want 10", len(s.History()))
	}
	if missed := s.Missed(); len(missed) != 3 {
		t.Fatalf("expected 3 missed questions for retry, got %d", len(missed))
	}
}

func TestAdvanceOutsideLockedIsNoOp(t *testing.T) {
	s, ch := newTestSession(t, Rules{QuestionTime: time.Hour})
	qs := []domain.Question{{ID: "q1", Prompt: "p", Answer: "あ"}, {ID: "q2", Prompt: "p", Answer: "あ"}}
	_ = s.Begin(domain.ModeEndless, qs)
	waitEvent(t, ch, EventQuestion)

	s.Advance() // awaiting, not locked
	if snap := s.Snapshot(); snap.Index != 0 || snap.Phase != PhaseAwaiting {
		t.Fatalf("advance during awaiting changed state: %+v", snap)
	}
}

func TestCloseStopsPendingTimer(t *testing.T) {
	s, ch := newTestSession(t, Rules{QuestionTime: 40 * time.Millisecond})
	qs := []domain.Question{{ID: "q1", Prompt: "p", Answer: "あ"}}
	_ = s.Begin(domain.ModeEndless, qs)
	waitEvent(t, ch, EventQuestion)

	s.Close()
	time.Sleep(100 * time.Millisecond)
	if got := len(s.History()); got != 0 {
		t.Fatalf("timer fired after close: %d records", got)
	}
}
