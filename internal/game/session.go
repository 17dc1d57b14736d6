// Package game runs one timed quiz session: question order, per-question
// deadline, judging, score and combo bookkeeping, and the finish summary.
// The package is presentation-free; renderers subscribe to session events.
package game

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"kanji-quiz-service/internal/domain"
	"kanji-quiz-service/internal/draw"
	"kanji-quiz-service/internal/kana"
	"kanji-quiz-service/internal/rating"
)

// Phase is the session lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCountdown
	PhaseAwaiting
	PhaseLocked
	PhaseFinished
)

// Finalize enriches the summary at the Finished transition, e.g. with a
// rolled reward. Called once, before the finished event is broadcast.
type Finalize func(ctx context.Context, summary *domain.Summary)

// Session is the state machine for one quiz run. All transitions run to
// completion under the session mutex; external collaborators only observe
// snapshots and events.
type Session struct {
	id        string
	rules     Rules
	countdown Countdown
	finalize  Finalize

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	phase         Phase
	pool          []domain.Question
	index         int
	score         int
	correct       int
	combo         int
	bestCombo     int
	history       []domain.AnswerRecord
	lastJudged    *JudgedPayload
	summary       *domain.Summary
	timer         *time.Timer
	timerGen      int
	questionStart time.Time
	subscribers   map[chan Event]struct{}

	rnd *rand.Rand
	now func() time.Time
}

// Snapshot is a read-only view of the session for renderers.
type Snapshot struct {
	ID                string          `json:"id"`
	Phase             Phase           `json:"phase"`
	Index             int             `json:"index"`
	Total             int             `json:"total"`
	Score             int             `json:"score"`
	Combo             int             `json:"combo"`
	BestCombo         int             `json:"bestCombo"`
	RemainingFraction float64         `json:"remainingFraction"`
	Summary           *domain.Summary `json:"summary,omitempty"`
}

// NewSession creates an idle session over the given pool order candidates.
func NewSession(id string, rules Rules, countdown Countdown, finalize Finalize, rnd *rand.Rand) *Session {
	return newSessionWithClock(id, rules, countdown, finalize, rnd, time.Now)
}

// newSessionWithClock allows deterministic timestamps in tests.
func newSessionWithClock(id string, rules Rules, countdown Countdown, finalize Finalize, rnd *rand.Rand, now func() time.Time) *Session {
	if countdown == nil {
		countdown = NopCountdown{}
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(now().UnixNano()))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:          id,
		rules:       rules.withDefaults(),
		countdown:   countdown,
		finalize:    finalize,
		ctx:         ctx,
		cancel:      cancel,
		subscribers: make(map[chan Event]struct{}),
		rnd:         rnd,
		now:         now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Begin shuffles the question pool for the chosen mode and starts the
// countdown. It does not block; the first question event follows once the
// countdown collaborator completes. Begin on a non-idle session is a no-op.
func (s *Session) Begin(mode domain.Mode, questions []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseIdle {
		return nil
	}
	if len(questions) == 0 {
		return domain.ErrNoQuestions
	}

	pool := make([]domain.Question, len(questions))
	copy(pool, questions)
	draw.Shuffle(s.rnd, pool)
	if mode == domain.ModeNormal && len(pool) > s.rules.NormalPoolSize {
		pool = pool[:s.rules.NormalPoolSize]
	}

	s.pool = pool
	s.phase = PhaseCountdown

	go s.runCountdown()
	return nil
}

// runCountdown awaits the countdown collaborator and then serves the first
// question. A cancelled session never leaves the countdown.
func (s *Session) runCountdown() {
	err := s.countdown.Run(s.ctx, func(label string) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.phase == PhaseCountdown {
			s.broadcastLocked(Event{Type: EventCountdown, Countdown: &CountdownPayload{Label: label}})
		}
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil || s.phase != PhaseCountdown {
		return
	}
	s.index = 0
	s.score = 0
	s.correct = 0
	s.combo = 0
	s.bestCombo = 0
	s.history = nil
	s.serveQuestionLocked()
}

// Submit judges the typed answer against the current question. Submissions
// outside AwaitingAnswer (double submits, post-timeout) are no-ops.
func (s *Session) Submit(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseAwaiting {
		return
	}
	s.stopTimerLocked()
	s.judgeLocked(raw, false)
}

// Advance moves from Locked to the next question, or finishes the session
// when the pool is exhausted. Outside Locked it is a no-op.
func (s *Session) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseLocked {
		return
	}
	if s.index+1 < len(s.pool) {
		s.index++
		s.serveQuestionLocked()
		return
	}
	s.finishLocked()
}

// Close cancels the countdown and any armed timer; a superseded session must
// never fire into its replacement.
func (s *Session) Close() {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Snapshot returns a point-in-time view for renderers.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := 0.0
	if s.phase == PhaseAwaiting {
		elapsed := s.now().Sub(s.questionStart)
		remaining = 1 - float64(elapsed)/float64(s.rules.QuestionTime)
		if remaining < 0 {
			remaining = 0
		}
		if remaining > 1 {
			remaining = 1
		}
	}
	return Snapshot{
		ID:                s.id,
		Phase:             s.phase,
		Index:             s.index,
		Total:             len(s.pool),
		Score:             s.score,
		Combo:             s.combo,
		BestCombo:         s.bestCombo,
		RemainingFraction: remaining,
		Summary:           s.summary,
	}
}

// History returns the judged records in presentation order.
func (s *Session) History() []domain.AnswerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AnswerRecord, len(s.history))
	copy(out, s.history)
	return out
}

// Missed returns the records answered incorrectly or timed out, for the
// retry-missed flow.
func (s *Session) Missed() []domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	var missed []domain.Question
	for _, rec := range s.history {
		if !rec.IsCorrect {
			missed = append(missed, rec.Question)
		}
	}
	return missed
}

// Subscribe returns a channel of session events. The caller must invoke the
// returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.replayLocked(ch)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// replayLocked brings a late subscriber up to date. A subscriber that joins
// after a transition already fired would otherwise wait forever for it.
func (s *Session) replayLocked(ch chan Event) {
	switch s.phase {
	case PhaseAwaiting:
		ch <- Event{Type: EventQuestion, Question: s.questionPayloadLocked()}
	case PhaseLocked:
		ch <- Event{Type: EventQuestion, Question: s.questionPayloadLocked()}
		if s.lastJudged != nil {
			judged := *s.lastJudged
			ch <- Event{Type: EventJudged, Judged: &judged}
		}
	case PhaseFinished:
		if s.summary != nil {
			ch <- Event{Type: EventFinished, Finished: s.summary}
		}
	}
}

// serveQuestionLocked enters AwaitingAnswer for the current index and arms
// the question timer.
func (s *Session) serveQuestionLocked() {
	s.phase = PhaseAwaiting
	s.questionStart = s.now()
	s.armTimerLocked()
	s.broadcastLocked(Event{Type: EventQuestion, Question: s.questionPayloadLocked()})
}

func (s *Session) questionPayloadLocked() *QuestionPayload {
	q := s.pool[s.index]
	return &QuestionPayload{
		Index:       s.index + 1,
		Total:       len(s.pool),
		QuestionID:  q.ID,
		Prompt:      q.Prompt,
		SourceLabel: q.SourceLabel,
		Score:       s.score,
		BestCombo:   s.bestCombo,
		SecondsLeft: int(s.rules.QuestionTime / time.Second),
	}
}

// armTimerLocked schedules the deadline for the current question. The
// generation counter guarantees at-most-once firing: a stale callback that
// lost the race against Submit or Advance sees a bumped generation and
// returns without touching state.
func (s *Session) armTimerLocked() {
	s.timerGen++
	gen := s.timerGen
	s.timer = time.AfterFunc(s.rules.QuestionTime, func() {
		s.expire(gen)
	})
}

func (s *Session) stopTimerLocked() {
	s.timerGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) expire(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.timerGen || s.phase != PhaseAwaiting {
		return
	}
	s.timer = nil
	s.judgeLocked("", true)
}

// judgeLocked appends exactly one AnswerRecord for the current question and
// enters Locked. The accepted-answer set is normalized at judge time since
// alternates are split lazily from the source field.
func (s *Session) judgeLocked(raw string, timedOut bool) {
	q := s.pool[s.index]
	normalized := kana.Normalize(raw)

	isCorrect := false
	if !timedOut && normalized != "" {
		if kana.Normalize(q.Answer) == normalized {
			isCorrect = true
		}
		for _, alt := range q.Alternates {
			if kana.Normalize(alt) == normalized {
				isCorrect = true
				break
			}
		}
	}

	if isCorrect {
		s.score += s.rules.PointsPerCorrect
		s.correct++
		s.combo++
		if s.combo > s.bestCombo {
			s.bestCombo = s.combo
		}
	} else {
		s.combo = 0
	}

	s.history = append(s.history, domain.AnswerRecord{
		Question:        q,
		RawInput:        raw,
		NormalizedInput: normalized,
		IsCorrect:       isCorrect,
		IsTimeout:       timedOut,
	})
	s.phase = PhaseLocked
	s.lastJudged = &JudgedPayload{
		QuestionID:    q.ID,
		Correct:       isCorrect,
		Timeout:       timedOut,
		CorrectAnswer: q.Answer,
		Score:         s.score,
		Combo:         s.combo,
		BestCombo:     s.bestCombo,
	}

	s.broadcastLocked(Event{Type: EventJudged, Judged: s.lastJudged})
}

// finishLocked computes the rating summary, runs the finalizer and
// broadcasts the finished event.
func (s *Session) finishLocked() {
	s.stopTimerLocked()
	s.phase = PhaseFinished

	total := len(s.pool)
	stars := rating.Stars(s.correct, total)
	percent := 0.0
	if total > 0 {
		percent = 100 * float64(s.correct) / float64(total)
	}

	summary := &domain.Summary{
		Score:     s.score,
		Correct:   s.correct,
		Total:     total,
		BestCombo: s.bestCombo,
		Stars:     stars,
		Rank:      rating.Rank(stars, s.bestCombo, s.rules.ComboBonus),
		Message:   rating.Message(percent),
	}
	for _, rec := range s.history {
		if !rec.IsCorrect {
			summary.Missed = append(summary.Missed, rec)
		}
	}
	if s.finalize != nil {
		s.finalize(s.ctx, summary)
	}
	s.summary = summary

	s.broadcastLocked(Event{Type: EventFinished, Finished: summary})
}

// broadcastLocked fans the event out to subscribers, dropping the oldest
// buffered event for a slow subscriber rather than blocking the transition.
func (s *Session) broadcastLocked(ev Event) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
