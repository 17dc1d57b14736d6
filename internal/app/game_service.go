package app

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"kanji-quiz-service/internal/domain"
	"kanji-quiz-service/internal/game"
	"kanji-quiz-service/internal/reward"
)

// SessionRepository abstracts how live sessions are stored (in-memory, with
// optional Redis liveness markers).
type SessionRepository interface {
	Put(session *game.Session)
	Get(id string) (*game.Session, bool)
	Delete(id string)
}

// QuestionRepository loads the validated question collection.
type QuestionRepository interface {
	Questions(ctx context.Context) ([]domain.Question, error)
}

// CardRepository loads the validated card collection.
type CardRepository interface {
	Cards(ctx context.Context) ([]domain.Card, error)
}

// BGMKey is the KV key for the background-music preference.
const BGMKey = "bgm_enabled"

// GameService wires sessions, content and rewards together.
type GameService struct {
	sessions  SessionRepository
	questions QuestionRepository
	cards     CardRepository
	kv        reward.KV
	rules     game.Rules
	rewardCfg reward.Config
	countdown game.Countdown
	seed      func() int64
}

// NewGameService builds the service. countdown may be nil for an immediate
// countdown; cards may be nil to run without the reward subsystem.
func NewGameService(sessions SessionRepository, questions QuestionRepository, cards CardRepository, kv reward.KV, rules game.Rules, rewardCfg reward.Config, countdown game.Countdown) *GameService {
	return &GameService{
		sessions:  sessions,
		questions: questions,
		cards:     cards,
		kv:        kv,
		rules:     rules,
		rewardCfg: rewardCfg,
		countdown: countdown,
		seed:      func() int64 { return time.Now().UnixNano() },
	}
}

// Begin bootstraps a new session over the full question collection.
// A question load failure is fatal and surfaced; a card load failure only
// disables rewards for this session.
func (s *GameService) Begin(ctx context.Context, mode domain.Mode) (*game.Session, error) {
	pool, err := s.questions.Questions(ctx)
	if err != nil {
		return nil, err
	}
	return s.begin(ctx, mode, pool)
}

// BeginRetry bootstraps a session restricted to the questions missed in a
// previous session, superseding it.
func (s *GameService) BeginRetry(ctx context.Context, prevID string, mode domain.Mode) (*game.Session, error) {
	prev, ok := s.sessions.Get(prevID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	pool := prev.Missed()
	s.Supersede(prevID)
	return s.begin(ctx, mode, pool)
}

func (s *GameService) begin(ctx context.Context, mode domain.Mode, pool []domain.Question) (*game.Session, error) {
	rnd := rand.New(rand.NewSource(s.seed()))
	session := game.NewSession(uuid.NewString(), s.rules, s.countdown, s.buildFinalizer(ctx), rnd)
	if err := session.Begin(mode, pool); err != nil {
		session.Close()
		return nil, err
	}
	s.sessions.Put(session)
	return session, nil
}

// buildFinalizer loads the card collection and returns the finish hook that
// rolls and records the reward. Malformed or unavailable card data degrades
// to no rewards; gameplay continues.
func (s *GameService) buildFinalizer(ctx context.Context) game.Finalize {
	if s.cards == nil {
		return nil
	}
	cards, err := s.cards.Cards(ctx)
	if err != nil || len(cards) == 0 {
		if err != nil {
			log.Printf("card data unavailable, rewards disabled: %v", err)
		}
		return nil
	}
	engine := reward.NewEngine(cards, s.kv, s.rewardCfg, rand.New(rand.NewSource(s.seed())))
	return func(ctx context.Context, summary *domain.Summary) {
		card, ok := engine.Roll(summary.Stars)
		if !ok {
			return
		}
		summary.Reward = &card
		summary.OwnedCount = engine.RecordAcquisition(ctx, card)
	}
}

// Submit forwards a typed answer to the session.
func (s *GameService) Submit(id, raw string) error {
	session, ok := s.sessions.Get(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Submit(raw)
	return nil
}

// Advance forwards an advance request to the session.
func (s *GameService) Advance(id string) error {
	session, ok := s.sessions.Get(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Advance()
	return nil
}

// Subscribe returns the session's event stream.
func (s *GameService) Subscribe(id string) (<-chan game.Event, func(), error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// Snapshot returns a read-only view of the session.
func (s *GameService) Snapshot(id string) (game.Snapshot, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return game.Snapshot{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// Supersede cancels a session's timers and discards its state.
func (s *GameService) Supersede(id string) {
	if session, ok := s.sessions.Get(id); ok {
		session.Close()
	}
	s.sessions.Delete(id)
}

// BGMEnabled reads the persisted background-music preference, defaulting to
// true when the store is unavailable or unset.
func (s *GameService) BGMEnabled(ctx context.Context) bool {
	raw, err := s.kv.Get(ctx, BGMKey)
	if err != nil || raw == "" {
		return true
	}
	return raw != "0"
}

// SetBGMEnabled persists the preference; storage failures are dropped.
func (s *GameService) SetBGMEnabled(ctx context.Context, enabled bool) {
	value := "1"
	if !enabled {
		value = "0"
	}
	_ = s.kv.Set(ctx, BGMKey, value)
}
