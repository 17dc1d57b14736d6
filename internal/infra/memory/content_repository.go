package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"kanji-quiz-service/internal/domain"
	"kanji-quiz-service/internal/loader"
)

// RowSource fetches raw content rows from a backing store (Postgres, files).
type RowSource interface {
	QuestionRows(ctx context.Context) ([]loader.Row, error)
	CardRows(ctx context.Context) ([]loader.Row, error)
}

// ContentRepository validates rows into domain collections and caches them
// with TTL to avoid repeated backing-store hits.
type ContentRepository struct {
	source RowSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	questions cachedQuestions
	cards     cachedCards
}

type cachedQuestions struct {
	items     []domain.Question
	expiresAt time.Time
}

type cachedCards struct {
	items     []domain.Card
	expiresAt time.Time
}

func NewContentRepository(source RowSource, ttl time.Duration) *ContentRepository {
	return &ContentRepository{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ContentRepository) Questions(ctx context.Context) ([]domain.Question, error) {
	now := r.clock()

	r.mu.RLock()
	if r.questions.items != nil && r.questions.expiresAt.After(now) {
		items := r.questions.items
		r.mu.RUnlock()
		return items, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do("questions", func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if r.questions.items != nil && r.questions.expiresAt.After(now) {
			items := r.questions.items
			r.mu.RUnlock()
			return items, nil
		}
		r.mu.RUnlock()

		rows, err := r.source.QuestionRows(ctx)
		if err != nil {
			return nil, err
		}
		questions, err := loader.Questions(rows)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.questions = cachedQuestions{items: questions, expiresAt: now.Add(r.ttlWithJitter())}
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *ContentRepository) Cards(ctx context.Context) ([]domain.Card, error) {
	now := r.clock()

	r.mu.RLock()
	if r.cards.items != nil && r.cards.expiresAt.After(now) {
		items := r.cards.items
		r.mu.RUnlock()
		return items, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do("cards", func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if r.cards.items != nil && r.cards.expiresAt.After(now) {
			items := r.cards.items
			r.mu.RUnlock()
			return items, nil
		}
		r.mu.RUnlock()

		rows, err := r.source.CardRows(ctx)
		if err != nil {
			return nil, err
		}
		cards, err := loader.Cards(rows)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cards = cachedCards{items: cards, expiresAt: now.Add(r.ttlWithJitter())}
		r.mu.Unlock()
		return cards, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Card), nil
}

func (r *ContentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticRowSource serves fixed rows from memory (useful for tests/demos).
type StaticRowSource struct {
	Question []loader.Row
	Card     []loader.Row
}

func (s *StaticRowSource) QuestionRows(_ context.Context) ([]loader.Row, error) {
	if s.Question == nil {
		return nil, domain.ErrQuestionsNotFound
	}
	return s.Question, nil
}

func (s *StaticRowSource) CardRows(_ context.Context) ([]loader.Row, error) {
	if s.Card == nil {
		return nil, domain.ErrCardsNotFound
	}
	return s.Card, nil
}
