package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"kanji-quiz-service/internal/domain"
	"kanji-quiz-service/internal/infra/memory"
	"kanji-quiz-service/internal/loader"
)

const (
	questionsKey = "content:questions"
	cardsKey     = "content:cards"
)

// ContentRepository caches validated content collections in Redis as JSON
// and falls back to a row source on cache miss. Validation failures are
// never cached; the next call retries the source.
type ContentRepository struct {
	client *redis.Client
	source memory.RowSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewContentRepository(client *redis.Client, source memory.RowSource, ttl time.Duration) *ContentRepository {
	return &ContentRepository{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ContentRepository) Questions(ctx context.Context) ([]domain.Question, error) {
	if raw, err := r.client.Get(ctx, questionsKey).Result(); err == nil && raw != "" {
		var questions []domain.Question
		if json.Unmarshal([]byte(raw), &questions) == nil && len(questions) > 0 {
			return questions, nil
		}
	}

	result, err, _ := r.sf.Do(questionsKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := r.client.Get(ctx, questionsKey).Result(); err == nil && raw != "" {
			var questions []domain.Question
			if json.Unmarshal([]byte(raw), &questions) == nil && len(questions) > 0 {
				return questions, nil
			}
		}

		rows, err := r.source.QuestionRows(ctx)
		if err != nil {
			return nil, err
		}
		questions, err := loader.Questions(rows)
		if err != nil {
			return nil, err
		}
		r.cache(ctx, questionsKey, questions)
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *ContentRepository) Cards(ctx context.Context) ([]domain.Card, error) {
	if raw, err := r.client.Get(ctx, cardsKey).Result(); err == nil && raw != "" {
		var cards []domain.Card
		if json.Unmarshal([]byte(raw), &cards) == nil && len(cards) > 0 {
			return cards, nil
		}
	}

	result, err, _ := r.sf.Do(cardsKey, func() (interface{}, error) {
		if raw, err := r.client.Get(ctx, cardsKey).Result(); err == nil && raw != "" {
			var cards []domain.Card
			if json.Unmarshal([]byte(raw), &cards) == nil && len(cards) > 0 {
				return cards, nil
			}
		}

		rows, err := r.source.CardRows(ctx)
		if err != nil {
			return nil, err
		}
		cards, err := loader.Cards(rows)
		if err != nil {
			return nil, err
		}
		r.cache(ctx, cardsKey, cards)
		return cards, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Card), nil
}

// cache writes best-effort; a failed write just means a source hit next time.
func (r *ContentRepository) cache(ctx context.Context, key string, value interface{}) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = r.client.Set(ctx, key, encoded, r.ttlWithJitter()).Err()
}

func (r *ContentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
