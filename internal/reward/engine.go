// Package reward rolls end-of-session card rewards and tracks how many of
// each card the player has acquired.
package reward

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"

	"kanji-quiz-service/internal/domain"
	"kanji-quiz-service/internal/draw"
)

// CountsKey is the KV key holding the acquisition counts as a JSON object.
const CountsKey = "card_counts"

// KV is the persistence collaborator. Implementations must degrade silently:
// a failed Get reads as absent, a failed Set is dropped.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// TierChance is one entry of a cumulative rarity lottery table.
type TierChance struct {
	Tier       int
	Cumulative float64
}

// Config holds the reward eligibility threshold and the per-star lottery
// tables. Higher ratings unlock probability mass on higher tiers.
type Config struct {
	MinStars int
	Lottery  map[int][]TierChance
}

// DefaultConfig mirrors the commonly observed reward tables: rewards start
// at three stars, five-star ratings can hit the top tier.
func DefaultConfig() Config {
	return Config{
		MinStars: 3,
		Lottery: map[int][]TierChance{
			3: {{Tier: 3, Cumulative: 1.0}},
			4: {{Tier: 4, Cumulative: 0.25}, {Tier: 3, Cumulative: 1.0}},
			5: {{Tier: 5, Cumulative: 0.10}, {Tier: 4, Cumulative: 0.40}, {Tier: 3, Cumulative: 1.0}},
		},
	}
}

// Engine partitions the card collection into rarity pools and rolls rewards.
type Engine struct {
	cfg   Config
	pools map[int][]domain.Card
	kv    KV

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewEngine builds an engine over a validated card collection. An empty
// collection is allowed; Roll then never awards.
func NewEngine(cards []domain.Card, kv KV, cfg Config, rnd *rand.Rand) *Engine {
	pools := make(map[int][]domain.Card)
	for _, card := range cards {
		pools[card.RarityTier] = append(pools[card.RarityTier], card)
	}
	return &Engine{cfg: cfg, pools: pools, kv: kv, rnd: rnd}
}

// Roll picks a reward card for the given star rating, or reports false when
// the rating is below the eligibility threshold or no pool has cards.
// If the lottery lands on an empty tier the engine fails over to the next
// lower populated tier, then upward as a last resort.
func (e *Engine) Roll(stars int) (domain.Card, bool) {
	if stars < e.cfg.MinStars {
		return domain.Card{}, false
	}
	table, ok := e.cfg.Lottery[stars]
	if !ok || len(table) == 0 {
		return domain.Card{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	u := e.rnd.Float64()
	tier := table[len(table)-1].Tier // rounding fallback
	for _, entry := range table {
		if u < entry.Cumulative {
			tier = entry.Tier
			break
		}
	}

	pool := e.populatedPool(tier)
	if len(pool) == 0 {
		return domain.Card{}, false
	}
	card, _ := draw.PickWeighted(e.rnd, pool, func(c domain.Card) float64 { return c.Weight })
	return card, true
}

// RecordAcquisition increments the persisted count for the card and returns
// the new count. Storage failures degrade to an in-call default: the count
// still increments from whatever could be read.
func (e *Engine) RecordAcquisition(ctx context.Context, card domain.Card) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	counts := map[string]int{}
	if raw, err := e.kv.Get(ctx, CountsKey); err == nil && raw != "" {
		_ = json.Unmarshal([]byte(raw), &counts)
	}
	counts[card.ID]++
	if encoded, err := json.Marshal(counts); err == nil {
		_ = e.kv.Set(ctx, CountsKey, string(encoded))
	}
	return counts[card.ID]
}

// Counts reads the persisted acquisition counts; absent or unreadable data
// reads as empty.
func (e *Engine) Counts(ctx context.Context) map[string]int {
	counts := map[string]int{}
	if raw, err := e.kv.Get(ctx, CountsKey); err == nil && raw != "" {
		_ = json.Unmarshal([]byte(raw), &counts)
	}
	return counts
}

// populatedPool returns the pool for tier, failing over downward first and
// then upward so a qualifying rating is never left without a card while any
// pool has one.
func (e *Engine) populatedPool(tier int) []domain.Card {
	for t := tier; t >= 3; t-- {
		if len(e.pools[t]) > 0 {
			return e.pools[t]
		}
	}
	for t := tier + 1; t <= 5; t++ {
		if len(e.pools[t]) > 0 {
			return e.pools[t]
		}
	}
	return nil
}
