package game

import "time"

// Rules carries the constants that vary between observed deployments.
// Loaded from config; zero fields fall back to the defaults.
type Rules struct {
	// QuestionTime is the per-question answer deadline.
	QuestionTime time.Duration
	// PointsPerCorrect is added to the score for each correct answer.
	PointsPerCorrect int
	// NormalPoolSize caps the pool in normal mode; endless uses everything.
	NormalPoolSize int
	// ComboBonus is the best-combo threshold that upgrades the rank.
	ComboBonus int
}

// DefaultRules returns the production defaults.
func DefaultRules() Rules {
	return Rules{
		QuestionTime:     15 * time.Second,
		PointsPerCorrect: 10,
		NormalPoolSize:   10,
		ComboBonus:       10,
	}
}

// withDefaults fills zero fields from DefaultRules.
func (r Rules) withDefaults() Rules {
	def := DefaultRules()
	if r.QuestionTime <= 0 {
		r.QuestionTime = def.QuestionTime
	}
	if r.PointsPerCorrect <= 0 {
		r.PointsPerCorrect = def.PointsPerCorrect
	}
	if r.NormalPoolSize <= 0 {
		r.NormalPoolSize = def.NormalPoolSize
	}
	if r.ComboBonus <= 0 {
		r.ComboBonus = def.ComboBonus
	}
	return r
}
