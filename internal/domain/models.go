package domain

// Mode selects how many questions a session draws from the loaded pool.
type Mode string

const (
	// ModeNormal plays a fixed-size subset of the shuffled pool.
	ModeNormal Mode = "normal"
	// ModeEndless plays every loaded question in shuffled order.
	ModeEndless Mode = "endless"
)

// ParseMode maps a raw mode string (e.g. from a query parameter) to a Mode,
// defaulting to normal.
func ParseMode(raw string) Mode {
	if raw == string(ModeEndless) {
		return ModeEndless
	}
	return ModeNormal
}

// Question is one quiz prompt with its accepted answers. Immutable once loaded.
type Question struct {
	ID          string   `json:"id"`
	Prompt      string   `json:"prompt"`
	Answer      string   `json:"answer"`
	Alternates  []string `json:"alternates,omitempty"`
	SourceLabel string   `json:"source,omitempty"`
}

// Card is a collectible reward. Immutable once loaded.
type Card struct {
	ID          string  `json:"id"`
	RarityTier  int     `json:"rarity"` // one of 3, 4, 5
	DisplayName string  `json:"name"`
	ImageRef    string  `json:"img"`
	InfoRef     string  `json:"wiki"`
	Weight      float64 `json:"weight"` // positive, defaults to 1
}

// AnswerRecord captures the outcome of judging one presented question.
// Appended exactly once per question and never mutated afterwards.
type AnswerRecord struct {
	Question        Question `json:"question"`
	RawInput        string   `json:"rawInput"`
	NormalizedInput string   `json:"normalizedInput"`
	IsCorrect       bool     `json:"correct"`
	IsTimeout       bool     `json:"timeout"`
}

// Summary is the end-of-session result shown on the finish screen.
type Summary struct {
	Score      int            `json:"score"`
	Correct    int            `json:"correct"`
	Total      int            `json:"total"`
	BestCombo  int            `json:"bestCombo"`
	Stars      int            `json:"stars"`
	Rank       string         `json:"rank"`
	Message    string         `json:"message"`
	Missed     []AnswerRecord `json:"missed,omitempty"`
	Reward     *Card          `json:"reward,omitempty"`
	OwnedCount int            `json:"ownedCount,omitempty"`
}
