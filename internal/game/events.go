package game

import "kanji-quiz-service/internal/domain"

// EventType discriminates session events pushed to subscribers.
type EventType string

const (
	EventCountdown EventType = "countdown"
	EventQuestion  EventType = "question"
	EventJudged    EventType = "judged"
	EventFinished  EventType = "finished"
)

// CountdownPayload is one tick of the pre-session countdown.
type CountdownPayload struct {
	Label string `json:"label"`
}

// QuestionPayload presents the current question. The accepted answers are
// withheld until judging.
type QuestionPayload struct {
	Index       int    `json:"index"` // 1-based for display
	Total       int    `json:"total"`
	QuestionID  string `json:"questionId"`
	Prompt      string `json:"prompt"`
	SourceLabel string `json:"source,omitempty"`
	Score       int    `json:"score"`
	BestCombo   int    `json:"bestCombo"`
	SecondsLeft int    `json:"secondsLeft"`
}

// JudgedPayload reveals the judgment of the current question.
type JudgedPayload struct {
	QuestionID    string `json:"questionId"`
	Correct       bool   `json:"correct"`
	Timeout       bool   `json:"timeout"`
	CorrectAnswer string `json:"correctAnswer"`
	Score         int    `json:"score"`
	Combo         int    `json:"combo"`
	BestCombo     int    `json:"bestCombo"`
}

// Event is a state-transition notification. Exactly one payload is set,
// matching Type.
type Event struct {
	Type      EventType         `json:"type"`
	Countdown *CountdownPayload `json:"countdown,omitempty"`
	Question  *QuestionPayload  `json:"question,omitempty"`
	Judged    *JudgedPayload    `json:"judged,omitempty"`
	Finished  *domain.Summary   `json:"finished,omitempty"`
}
