package domain

import "time"

// Quiz is a multiple-choice question ready to be delivered as a quiz poll.
type Quiz struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// Correct returns the option at CorrectIndex.
func (q Quiz) Correct() string {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectIndex]
}

// Choice is one button of a selection keyboard.
type Choice struct {
	Label string
	Data  string
}

// SessionKey identifies the conversation context a guess session belongs to.
type SessionKey struct {
	ChatID int64
	UserID int64
}

// GuessSession is the pending state of one "who said it" round.
type GuessSession struct {
	Initiator     string
	ParticipantID string
	Text          string
	PromptRef     int64
	StartedAt     time.Time
}

// Ready reports whether phase 1 (participant selection) has completed.
func (s GuessSession) Ready() bool {
	return s.ParticipantID != ""
}

// LeaderboardEntry is one line of the score ledger.
type LeaderboardEntry struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	Score         int    `json:"score"`
}

// Leaderboard is the ledger ordered by score.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
