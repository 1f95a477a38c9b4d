package models

import "time"

// MatchStatus defines the resolution state of a bracket match.
type MatchStatus string

const (
	// MatchPending indicates a match awaiting a winner.
	MatchPending MatchStatus = "pending"
	// MatchResolved indicates a match with a recorded outcome.
	MatchResolved MatchStatus = "resolved"
)

// BracketMatch is one node of a single-elimination bracket. Round is
// 1-based, MatchIndex is 0-based within the round. A nil player slot is a
// bye or a TBD feed from the previous round; a resolved match with a nil
// winner is a dead slot (both feeds were byes).
type BracketMatch struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	EventID    uint        `gorm:"not null;index:idx_bracket_event_round" json:"event_id"`
	Round      int         `gorm:"not null;index:idx_bracket_event_round" json:"round"`
	MatchIndex int         `gorm:"not null" json:"match_index"`
	PlayerAID  *uint       `json:"player_a_id"`
	PlayerBID  *uint       `json:"player_b_id"`
	WinnerID   *uint       `json:"winner_id"`
	Status     MatchStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (BracketMatch) TableName() string {
	return "bracket_matches"
}

// HasPlayer reports whether the given entry occupies one of the match slots.
func (m *BracketMatch) HasPlayer(entryID uint) bool {
	if m.PlayerAID != nil && *m.PlayerAID == entryID {
		return true
	}
	if m.PlayerBID != nil && *m.PlayerBID == entryID {
		return true
	}
	return false
}

// NextSlot returns the coordinates of the next-round match fed by this one
// and whether this match feeds its A slot (even index) or B slot (odd).
func (m *BracketMatch) NextSlot() (round, index int, slotA bool) {
	return m.Round + 1, m.MatchIndex / 2, m.MatchIndex%2 == 0
}
