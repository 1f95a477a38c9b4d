package models

import (
	"math/bits"
	"time"
)

// EventType defines the kind of stream event.
type EventType string

const (
	// EventTournament is a single-elimination bracket event.
	EventTournament EventType = "tournament"
	// EventBonusHunt is a first-come queue of bonus slots.
	EventBonusHunt EventType = "bonus_hunt"
	// EventGuessBalance is a balance-guessing event.
	EventGuessBalance EventType = "guess_balance"
)

// EventStatus defines the lifecycle state of a stream event.
type EventStatus string

const (
	// EventDraft indicates an event that is not yet accepting entries.
	EventDraft EventStatus = "draft"
	// EventOpen indicates an event accepting entries.
	EventOpen EventStatus = "open"
	// EventLocked indicates entries are frozen and play structures exist.
	EventLocked EventStatus = "locked"
	// EventInProgress indicates a locked event the admin has started.
	EventInProgress EventStatus = "in_progress"
	// EventCompleted indicates a finished event.
	EventCompleted EventStatus = "completed"
)

// eventTransitions lists the legal lifecycle moves. Everything else is
// rejected with INVALID_TRANSITION.
var eventTransitions = map[EventStatus][]EventStatus{
	EventDraft:      {EventOpen},
	EventOpen:       {EventLocked},
	EventLocked:     {EventInProgress, EventCompleted},
	EventInProgress: {EventCompleted},
}

// CanTransition reports whether moving from one lifecycle state to another
// is legal.
func CanTransition(from, to EventStatus) bool {
	for _, next := range eventTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidMaxPlayers reports whether n is a supported tournament size.
func ValidMaxPlayers(n int) bool {
	switch n {
	case 4, 8, 16, 32:
		return true
	}
	return false
}

// StreamEvent represents a live stream event (tournament, bonus hunt or
// balance guess). The shuffle seed is recorded at lock time so the entrant
// ordering can be independently re-verified.
type StreamEvent struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	Type            EventType   `gorm:"type:varchar(20);not null;index" json:"type"`
	Title           string      `gorm:"size:200;not null" json:"title"`
	Status          EventStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	MaxPlayers      int         `json:"max_players,omitempty"`
	StartingBalance float64     `json:"starting_balance,omitempty"`
	ShuffleSeed     *int64      `json:"shuffle_seed,omitempty"`
	CreatedByUserID *uint       `json:"created_by_user_id,omitempty"`
	LockedByUserID  *uint       `json:"locked_by_user_id,omitempty"`
	LockedAt        *time.Time  `json:"locked_at,omitempty"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (StreamEvent) TableName() string {
	return "stream_events"
}

// TotalRounds returns the number of bracket rounds for the event's size
// (log2 of max players). Zero for non-tournament events.
func (e *StreamEvent) TotalRounds() int {
	if e.Type != EventTournament || e.MaxPlayers <= 1 {
		return 0
	}
	return bits.Len(uint(e.MaxPlayers)) - 1
}

// Playable reports whether queue-advance operations are legal for the
// event's current status. Bonus hunts treat locked and in_progress as
// equivalent play phases.
func (e *StreamEvent) Playable() bool {
	return e.Status == EventLocked || e.Status == EventInProgress
}

// EntryStatus defines the bonus-hunt queue state of an entry. Tournament
// entries keep the zero value.
type EntryStatus string

const (
	// EntryWaiting indicates a queued entry not yet played.
	EntryWaiting EntryStatus = "waiting"
	// EntryCurrent indicates the entry being played right now.
	EntryCurrent EntryStatus = "current"
	// EntryBonused indicates a played entry that hit a bonus.
	EntryBonused EntryStatus = "bonused"
	// EntryNoBonus indicates a played entry that did not bonus.
	EntryNoBonus EntryStatus = "no_bonus"
)

// Terminal reports whether the entry has been played to completion.
func (s EntryStatus) Terminal() bool {
	return s == EntryBonused || s == EntryNoBonus
}

// StreamEventEntry represents a participant slot in a stream event.
// Position is assigned by the seeded shuffle at lock time; waiting
// bonus-hunt entries are consumed lowest position first.
type StreamEventEntry struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	EventID     uint        `gorm:"not null;index" json:"event_id"`
	DisplayName string      `gorm:"size:120;not null" json:"display_name"`
	SlotChoice  string      `gorm:"size:200" json:"slot_choice,omitempty"`
	Category    string      `gorm:"size:60" json:"category,omitempty"`
	Status      EntryStatus `gorm:"type:varchar(20)" json:"status,omitempty"`
	Payout      *float64    `json:"payout,omitempty"`
	Position    int         `gorm:"not null;default:0" json:"position"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (StreamEventEntry) TableName() string {
	return "stream_event_entries"
}
