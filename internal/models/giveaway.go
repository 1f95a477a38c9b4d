package models

import "time"

// Giveaway represents a prize drawing. Winner fields are immutable once
// set: the persisted seed plus the entry snapshot ordered by creation time
// lets anyone recompute the draw.
type Giveaway struct {
	ID             uint                  `gorm:"primaryKey" json:"id"`
	Title          string                `gorm:"size:200;not null" json:"title"`
	Prize          string                `gorm:"size:200;not null" json:"prize"`
	MaxEntries     *int                  `json:"max_entries,omitempty"`
	EndsAt         time.Time             `gorm:"not null;index" json:"ends_at"`
	IsActive       bool                  `gorm:"not null;index" json:"is_active"`
	WinnerID       *uint                 `json:"winner_id,omitempty"`
	WinnerSeed     *int64                `json:"winner_seed,omitempty"`
	WinnerPickedAt *time.Time            `json:"winner_picked_at,omitempty"`
	Requirements   []GiveawayRequirement `gorm:"foreignKey:GiveawayID" json:"requirements,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Giveaway) TableName() string {
	return "giveaways"
}

// Ended reports whether the giveaway end time has passed.
func (g *Giveaway) Ended(now time.Time) bool {
	return !now.Before(g.EndsAt)
}

// RequirementType defines the kind of eligibility gate on a giveaway.
type RequirementType string

const (
	// RequirementDiscord requires an authenticated site account (the entry
	// endpoint itself enforces auth, so this gate is structural).
	RequirementDiscord RequirementType = "discord"
	// RequirementWager requires a minimum wagered amount at a casino.
	RequirementWager RequirementType = "wager"
	// RequirementVIP requires a VIP tier at a casino.
	RequirementVIP RequirementType = "vip"
	// RequirementLinkedAccount requires a linked casino account.
	RequirementLinkedAccount RequirementType = "linked_account"
)

// GiveawayRequirement is one eligibility gate. The value columns are typed
// per requirement kind: RequireVerified applies to linked_account,
// MinAmount to wager, Tier to vip. A nil CasinoID means any casino.
type GiveawayRequirement struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	GiveawayID      uint            `gorm:"not null;index" json:"giveaway_id"`
	Type            RequirementType `gorm:"type:varchar(20);not null" json:"type"`
	CasinoID        *uint           `json:"casino_id,omitempty"`
	RequireVerified bool            `gorm:"not null;default:false" json:"require_verified,omitempty"`
	MinAmount       *float64        `json:"min_amount,omitempty"`
	Tier            string          `gorm:"size:40" json:"tier,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (GiveawayRequirement) TableName() string {
	return "giveaway_requirements"
}

// GiveawayEntry is one user's ticket in a giveaway. The unique index on
// (giveaway_id, user_id) backs the one-entry-per-user invariant.
type GiveawayEntry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	GiveawayID uint      `gorm:"not null;uniqueIndex:idx_giveaway_user" json:"giveaway_id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_giveaway_user" json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (GiveawayEntry) TableName() string {
	return "giveaway_entries"
}
