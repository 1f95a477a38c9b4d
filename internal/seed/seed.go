// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"bigspin/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures how much demo data the seeder creates.
type Options struct {
	NumUsers    int
	ShouldClean bool
}

// Seeder populates the database with demo users, casinos, events, and
// giveaways for development.
type Seeder struct {
	db  *gorm.DB
	rng *rand.Rand
}

var casinos = []models.Casino{
	{Name: "Stake", Slug: "stake"},
	{Name: "Roobet", Slug: "roobet"},
	{Name: "Gamdom", Slug: "gamdom"},
	{Name: "Shuffle", Slug: "shuffle"},
}

var slotNames = []string{
	"Sweet Bonanza", "Gates of Olympus", "Wanted Dead or a Wild",
	"Sugar Rush", "The Dog House", "Mental", "San Quentin", "Fruit Party",
}

// NewSeeder creates a seeder bound to the given database.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// ClearAll truncates every seeded table.
func (s *Seeder) ClearAll() error {
	tables := []any{
		&models.GiveawayEntry{},
		&models.GiveawayRequirement{},
		&models.Giveaway{},
		&models.BracketMatch{},
		&models.StreamEventEntry{},
		&models.StreamEvent{},
		&models.CasinoAccount{},
		&models.Casino{},
		&models.User{},
	}
	for _, table := range tables {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
			return fmt.Errorf("clearing %T: %w", table, err)
		}
	}
	return nil
}

// Run seeds the full demo dataset and returns the created users.
func (s *Seeder) Run(opts Options) ([]models.User, error) {
	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return nil, err
		}
	}

	users, err := s.SeedUsers(opts.NumUsers)
	if err != nil {
		return nil, err
	}
	if err := s.SeedCasinos(users); err != nil {
		return nil, err
	}
	if err := s.SeedEvents(users); err != nil {
		return nil, err
	}
	if err := s.SeedGiveaway(users); err != nil {
		return nil, err
	}
	return users, nil
}

// SeedUsers creates n viewers plus one admin. Every account gets the same
// development password.
func (s *Seeder) SeedUsers(n int) ([]models.User, error) {
	if n < 1 {
		n = 1
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("SeedPass123!"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, n+1)
	users = append(users, models.User{
		Username: "admin",
		Email:    "admin@bigspin.dev",
		Password: string(hashed),
		IsAdmin:  true,
	})
	for i := 0; i < n; i++ {
		users = append(users, models.User{
			Username: fmt.Sprintf("%s%d", gofakeit.Gamertag(), i),
			Email:    fmt.Sprintf("viewer%d@%s", i, gofakeit.DomainName()),
			Password: string(hashed),
		})
	}

	if err := s.db.Create(&users).Error; err != nil {
		return nil, fmt.Errorf("seeding users: %w", err)
	}
	log.Printf("seeded %d users", len(users))
	return users, nil
}

// SeedCasinos creates the casino catalog and links roughly half the users
// to a random casino account.
func (s *Seeder) SeedCasinos(users []models.User) error {
	list := make([]models.Casino, len(casinos))
	copy(list, casinos)
	if err := s.db.Create(&list).Error; err != nil {
		return fmt.Errorf("seeding casinos: %w", err)
	}

	var accounts []models.CasinoAccount
	for _, u := range users {
		if s.rng.Intn(2) == 0 {
			continue
		}
		casino := list[s.rng.Intn(len(list))]
		accounts = append(accounts, models.CasinoAccount{
			UserID:   u.ID,
			CasinoID: casino.ID,
			Username: u.Username,
			Verified: s.rng.Intn(3) > 0,
		})
	}
	if len(accounts) == 0 {
		return nil
	}
	if err := s.db.Create(&accounts).Error; err != nil {
		return fmt.Errorf("seeding casino accounts: %w", err)
	}
	log.Printf("seeded %d casino accounts", len(accounts))
	return nil
}

// SeedEvents creates an open tournament accepting entries and an open bonus
// hunt with a handful of queued slots.
func (s *Seeder) SeedEvents(users []models.User) error {
	adminID := users[0].ID

	tournament := models.StreamEvent{
		Type:            models.EventTournament,
		Title:           "Saturday Slot Battle",
		Status:          models.EventOpen,
		MaxPlayers:      8,
		CreatedByUserID: &adminID,
	}
	if err := s.db.Create(&tournament).Error; err != nil {
		return fmt.Errorf("seeding tournament: %w", err)
	}

	hunt := models.StreamEvent{
		Type:            models.EventBonusHunt,
		Title:           "Friday Bonus Hunt",
		Status:          models.EventOpen,
		StartingBalance: 5000,
		CreatedByUserID: &adminID,
	}
	if err := s.db.Create(&hunt).Error; err != nil {
		return fmt.Errorf("seeding bonus hunt: %w", err)
	}

	var entries []models.StreamEventEntry
	for i := 0; i < 6 && i < len(users); i++ {
		entries = append(entries, models.StreamEventEntry{
			EventID:     tournament.ID,
			DisplayName: users[i].Username,
			SlotChoice:  slotNames[s.rng.Intn(len(slotNames))],
			Position:    i,
		})
		entries = append(entries, models.StreamEventEntry{
			EventID:     hunt.ID,
			DisplayName: users[i].Username,
			SlotChoice:  slotNames[s.rng.Intn(len(slotNames))],
			Status:      models.EntryWaiting,
			Position:    i,
		})
	}
	if err := s.db.Create(&entries).Error; err != nil {
		return fmt.Errorf("seeding event entries: %w", err)
	}
	log.Printf("seeded 2 events with %d entries", len(entries))
	return nil
}

// SeedGiveaway creates an active giveaway ending tomorrow with a linked
// account requirement, entered by a sample of users.
func (s *Seeder) SeedGiveaway(users []models.User) error {
	giveaway := models.Giveaway{
		Title:    "Weekly $500 Drop",
		Prize:    "$500 site balance",
		EndsAt:   time.Now().Add(24 * time.Hour).UTC(),
		IsActive: true,
		Requirements: []models.GiveawayRequirement{
			{Type: models.RequirementDiscord},
		},
	}
	if err := s.db.Create(&giveaway).Error; err != nil {
		return fmt.Errorf("seeding giveaway: %w", err)
	}

	var entries []models.GiveawayEntry
	for _, u := range users {
		if s.rng.Intn(3) == 0 {
			continue
		}
		entries = append(entries, models.GiveawayEntry{GiveawayID: giveaway.ID, UserID: u.ID})
	}
	if len(entries) == 0 && len(users) > 0 {
		entries = append(entries, models.GiveawayEntry{GiveawayID: giveaway.ID, UserID: users[0].ID})
	}
	if err := s.db.Create(&entries).Error; err != nil {
		return fmt.Errorf("seeding giveaway entries: %w", err)
	}
	log.Printf("seeded giveaway with %d entries", len(entries))
	return nil
}
