package database

import "bigspin/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Casino{},
		&models.CasinoAccount{},
		&models.StreamEvent{},
		&models.StreamEventEntry{},
		&models.BracketMatch{},
		&models.Giveaway{},
		&models.GiveawayRequirement{},
		&models.GiveawayEntry{},
	}
}
