package repository

import (
	"context"
	"errors"
	"time"

	"bigspin/internal/cache"
	"bigspin/internal/models"

	"gorm.io/gorm"
)

// GiveawayRepository defines persistence operations for giveaways and their
// entries. The winner column doubles as the resolution guard: SetWinnerCAS
// only succeeds while winner_id is still NULL.
type GiveawayRepository interface {
	WithTx(tx *gorm.DB) GiveawayRepository

	Create(ctx context.Context, giveaway *models.Giveaway) error
	GetByID(ctx context.Context, id uint) (*models.Giveaway, error)
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]models.Giveaway, error)
	SetWinnerCAS(ctx context.Context, giveawayID, winnerID uint, seed int64, pickedAt time.Time) (bool, error)
	DeactivateEnded(ctx context.Context, now time.Time) (int64, error)

	CreateEntry(ctx context.Context, entry *models.GiveawayEntry) error
	HasEntry(ctx context.Context, giveawayID, userID uint) (bool, error)
	CountEntries(ctx context.Context, giveawayID uint) (int64, error)
	ListEntries(ctx context.Context, giveawayID uint) ([]models.GiveawayEntry, error)
}

type giveawayRepository struct {
	db *gorm.DB
}

// NewGiveawayRepository returns a new GiveawayRepository implementation.
func NewGiveawayRepository(db *gorm.DB) GiveawayRepository {
	return &giveawayRepository{db: db}
}

// WithTx returns a repository bound to the given transaction handle.
func (r *giveawayRepository) WithTx(tx *gorm.DB) GiveawayRepository {
	return &giveawayRepository{db: tx}
}

func (r *giveawayRepository) Create(ctx context.Context, giveaway *models.Giveaway) error {
	if err := r.db.WithContext(ctx).Create(giveaway).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.GiveawayListKey)
	return nil
}

func (r *giveawayRepository) GetByID(ctx context.Context, id uint) (*models.Giveaway, error) {
	var giveaway models.Giveaway
	err := r.db.WithContext(ctx).
		Preload("Requirements").
		First(&giveaway, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Giveaway", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &giveaway, nil
}

func (r *giveawayRepository) List(ctx context.Context, activeOnly bool, limit, offset int) ([]models.Giveaway, error) {
	var giveaways []models.Giveaway
	q := r.db.WithContext(ctx).Preload("Requirements").Order("created_at DESC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Limit(limit).Offset(offset).Find(&giveaways).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return giveaways, nil
}

// SetWinnerCAS records the draw result. Returns false if a winner was
// already recorded by another writer.
func (r *giveawayRepository) SetWinnerCAS(ctx context.Context, giveawayID, winnerID uint, seed int64, pickedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Giveaway{}).
		Where("id = ? AND winner_id IS NULL", giveawayID).
		Updates(map[string]any{
			"winner_id":        winnerID,
			"winner_seed":      seed,
			"winner_picked_at": pickedAt,
			"is_active":        false,
		})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		cache.InvalidateGiveaway(ctx, giveawayID)
	}
	return res.RowsAffected > 0, nil
}

func (r *giveawayRepository) DeactivateEnded(ctx context.Context, now time.Time) (int64, error) {
	// The affected ids are collected first so every per-giveaway cache
	// entry can be dropped, not just the active list.
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Giveaway{}).
		Where("is_active = ? AND ends_at <= ?", true, now).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res := r.db.WithContext(ctx).
		Model(&models.Giveaway{}).
		Where("id IN ?", ids).
		Update("is_active", false)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	for _, id := range ids {
		cache.InvalidateGiveaway(ctx, id)
	}
	return res.RowsAffected, nil
}

func (r *giveawayRepository) CreateEntry(ctx context.Context, entry *models.GiveawayEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewDuplicateEntryError(entry.GiveawayID, entry.UserID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *giveawayRepository) HasEntry(ctx context.Context, giveawayID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.GiveawayEntry{}).
		Where("giveaway_id = ? AND user_id = ?", giveawayID, userID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *giveawayRepository) CountEntries(ctx context.Context, giveawayID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.GiveawayEntry{}).
		Where("giveaway_id = ?", giveawayID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// ListEntries returns entries in draw order. The ordering is part of the
// draw's audit contract: replaying a seed against this snapshot must land on
// the same winner.
func (r *giveawayRepository) ListEntries(ctx context.Context, giveawayID uint) ([]models.GiveawayEntry, error) {
	var entries []models.GiveawayEntry
	err := r.db.WithContext(ctx).
		Where("giveaway_id = ?", giveawayID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}
