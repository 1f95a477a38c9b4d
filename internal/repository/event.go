package repository

import (
	"context"
	"errors"

	"bigspin/internal/cache"
	"bigspin/internal/models"

	"gorm.io/gorm"
)

// EventRepository defines persistence operations for stream events, their
// entries, and bracket matches. Status mutations use compare-and-set updates
// guarded on the current value so concurrent writers cannot double-apply a
// transition.
type EventRepository interface {
	WithTx(tx *gorm.DB) EventRepository

	Create(ctx context.Context, event *models.StreamEvent) error
	GetByID(ctx context.Context, id uint) (*models.StreamEvent, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int) ([]models.StreamEvent, error)
	UpdateStatusCAS(ctx context.Context, eventID uint, from, to models.EventStatus, updates map[string]any) (bool, error)

	CreateEntry(ctx context.Context, entry *models.StreamEventEntry) error
	GetEntry(ctx context.Context, entryID uint) (*models.StreamEventEntry, error)
	ListEntries(ctx context.Context, eventID uint) ([]models.StreamEventEntry, error)
	CountEntries(ctx context.Context, eventID uint) (int64, error)
	CurrentEntry(ctx context.Context, eventID uint) (*models.StreamEventEntry, error)
	FirstWaitingEntry(ctx context.Context, eventID uint) (*models.StreamEventEntry, error)
	UpdateEntryStatusCAS(ctx context.Context, entryID uint, from, to models.EntryStatus, updates map[string]any) (bool, error)

	CreateMatches(ctx context.Context, matches []models.BracketMatch) error
	GetMatch(ctx context.Context, matchID uint) (*models.BracketMatch, error)
	GetMatchAt(ctx context.Context, eventID uint, round, matchIndex int) (*models.BracketMatch, error)
	ListMatches(ctx context.Context, eventID uint) ([]models.BracketMatch, error)
	CountPendingMatches(ctx context.Context, eventID uint) (int64, error)
	ResolveMatchCAS(ctx context.Context, matchID, winnerID uint) (bool, error)
	SetMatchSlot(ctx context.Context, eventID uint, round, matchIndex int, slotA bool, entryID uint) error
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository returns a new EventRepository implementation.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// WithTx returns a repository bound to the given transaction handle.
func (r *eventRepository) WithTx(tx *gorm.DB) EventRepository {
	return &eventRepository{db: tx}
}

func (r *eventRepository) Create(ctx context.Context, event *models.StreamEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id uint) (*models.StreamEvent, error) {
	var event models.StreamEvent
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Event", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &event, nil
}

func (r *eventRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.BracketMatch{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&models.StreamEventEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.StreamEvent{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateEvent(ctx, id)
	return nil
}

func (r *eventRepository) List(ctx context.Context, limit, offset int) ([]models.StreamEvent, error) {
	var events []models.StreamEvent
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&events).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return events, nil
}

// UpdateStatusCAS transitions the event from one status to another. It
// returns false when the row was not in the expected status, which means
// another writer won the transition.
func (r *eventRepository) UpdateStatusCAS(ctx context.Context, eventID uint, from, to models.EventStatus, updates map[string]any) (bool, error) {
	values := map[string]any{"status": to}
	for k, v := range updates {
		values[k] = v
	}

	res := r.db.WithContext(ctx).
		Model(&models.StreamEvent{}).
		Where("id = ? AND status = ?", eventID, from).
		Updates(values)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		cache.InvalidateEvent(ctx, eventID)
	}
	return res.RowsAffected > 0, nil
}

func (r *eventRepository) CreateEntry(ctx context.Context, entry *models.StreamEventEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateEvent(ctx, entry.EventID)
	return nil
}

func (r *eventRepository) GetEntry(ctx context.Context, entryID uint) (*models.StreamEventEntry, error) {
	var entry models.StreamEventEntry
	if err := r.db.WithContext(ctx).First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Entry", entryID)
		}
		return nil, models.NewInternalError(err)
	}
	return &entry, nil
}

func (r *eventRepository) ListEntries(ctx context.Context, eventID uint) ([]models.StreamEventEntry, error) {
	var entries []models.StreamEventEntry
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("position ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}

func (r *eventRepository) CountEntries(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StreamEventEntry{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *eventRepository) CurrentEntry(ctx context.Context, eventID uint) (*models.StreamEventEntry, error) {
	var entry models.StreamEventEntry
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND status = ?", eventID, models.EntryCurrent).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &entry, nil
}

func (r *eventRepository) FirstWaitingEntry(ctx context.Context, eventID uint) (*models.StreamEventEntry, error) {
	var entry models.StreamEventEntry
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND status = ?", eventID, models.EntryWaiting).
		Order("position ASC, id ASC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &entry, nil
}

// UpdateEntryStatusCAS moves an entry between queue states, guarded on the
// entry's current status.
func (r *eventRepository) UpdateEntryStatusCAS(ctx context.Context, entryID uint, from, to models.EntryStatus, updates map[string]any) (bool, error) {
	values := map[string]any{"status": to}
	for k, v := range updates {
		values[k] = v
	}

	res := r.db.WithContext(ctx).
		Model(&models.StreamEventEntry{}).
		Where("id = ? AND status = ?", entryID, from).
		Updates(values)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *eventRepository) CreateMatches(ctx context.Context, matches []models.BracketMatch) error {
	if len(matches) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&matches).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.EventBracketKey(matches[0].EventID))
	return nil
}

func (r *eventRepository) GetMatch(ctx context.Context, matchID uint) (*models.BracketMatch, error) {
	var match models.BracketMatch
	if err := r.db.WithContext(ctx).First(&match, matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Match", matchID)
		}
		return nil, models.NewInternalError(err)
	}
	return &match, nil
}

func (r *eventRepository) GetMatchAt(ctx context.Context, eventID uint, round, matchIndex int) (*models.BracketMatch, error) {
	var match models.BracketMatch
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND round = ? AND match_index = ?", eventID, round, matchIndex).
		First(&match).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &match, nil
}

func (r *eventRepository) ListMatches(ctx context.Context, eventID uint) ([]models.BracketMatch, error) {
	var matches []models.BracketMatch
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("round ASC, match_index ASC").
		Find(&matches).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return matches, nil
}

func (r *eventRepository) CountPendingMatches(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BracketMatch{}).
		Where("event_id = ? AND status = ?", eventID, models.MatchPending).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// ResolveMatchCAS marks a pending match resolved with the given winner.
// Returns false when the match was already resolved.
func (r *eventRepository) ResolveMatchCAS(ctx context.Context, matchID, winnerID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.BracketMatch{}).
		Where("id = ? AND status = ?", matchID, models.MatchPending).
		Updates(map[string]any{
			"winner_id": winnerID,
			"status":    models.MatchResolved,
		})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SetMatchSlot places an entry into one side of a next-round match. Sibling
// matches feed different columns of the same row, so two concurrent
// propagations never overwrite each other.
func (r *eventRepository) SetMatchSlot(ctx context.Context, eventID uint, round, matchIndex int, slotA bool, entryID uint) error {
	column := "player_b_id"
	if slotA {
		column = "player_a_id"
	}

	err := r.db.WithContext(ctx).
		Model(&models.BracketMatch{}).
		Where("event_id = ? AND round = ? AND match_index = ?", eventID, round, matchIndex).
		Update(column, entryID).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.EventBracketKey(eventID))
	return nil
}
