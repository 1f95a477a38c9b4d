package service

import (
	"context"
	"fmt"
	"log/slog"

	"bigspin/internal/fair"
	"bigspin/internal/middleware"
	"bigspin/internal/models"
	"bigspin/internal/observability"
	"bigspin/internal/repository"

	"gorm.io/gorm"
)

// BonusHuntSummary aggregates the running state of a bonus hunt.
type BonusHuntSummary struct {
	StartingBalance float64  `json:"starting_balance"`
	TotalEntries    int      `json:"total_entries"`
	Opened          int      `json:"opened"`
	Bonused         int      `json:"bonused"`
	Remaining       int      `json:"remaining"`
	TotalPayout     float64  `json:"total_payout"`
	Profit          float64  `json:"profit"`
	BestPayout      *float64 `json:"best_payout,omitempty"`
}

// shuffleQueue reorders a bonus hunt queue with the lock seed and promotes
// the first slot to current. Entry i takes position perm[i], the same
// convention buildBracket uses for player slots.
func shuffleQueue(ctx context.Context, repo repository.EventRepository, seed int64, entries []models.StreamEventEntry) error {
	perm := fair.Shuffle(seed, len(entries))
	for i, e := range entries {
		to := models.EntryWaiting
		if perm[i] == 0 {
			to = models.EntryCurrent
		}
		ok, err := repo.UpdateEntryStatusCAS(ctx, e.ID, models.EntryWaiting, to, map[string]any{"position": perm[i]})
		if err != nil {
			return err
		}
		if !ok {
			return models.NewInternalError(fmt.Errorf("entry %d left the waiting state during lock", e.ID))
		}
	}
	return nil
}

func summarizeBonusHunt(event *models.StreamEvent, entries []models.StreamEventEntry) BonusHuntSummary {
	summary := BonusHuntSummary{
		StartingBalance: event.StartingBalance,
		TotalEntries:    len(entries),
	}
	for _, e := range entries {
		switch e.Status {
		case models.EntryBonused:
			summary.Opened++
			summary.Bonused++
			if e.Payout != nil {
				summary.TotalPayout += *e.Payout
				if summary.BestPayout == nil || *e.Payout > *summary.BestPayout {
					p := *e.Payout
					summary.BestPayout = &p
				}
			}
		case models.EntryNoBonus:
			summary.Opened++
		default:
			summary.Remaining++
		}
	}
	summary.Profit = summary.TotalPayout - event.StartingBalance
	return summary
}

// MarkBonused settles the current slot as a bonus hit with its payout and
// promotes the next waiting entry.
func (s *EventService) MarkBonused(ctx context.Context, eventID uint, payout float64) (*models.StreamEventEntry, error) {
	if payout < 0 {
		return nil, models.NewValidationError("payout must not be negative")
	}
	return s.settleCurrent(ctx, eventID, models.EntryBonused, map[string]any{"payout": payout})
}

// MarkNoBonus settles the current slot as played without a bonus and
// promotes the next waiting entry.
func (s *EventService) MarkNoBonus(ctx context.Context, eventID uint) (*models.StreamEventEntry, error) {
	return s.settleCurrent(ctx, eventID, models.EntryNoBonus, nil)
}

// settleCurrent moves the current queue entry to a terminal state and
// promotes the first waiting entry, all in one transaction. Returns the new
// current entry, or nil when the queue is exhausted.
func (s *EventService) settleCurrent(ctx context.Context, eventID uint, to models.EntryStatus, updates map[string]any) (*models.StreamEventEntry, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Type != models.EventBonusHunt {
		return nil, models.NewValidationError("event is not a bonus hunt")
	}
	if !event.Playable() {
		return nil, models.NewInvalidTransitionError(event.Status, models.EventInProgress)
	}

	var promoted *models.StreamEventEntry
	err = s.db.Transaction(func(tx *gorm.DB) error {
		txRepo := s.eventRepo.WithTx(tx)

		current, err := txRepo.CurrentEntry(ctx, eventID)
		if err != nil {
			return err
		}
		if current == nil {
			return models.NewQueueEmptyError(eventID)
		}

		ok, err := txRepo.UpdateEntryStatusCAS(ctx, current.ID, models.EntryCurrent, to, updates)
		if err != nil {
			return err
		}
		if !ok {
			// Another writer settled this slot between our read and write.
			return models.NewQueueEmptyError(eventID)
		}

		next, err := txRepo.FirstWaitingEntry(ctx, eventID)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}

		ok, err = txRepo.UpdateEntryStatusCAS(ctx, next.ID, models.EntryWaiting, models.EntryCurrent, nil)
		if err != nil {
			return err
		}
		if ok {
			promoted, err = txRepo.GetEntry(ctx, next.ID)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.QueueAdvances.WithLabelValues(string(to)).Inc()
	middleware.Logger.InfoContext(ctx, "bonus hunt advanced",
		slog.Uint64("event_id", uint64(eventID)),
		slog.String("result", string(to)),
	)
	return promoted, nil
}

// GetBonusHuntSummary returns the aggregate totals for a bonus hunt.
func (s *EventService) GetBonusHuntSummary(ctx context.Context, eventID uint) (*BonusHuntSummary, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Type != models.EventBonusHunt {
		return nil, models.NewValidationError("event is not a bonus hunt")
	}

	entries, err := s.eventRepo.ListEntries(ctx, eventID)
	if err != nil {
		return nil, err
	}
	summary := summarizeBonusHunt(event, entries)
	return &summary, nil
}
