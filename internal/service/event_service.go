// Package service implements the business rules of the orchestration core.
package service

import (
	"context"
	"log/slog"
	"time"

	"bigspin/internal/fair"
	"bigspin/internal/middleware"
	"bigspin/internal/models"
	"bigspin/internal/observability"
	"bigspin/internal/repository"

	"gorm.io/gorm"
)

// EventService drives the lifecycle of stream events and the play
// structures built on top of them (brackets and bonus hunt queues).
type EventService struct {
	eventRepo repository.EventRepository
	db        *gorm.DB
}

// NewEventService returns a new EventService.
func NewEventService(eventRepo repository.EventRepository, db *gorm.DB) *EventService {
	return &EventService{eventRepo: eventRepo, db: db}
}

type CreateEventInput struct {
	Type            models.EventType
	Title           string
	MaxPlayers      int
	StartingBalance float64
	CreatedByUserID *uint
}

type AddEntryInput struct {
	EventID     uint
	DisplayName string
	SlotChoice  string
	Category    string
}

type SubmitWinnerInput struct {
	EventID       uint
	MatchID       uint
	WinnerEntryID uint
}

// EventState is the full snapshot of an event returned to clients.
type EventState struct {
	Event   *models.StreamEvent       `json:"event"`
	Entries []models.StreamEventEntry `json:"entries"`
	Matches []models.BracketMatch     `json:"matches,omitempty"`
	Current *models.StreamEventEntry  `json:"current_entry,omitempty"`
	Summary *BonusHuntSummary         `json:"summary,omitempty"`
}

func (s *EventService) CreateEvent(ctx context.Context, in CreateEventInput) (*models.StreamEvent, error) {
	switch in.Type {
	case models.EventTournament, models.EventBonusHunt, models.EventGuessBalance:
		// valid
	default:
		return nil, models.NewValidationError("Invalid event type")
	}
	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if in.Type == models.EventTournament && !models.ValidMaxPlayers(in.MaxPlayers) {
		return nil, models.NewValidationError("max_players must be 4, 8, 16 or 32")
	}
	if in.Type == models.EventBonusHunt && in.StartingBalance < 0 {
		return nil, models.NewValidationError("starting_balance must not be negative")
	}

	event := &models.StreamEvent{
		Type:            in.Type,
		Title:           in.Title,
		Status:          models.EventDraft,
		MaxPlayers:      in.MaxPlayers,
		StartingBalance: in.StartingBalance,
		CreatedByUserID: in.CreatedByUserID,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "event created",
		slog.Uint64("event_id", uint64(event.ID)),
		slog.String("type", string(event.Type)),
	)
	return event, nil
}

// OpenEvent moves a draft event into the open state so entries can join.
func (s *EventService) OpenEvent(ctx context.Context, eventID uint) (*models.StreamEvent, error) {
	return s.transition(ctx, eventID, models.EventDraft, models.EventOpen, nil)
}

// StartEvent moves a locked event into in_progress.
func (s *EventService) StartEvent(ctx context.Context, eventID uint) (*models.StreamEvent, error) {
	return s.transition(ctx, eventID, models.EventLocked, models.EventInProgress, nil)
}

// transition performs a simple CAS lifecycle move and returns the updated
// event. A lost CAS is reported as INVALID_TRANSITION against the status
// the event actually holds.
func (s *EventService) transition(ctx context.Context, eventID uint, from, to models.EventStatus, updates map[string]any) (*models.StreamEvent, error) {
	ok, err := s.eventRepo.UpdateStatusCAS(ctx, eventID, from, to, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		event, err := s.eventRepo.GetByID(ctx, eventID)
		if err != nil {
			return nil, err
		}
		return nil, models.NewInvalidTransitionError(event.Status, to)
	}

	observability.EventTransitions.WithLabelValues(string(to)).Inc()
	middleware.Logger.InfoContext(ctx, "event transitioned",
		slog.Uint64("event_id", uint64(eventID)),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
	return s.eventRepo.GetByID(ctx, eventID)
}

// LockEvent freezes the entry list. A fresh seed is drawn and persisted on
// the event. For tournaments this is the moment the bracket is built:
// entries are shuffled over the player slots and forced matches (byes) are
// resolved up front. For bonus hunts the queue is reordered by the same
// shuffle and its first slot promoted to current. The entry snapshot is
// taken inside the locking transaction, after the status flip, so entries
// committed while the event was still open are always part of it; a failed
// validation rolls the flip back and leaves the event open.
func (s *EventService) LockEvent(ctx context.Context, eventID uint, lockedBy *uint) (*models.StreamEvent, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventOpen {
		return nil, models.NewInvalidTransitionError(event.Status, models.EventLocked)
	}

	seed, err := fair.NewSeed()
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"locked_at":         now,
		"locked_by_user_id": lockedBy,
		"shuffle_seed":      seed,
	}

	var entryCount int
	err = s.db.Transaction(func(tx *gorm.DB) error {
		txRepo := s.eventRepo.WithTx(tx)

		ok, err := txRepo.UpdateStatusCAS(ctx, eventID, models.EventOpen, models.EventLocked, updates)
		if err != nil {
			return err
		}
		if !ok {
			current, err := txRepo.GetByID(ctx, eventID)
			if err != nil {
				return err
			}
			return models.NewInvalidTransitionError(current.Status, models.EventLocked)
		}

		entries, err := txRepo.ListEntries(ctx, eventID)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return models.NewValidationError("event needs at least 1 entry to lock")
		}
		entryCount = len(entries)

		switch event.Type {
		case models.EventTournament:
			if len(entries) > event.MaxPlayers {
				return models.NewValidationError("entry count exceeds max_players")
			}
			entryIDs := make([]uint, len(entries))
			for i, e := range entries {
				entryIDs[i] = e.ID
			}
			matches := buildBracket(eventID, event.MaxPlayers, seed, entryIDs)
			if err := txRepo.CreateMatches(ctx, matches); err != nil {
				return err
			}
		case models.EventBonusHunt:
			if err := shuffleQueue(ctx, txRepo, seed, entries); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.EventTransitions.WithLabelValues(string(models.EventLocked)).Inc()
	middleware.Logger.InfoContext(ctx, "event locked",
		slog.Uint64("event_id", uint64(eventID)),
		slog.Int64("seed", seed),
		slog.Int("entries", entryCount),
	)
	return s.eventRepo.GetByID(ctx, eventID)
}

// CompleteEvent finishes an event from either the locked or in_progress
// state. Tournaments must have every match resolved first.
func (s *EventService) CompleteEvent(ctx context.Context, eventID uint) (*models.StreamEvent, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(event.Status, models.EventCompleted) {
		return nil, models.NewInvalidTransitionError(event.Status, models.EventCompleted)
	}

	if event.Type == models.EventTournament {
		pending, err := s.eventRepo.CountPendingMatches(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if pending > 0 {
			return nil, models.NewValidationError("all bracket matches must be resolved before completion")
		}
	}

	return s.transition(ctx, eventID, event.Status, models.EventCompleted,
		map[string]any{"completed_at": time.Now().UTC()})
}

// DeleteEvent hard-deletes an event at any status, cascading its entries
// and bracket matches.
func (s *EventService) DeleteEvent(ctx context.Context, eventID uint) error {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return err
	}
	return s.eventRepo.Delete(ctx, eventID)
}

// AddEntry registers a participant while the event is open.
func (s *EventService) AddEntry(ctx context.Context, in AddEntryInput) (*models.StreamEventEntry, error) {
	if in.DisplayName == "" {
		return nil, models.NewValidationError("display_name is required")
	}

	event, err := s.eventRepo.GetByID(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventOpen {
		return nil, &models.AppError{
			Code:    models.CodeInvalidTransition,
			Message: "event is not open for entries",
		}
	}

	count, err := s.eventRepo.CountEntries(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	if event.Type == models.EventTournament && int(count) >= event.MaxPlayers {
		return nil, models.NewEntryLimitReachedError("event", event.ID, event.MaxPlayers)
	}

	entry := &models.StreamEventEntry{
		EventID:     in.EventID,
		DisplayName: in.DisplayName,
		SlotChoice:  in.SlotChoice,
		Category:    in.Category,
		Position:    int(count),
	}
	if event.Type == models.EventBonusHunt {
		entry.Status = models.EntryWaiting
	}

	if err := s.eventRepo.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetEventState returns the event with its entries and, depending on type,
// its bracket or queue snapshot.
func (s *EventService) GetEventState(ctx context.Context, eventID uint) (*EventState, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	entries, err := s.eventRepo.ListEntries(ctx, eventID)
	if err != nil {
		return nil, err
	}

	state := &EventState{Event: event, Entries: entries}

	switch event.Type {
	case models.EventTournament:
		matches, err := s.eventRepo.ListMatches(ctx, eventID)
		if err != nil {
			return nil, err
		}
		state.Matches = matches
	case models.EventBonusHunt:
		current, err := s.eventRepo.CurrentEntry(ctx, eventID)
		if err != nil {
			return nil, err
		}
		state.Current = current
		summary := summarizeBonusHunt(event, entries)
		state.Summary = &summary
	}

	return state, nil
}

// SubmitWinner records a match outcome and advances the winner through the
// bracket. Byes created by the advancement cascade are resolved in the same
// transaction.
func (s *EventService) SubmitWinner(ctx context.Context, in SubmitWinnerInput) (*models.BracketMatch, error) {
	event, err := s.eventRepo.GetByID(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	if event.Type != models.EventTournament {
		return nil, models.NewValidationError("event has no bracket")
	}
	if !event.Playable() {
		return nil, models.NewInvalidTransitionError(event.Status, models.EventInProgress)
	}

	match, err := s.eventRepo.GetMatch(ctx, in.MatchID)
	if err != nil {
		return nil, err
	}
	if match.EventID != in.EventID {
		return nil, models.NewNotFoundError("Match", in.MatchID)
	}
	if match.Status == models.MatchResolved {
		return nil, models.NewAlreadyResolvedError(match.ID)
	}
	if !match.HasPlayer(in.WinnerEntryID) {
		return nil, models.NewInvalidWinnerError(match.ID, in.WinnerEntryID)
	}
	if match.PlayerAID == nil || match.PlayerBID == nil {
		// An unfilled slot means the feed match has not produced the
		// opponent yet, so no winner claim can be valid.
		return nil, models.NewInvalidWinnerError(match.ID, in.WinnerEntryID)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		txRepo := s.eventRepo.WithTx(tx)

		ok, err := txRepo.ResolveMatchCAS(ctx, match.ID, in.WinnerEntryID)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewAlreadyResolvedError(match.ID)
		}
		observability.MatchResolutions.WithLabelValues("played").Inc()

		return s.advanceWinner(ctx, txRepo, event, match, in.WinnerEntryID)
	})
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "match resolved",
		slog.Uint64("event_id", uint64(in.EventID)),
		slog.Uint64("match_id", uint64(in.MatchID)),
		slog.Uint64("winner_entry_id", uint64(in.WinnerEntryID)),
	)
	return s.eventRepo.GetMatch(ctx, in.MatchID)
}

// advanceWinner seats the winner in the next round. If the sibling feed is a
// dead slot the next match is itself a forced win, so the cascade continues.
func (s *EventService) advanceWinner(ctx context.Context, repo repository.EventRepository, event *models.StreamEvent, match *models.BracketMatch, winnerID uint) error {
	if match.Round >= event.TotalRounds() {
		return nil
	}

	round, index, slotA := match.NextSlot()
	if err := repo.SetMatchSlot(ctx, event.ID, round, index, slotA, winnerID); err != nil {
		return err
	}

	sibling, err := repo.GetMatchAt(ctx, event.ID, match.Round, match.MatchIndex^1)
	if err != nil {
		return err
	}
	if sibling == nil || sibling.Status != models.MatchResolved || sibling.WinnerID != nil {
		return nil
	}

	// The sibling feed was dead; the winner walks through the next match.
	next, err := repo.GetMatchAt(ctx, event.ID, round, index)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	ok, err := repo.ResolveMatchCAS(ctx, next.ID, winnerID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	observability.MatchResolutions.WithLabelValues("bye").Inc()

	return s.advanceWinner(ctx, repo, event, next, winnerID)
}
