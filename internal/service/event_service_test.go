package service

import (
	"context"
	"testing"

	"bigspin/internal/fair"
	"bigspin/internal/models"
	"bigspin/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Casino{},
		&models.CasinoAccount{},
		&models.StreamEvent{},
		&models.StreamEventEntry{},
		&models.BracketMatch{},
		&models.Giveaway{},
		&models.GiveawayRequirement{},
		&models.GiveawayEntry{},
	)
	require.NoError(t, err)

	return db
}

func newEventService(t *testing.T) (*EventService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewEventService(repository.NewEventRepository(db), db), db
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func createOpenTournament(t *testing.T, svc *EventService, maxPlayers, entries int) *models.StreamEvent {
	t.Helper()
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, CreateEventInput{
		Type:       models.EventTournament,
		Title:      "Slot Battle",
		MaxPlayers: maxPlayers,
	})
	require.NoError(t, err)

	_, err = svc.OpenEvent(ctx, event.ID)
	require.NoError(t, err)

	for i := 0; i < entries; i++ {
		_, err := svc.AddEntry(ctx, AddEntryInput{
			EventID:     event.ID,
			DisplayName: string(rune('a' + i)),
			SlotChoice:  "Sweet Bonanza",
		})
		require.NoError(t, err)
	}
	return event
}

func TestEventService_CreateEvent(t *testing.T) {
	svc, _ := newEventService(t)
	ctx := context.Background()

	t.Run("TournamentRequiresValidSize", func(t *testing.T) {
		_, err := svc.CreateEvent(ctx, CreateEventInput{
			Type: models.EventTournament, Title: "Bad", MaxPlayers: 6,
		})
		requireCode(t, err, models.CodeValidation)

		for _, n := range []int{4, 8, 16, 32} {
			event, err := svc.CreateEvent(ctx, CreateEventInput{
				Type: models.EventTournament, Title: "Good", MaxPlayers: n,
			})
			require.NoError(t, err)
			assert.Equal(t, models.EventDraft, event.Status)
		}
	})

	t.Run("InvalidType", func(t *testing.T) {
		_, err := svc.CreateEvent(ctx, CreateEventInput{Type: "poker", Title: "Nope"})
		requireCode(t, err, models.CodeValidation)
	})

	t.Run("TitleRequired", func(t *testing.T) {
		_, err := svc.CreateEvent(ctx, CreateEventInput{Type: models.EventBonusHunt})
		requireCode(t, err, models.CodeValidation)
	})
}

func TestEventService_Lifecycle(t *testing.T) {
	svc, _ := newEventService(t)
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, CreateEventInput{
		Type: models.EventBonusHunt, Title: "Hunt", StartingBalance: 1000,
	})
	require.NoError(t, err)

	t.Run("CannotSkipStates", func(t *testing.T) {
		_, err := svc.StartEvent(ctx, event.ID)
		requireCode(t, err, models.CodeInvalidTransition)

		_, err = svc.LockEvent(ctx, event.ID, nil)
		requireCode(t, err, models.CodeInvalidTransition)
	})

	t.Run("FullPath", func(t *testing.T) {
		opened, err := svc.OpenEvent(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, models.EventOpen, opened.Status)

		_, err = svc.AddEntry(ctx, AddEntryInput{EventID: event.ID, DisplayName: "viewer1", SlotChoice: "Wanted"})
		require.NoError(t, err)

		locked, err := svc.LockEvent(ctx, event.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, models.EventLocked, locked.Status)
		assert.NotNil(t, locked.LockedAt)

		started, err := svc.StartEvent(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, models.EventInProgress, started.Status)

		// Drain the queue so completion is clean.
		_, err = svc.MarkNoBonus(ctx, event.ID)
		require.NoError(t, err)

		completed, err := svc.CompleteEvent(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, models.EventCompleted, completed.Status)
		assert.NotNil(t, completed.CompletedAt)
	})

	t.Run("CompletedIsTerminal", func(t *testing.T) {
		_, err := svc.OpenEvent(ctx, event.ID)
		requireCode(t, err, models.CodeInvalidTransition)

		_, err = svc.CompleteEvent(ctx, event.ID)
		requireCode(t, err, models.CodeInvalidTransition)
	})
}

func TestEventService_AddEntry(t *testing.T) {
	svc, _ := newEventService(t)
	ctx := context.Background()

	t.Run("RejectedWhileDraft", func(t *testing.T) {
		event, err := svc.CreateEvent(ctx, CreateEventInput{Type: models.EventBonusHunt, Title: "Hunt"})
		require.NoError(t, err)

		_, err = svc.AddEntry(ctx, AddEntryInput{EventID: event.ID, DisplayName: "early"})
		requireCode(t, err, models.CodeInvalidTransition)
	})

	t.Run("TournamentCap", func(t *testing.T) {
		event := createOpenTournament(t, svc, 4, 4)

		_, err := svc.AddEntry(ctx, AddEntryInput{EventID: event.ID, DisplayName: "fifth"})
		requireCode(t, err, models.CodeEntryLimitReached)
	})

	t.Run("UnknownEvent", func(t *testing.T) {
		_, err := svc.AddEntry(ctx, AddEntryInput{EventID: 9999, DisplayName: "ghost"})
		requireCode(t, err, models.CodeNotFound)
	})
}

func TestEventService_LockBuildsBracket(t *testing.T) {
	ctx := context.Background()

	t.Run("FullBracketHasMaxMinusOneMatches", func(t *testing.T) {
		svc, _ := newEventService(t)
		event := createOpenTournament(t, svc, 8, 8)

		locked, err := svc.LockEvent(ctx, event.ID, nil)
		require.NoError(t, err)
		require.NotNil(t, locked.ShuffleSeed)

		state, err := svc.GetEventState(ctx, event.ID)
		require.NoError(t, err)
		require.Len(t, state.Matches, 7)

		for _, m := range state.Matches {
			if m.Round == 1 {
				assert.NotNil(t, m.PlayerAID)
				assert.NotNil(t, m.PlayerBID)
				assert.Equal(t, models.MatchPending, m.Status)
			}
		}
	})

	t.Run("ByesAutoResolve", func(t *testing.T) {
		svc, _ := newEventService(t)
		event := createOpenTournament(t, svc, 4, 3)

		_, err := svc.LockEvent(ctx, event.ID, nil)
		require.NoError(t, err)

		state, err := svc.GetEventState(ctx, event.ID)
		require.NoError(t, err)
		require.Len(t, state.Matches, 3)

		resolved := 0
		for _, m := range state.Matches {
			if m.Round == 1 && m.Status == models.MatchResolved {
				resolved++
				require.NotNil(t, m.WinnerID, "a 3-of-4 bracket has exactly one bye, never a dead slot")
			}
		}
		assert.Equal(t, 1, resolved, "exactly one round-1 match is a bye")

		// The bye winner is already seated in the final.
		final := state.Matches[len(state.Matches)-1]
		assert.Equal(t, 2, final.Round)
		seated := 0
		if final.PlayerAID != nil {
			seated++
		}
		if final.PlayerBID != nil {
			seated++
		}
		assert.Equal(t, 1, seated)
	})

	t.Run("SingleEntrantCascadesToChampion", func(t *testing.T) {
		svc, _ := newEventService(t)
		event := createOpenTournament(t, svc, 4, 1)

		locked, err := svc.LockEvent(ctx, event.ID, nil)
		require.NoError(t, err)
		require.NotNil(t, locked.ShuffleSeed)

		state, err := svc.GetEventState(ctx, event.ID)
		require.NoError(t, err)
		require.Len(t, state.Matches, 3)
		for _, m := range state.Matches {
			assert.Equal(t, models.MatchResolved, m.Status)
		}

		// Every match is a bye or a dead slot, so the lone entrant is
		// already the champion.
		final := state.Matches[len(state.Matches)-1]
		require.NotNil(t, final.WinnerID)
		assert.Equal(t, state.Entries[0].ID, *final.WinnerID)
	})

	t.Run("NeedsAtLeastOneEntry", func(t *testing.T) {
		svc, _ := newEventService(t)
		event := createOpenTournament(t, svc, 4, 0)

		_, err := svc.LockEvent(ctx, event.ID, nil)
		requireCode(t, err, models.CodeValidation)

		// The rejected lock rolls back entirely.
		state, err := svc.GetEventState(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, models.EventOpen, state.Event.Status)
		assert.Nil(t, state.Event.ShuffleSeed)
	})
}

func TestEventService_LockShufflesQueue(t *testing.T) {
	ctx := context.Background()
	svc, _ := newEventService(t)

	event, err := svc.CreateEvent(ctx, CreateEventInput{
		Type: models.EventBonusHunt, Title: "Hunt", StartingBalance: 1000,
	})
	require.NoError(t, err)
	_, err = svc.OpenEvent(ctx, event.ID)
	require.NoError(t, err)

	names := []string{"alice", "bob", "cara", "dan", "erin"}
	ids := make([]uint, len(names))
	for i, name := range names {
		entry, err := svc.AddEntry(ctx, AddEntryInput{EventID: event.ID, DisplayName: name})
		require.NoError(t, err)
		ids[i] = entry.ID
	}

	locked, err := svc.LockEvent(ctx, event.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, locked.ShuffleSeed, "queue order must be recomputable from the persisted seed")

	state, err := svc.GetEventState(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, state.Entries, len(names))

	// The queue order is exactly the seeded permutation over the
	// insertion-order entries, with position 0 promoted to current.
	perm := fair.Shuffle(*locked.ShuffleSeed, len(names))
	byID := make(map[uint]models.StreamEventEntry, len(state.Entries))
	for _, e := range state.Entries {
		byID[e.ID] = e
	}
	for i, id := range ids {
		got := byID[id]
		assert.Equal(t, perm[i], got.Position, "entry %q", names[i])
		if perm[i] == 0 {
			assert.Equal(t, models.EntryCurrent, got.Status)
		} else {
			assert.Equal(t, models.EntryWaiting, got.Status)
		}
	}

	require.NotNil(t, state.Current)
	assert.Zero(t, state.Current.Position)

	t.Run("EmptyHuntCannotLock", func(t *testing.T) {
		empty, err := svc.CreateEvent(ctx, CreateEventInput{
			Type: models.EventBonusHunt, Title: "Empty", StartingBalance: 100,
		})
		require.NoError(t, err)
		_, err = svc.OpenEvent(ctx, empty.ID)
		require.NoError(t, err)

		_, err = svc.LockEvent(ctx, empty.ID, nil)
		requireCode(t, err, models.CodeValidation)

		// The rejected lock rolled back, so the event is still open and
		// a late entry makes it lockable.
		_, err = svc.AddEntry(ctx, AddEntryInput{EventID: empty.ID, DisplayName: "late"})
		require.NoError(t, err)
		_, err = svc.LockEvent(ctx, empty.ID, nil)
		require.NoError(t, err)
	})
}

func TestEventService_SubmitWinner(t *testing.T) {
	ctx := context.Background()
	svc, _ := newEventService(t)

	event := createOpenTournament(t, svc, 4, 4)
	_, err := svc.LockEvent(ctx, event.ID, nil)
	require.NoError(t, err)
	_, err = svc.StartEvent(ctx, event.ID)
	require.NoError(t, err)

	state, err := svc.GetEventState(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, state.Matches, 3)

	m0, m1, final := state.Matches[0], state.Matches[1], state.Matches[2]

	t.Run("WinnerMustBePlayer", func(t *testing.T) {
		_, err := svc.SubmitWinner(ctx, SubmitWinnerInput{
			EventID: event.ID, MatchID: m0.ID, WinnerEntryID: 99999,
		})
		requireCode(t, err, models.CodeInvalidWinner)
	})

	t.Run("WinnerPropagates", func(t *testing.T) {
		resolved, err := svc.SubmitWinner(ctx, SubmitWinnerInput{
			EventID: event.ID, MatchID: m0.ID, WinnerEntryID: *m0.PlayerAID,
		})
		require.NoError(t, err)
		assert.Equal(t, models.MatchResolved, resolved.Status)

		state, err := svc.GetEventState(ctx, event.ID)
		require.NoError(t, err)
		updatedFinal := state.Matches[2]
		require.NotNil(t, updatedFinal.PlayerAID)
		assert.Equal(t, *m0.PlayerAID, *updatedFinal.PlayerAID)
	})

	t.Run("ResolvedMatchRejectsSecondWinner", func(t *testing.T) {
		_, err := svc.SubmitWinner(ctx, SubmitWinnerInput{
			EventID: event.ID, MatchID: m0.ID, WinnerEntryID: *m0.PlayerBID,
		})
		requireCode(t, err, models.CodeAlreadyResolved)
	})

	t.Run("FinalNotReadyUntilBothFeeds", func(t *testing.T) {
		_, err := svc.SubmitWinner(ctx, SubmitWinnerInput{
			EventID: event.ID, MatchID: final.ID, WinnerEntryID: *m0.PlayerAID,
		})
		requireCode(t, err, models.CodeInvalidWinner)
	})

	t.Run("PlayToCompletion", func(t *testing.T) {
		_, err := svc.SubmitWinner(ctx, SubmitWinnerInput{
			EventID: event.ID, MatchID: m1.ID, WinnerEntryID: *m1.PlayerBID,
		})
		require.NoError(t, err)

		state, err := svc.GetEventState(ctx, event.ID)
		require.NoError(t, err)
		updatedFinal := state.Matches[2]
		require.NotNil(t, updatedFinal.PlayerAID)
		require.NotNil(t, updatedFinal.PlayerBID)

		_, err = svc.SubmitWinner(ctx, SubmitWinnerInput{
			EventID: event.ID, MatchID: updatedFinal.ID, WinnerEntryID: *updatedFinal.PlayerAID,
		})
		require.NoError(t, err)

		completed, err := svc.CompleteEvent(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, models.EventCompleted, completed.Status)
	})
}

func TestEventService_CompleteRequiresResolvedBracket(t *testing.T) {
	ctx := context.Background()
	svc, _ := newEventService(t)

	event := createOpenTournament(t, svc, 4, 4)
	_, err := svc.LockEvent(ctx, event.ID, nil)
	require.NoError(t, err)

	_, err = svc.CompleteEvent(ctx, event.ID)
	requireCode(t, err, models.CodeValidation)
}

func TestEventService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, db := newEventService(t)

	t.Run("OpenEvent", func(t *testing.T) {
		event := createOpenTournament(t, svc, 4, 2)
		require.NoError(t, svc.DeleteEvent(ctx, event.ID))

		_, err := svc.GetEventState(ctx, event.ID)
		requireCode(t, err, models.CodeNotFound)
	})

	t.Run("LockedEventCascades", func(t *testing.T) {
		event := createOpenTournament(t, svc, 4, 4)
		_, err := svc.LockEvent(ctx, event.ID, nil)
		require.NoError(t, err)

		require.NoError(t, svc.DeleteEvent(ctx, event.ID))

		var matches int64
		require.NoError(t, db.Model(&models.BracketMatch{}).
			Where("event_id = ?", event.ID).Count(&matches).Error)
		assert.Zero(t, matches)

		var entries int64
		require.NoError(t, db.Model(&models.StreamEventEntry{}).
			Where("event_id = ?", event.ID).Count(&entries).Error)
		assert.Zero(t, entries)
	})

	t.Run("Draft", func(t *testing.T) {
		draft, err := svc.CreateEvent(ctx, CreateEventInput{Type: models.EventGuessBalance, Title: "Guess"})
		require.NoError(t, err)
		require.NoError(t, svc.DeleteEvent(ctx, draft.ID))

		_, err = svc.GetEventState(ctx, draft.ID)
		requireCode(t, err, models.CodeNotFound)
	})

	t.Run("UnknownEvent", func(t *testing.T) {
		err := svc.DeleteEvent(ctx, 424242)
		requireCode(t, err, models.CodeNotFound)
	})
}

func TestBuildBracket(t *testing.T) {
	t.Parallel()

	t.Run("Deterministic", func(t *testing.T) {
		t.Parallel()
		entries := []uint{1, 2, 3, 4, 5}
		first := buildBracket(1, 8, 42, entries)
		second := buildBracket(1, 8, 42, entries)
		assert.Equal(t, first, second)
	})

	t.Run("AlwaysMaxMinusOneMatches", func(t *testing.T) {
		t.Parallel()
		for _, size := range []int{4, 8, 16, 32} {
			entries := make([]uint, size/2+1)
			for i := range entries {
				entries[i] = uint(i + 1)
			}
			matches := buildBracket(1, size, 7, entries)
			assert.Len(t, matches, size-1, "size %d", size)
		}
	})

	t.Run("EveryEntrySeatedOnce", func(t *testing.T) {
		t.Parallel()
		entries := []uint{10, 20, 30}
		matches := buildBracket(1, 4, 99, entries)

		seen := map[uint]int{}
		for _, m := range matches {
			if m.Round != 1 {
				continue
			}
			if m.PlayerAID != nil {
				seen[*m.PlayerAID]++
			}
			if m.PlayerBID != nil {
				seen[*m.PlayerBID]++
			}
		}
		require.Len(t, seen, 3)
		for id, n := range seen {
			assert.Equal(t, 1, n, "entry %d seated %d times", id, n)
		}
	})

	t.Run("TwoEntriesInEightBracketCascades", func(t *testing.T) {
		t.Parallel()
		// Wherever the shuffle scatters 2 entries in an 8 bracket, both must
		// cascade through their byes until exactly one match is playable.
		matches := buildBracket(1, 8, 3, []uint{1, 2})
		playable := 0
		for _, m := range matches {
			if m.Status == models.MatchPending && m.PlayerAID != nil && m.PlayerBID != nil {
				playable++
			}
		}
		assert.Equal(t, 1, playable)
	})
}
