package service

import (
	"context"
	"testing"

	"bigspin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createRunningHunt(t *testing.T, svc *EventService, names ...string) *models.StreamEvent {
	t.Helper()
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, CreateEventInput{
		Type:            models.EventBonusHunt,
		Title:           "Friday Hunt",
		StartingBalance: 2000,
	})
	require.NoError(t, err)

	_, err = svc.OpenEvent(ctx, event.ID)
	require.NoError(t, err)

	for _, name := range names {
		_, err := svc.AddEntry(ctx, AddEntryInput{
			EventID: event.ID, DisplayName: name, SlotChoice: name + " slot",
		})
		require.NoError(t, err)
	}

	_, err = svc.LockEvent(ctx, event.ID, nil)
	require.NoError(t, err)
	_, err = svc.StartEvent(ctx, event.ID)
	require.NoError(t, err)
	return event
}

func TestBonusHunt_QueueAdvances(t *testing.T) {
	ctx := context.Background()
	svc, _ := newEventService(t)

	event := createRunningHunt(t, svc, "alice", "bob", "cara")

	// Entries come back sorted by position, so this is the shuffled play
	// order regardless of which permutation the lock seed produced.
	state, err := svc.GetEventState(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, state.Entries, 3)
	order := state.Entries

	t.Run("LockPromotedFirstEntry", func(t *testing.T) {
		require.NotNil(t, state.Current)
		assert.Equal(t, order[0].ID, state.Current.ID)
		assert.Equal(t, models.EntryCurrent, order[0].Status)
	})

	t.Run("BonusSettlesAndPromotes", func(t *testing.T) {
		next, err := svc.MarkBonused(ctx, event.ID, 35)
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, order[1].ID, next.ID)
	})

	t.Run("NoBonusSettlesAndPromotes", func(t *testing.T) {
		next, err := svc.MarkNoBonus(ctx, event.ID)
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, order[2].ID, next.ID)
	})

	t.Run("LastSettleReturnsNoNext", func(t *testing.T) {
		next, err := svc.MarkBonused(ctx, event.ID, 45)
		require.NoError(t, err)
		assert.Nil(t, next)
	})

	t.Run("SummaryAfterAllSettled", func(t *testing.T) {
		summary, err := svc.GetBonusHuntSummary(ctx, event.ID)
		require.NoError(t, err)

		assert.Equal(t, 3, summary.TotalEntries)
		assert.Equal(t, 3, summary.Opened)
		assert.Equal(t, 2, summary.Bonused)
		assert.Equal(t, 0, summary.Remaining)
		assert.Equal(t, 80.0, summary.TotalPayout)
		assert.Equal(t, 80.0-2000.0, summary.Profit)
		require.NotNil(t, summary.BestPayout)
		assert.Equal(t, 45.0, *summary.BestPayout)
	})

	t.Run("SettleOnEmptyQueueFails", func(t *testing.T) {
		_, err := svc.MarkNoBonus(ctx, event.ID)
		requireCode(t, err, models.CodeQueueEmpty)
	})

	t.Run("SingleCurrentInvariant", func(t *testing.T) {
		state, err := svc.GetEventState(ctx, event.ID)
		require.NoError(t, err)
		current := 0
		for _, e := range state.Entries {
			if e.Status == models.EntryCurrent {
				current++
			}
		}
		assert.Equal(t, 0, current)
		assert.Nil(t, state.Current)
	})
}

func TestBonusHunt_Guards(t *testing.T) {
	ctx := context.Background()
	svc, _ := newEventService(t)

	t.Run("NegativePayoutRejected", func(t *testing.T) {
		event := createRunningHunt(t, svc, "alice")
		_, err := svc.MarkBonused(ctx, event.ID, -10)
		requireCode(t, err, models.CodeValidation)
	})

	t.Run("NotPlayableRejected", func(t *testing.T) {
		event, err := svc.CreateEvent(ctx, CreateEventInput{
			Type: models.EventBonusHunt, Title: "Unopened",
		})
		require.NoError(t, err)

		_, err = svc.MarkNoBonus(ctx, event.ID)
		requireCode(t, err, models.CodeInvalidTransition)
	})

	t.Run("TournamentHasNoQueue", func(t *testing.T) {
		event := createOpenTournament(t, svc, 4, 2)
		_, err := svc.LockEvent(ctx, event.ID, nil)
		require.NoError(t, err)

		_, err = svc.MarkNoBonus(ctx, event.ID)
		requireCode(t, err, models.CodeValidation)
	})
}

func TestSummarizeBonusHunt(t *testing.T) {
	t.Parallel()

	payout := func(v float64) *float64 { return &v }
	event := &models.StreamEvent{StartingBalance: 500, Type: models.EventBonusHunt}
	entries := []models.StreamEventEntry{
		{Status: models.EntryBonused, Payout: payout(120)},
		{Status: models.EntryNoBonus},
		{Status: models.EntryCurrent},
		{Status: models.EntryWaiting},
		{Status: models.EntryWaiting},
	}

	summary := summarizeBonusHunt(event, entries)
	assert.Equal(t, 500.0, summary.StartingBalance)
	assert.Equal(t, 5, summary.TotalEntries)
	assert.Equal(t, 2, summary.Opened)
	assert.Equal(t, 1, summary.Bonused)
	assert.Equal(t, 3, summary.Remaining)
	assert.Equal(t, 120.0, summary.TotalPayout)
	assert.Equal(t, 120.0-500.0, summary.Profit)
	require.NotNil(t, summary.BestPayout)
	assert.Equal(t, 120.0, *summary.BestPayout)
}
