package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	EventKeyPrefix       = "event:%d"
	EventEntriesPrefix   = "event:%d:entries"
	EventBracketPrefix   = "event:%d:bracket"
	GiveawayKeyPrefix    = "giveaway:%d"
	GiveawayListKey      = "giveaways:active"
	EligibilityKeyPrefix = "eligibility:%d:%d"
)

const (
	EventTTL       = 2 * time.Minute
	EntriesTTL     = 1 * time.Minute
	BracketTTL     = 1 * time.Minute
	GiveawayTTL    = 5 * time.Minute
	ListTTL        = 30 * time.Second
	EligibilityTTL = 2 * time.Minute
)

func EventKey(eventID uint) string {
	return fmt.Sprintf(EventKeyPrefix, eventID)
}

func EventEntriesKey(eventID uint) string {
	return fmt.Sprintf(EventEntriesPrefix, eventID)
}

func EventBracketKey(eventID uint) string {
	return fmt.Sprintf(EventBracketPrefix, eventID)
}

func GiveawayKey(giveawayID uint) string {
	return fmt.Sprintf(GiveawayKeyPrefix, giveawayID)
}

func EligibilityKey(giveawayID, userID uint) string {
	return fmt.Sprintf(EligibilityKeyPrefix, giveawayID, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateEvent drops the event snapshot plus its entry and bracket lists.
// Called after every lifecycle transition or entry mutation.
func InvalidateEvent(ctx context.Context, eventID uint) {
	Invalidate(ctx, EventKey(eventID))
	Invalidate(ctx, EventEntriesKey(eventID))
	Invalidate(ctx, EventBracketKey(eventID))
}

func InvalidateGiveaway(ctx context.Context, giveawayID uint) {
	Invalidate(ctx, GiveawayKey(giveawayID))
	Invalidate(ctx, GiveawayListKey)
}
