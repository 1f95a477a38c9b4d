package service

import (
	"bigspin/internal/fair"
	"bigspin/internal/models"
)

// buildBracket constructs the full single-elimination bracket for a locked
// tournament. Entries are scattered over the maxPlayers slots by the seeded
// shuffle; unfilled slots are byes. Matches whose outcome is already forced
// (one player against a bye, or two empty feeds) are resolved immediately
// and their winners cascaded into later rounds, so the returned bracket
// always has maxPlayers-1 matches with every decidable match decided.
func buildBracket(eventID uint, maxPlayers int, seed int64, entryIDs []uint) []models.BracketMatch {
	slots := make([]*uint, maxPlayers)
	perm := fair.Shuffle(seed, maxPlayers)
	for i := range entryIDs {
		id := entryIDs[i]
		slots[perm[i]] = &id
	}

	rounds := 0
	for n := maxPlayers; n > 1; n /= 2 {
		rounds++
	}

	// known[r][i] is the settled occupant of slot i feeding round r+1
	// (nil means bye or dead feed). Unsettled feeds are absent.
	type feed struct {
		settled bool
		id      *uint
	}

	matches := make([]models.BracketMatch, 0, maxPlayers-1)
	feeds := make([]feed, maxPlayers)
	for i, s := range slots {
		feeds[i] = feed{settled: true, id: s}
	}

	for r := 1; r <= rounds; r++ {
		count := maxPlayers >> uint(r)
		next := make([]feed, count)

		for i := 0; i < count; i++ {
			a, b := feeds[2*i], feeds[2*i+1]
			m := models.BracketMatch{
				EventID:    eventID,
				Round:      r,
				MatchIndex: i,
				Status:     models.MatchPending,
			}
			if a.settled {
				m.PlayerAID = a.id
			}
			if b.settled {
				m.PlayerBID = b.id
			}

			switch {
			case a.settled && b.settled && a.id == nil && b.id == nil:
				// Dead slot: both feeds were byes.
				m.Status = models.MatchResolved
				next[i] = feed{settled: true, id: nil}
			case a.settled && b.settled && (a.id == nil || b.id == nil):
				// Bye: the lone player advances without playing.
				winner := a.id
				if winner == nil {
					winner = b.id
				}
				m.Status = models.MatchResolved
				m.WinnerID = winner
				next[i] = feed{settled: true, id: winner}
			default:
				next[i] = feed{}
			}

			matches = append(matches, m)
		}

		feeds = next
	}

	return matches
}
