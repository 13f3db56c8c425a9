package catalog

import "example.com/progression/internal/domain"

// Duels returns the current duel board. The board is read-only to the progress engine.
func Duels() []domain.DuelRecord {
	out := make([]domain.DuelRecord, len(duelBoard))
	copy(out, duelBoard)
	return out
}

var duelBoard = []domain.DuelRecord{
	{
		ID:               "1",
		Challenge:        "3 gym check-ins this week",
		OpponentName:     "Alex",
		OpponentAvatar:   "💪",
		YourProgress:     2,
		OpponentProgress: 1,
		TimeRemaining:    "3 days",
		Goal:             3,
	},
	{
		ID:               "2",
		Challenge:        "Log 5 workouts in 7 days",
		OpponentName:     "Jordan",
		OpponentAvatar:   "🔥",
		YourProgress:     3,
		OpponentProgress: 4,
		TimeRemaining:    "2 days",
		Goal:             5,
	},
}
