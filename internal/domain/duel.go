package domain

// DuelRecord is a read-only progress comparison against another party.
type DuelRecord struct {
	ID               string `json:"id"`
	OpponentName     string `json:"opponent_name"`
	OpponentAvatar   string `json:"opponent_avatar"`
	Challenge        string `json:"challenge"`
	YourProgress     int    `json:"your_progress"`
	OpponentProgress int    `json:"opponent_progress"`
	Goal             int    `json:"goal"`
	TimeRemaining    string `json:"time_remaining"`
}

// Leading reports whether the viewer is strictly ahead of the opponent.
func (d DuelRecord) Leading() bool {
	return d.YourProgress > d.OpponentProgress
}

// Complete reports whether either side has reached the goal.
func (d DuelRecord) Complete() bool {
	return d.Goal > 0 && (d.YourProgress >= d.Goal || d.OpponentProgress >= d.Goal)
}

// Percent returns progress toward the goal as a value in [0, 100].
func (d DuelRecord) Percent(progress int) int {
	if d.Goal <= 0 || progress <= 0 {
		return 0
	}
	pct := progress * 100 / d.Goal
	if pct > 100 {
		return 100
	}
	return pct
}
