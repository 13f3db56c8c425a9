package domain

type titleTier struct {
	minLevel int
	title    string
}

// tiers are ordered by descending minimum level.
var tiers = []titleTier{
	{50, "Legend"},
	{35, "Elite Athlete"},
	{20, "Gym Veteran"},
	{10, "Iron Regular"},
	{5, "Rookie Lifter"},
	{1, "Beginner"},
}

// TitleForLevel maps a level to its display title.
func TitleForLevel(level int) string {
	for _, tier := range tiers {
		if level >= tier.minLevel {
			return tier.title
		}
	}
	return tiers[len(tiers)-1].title
}
