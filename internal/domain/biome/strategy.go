package biome

import "fmt"

// Strategy governs the terminal depletion phase of harvesting. The set is
// closed: anything outside it is rejected at assignment time.
type Strategy string

const (
	// StrategyPreservation only depletes once the biome is fully skimmed,
	// and then at most a quarter of the floor tiles.
	StrategyPreservation Strategy = "preservation"
	// StrategyRealistic depletes on every third harvest call, capped at three
	// tiles.
	StrategyRealistic Strategy = "realistic"
	// StrategyAbusive depletes on every call.
	StrategyAbusive Strategy = "abusive"
)

// Valid reports whether s is a member of the closed strategy set.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyPreservation, StrategyRealistic, StrategyAbusive:
		return true
	}
	return false
}

// ParseStrategy converts free-form caller input into a Strategy.
func ParseStrategy(raw string) (Strategy, error) {
	s := Strategy(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unrecognized harvest strategy %q", raw)
	}
	return s, nil
}
