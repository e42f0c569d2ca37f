package rating

import (
	"fmt"

	"github.com/utakatalp/fantasy-forecast/internal/league"
)

// Options tunes the rating engine.
type Options struct {
	// K is the Elo update factor.
	K float64
	// DefaultElo rates teams missing from the initial table.
	DefaultElo      float64
	TeamFormDecay   float64
	PlayerFormDecay float64
}

func DefaultOptions() Options {
	return Options{
		K:               30,
		DefaultElo:      1000,
		TeamFormDecay:   0.6,
		PlayerFormDecay: 0.6,
	}
}

func (o Options) Validate() error {
	if o.K <= 0 {
		return fmt.Errorf("%w: elo K %v", league.ErrInvalidInput, o.K)
	}
	for name, c := range map[string]float64{"team form decay": o.TeamFormDecay, "player form decay": o.PlayerFormDecay} {
		if c < 0 || c >= 1 {
			return fmt.Errorf("%w: %s %v outside [0,1)", league.ErrInvalidInput, name, c)
		}
	}
	return nil
}

// InitialElo returns the starting rating for a team name.
func (o Options) InitialElo(table map[string]float64, teamName string) float64 {
	if elo, ok := table[teamName]; ok {
		return elo
	}
	return o.DefaultElo
}
