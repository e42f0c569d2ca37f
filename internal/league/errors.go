package league

import "errors"

var (
	ErrInvalidID          = errors.New("invalid id")
	ErrInvalidPosition    = errors.New("invalid position")
	ErrUnknownElementType = errors.New("unknown element type")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")

	// ErrLineage means a history row names an opponent that did not play
	// in the referenced match.
	ErrLineage = errors.New("lineage inconsistency")
	// ErrMissingMatch means a player row references a match absent from
	// the team's history.
	ErrMissingMatch = errors.New("missing match reference")
	// ErrSquadValue means the first owned round of a squad player has no
	// value in the player's history.
	ErrSquadValue = errors.New("unresolvable squad value round")
	// ErrInsufficientData means a model cannot be fit from the rows given.
	ErrInsufficientData = errors.New("insufficient data")
)
