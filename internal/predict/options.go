package predict

// Options holds the fitting filters and prediction thresholds.
type Options struct {
	// MinHistory is the number of history rows a player needs for the fit
	// and for the full model.
	MinHistory int
	// MinMeanPoints filters fringe players out of the fit.
	MinMeanPoints float64
	// WarmupRounds skips the first rows of each player in the fit.
	WarmupRounds int
	// LowAverage and RecentRounds: players averaging less than LowAverage
	// over their last RecentRounds rows get their form as a flat prediction.
	LowAverage   float64
	RecentRounds int
	// MinAvailability is the chance of playing below which a player is
	// predicted zero.
	MinAvailability float64
}

func DefaultOptions() Options {
	return Options{
		MinHistory:      3,
		MinMeanPoints:   2,
		WarmupRounds:    3,
		LowAverage:      2.0,
		RecentRounds:    4,
		MinAvailability: 0.25,
	}
}
