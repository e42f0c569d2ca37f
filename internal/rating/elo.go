package rating

import "math"

// Expected is the logistic expected score of a side rated elo against a
// side rated opponent.
func Expected(elo, opponent float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (opponent-elo)/400))
}

// Update moves elo towards the observed score.
func Update(elo, expected, score, k float64) float64 {
	return elo + k*(score-expected)
}
