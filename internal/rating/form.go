package rating

// Form is the recency-weighted average of a sequence ordered oldest to
// newest:
//
//	form = Σ rᵢ·(1−c)·c^(n−1−i) / (1 − cⁿ)
//
// The weights sum to one, the newest value weighs (1−c)/(1−cⁿ) and older
// values shrink geometrically. An empty sequence has form 0.
func Form(values []float64, decay float64) float64 {
	forms := Forms(values, decay)
	if len(forms) == 0 {
		return 0
	}
	return forms[len(forms)-1]
}

// Forms returns the form of every prefix of values, so forms[k] is the
// form after value k.
func Forms(values []float64, decay float64) []float64 {
	forms := make([]float64, len(values))
	var sum, cn float64 = 0, 1
	for k, v := range values {
		sum = decay*sum + v
		cn *= decay
		forms[k] = sum * (1 - decay) / (1 - cn)
	}
	return forms
}
