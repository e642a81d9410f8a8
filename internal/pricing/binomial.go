package pricing

import "math"

func exercisePayoff(price, strike float64, kind OptionKind) float64 {
	if kind == Call {
		return math.Max(price-strike, 0)
	}
	return math.Max(strike-price, 0)
}

// PriceBinomialTree prices an option on a Cox-Ross-Rubinstein lattice.
// Calibration uses the symmetric recombining choice d = 1/u, so the tree has
// steps+1 nodes per layer and a single rolling slice suffices for the
// backward induction. American exercise takes the max of continuation and
// immediate exercise at every node.
func PriceBinomialTree(spec OptionSpec) (float64, error) {
	dt := spec.Maturity / float64(spec.Steps)
	u := math.Exp(spec.Volatility * math.Sqrt(dt))
	d := 1 / u
	disc := math.Exp(-spec.Rate * dt)
	p := (math.Exp(spec.Rate*dt) - d) / (u - d)

	if p <= 0 || p >= 1 {
		return 0, &ArbitrageError{Prob: p}
	}

	// Terminal layer: node j has j up moves.
	values := make([]float64, spec.Steps+1)
	for j := 0; j <= spec.Steps; j++ {
		price := spec.Spot * math.Pow(u, float64(j)) * math.Pow(d, float64(spec.Steps-j))
		values[j] = exercisePayoff(price, spec.Strike, spec.Kind)
	}

	for step := spec.Steps - 1; step >= 0; step-- {
		for j := 0; j <= step; j++ {
			continuation := disc * (p*values[j+1] + (1-p)*values[j])
			if spec.Exercise == American {
				price := spec.Spot * math.Pow(u, float64(j)) * math.Pow(d, float64(step-j))
				values[j] = math.Max(continuation, exercisePayoff(price, spec.Strike, spec.Kind))
			} else {
				values[j] = continuation
			}
		}
	}

	return values[0], nil
}
