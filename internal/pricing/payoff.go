package pricing

import "math"

// PathPayoff maps a simulated price path (length steps+1, starting at spot)
// to a scalar payoff. Implementations must be pure: no internal state, same
// result for the same path. A returned error aborts the pricing call.
type PathPayoff func(path []float64) (float64, error)

// TerminalCallPayoff builds a payoff that reads only the terminal price:
// max(S_T - strike, 0).
func TerminalCallPayoff(strike float64) (PathPayoff, error) {
	if strike <= 0 {
		return nil, errPositive("strike")
	}
	return func(path []float64) (float64, error) {
		return math.Max(path[len(path)-1]-strike, 0), nil
	}, nil
}

// TerminalPutPayoff builds a payoff that reads only the terminal price:
// max(strike - S_T, 0).
func TerminalPutPayoff(strike float64) (PathPayoff, error) {
	if strike <= 0 {
		return nil, errPositive("strike")
	}
	return func(path []float64) (float64, error) {
		return math.Max(strike-path[len(path)-1], 0), nil
	}, nil
}

// PriceEuropean prices a vanilla european option by Monte Carlo, selecting
// the terminal call or put payoff for the given strike.
func PriceEuropean(spec MonteCarloSpec, strike float64, kind OptionKind) (float64, error) {
	var (
		payoff PathPayoff
		err    error
	)
	switch kind {
	case Put:
		payoff, err = TerminalPutPayoff(strike)
	case Call:
		payoff, err = TerminalCallPayoff(strike)
	default:
		_, err = ParseOptionKind(string(kind))
	}
	if err != nil {
		return 0, err
	}
	return PriceMonteCarlo(spec, payoff)
}
