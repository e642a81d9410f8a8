package pricing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mcSpec(t *testing.T, simulations, steps int, seed uint64) MonteCarloSpec {
	t.Helper()
	spec, err := NewMonteCarloSpec(100, 1, 0.05, 0.2, simulations, steps, &seed)
	require.NoError(t, err)
	return spec
}

func TestPriceMonteCarlo_DeterministicForFixedSeed(t *testing.T) {
	spec := mcSpec(t, 5000, 4, 123)
	payoff, err := TerminalCallPayoff(100)
	require.NoError(t, err)

	first, err := PriceMonteCarlo(spec, payoff)
	require.NoError(t, err)
	second, err := PriceMonteCarlo(spec, payoff)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same seed must give bit-identical prices")
}

func TestPriceMonteCarlo_UnseededCallsDiffer(t *testing.T) {
	spec, err := NewMonteCarloSpec(100, 1, 0.05, 0.2, 2000, 1, nil)
	require.NoError(t, err)
	payoff, err := TerminalCallPayoff(100)
	require.NoError(t, err)

	first, err := PriceMonteCarlo(spec, payoff)
	require.NoError(t, err)
	second, err := PriceMonteCarlo(spec, payoff)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestPriceMonteCarlo_PathShape(t *testing.T) {
	const steps = 7
	spec := mcSpec(t, 50, steps, 9)

	probe := func(path []float64) (float64, error) {
		require.Len(t, path, steps+1)
		require.Equal(t, spec.Spot, path[0])
		for _, p := range path {
			require.Greater(t, p, 0.0, "GBM prices stay positive")
		}
		return 0, nil
	}

	_, err := PriceMonteCarlo(spec, probe)
	require.NoError(t, err)
}

func TestPriceMonteCarlo_NonNegativeForTerminalPayoffs(t *testing.T) {
	spec := mcSpec(t, 2000, 2, 77)
	for _, kind := range []OptionKind{Call, Put} {
		price, err := PriceEuropean(spec, 95, kind)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, price, 0.0)
	}
}

func TestPriceMonteCarlo_PutCallParity(t *testing.T) {
	spec := mcSpec(t, 100000, 1, 2024)

	call, err := PriceEuropean(spec, 100, Call)
	require.NoError(t, err)
	put, err := PriceEuropean(spec, 100, Put)
	require.NoError(t, err)

	parity := spec.Spot - 100*math.Exp(-spec.Rate*spec.Maturity)
	assert.InDelta(t, parity, call-put, 0.3)
}

func TestPriceMonteCarlo_PayoffFailureAborts(t *testing.T) {
	spec := mcSpec(t, 100, 1, 5)

	boom := errors.New("bad path")
	calls := 0
	payoff := func(path []float64) (float64, error) {
		if calls == 3 {
			return 0, boom
		}
		calls++
		return 1, nil
	}

	_, err := PriceMonteCarlo(spec, payoff)
	var perr *PayoffError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 3, perr.Trial)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls, "no further trials after the failure")
}

func TestPriceMonteCarloStats_MatchesPlainPrice(t *testing.T) {
	spec := mcSpec(t, 20000, 1, 31)
	payoff, err := TerminalCallPayoff(100)
	require.NoError(t, err)

	plain, err := PriceMonteCarlo(spec, payoff)
	require.NoError(t, err)
	res, err := PriceMonteCarloStats(spec, payoff)
	require.NoError(t, err)

	assert.InDelta(t, plain, res.Price, 1e-9)
	assert.Greater(t, res.StdError, 0.0)
	// ATM call payoff stddev is of order spot*vol, so the standard error at
	// 20k trials should sit well under one price unit.
	assert.Less(t, res.StdError, 1.0)
}

func TestPriceMonteCarloParallel_Deterministic(t *testing.T) {
	spec := mcSpec(t, 10000, 2, 99)
	payoff, err := TerminalCallPayoff(100)
	require.NoError(t, err)

	first, err := PriceMonteCarloParallel(spec, payoff, 4)
	require.NoError(t, err)
	second, err := PriceMonteCarloParallel(spec, payoff, 4)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	sequential, err := PriceMonteCarlo(spec, payoff)
	require.NoError(t, err)
	// Different partitioning, same estimator: agreement within a few
	// standard errors, not bit-identical.
	assert.InDelta(t, sequential, first, 1.0)
}

func TestPriceMonteCarloParallel_PayoffFailureAborts(t *testing.T) {
	spec := mcSpec(t, 1000, 1, 11)
	payoff := func(path []float64) (float64, error) {
		return 0, errors.New("always fails")
	}

	_, err := PriceMonteCarloParallel(spec, payoff, 3)
	var perr *PayoffError
	require.ErrorAs(t, err, &perr)
}

func TestPriceMonteCarlo_PathDependentPayoff(t *testing.T) {
	// Average-price asian call, in the engine's general contract.
	spec := mcSpec(t, 5000, 12, 8)
	asian := func(path []float64) (float64, error) {
		sum := 0.0
		for _, p := range path {
			sum += p
		}
		return math.Max(sum/float64(len(path))-100, 0), nil
	}

	asianPrice, err := PriceMonteCarlo(spec, asian)
	require.NoError(t, err)
	vanilla, err := PriceEuropean(spec, 100, Call)
	require.NoError(t, err)

	assert.Greater(t, asianPrice, 0.0)
	// Averaging damps volatility, so the asian call is worth less than the
	// vanilla call on the same market.
	assert.Less(t, asianPrice, vanilla)
}

func TestPriceEuropean_RejectsBadKind(t *testing.T) {
	spec := mcSpec(t, 100, 1, 1)
	_, err := PriceEuropean(spec, 100, "digital")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}
