// Package pricing implements the two numerical option pricing engines: a
// Monte Carlo simulator of geometric Brownian motion paths with pluggable
// payoffs, and a Cox-Ross-Rubinstein binomial lattice supporting european
// and american exercise. Specifications are validated entirely at
// construction and treated as read-only afterwards.
package pricing

import "fmt"

type OptionKind string

const (
	Call OptionKind = "call"
	Put  OptionKind = "put"
)

// ParseOptionKind maps a raw string onto an OptionKind.
func ParseOptionKind(s string) (OptionKind, error) {
	switch OptionKind(s) {
	case Call, Put:
		return OptionKind(s), nil
	}
	return "", &ValidationError{Field: "option kind", Reason: fmt.Sprintf("%q is not one of %q, %q", s, Call, Put)}
}

type ExerciseStyle string

const (
	European ExerciseStyle = "european"
	American ExerciseStyle = "american"
)

// ParseExerciseStyle maps a raw string onto an ExerciseStyle.
func ParseExerciseStyle(s string) (ExerciseStyle, error) {
	switch ExerciseStyle(s) {
	case European, American:
		return ExerciseStyle(s), nil
	}
	return "", &ValidationError{Field: "exercise style", Reason: fmt.Sprintf("%q is not one of %q, %q", s, European, American)}
}

// OptionSpec carries the market and contract parameters consumed by the
// binomial lattice engine. Construct it with NewOptionSpec; a spec obtained
// any other way has not been validated.
type OptionSpec struct {
	Spot       float64
	Strike     float64
	Maturity   float64 // years
	Rate       float64 // annualized, continuously compounded
	Volatility float64 // annualized
	Steps      int
	Kind       OptionKind
	Exercise   ExerciseStyle
}

func NewOptionSpec(spot, strike, maturity, rate, volatility float64, steps int, kind OptionKind, exercise ExerciseStyle) (OptionSpec, error) {
	switch {
	case spot <= 0:
		return OptionSpec{}, errPositive("spot")
	case strike <= 0:
		return OptionSpec{}, errPositive("strike")
	case maturity <= 0:
		return OptionSpec{}, errPositive("maturity")
	case volatility <= 0:
		return OptionSpec{}, errPositive("volatility")
	case steps < 1:
		return OptionSpec{}, errPositive("steps")
	}
	if _, err := ParseOptionKind(string(kind)); err != nil {
		return OptionSpec{}, err
	}
	if _, err := ParseExerciseStyle(string(exercise)); err != nil {
		return OptionSpec{}, err
	}
	return OptionSpec{
		Spot:       spot,
		Strike:     strike,
		Maturity:   maturity,
		Rate:       rate,
		Volatility: volatility,
		Steps:      steps,
		Kind:       kind,
		Exercise:   exercise,
	}, nil
}

// MonteCarloSpec carries the simulation parameters consumed by the Monte
// Carlo engine. A nil Seed draws fresh entropy on every pricing call; a
// non-nil Seed makes repeated calls bit-identical.
type MonteCarloSpec struct {
	Spot        float64
	Maturity    float64
	Rate        float64
	Volatility  float64
	Simulations int
	Steps       int
	Seed        *uint64
}

func NewMonteCarloSpec(spot, maturity, rate, volatility float64, simulations, steps int, seed *uint64) (MonteCarloSpec, error) {
	switch {
	case spot <= 0:
		return MonteCarloSpec{}, errPositive("spot")
	case maturity <= 0:
		return MonteCarloSpec{}, errPositive("maturity")
	case volatility <= 0:
		return MonteCarloSpec{}, errPositive("volatility")
	case simulations < 1:
		return MonteCarloSpec{}, errPositive("simulations")
	case steps < 1:
		return MonteCarloSpec{}, errPositive("steps")
	}
	spec := MonteCarloSpec{
		Spot:        spot,
		Maturity:    maturity,
		Rate:        rate,
		Volatility:  volatility,
		Simulations: simulations,
		Steps:       steps,
	}
	if seed != nil {
		s := *seed
		spec.Seed = &s
	}
	return spec, nil
}
