package pricing

import "fmt"

// ValidationError reports a specification field that violates its domain
// constraint. It is returned at construction time, never from inside a
// pricing loop.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ArbitrageError reports that the calibrated risk-neutral probability fell
// outside (0, 1), meaning the rate/volatility/step combination admits no
// arbitrage-free lattice. Callers should adjust inputs, typically by
// increasing the step count.
type ArbitrageError struct {
	Prob float64
}

func (e *ArbitrageError) Error() string {
	return fmt.Sprintf("risk-neutral probability %.6f outside (0, 1): rate/volatility/steps are inconsistent with a no-arbitrage lattice", e.Prob)
}

// PayoffError reports that a caller-supplied payoff failed while evaluating
// a simulated path. The pricing call is aborted with no partial aggregate.
type PayoffError struct {
	Trial int
	Err   error
}

func (e *PayoffError) Error() string {
	return fmt.Sprintf("payoff evaluation failed on trial %d: %v", e.Trial, e.Err)
}

func (e *PayoffError) Unwrap() error {
	return e.Err
}

func errPositive(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "must be positive"}
}
