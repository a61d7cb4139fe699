package dynamo

import "errors"

// Shape violations: detected at construction or mutation time, never
// silently truncated or padded.
var (
	// ErrDimensionMismatch indicates a state vector whose length does not
	// match the size derived from the body list and state type.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and settings")

	// ErrDuplicateContribution indicates two settings propagating the same
	// (state type, body) pair.
	ErrDuplicateContribution = errors.New("dynamo: duplicate state contribution")

	// ErrNonMonotonic indicates a time sequence that is not strictly increasing.
	ErrNonMonotonic = errors.New("dynamo: times are not strictly increasing")

	// ErrInvalidRange indicates an empty or inverted index range.
	ErrInvalidRange = errors.New("dynamo: invalid range")

	// ErrEmptyCondition indicates a composite with no members.
	ErrEmptyCondition = errors.New("dynamo: empty composite")

	// ErrInvalidArgument indicates a missing or out-of-domain argument.
	ErrInvalidArgument = errors.New("dynamo: invalid argument")
)

// Policy ambiguity: a request that could only be honoured by silently
// falling back to a different behaviour.
var ErrPolicyAmbiguity = errors.New("dynamo: ambiguous policy")

var (
	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrModelsNotCreated indicates a derivative model was requested before
	// it was created from an environment.
	ErrModelsNotCreated = errors.New("dynamo: state derivative models not created")
)

// StepError wraps an error raised while stepping a propagation.
type StepError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *StepError) Error() string {
	return e.Wrapped.Error()
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
