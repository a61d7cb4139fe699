// Package dynamo provides the state primitives shared by the propagation
// settings, the reference models and the reference driver.
//
//   - [State]: flat state vector, body-major for multi-body problems
//   - [System]: state derivative model (dX/dt = f(X, t))
//   - [Integrator]: numerical one-step method
//
// The error taxonomy of the settings layer lives here as well, so that
// callers can test any failure with [errors.Is] regardless of which package
// produced it:
//
//	if errors.Is(err, dynamo.ErrDimensionMismatch) {
//	    // initial state does not fit the declared bodies
//	}
package dynamo
