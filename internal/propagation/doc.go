// Package propagation describes how a system state is propagated.
//
// A description is one of:
//
//   - a single arc: [Translational], [Rotational], [Mass], or a [MultiType]
//     combining several of them under one termination condition
//   - a [MultiArc]: single arcs over consecutive time arcs, optionally
//     chained by transferring each arc's final state to the next
//   - a [HybridArc]: one single arc propagated alongside one multi-arc
//
// Settings refer to model maps through [environment.Handle] values and only
// build evaluable models on RecreateStateDerivativeModels. Every constructor
// and mutator checks the size invariants and fails instead of truncating or
// padding a state vector.
//
// Settings may be read concurrently once built. Mutators (ResetInitialStates,
// ResetTermination, ResetAndRecreateAccelerationModels and
// RecreateStateDerivativeModels) must be serialised by the caller and must not
// run while a driver is reading the same instance.
package propagation
