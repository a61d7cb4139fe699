// Package environment is the body and model registry that propagation
// settings refer to by name.
//
// Settings never own model maps. A caller registers an [AccelerationMap],
// [TorqueMap] or [MassRateMap] with a [Registry] and keeps the returned
// [Handle]; the Create* methods resolve a handle plus body names into
// evaluable models. Unknown bodies are reported here as [ErrUnknownBody].
//
// The derivative models are reference implementations used by the driver:
//
//   - [Cowell]: point-mass gravity and constant thrust on a body-major
//     Cartesian state, each body relative to its central body
//   - [RigidBody]: quaternion kinematics and Euler's equations
//   - [MassRate]: constant mass flow
//   - [Composite]: several of the above side by side in one state vector
//
// [Cowell] also implements [dynamo.Hamiltonian] for energy drift checks.
package environment
