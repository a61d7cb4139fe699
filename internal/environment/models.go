package environment

import (
	"fmt"
	"sort"
	"sync"
)

type AccelerationType int

const (
	PointMassGravity AccelerationType = 0
	ConstantThrust   AccelerationType = 1
)

func (a AccelerationType) String() string {
	switch a {
	case PointMassGravity:
		return "point_mass_gravity"
	case ConstantThrust:
		return "constant_thrust"
	default:
		return fmt.Sprintf("AccelerationType(%d)", int(a))
	}
}

// AccelerationSettings describes one acceleration exerted on a body. Vector
// is the thrust acceleration for ConstantThrust and unused otherwise.
type AccelerationSettings struct {
	Type   AccelerationType
	Vector [3]float64
}

func PointMass() AccelerationSettings {
	return AccelerationSettings{Type: PointMassGravity}
}

func Thrust(acc [3]float64) AccelerationSettings {
	return AccelerationSettings{Type: ConstantThrust, Vector: acc}
}

// AccelerationMap is keyed by the body undergoing the acceleration, then by
// the body exerting it.
type AccelerationMap map[string]map[string][]AccelerationSettings

func (m AccelerationMap) clone() AccelerationMap {
	out := make(AccelerationMap, len(m))
	for on, by := range m {
		inner := make(map[string][]AccelerationSettings, len(by))
		for ex, list := range by {
			inner[ex] = append([]AccelerationSettings(nil), list...)
		}
		out[on] = inner
	}
	return out
}

// TorqueSettings is a constant body-frame torque.
type TorqueSettings struct {
	Torque [3]float64
}

// TorqueMap is keyed by the body undergoing the torque, then by the body
// exerting it.
type TorqueMap map[string]map[string][]TorqueSettings

func (m TorqueMap) clone() TorqueMap {
	out := make(TorqueMap, len(m))
	for on, by := range m {
		inner := make(map[string][]TorqueSettings, len(by))
		for ex, list := range by {
			inner[ex] = append([]TorqueSettings(nil), list...)
		}
		out[on] = inner
	}
	return out
}

// MassRateSettings is a constant mass flow, negative for depletion.
type MassRateSettings struct {
	Rate float64
}

// MassRateMap is keyed by the body whose mass changes.
type MassRateMap map[string][]MassRateSettings

func (m MassRateMap) clone() MassRateMap {
	out := make(MassRateMap, len(m))
	for b, list := range m {
		out[b] = append([]MassRateSettings(nil), list...)
	}
	return out
}

type modelKind uint8

const (
	accelerationKind modelKind = iota + 1
	torqueKind
	massRateKind
)

// Handle refers to a model map registered with a [Registry]. The zero
// Handle refers to nothing.
type Handle struct {
	kind  modelKind
	index int
}

func (h Handle) IsZero() bool { return h.kind == 0 }

func (h Handle) String() string {
	switch h.kind {
	case accelerationKind:
		return fmt.Sprintf("accelerations#%d", h.index)
	case torqueKind:
		return fmt.Sprintf("torques#%d", h.index)
	case massRateKind:
		return fmt.Sprintf("mass_rates#%d", h.index)
	default:
		return "none"
	}
}

// Registry owns the bodies and every model map settings refer to. It is
// safe for concurrent use.
type Registry struct {
	bodies *Bodies

	mu            sync.RWMutex
	accelerations []AccelerationMap
	torques       []TorqueMap
	massRates     []MassRateMap
}

func NewRegistry(bodies *Bodies) *Registry {
	if bodies == nil {
		bodies, _ = NewBodies()
	}
	return &Registry{bodies: bodies}
}

func (r *Registry) Bodies() *Bodies { return r.bodies }

// AddAccelerations stores a copy of m and returns its handle.
func (r *Registry) AddAccelerations(m AccelerationMap) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accelerations = append(r.accelerations, m.clone())
	return Handle{kind: accelerationKind, index: len(r.accelerations)}
}

func (r *Registry) AddTorques(m TorqueMap) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.torques = append(r.torques, m.clone())
	return Handle{kind: torqueKind, index: len(r.torques)}
}

func (r *Registry) AddMassRates(m MassRateMap) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.massRates = append(r.massRates, m.clone())
	return Handle{kind: massRateKind, index: len(r.massRates)}
}

// Accelerations returns a copy of the map behind h.
func (r *Registry) Accelerations(h Handle) (AccelerationMap, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h.kind != accelerationKind || h.index < 1 || h.index > len(r.accelerations) {
		return nil, fmt.Errorf("%w: %s is not an acceleration map", ErrUnknownHandle, h)
	}
	return r.accelerations[h.index-1].clone(), nil
}

func (r *Registry) Torques(h Handle) (TorqueMap, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h.kind != torqueKind || h.index < 1 || h.index > len(r.torques) {
		return nil, fmt.Errorf("%w: %s is not a torque map", ErrUnknownHandle, h)
	}
	return r.torques[h.index-1].clone(), nil
}

func (r *Registry) MassRates(h Handle) (MassRateMap, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h.kind != massRateKind || h.index < 1 || h.index > len(r.massRates) {
		return nil, fmt.Errorf("%w: %s is not a mass rate map", ErrUnknownHandle, h)
	}
	return r.massRates[h.index-1].clone(), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
