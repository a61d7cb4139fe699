package environment

import "github.com/san-kum/propsetup/internal/dynamo"

// MassRateModels are the summed constant mass rates of a set of bodies.
type MassRateModels struct {
	Bodies []string
	rates  []float64
}

func (r *Registry) CreateMassRateModels(h Handle, bodies []string) (*MassRateModels, error) {
	m, err := r.MassRates(h)
	if err != nil {
		return nil, err
	}
	models := &MassRateModels{
		Bodies: append([]string(nil), bodies...),
		rates:  make([]float64, len(bodies)),
	}
	index := make(map[string]int, len(bodies))
	for i, name := range bodies {
		if _, err := r.bodies.Get(name); err != nil {
			return nil, err
		}
		index[name] = i
	}
	for _, name := range sortedKeys(m) {
		if _, err := r.bodies.Get(name); err != nil {
			return nil, err
		}
		i, ok := index[name]
		if !ok {
			continue
		}
		for _, s := range m[name] {
			models.rates[i] += s.Rate
		}
	}
	return models, nil
}

type MassRate struct {
	models *MassRateModels
}

func NewMassRate(m *MassRateModels) *MassRate { return &MassRate{models: m} }

func (mr *MassRate) StateDim() int { return len(mr.models.Bodies) }

func (mr *MassRate) Derive(x dynamo.State, _ float64) dynamo.State {
	dx := make(dynamo.State, len(x))
	copy(dx, mr.models.rates)
	return dx
}
