package environment

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/san-kum/propsetup/internal/dynamo"
)

var (
	ErrUnknownBody         = errors.New("environment: unknown body")
	ErrUnknownHandle       = errors.New("environment: unknown model handle")
	ErrUnsupportedModel    = errors.New("environment: unsupported model")
	ErrUnsupportedVariable = errors.New("environment: unsupported dependent variable")
)

// Atmosphere is an exponential density profile.
type Atmosphere struct {
	SurfaceDensity float64 `yaml:"surface_density"`
	ScaleHeight    float64 `yaml:"scale_height"`
	SpeedOfSound   float64 `yaml:"speed_of_sound"`
}

func (a *Atmosphere) Density(altitude float64) float64 {
	return a.SurfaceDensity * math.Exp(-altitude/a.ScaleHeight)
}

// Body holds the physical constants of one body. Inertia holds the principal
// moments of inertia.
type Body struct {
	Name                   string
	Mass                   float64
	GravitationalParameter float64
	Radius                 float64
	Inertia                [3]float64
	Atmosphere             *Atmosphere
}

// Bodies is a name-keyed body catalog, safe for concurrent use.
type Bodies struct {
	mu     sync.RWMutex
	byName map[string]Body
}

func NewBodies(bodies ...Body) (*Bodies, error) {
	b := &Bodies{byName: make(map[string]Body)}
	for _, body := range bodies {
		if err := b.Add(body); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *Bodies) Add(body Body) error {
	if body.Name == "" {
		return fmt.Errorf("%w: body without a name", dynamo.ErrInvalidArgument)
	}
	if body.GravitationalParameter < 0 || body.Mass < 0 || body.Radius < 0 {
		return fmt.Errorf("%w: body %s has a negative physical constant", dynamo.ErrInvalidArgument, body.Name)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.byName[body.Name]; ok {
		return fmt.Errorf("%w: body %s", dynamo.ErrDuplicateContribution, body.Name)
	}
	b.byName[body.Name] = body
	return nil
}

func (b *Bodies) Get(name string) (Body, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	body, ok := b.byName[name]
	if !ok {
		return Body{}, fmt.Errorf("%w: %s", ErrUnknownBody, name)
	}
	return body, nil
}

func (b *Bodies) Has(name string) bool {
	_, err := b.Get(name)
	return err == nil
}

func (b *Bodies) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.byName))
	for n := range b.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
