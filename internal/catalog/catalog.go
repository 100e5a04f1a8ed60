package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/transitgo/transit_core/internal/geo"
	"github.com/transitgo/transit_core/internal/models"
)

var (
	// ErrFinalized is returned when an Add call arrives after Finalize
	ErrFinalized = errors.New("catalog: already finalized")
	// ErrDuplicate is returned when a stop or bus name is added twice
	ErrDuplicate = errors.New("catalog: duplicate name")
	// ErrUnknownStop is returned when a bus route or a distance table
	// references a stop that was never declared
	ErrUnknownStop = errors.New("catalog: unknown stop")
)

// Catalog holds all stops and buses of the network plus the derived
// stop-to-bus index. Insert-once: entries are added during load and
// become immutable after Finalize
type Catalog struct {
	stops     map[string]*models.Stop
	buses     map[string]*models.Bus
	stopBuses map[string][]string

	// insertion orders, kept so vertex numbering and bus iteration
	// stay deterministic across runs
	stopOrder []string
	busOrder  []string

	finalized bool
}

// New creates an empty catalog
func New() *Catalog {
	return &Catalog{
		stops:     make(map[string]*models.Stop),
		buses:     make(map[string]*models.Bus),
		stopBuses: make(map[string][]string),
	}
}

// AddStop registers a stop. The distances map is copied
func (c *Catalog) AddStop(stop models.Stop) error {
	if c.finalized {
		return ErrFinalized
	}
	if _, ok := c.stops[stop.Name]; ok {
		return fmt.Errorf("%w: stop %q", ErrDuplicate, stop.Name)
	}

	distances := make(map[string]int, len(stop.Distances))
	for name, meters := range stop.Distances {
		if meters < 0 {
			return fmt.Errorf("catalog: negative distance %d from %q to %q", meters, stop.Name, name)
		}
		distances[name] = meters
	}
	stop.Distances = distances

	c.stops[stop.Name] = &stop
	c.stopOrder = append(c.stopOrder, stop.Name)
	return nil
}

// AddBus registers a bus line. The stop sequence must have at least two entries
func (c *Catalog) AddBus(bus models.Bus) error {
	if c.finalized {
		return ErrFinalized
	}
	if _, ok := c.buses[bus.Name]; ok {
		return fmt.Errorf("%w: bus %q", ErrDuplicate, bus.Name)
	}
	if bus.Kind != models.KindStraight && bus.Kind != models.KindCircular {
		return fmt.Errorf("catalog: bus %q has unknown kind %q", bus.Name, bus.Kind)
	}
	if len(bus.Stops) < 2 {
		return fmt.Errorf("catalog: bus %q has fewer than 2 stops", bus.Name)
	}

	bus.Stops = append([]string(nil), bus.Stops...)
	c.buses[bus.Name] = &bus
	c.busOrder = append(c.busOrder, bus.Name)
	return nil
}

// Finalize validates cross references, symmetrizes the distance tables and
// builds the stop-to-bus index. The catalog is immutable afterwards
func (c *Catalog) Finalize() error {
	if c.finalized {
		return ErrFinalized
	}

	// Every name a bus or a distance table mentions must be declared
	for _, name := range c.busOrder {
		for _, stopName := range c.buses[name].Stops {
			if _, ok := c.stops[stopName]; !ok {
				return fmt.Errorf("%w: %q in route of bus %q", ErrUnknownStop, stopName, name)
			}
		}
	}
	for _, name := range c.stopOrder {
		for neighbor := range c.stops[name].Distances {
			if _, ok := c.stops[neighbor]; !ok {
				return fmt.Errorf("%w: %q in distances of stop %q", ErrUnknownStop, neighbor, name)
			}
		}
	}

	// Symmetrize: if A declares a distance to B and B has no entry back,
	// B acquires the same value. Existing entries stay untouched since
	// roads may legitimately be asymmetric
	for _, name := range c.stopOrder {
		for neighbor, meters := range c.stops[name].Distances {
			back := c.stops[neighbor]
			if _, ok := back.Distances[name]; !ok {
				back.Distances[name] = meters
			}
		}
	}

	// Stop-to-bus index over every bus's route, sorted per stop
	seen := make(map[string]map[string]bool)
	for _, name := range c.busOrder {
		for _, stopName := range c.buses[name].Stops {
			if seen[stopName] == nil {
				seen[stopName] = make(map[string]bool)
			}
			if !seen[stopName][name] {
				seen[stopName][name] = true
				c.stopBuses[stopName] = append(c.stopBuses[stopName], name)
			}
		}
	}
	for stopName := range c.stopBuses {
		sort.Strings(c.stopBuses[stopName])
	}

	c.finalized = true
	return nil
}

// Stop returns a stop by name
func (c *Catalog) Stop(name string) (*models.Stop, bool) {
	stop, ok := c.stops[name]
	return stop, ok
}

// Bus returns a bus by name
func (c *Catalog) Bus(name string) (*models.Bus, bool) {
	bus, ok := c.buses[name]
	return bus, ok
}

// StopNames returns all stop names in insertion order
func (c *Catalog) StopNames() []string {
	return c.stopOrder
}

// BusNames returns all bus names in insertion order
func (c *Catalog) BusNames() []string {
	return c.busOrder
}

// StopBuses returns the sorted bus names serving a stop. The second result
// is false when the stop is unknown
func (c *Catalog) StopBuses(name string) ([]string, bool) {
	if _, ok := c.stops[name]; !ok {
		return nil, false
	}
	return c.stopBuses[name], true
}

// GeoDistance is the great-circle distance in meters between two stops
func (c *Catalog) GeoDistance(from, to *models.Stop) float64 {
	return geo.Distance(from.Lat, from.Lon, to.Lat, to.Lon)
}

// RoadDistance is the measured road distance in meters from one stop to
// another. Falls back to the reverse entry, then to zero for a self pair,
// then to the great-circle distance
func (c *Catalog) RoadDistance(from, to *models.Stop) float64 {
	if meters, ok := from.Distances[to.Name]; ok {
		return float64(meters)
	}
	if meters, ok := to.Distances[from.Name]; ok {
		return float64(meters)
	}
	if from.Name == to.Name {
		return 0
	}
	return c.GeoDistance(from, to)
}

// BusStats computes the statistics for a bus query. The second result is
// false when the bus is unknown
func (c *Catalog) BusStats(name string) (models.BusStats, bool) {
	bus, ok := c.buses[name]
	if !ok {
		return models.BusStats{}, false
	}

	unique := make(map[string]bool, len(bus.Stops))
	for _, stopName := range bus.Stops {
		unique[stopName] = true
	}

	var routeLength, geoLength float64
	for i := 1; i < len(bus.Stops); i++ {
		prev := c.stops[bus.Stops[i-1]]
		cur := c.stops[bus.Stops[i]]
		routeLength += c.RoadDistance(prev, cur)
		geoLength += c.GeoDistance(prev, cur)
	}

	stopCount := len(bus.Stops)
	if bus.Kind == models.KindStraight {
		// The return leg sums road distances in reverse order; roads can
		// be asymmetric so this is not simply 2x the forward leg
		geoLength *= 2
		stopCount = stopCount*2 - 1
		for i := len(bus.Stops) - 1; i > 0; i-- {
			prev := c.stops[bus.Stops[i]]
			cur := c.stops[bus.Stops[i-1]]
			routeLength += c.RoadDistance(prev, cur)
		}
	}

	return models.BusStats{
		StopCount:       stopCount,
		UniqueStopCount: len(unique),
		RouteLength:     routeLength,
		Curvature:       routeLength / geoLength,
	}, true
}
