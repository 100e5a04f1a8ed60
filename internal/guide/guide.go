// Package guide is the query dispatcher: it owns the catalog, builds the
// routing graph on finalize and answers stop, bus and route queries.
package guide

import (
	"errors"
	"fmt"

	"github.com/transitgo/transit_core/internal/catalog"
	"github.com/transitgo/transit_core/internal/graph"
	"github.com/transitgo/transit_core/internal/models"
	"github.com/transitgo/transit_core/internal/routing"
)

// ErrNotFinalized is returned when a query arrives before Finalize
var ErrNotFinalized = errors.New("guide: catalog not finalized")

// Guide wires the catalog, graph and router together. Load it with
// AddStop/AddBus, call Finalize once, then query. Ownership is
// hierarchical: guide > catalog > graph > router
type Guide struct {
	settings graph.Settings
	catalog  *catalog.Catalog

	graph    *graph.Directed
	vertices *graph.VertexIndex
	router   *routing.Router
}

// New creates an empty guide with the given routing settings
func New(settings graph.Settings) *Guide {
	return &Guide{
		settings: settings,
		catalog:  catalog.New(),
	}
}

// AddStop registers a stop. Rejected after Finalize
func (t *Guide) AddStop(stop models.Stop) error {
	return t.catalog.AddStop(stop)
}

// AddBus registers a bus. Rejected after Finalize
func (t *Guide) AddBus(bus models.Bus) error {
	return t.catalog.AddBus(bus)
}

// Finalize validates the catalog, builds the graph and precomputes the
// routing tables. Must be called exactly once, before any query
func (t *Guide) Finalize() error {
	if err := t.catalog.Finalize(); err != nil {
		return fmt.Errorf("guide: finalize failed: %w", err)
	}

	g, vertices, err := graph.NewBuilder(t.catalog, t.settings).Build()
	if err != nil {
		return fmt.Errorf("guide: graph build failed: %w", err)
	}

	t.graph = g
	t.vertices = vertices
	t.router = routing.NewRouter(g)
	return nil
}

// Finalized reports whether the guide is ready for queries
func (t *Guide) Finalized() bool {
	return t.router != nil
}

// Settings returns the routing parameters
func (t *Guide) Settings() graph.Settings {
	return t.settings
}

// Catalog exposes the underlying catalog for persistence
func (t *Guide) Catalog() *catalog.Catalog {
	return t.catalog
}

// StopInfo returns the sorted bus names serving a stop. The second result
// is false when the stop is unknown
func (t *Guide) StopInfo(name string) ([]string, bool) {
	buses, ok := t.catalog.StopBuses(name)
	if !ok {
		return nil, false
	}
	if buses == nil {
		buses = []string{}
	}
	return buses, true
}

// BusInfo returns the statistics of a bus. The second result is false
// when the bus is unknown
func (t *Guide) BusInfo(name string) (models.BusStats, bool) {
	return t.catalog.BusStats(name)
}

// Route finds the fastest journey between two stops. The second result is
// false when either endpoint is unknown or no path exists
func (t *Guide) Route(from, to string) (models.RoutePlan, bool) {
	if !t.Finalized() {
		return models.RoutePlan{}, false
	}

	fromID, ok := t.vertices.ID(from)
	if !ok {
		return models.RoutePlan{}, false
	}
	toID, ok := t.vertices.ID(to)
	if !ok {
		return models.RoutePlan{}, false
	}

	info, ok := t.router.BuildRoute(fromID, toID)
	if !ok {
		return models.RoutePlan{}, false
	}
	defer t.router.ReleaseRoute(info.ID)

	// Every ride edge pays the wait penalty once, so the itinerary emits
	// one Wait segment per ride. Zero-cost edges are structural and are
	// skipped
	items := []models.PlanItem{}
	for k := 0; k < info.EdgeCount; k++ {
		edgeID, ok := t.router.RouteEdge(info.ID, k)
		if !ok {
			break
		}
		edge := t.graph.Edge(edgeID)
		if edge.Weight.Minutes == 0 {
			continue
		}
		items = append(items,
			models.PlanItem{
				Type:     models.ItemWait,
				StopName: t.vertices.Name(edge.From),
				Time:     float64(t.settings.BusWaitTime),
			},
			models.PlanItem{
				Type:      models.ItemBus,
				Bus:       edge.Weight.Bus,
				SpanCount: edge.Weight.Span,
				Time:      edge.Weight.Minutes - float64(t.settings.BusWaitTime),
			})
	}

	return models.RoutePlan{TotalTime: info.Weight.Minutes, Items: items}, true
}
