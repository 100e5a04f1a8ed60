package graph

import (
	"fmt"
	"log"

	"github.com/transitgo/transit_core/internal/catalog"
	"github.com/transitgo/transit_core/internal/models"
)

// Settings are the routing parameters provided once at construction
type Settings struct {
	// BusWaitTime is the fixed penalty in minutes paid at every boarding
	BusWaitTime int
	// BusVelocity is the bus speed in kilometers per hour
	BusVelocity float64
}

// Validate checks the parameter ranges
func (s Settings) Validate() error {
	if s.BusWaitTime < 0 {
		return fmt.Errorf("graph: bus_wait_time must be non-negative, got %d", s.BusWaitTime)
	}
	if s.BusVelocity <= 0 {
		return fmt.Errorf("graph: bus_velocity must be positive, got %g", s.BusVelocity)
	}
	return nil
}

// VertexIndex maps stop names to dense vertex ids and back.
// The assignment follows the catalog's stop enumeration order
type VertexIndex struct {
	byName map[string]VertexID
	names  []string
}

// ID resolves a stop name to its vertex id
func (idx *VertexIndex) ID(name string) (VertexID, bool) {
	id, ok := idx.byName[name]
	return id, ok
}

// Name resolves a vertex id back to its stop name
func (idx *VertexIndex) Name(id VertexID) string {
	return idx.names[id]
}

// Count returns the number of vertices
func (idx *VertexIndex) Count() int {
	return len(idx.names)
}

// Builder materializes the catalog as a directed weighted graph: stops
// become vertices, "board bus B and ride k consecutive stops" becomes an
// edge whose cost is the wait penalty plus the travel minutes
type Builder struct {
	catalog  *catalog.Catalog
	settings Settings
}

// NewBuilder creates a graph builder over a finalized catalog
func NewBuilder(c *catalog.Catalog, settings Settings) *Builder {
	return &Builder{catalog: c, settings: settings}
}

// Build constructs the graph and the vertex index
func (b *Builder) Build() (*Directed, *VertexIndex, error) {
	if err := b.settings.Validate(); err != nil {
		return nil, nil, err
	}

	names := b.catalog.StopNames()
	index := &VertexIndex{
		byName: make(map[string]VertexID, len(names)),
		names:  append([]string(nil), names...),
	}
	for id, name := range index.names {
		index.byName[name] = id
	}

	g := NewDirected(len(names))

	// One zero-cost self-edge per vertex. Structural only: the router skips
	// edges into already settled vertices, so a self-edge never lands on a
	// path or shows up in a reconstructed itinerary
	for id := range index.names {
		g.AddEdge(Edge{From: id, To: id})
	}

	for _, busName := range b.catalog.BusNames() {
		bus, _ := b.catalog.Bus(busName)
		b.emitRideEdges(g, index, bus, bus.Stops)
		if bus.Kind == models.KindStraight {
			reversed := make([]string, len(bus.Stops))
			for i, stopName := range bus.Stops {
				reversed[len(bus.Stops)-1-i] = stopName
			}
			b.emitRideEdges(g, index, bus, reversed)
		}
	}

	log.Printf("Built routing graph: %d vertices, %d edges", g.VertexCount(), g.EdgeCount())
	return g, index, nil
}

// emitRideEdges adds one edge per ordered position pair (i, j), i < j, of
// the given leg. Straight buses call this once per direction, so no edge
// ever rides through the terminus
func (b *Builder) emitRideEdges(g *Directed, index *VertexIndex, bus *models.Bus, leg []string) {
	// meters per minute
	velocity := b.settings.BusVelocity * 1000 / 60

	for i := 0; i < len(leg); i++ {
		from, _ := index.ID(leg[i])
		minutes := 0.0
		for j := i + 1; j < len(leg); j++ {
			prev, _ := b.catalog.Stop(leg[j-1])
			cur, _ := b.catalog.Stop(leg[j])
			minutes += b.catalog.RoadDistance(prev, cur) / velocity

			to, _ := index.ID(leg[j])
			if minutes == 0 {
				g.AddEdge(Edge{From: from, To: to})
				continue
			}
			g.AddEdge(Edge{
				From: from,
				To:   to,
				Weight: RideWeight{
					Minutes: minutes + float64(b.settings.BusWaitTime),
					Bus:     bus.Name,
					Span:    j - i,
				},
			})
		}
	}
}
