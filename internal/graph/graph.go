package graph

// VertexID is a dense index assigned to each stop at construction
type VertexID = int

// EdgeID indexes into the graph's edge list
type EdgeID = int

// NoEdge is the sentinel for "no predecessor edge"
const NoEdge EdgeID = -1

// AggregateBus marks a weight produced by summing edges along a path
// rather than riding a single bus
const AggregateBus = "aggregate"

// RideWeight is the composite cost of an edge: minutes spent (wait plus
// travel), the bus responsible and the number of stops spanned.
// The empty Bus with zero Minutes marks a structural zero-cost edge
type RideWeight struct {
	Minutes float64
	Bus     string
	Span    int
}

// Less orders weights by their numeric cost
func (w RideWeight) Less(other RideWeight) bool {
	return w.Minutes < other.Minutes
}

// Combine sums two weights along a path. The result is an aggregate:
// minutes and spans add up, the bus name becomes a sentinel
func Combine(a, b RideWeight) RideWeight {
	return RideWeight{
		Minutes: a.Minutes + b.Minutes,
		Bus:     AggregateBus,
		Span:    a.Span + b.Span,
	}
}

// Edge is a directed connection between two vertices
type Edge struct {
	From   VertexID
	To     VertexID
	Weight RideWeight
}

// Directed is a directed weighted graph with a fixed vertex count.
// Edges are appended once; adjacency is stored as per-vertex edge id lists
type Directed struct {
	edges     []Edge
	adjacency [][]EdgeID
}

// NewDirected creates a graph with the given number of vertices and no edges
func NewDirected(vertexCount int) *Directed {
	return &Directed{adjacency: make([][]EdgeID, vertexCount)}
}

// AddEdge appends an edge and returns its id. Edge ids grow in insertion
// order, which the router relies on for deterministic tie-breaking
func (g *Directed) AddEdge(edge Edge) EdgeID {
	g.edges = append(g.edges, edge)
	id := len(g.edges) - 1
	g.adjacency[edge.From] = append(g.adjacency[edge.From], id)
	return id
}

// VertexCount returns the number of vertices
func (g *Directed) VertexCount() int {
	return len(g.adjacency)
}

// EdgeCount returns the number of edges
func (g *Directed) EdgeCount() int {
	return len(g.edges)
}

// Edge returns the edge with the given id
func (g *Directed) Edge(id EdgeID) Edge {
	return g.edges[id]
}

// IncidentEdges returns the ids of the edges leaving a vertex, in the
// order they were added
func (g *Directed) IncidentEdges(vertex VertexID) []EdgeID {
	return g.adjacency[vertex]
}
