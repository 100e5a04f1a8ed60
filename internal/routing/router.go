package routing

import (
	"container/heap"
	"log"
	"math"
	"sync"

	"github.com/transitgo/transit_core/internal/graph"
)

// RouteID is an opaque handle to a built route, valid until released
type RouteID int64

// RouteInfo describes a shortest path between two vertices: the composite
// weight, the number of edges and a handle for fetching them in order
type RouteInfo struct {
	ID        RouteID
	Weight    graph.RideWeight
	EdgeCount int
}

// Router answers shortest-path queries against a fixed graph. All
// single-source tables are computed eagerly at construction, so queries
// are table lookups plus a predecessor walk. The router holds a
// non-owning reference to the graph and must not outlive it
type Router struct {
	graph *graph.Directed

	// dist[s][v] is the minimal cost from s to v in minutes, +Inf when
	// unreachable; prevEdge[s][v] is the last edge of one optimal path
	dist     [][]float64
	prevEdge [][]graph.EdgeID

	mu        sync.Mutex
	nextRoute RouteID
	routes    map[RouteID][]graph.EdgeID
}

// NewRouter precomputes shortest paths from every vertex. Sources are
// independent, so the relaxations run concurrently; each source writes
// only its own row and relaxes with strict less-than, which keeps the
// first-seen edge on cost ties exactly as a sequential run would
func NewRouter(g *graph.Directed) *Router {
	n := g.VertexCount()
	r := &Router{
		graph:    g,
		dist:     make([][]float64, n),
		prevEdge: make([][]graph.EdgeID, n),
		routes:   make(map[RouteID][]graph.EdgeID),
	}

	var wg sync.WaitGroup
	for source := 0; source < n; source++ {
		wg.Add(1)
		go func(source graph.VertexID) {
			defer wg.Done()
			r.dist[source], r.prevEdge[source] = r.relax(source)
		}(source)
	}
	wg.Wait()

	log.Printf("Precomputed routing tables for %d sources", n)
	return r
}

// relax runs a single-source Dijkstra pass. Weights are non-negative
func (r *Router) relax(source graph.VertexID) ([]float64, []graph.EdgeID) {
	n := r.graph.VertexCount()
	dist := make([]float64, n)
	prevEdge := make([]graph.EdgeID, n)
	for v := 0; v < n; v++ {
		dist[v] = math.Inf(1)
		prevEdge[v] = graph.NoEdge
	}
	dist[source] = 0

	pq := &vertexQueue{}
	heap.Init(pq)
	heap.Push(pq, &vertexItem{vertex: source, dist: 0})

	settled := make([]bool, n)

	for pq.Len() > 0 {
		u := heap.Pop(pq).(*vertexItem)
		if settled[u.vertex] {
			continue
		}
		settled[u.vertex] = true

		for _, edgeID := range r.graph.IncidentEdges(u.vertex) {
			edge := r.graph.Edge(edgeID)
			if settled[edge.To] {
				continue
			}
			candidate := dist[u.vertex] + edge.Weight.Minutes
			if candidate < dist[edge.To] {
				dist[edge.To] = candidate
				prevEdge[edge.To] = edgeID
				heap.Push(pq, &vertexItem{vertex: edge.To, dist: candidate})
			}
		}
	}

	return dist, prevEdge
}

// BuildRoute returns the shortest route between two vertices, or false
// when the destination is unreachable. The returned handle stays valid
// until ReleaseRoute
func (r *Router) BuildRoute(from, to graph.VertexID) (RouteInfo, bool) {
	if math.IsInf(r.dist[from][to], 1) {
		return RouteInfo{}, false
	}

	var edges []graph.EdgeID
	for v := to; v != from; {
		edgeID := r.prevEdge[from][v]
		edges = append(edges, edgeID)
		v = r.graph.Edge(edgeID).From
	}
	// Reverse into forward order
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}

	var weight graph.RideWeight
	for i, edgeID := range edges {
		if i == 0 {
			weight = r.graph.Edge(edgeID).Weight
			continue
		}
		weight = graph.Combine(weight, r.graph.Edge(edgeID).Weight)
	}

	r.mu.Lock()
	id := r.nextRoute
	r.nextRoute++
	r.routes[id] = edges
	r.mu.Unlock()

	return RouteInfo{ID: id, Weight: weight, EdgeCount: len(edges)}, true
}

// RouteEdge returns the k-th edge of a built route in forward order;
// k = 0 is the first edge leaving the source
func (r *Router) RouteEdge(id RouteID, k int) (graph.EdgeID, bool) {
	r.mu.Lock()
	edges, ok := r.routes[id]
	r.mu.Unlock()
	if !ok || k < 0 || k >= len(edges) {
		return graph.NoEdge, false
	}
	return edges[k], true
}

// ReleaseRoute drops a built route. The handle is invalid afterwards
func (r *Router) ReleaseRoute(id RouteID) {
	r.mu.Lock()
	delete(r.routes, id)
	r.mu.Unlock()
}

// Reachable reports whether any path exists between two vertices
func (r *Router) Reachable(from, to graph.VertexID) bool {
	return !math.IsInf(r.dist[from][to], 1)
}

// vertexItem is an entry of the relaxation priority queue
type vertexItem struct {
	vertex graph.VertexID
	dist   float64
}

// vertexQueue implements heap.Interface ordered by distance
type vertexQueue []*vertexItem

func (pq vertexQueue) Len() int           { return len(pq) }
func (pq vertexQueue) Less(i, j int) bool { return pq[i].dist < pq[j].dist }
func (pq vertexQueue) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }

func (pq *vertexQueue) Push(x interface{}) {
	*pq = append(*pq, x.(*vertexItem))
}

func (pq *vertexQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}
