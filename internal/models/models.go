package models

// BusKind distinguishes the two traversal patterns a bus can have
type BusKind string

const (
	// KindStraight buses drive the stop sequence out and back again
	KindStraight BusKind = "straight"
	// KindCircular buses close the loop; the sequence ends where it starts
	KindCircular BusKind = "circular"
)

// Stop represents a named geographic point of the network
// Distances holds measured road distances in meters to neighbor stops by name
type Stop struct {
	Name      string
	Lat       float64
	Lon       float64
	Distances map[string]int
}

// Bus represents a named line with an ordered stop sequence
// For circular buses the input convention is first == last
type Bus struct {
	Name  string
	Kind  BusKind
	Stops []string
}

// BusStats is the answer to a bus query
type BusStats struct {
	StopCount       int     `json:"stop_count"`
	UniqueStopCount int     `json:"unique_stop_count"`
	RouteLength     float64 `json:"route_length"`
	Curvature       float64 `json:"curvature"`
}

// ItemType is the kind of a journey plan item
type ItemType string

const (
	ItemWait ItemType = "Wait"
	ItemBus  ItemType = "Bus"
)

// PlanItem is one segment of a journey: a wait at a stop or a ride on a bus
type PlanItem struct {
	Type      ItemType `json:"type"`
	StopName  string   `json:"stop_name,omitempty"`
	Bus       string   `json:"bus,omitempty"`
	SpanCount int      `json:"span_count,omitempty"`
	Time      float64  `json:"time"`
}

// RoutePlan is the answer to a route query
// TotalTime equals the sum of all item times
type RoutePlan struct {
	TotalTime float64    `json:"total_time"`
	Items     []PlanItem `json:"items"`
}
