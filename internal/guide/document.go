package guide

import (
	"fmt"
	"log"

	"github.com/transitgo/transit_core/internal/dataset"
	"github.com/transitgo/transit_core/internal/graph"
	"github.com/transitgo/transit_core/internal/models"
)

// notFound is the marker placed in a response when a query misses
const notFound = "not found"

// Load builds a finalized guide from a document's routing settings and
// base requests. A single malformed record fails the whole batch
func Load(doc *dataset.Document) (*Guide, error) {
	t := New(graph.Settings{
		BusWaitTime: doc.RoutingSettings.BusWaitTime,
		BusVelocity: doc.RoutingSettings.BusVelocity,
	})

	for _, request := range doc.BaseRequests {
		switch request.Type {
		case dataset.TypeStop:
			err := t.AddStop(models.Stop{
				Name:      request.Name,
				Lat:       request.Latitude,
				Lon:       request.Longitude,
				Distances: request.RoadDistances,
			})
			if err != nil {
				return nil, err
			}
		case dataset.TypeBus:
			kind := models.KindStraight
			if request.IsRoundtrip {
				kind = models.KindCircular
			}
			err := t.AddBus(models.Bus{
				Name:  request.Name,
				Kind:  kind,
				Stops: request.Stops,
			})
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("guide: unknown base request type %q", request.Type)
		}
	}

	if err := t.Finalize(); err != nil {
		return nil, err
	}

	log.Printf("Loaded network: %d stops, %d buses", len(t.catalog.StopNames()), len(t.catalog.BusNames()))
	return t, nil
}

// ProcessStats answers a batch of stat requests. Query misses become
// error_message markers; duplicate request ids and unknown request kinds
// are treated as malformed input and fail the batch
func (t *Guide) ProcessStats(requests []dataset.StatRequest) ([]map[string]any, error) {
	if !t.Finalized() {
		return nil, ErrNotFinalized
	}

	seen := make(map[int]bool, len(requests))
	responses := make([]map[string]any, 0, len(requests))

	for _, request := range requests {
		if seen[request.ID] {
			return nil, fmt.Errorf("guide: duplicate request id %d", request.ID)
		}
		seen[request.ID] = true

		response := map[string]any{"request_id": request.ID}
		switch request.Type {
		case dataset.TypeStop:
			if buses, ok := t.StopInfo(request.Name); ok {
				response["buses"] = buses
			} else {
				response["error_message"] = notFound
			}
		case dataset.TypeBus:
			if stats, ok := t.BusInfo(request.Name); ok {
				response["stop_count"] = stats.StopCount
				response["unique_stop_count"] = stats.UniqueStopCount
				response["route_length"] = stats.RouteLength
				response["curvature"] = stats.Curvature
			} else {
				response["error_message"] = notFound
			}
		case dataset.TypeRoute:
			if plan, ok := t.Route(request.From, request.To); ok {
				response["total_time"] = plan.TotalTime
				response["items"] = plan.Items
			} else {
				response["error_message"] = notFound
			}
		default:
			return nil, fmt.Errorf("guide: unknown stat request type %q", request.Type)
		}
		responses = append(responses, response)
	}

	return responses, nil
}

// Process loads the document and answers its stat requests in one call
func Process(doc *dataset.Document) ([]map[string]any, error) {
	t, err := Load(doc)
	if err != nil {
		return nil, err
	}
	return t.ProcessStats(doc.StatRequests)
}
