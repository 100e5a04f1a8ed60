package guide

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transitgo/transit_core/internal/graph"
	"github.com/transitgo/transit_core/internal/models"
)

func newTestGuide(t *testing.T, settings graph.Settings, stops []models.Stop, buses []models.Bus) *Guide {
	t.Helper()
	g := New(settings)
	for _, stop := range stops {
		require.NoError(t, g.AddStop(stop))
	}
	for _, bus := range buses {
		require.NoError(t, g.AddBus(bus))
	}
	require.NoError(t, g.Finalize())
	return g
}

// checkPlanShape verifies the itinerary invariants: items alternate
// Wait, Bus starting with Wait, spans are positive and the item times sum
// to the total
func checkPlanShape(t *testing.T, plan models.RoutePlan) {
	t.Helper()
	require.Equal(t, 0, len(plan.Items)%2)
	sum := 0.0
	for i, item := range plan.Items {
		if i%2 == 0 {
			assert.Equal(t, models.ItemWait, item.Type)
			assert.NotEmpty(t, item.StopName)
		} else {
			assert.Equal(t, models.ItemBus, item.Type)
			assert.NotEmpty(t, item.Bus)
			assert.GreaterOrEqual(t, item.SpanCount, 1)
			assert.GreaterOrEqual(t, item.Time, 0.0)
		}
		sum += item.Time
	}
	tolerance := 1e-6 * plan.TotalTime
	if tolerance < 1e-9 {
		tolerance = 1e-9
	}
	assert.InDelta(t, plan.TotalTime, sum, tolerance)
}

func TestRouteSingleBus(t *testing.T) {
	g := newTestGuide(t,
		graph.Settings{BusWaitTime: 2, BusVelocity: 30},
		[]models.Stop{
			{Name: "A", Lat: 55.611087, Lon: 37.20829, Distances: map[string]int{"B": 6000}},
			{Name: "B", Lat: 55.595884, Lon: 37.209755},
		},
		[]models.Bus{
			{Name: "1", Kind: models.KindStraight, Stops: []string{"A", "B"}},
		})

	plan, ok := g.Route("A", "B")
	require.True(t, ok)
	assert.InDelta(t, 14.0, plan.TotalTime, 1e-9)

	require.Len(t, plan.Items, 2)
	assert.Equal(t, models.PlanItem{Type: models.ItemWait, StopName: "A", Time: 2}, plan.Items[0])
	assert.Equal(t, models.PlanItem{Type: models.ItemBus, Bus: "1", SpanCount: 1, Time: 12}, plan.Items[1])
	checkPlanShape(t, plan)
}

func TestRouteTransfer(t *testing.T) {
	// Bus 1 covers A-B, bus 2 covers B-C: the wait penalty is paid at
	// each boarding
	g := newTestGuide(t,
		graph.Settings{BusWaitTime: 2, BusVelocity: 30},
		[]models.Stop{
			{Name: "A", Lat: 55.611087, Lon: 37.20829, Distances: map[string]int{"B": 6000}},
			{Name: "B", Lat: 55.595884, Lon: 37.209755, Distances: map[string]int{"C": 6000}},
			{Name: "C", Lat: 55.581065, Lon: 37.21122},
		},
		[]models.Bus{
			{Name: "1", Kind: models.KindStraight, Stops: []string{"A", "B"}},
			{Name: "2", Kind: models.KindStraight, Stops: []string{"B", "C"}},
		})

	plan, ok := g.Route("A", "C")
	require.True(t, ok)
	assert.InDelta(t, 28.0, plan.TotalTime, 1e-9)

	require.Len(t, plan.Items, 4)
	assert.Equal(t, models.PlanItem{Type: models.ItemWait, StopName: "A", Time: 2}, plan.Items[0])
	assert.Equal(t, models.PlanItem{Type: models.ItemBus, Bus: "1", SpanCount: 1, Time: 12}, plan.Items[1])
	assert.Equal(t, models.PlanItem{Type: models.ItemWait, StopName: "B", Time: 2}, plan.Items[2])
	assert.Equal(t, models.PlanItem{Type: models.ItemBus, Bus: "2", SpanCount: 1, Time: 12}, plan.Items[3])
	checkPlanShape(t, plan)
}

func circularGuide(t *testing.T) *Guide {
	// Loop A->B->C->D->A with a cheap first half and an expensive back half
	return newTestGuide(t,
		graph.Settings{BusWaitTime: 1, BusVelocity: 60},
		[]models.Stop{
			{Name: "A", Lat: 55.611087, Lon: 37.20829, Distances: map[string]int{"B": 1000}},
			{Name: "B", Lat: 55.595884, Lon: 37.209755, Distances: map[string]int{"C": 1000}},
			{Name: "C", Lat: 55.632761, Lon: 37.333324, Distances: map[string]int{"D": 9000}},
			{Name: "D", Lat: 55.579909, Lon: 37.659164, Distances: map[string]int{"A": 9000}},
		},
		[]models.Bus{
			{Name: "5", Kind: models.KindCircular, Stops: []string{"A", "B", "C", "D", "A"}},
		})
}

func TestRouteCircular(t *testing.T) {
	g := circularGuide(t)

	t.Run("Forward direction", func(t *testing.T) {
		plan, ok := g.Route("A", "C")
		require.True(t, ok)
		assert.InDelta(t, 3.0, plan.TotalTime, 1e-9)
		require.Len(t, plan.Items, 2)
		assert.Equal(t, 2, plan.Items[1].SpanCount)
		checkPlanShape(t, plan)
	})

	t.Run("No reverse traversal", func(t *testing.T) {
		// C reaches A only the long way around the loop
		plan, ok := g.Route("C", "A")
		require.True(t, ok)
		assert.InDelta(t, 19.0, plan.TotalTime, 1e-9)
		require.Len(t, plan.Items, 2)
		assert.Equal(t, 2, plan.Items[1].SpanCount)
		checkPlanShape(t, plan)
	})
}

func TestRouteTriangleInequality(t *testing.T) {
	g := circularGuide(t)
	stops := []string{"A", "B", "C", "D"}

	for _, a := range stops {
		for _, b := range stops {
			for _, c := range stops {
				ac, ok := g.Route(a, c)
				require.True(t, ok)
				ab, ok := g.Route(a, b)
				require.True(t, ok)
				bc, ok := g.Route(b, c)
				require.True(t, ok)
				assert.LessOrEqual(t, ac.TotalTime, ab.TotalTime+bc.TotalTime+1e-9,
					"%s->%s via %s", a, c, b)
			}
		}
	}
}

func TestRouteNotFound(t *testing.T) {
	// Two buses with no shared stop
	g := newTestGuide(t,
		graph.Settings{BusWaitTime: 2, BusVelocity: 30},
		[]models.Stop{
			{Name: "A", Lat: 55.611087, Lon: 37.20829, Distances: map[string]int{"B": 1000}},
			{Name: "B", Lat: 55.595884, Lon: 37.209755},
			{Name: "C", Lat: 55.632761, Lon: 37.333324, Distances: map[string]int{"D": 1000}},
			{Name: "D", Lat: 55.579909, Lon: 37.659164},
		},
		[]models.Bus{
			{Name: "1", Kind: models.KindStraight, Stops: []string{"A", "B"}},
			{Name: "2", Kind: models.KindStraight, Stops: []string{"C", "D"}},
		})

	t.Run("Disconnected components", func(t *testing.T) {
		_, ok := g.Route("A", "C")
		assert.False(t, ok)
	})

	t.Run("Unknown endpoints", func(t *testing.T) {
		_, ok := g.Route("A", "X")
		assert.False(t, ok)
		_, ok = g.Route("X", "A")
		assert.False(t, ok)
	})
}

func TestRouteSelf(t *testing.T) {
	g := newTestGuide(t,
		graph.Settings{BusWaitTime: 2, BusVelocity: 30},
		[]models.Stop{
			{Name: "A", Lat: 55.611087, Lon: 37.20829, Distances: map[string]int{"B": 6000}},
			{Name: "B", Lat: 55.595884, Lon: 37.209755},
		},
		[]models.Bus{
			{Name: "1", Kind: models.KindStraight, Stops: []string{"A", "B"}},
		})

	plan, ok := g.Route("A", "A")
	require.True(t, ok)
	assert.Zero(t, plan.TotalTime)
	assert.Empty(t, plan.Items)
}

func TestStopAndBusInfo(t *testing.T) {
	g := newTestGuide(t,
		graph.Settings{BusWaitTime: 2, BusVelocity: 30},
		[]models.Stop{
			{Name: "A", Lat: 55.611087, Lon: 37.20829, Distances: map[string]int{"B": 6000}},
			{Name: "B", Lat: 55.595884, Lon: 37.209755},
			{Name: "C", Lat: 55.632761, Lon: 37.333324},
		},
		[]models.Bus{
			{Name: "9", Kind: models.KindStraight, Stops: []string{"A", "B"}},
			{Name: "10", Kind: models.KindStraight, Stops: []string{"B", "A"}},
		})

	t.Run("Stop served by buses", func(t *testing.T) {
		buses, ok := g.StopInfo("A")
		require.True(t, ok)
		assert.Equal(t, []string{"10", "9"}, buses)
	})

	t.Run("Stop without buses has empty list", func(t *testing.T) {
		buses, ok := g.StopInfo("C")
		require.True(t, ok)
		assert.NotNil(t, buses)
		assert.Empty(t, buses)
	})

	t.Run("Unknown stop", func(t *testing.T) {
		_, ok := g.StopInfo("X")
		assert.False(t, ok)
	})

	t.Run("Bus stats", func(t *testing.T) {
		stats, ok := g.BusInfo("9")
		require.True(t, ok)
		assert.Equal(t, 3, stats.StopCount)
		assert.Equal(t, 2, stats.UniqueStopCount)
	})

	t.Run("Unknown bus", func(t *testing.T) {
		_, ok := g.BusInfo("99")
		assert.False(t, ok)
	})
}
