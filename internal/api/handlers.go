package api

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/transitgo/transit_core/internal/cache"
	"github.com/transitgo/transit_core/internal/dataset"
	"github.com/transitgo/transit_core/internal/guide"
)

// notFound is the marker returned for query-level misses
const notFound = "not found"

var (
	current  *guide.Guide
	useCache bool
	cacheTTL time.Duration
)

// Init wires the handlers to a finalized guide. cached enables the Redis
// route-plan cache
func Init(g *guide.Guide, cached bool) {
	current = g
	useCache = cached
	cacheTTL = cache.LoadConfigFromEnv().TTL
}

// Health handles the /health endpoint
func Health(c *fiber.Ctx) error {
	status := "healthy"
	httpStatus := 200

	guideStatus := "ok"
	if current == nil || !current.Finalized() {
		guideStatus = "network not loaded"
		status = "unhealthy"
		httpStatus = 503
	}

	cacheStatus := "disabled"
	if useCache {
		cacheStatus = "ok"
		if err := cache.HealthCheck(c.Context()); err != nil {
			cacheStatus = err.Error()
			status = "unhealthy"
			httpStatus = 503
		}
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checks": fiber.Map{
			"network": guideStatus,
			"redis":   cacheStatus,
		},
	})
}

// StopInfo handles GET /v1/stop?name=
func StopInfo(c *fiber.Ctx) error {
	name := c.Query("name")
	if name == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "missing required parameter: name",
		})
	}

	buses, ok := current.StopInfo(name)
	if !ok {
		return c.Status(404).JSON(fiber.Map{
			"error_message": notFound,
		})
	}

	return c.JSON(fiber.Map{
		"name":  name,
		"buses": buses,
	})
}

// BusInfo handles GET /v1/bus?name=
func BusInfo(c *fiber.Ctx) error {
	name := c.Query("name")
	if name == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "missing required parameter: name",
		})
	}

	stats, ok := current.BusInfo(name)
	if !ok {
		return c.Status(404).JSON(fiber.Map{
			"error_message": notFound,
		})
	}

	return c.JSON(stats)
}

// RouteSearch handles GET /v1/route?from=&to=
func RouteSearch(c *fiber.Ctx) error {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "missing required parameters: from and to",
		})
	}

	ctx := c.Context()
	key := cache.PlanKey(from, to)

	if useCache {
		cached, err := cache.GetPlan(ctx, key)
		if err != nil {
			log.Printf("Cache lookup failed: %v", err)
		} else if cached != nil {
			return c.JSON(cached)
		}
	}

	plan, ok := current.Route(from, to)
	if !ok {
		return c.Status(404).JSON(fiber.Map{
			"error_message": notFound,
		})
	}

	if useCache {
		if err := cache.SetPlan(ctx, key, &plan, cacheTTL); err != nil {
			log.Printf("Failed to cache plan: %v", err)
		}
	}

	return c.JSON(plan)
}

// batchBody is the request body of POST /v1/batch
type batchBody struct {
	StatRequests []dataset.StatRequest `json:"stat_requests"`
}

// Batch handles POST /v1/batch: a stat request array answered against the
// loaded network in one round trip
func Batch(c *fiber.Ctx) error {
	var body batchBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	responses, err := current.ProcessStats(body.StatRequests)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(responses)
}
