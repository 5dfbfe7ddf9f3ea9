package api

import (
	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/richard-sim/internal/api/handlers"
)

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(group *gin.RouterGroup, simulationHandler *handlers.SimulationHandler) {
	group.POST("/simulations", simulationHandler.RunSimulation)
	group.GET("/simulations", simulationHandler.ListSimulations)
	group.GET("/simulations/stream", simulationHandler.StreamSimulation)
	group.GET("/simulations/:id", simulationHandler.GetSimulation)
}

// NewRouter builds the engine with middleware, health probes and the v1 API
func NewRouter(simulationHandler *handlers.SimulationHandler, healthHandler *handlers.HealthHandler, middlewares ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares...)

	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)

	apiV1 := router.Group("/api/v1")
	SetupRoutes(apiV1, simulationHandler)

	return router
}
