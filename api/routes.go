package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mindmesh-labs/mindmesh/api/handlers"
)

// SetupRoutes initializes all API endpoints.
func SetupRoutes(router *gin.Engine, h *handlers.Handlers, feed *handlers.TurnFeed) {
	api := router.Group("/api")
	{
		api.GET("/health", h.GetHealth)
		api.GET("/stats", h.GetStats)
		api.GET("/participants", h.GetParticipants)
		api.GET("/participants/:participantID/memories", h.GetMemories)
		api.GET("/participants/:participantID/traits", h.GetTraits)
		api.GET("/participants/:participantID/summary", h.GetSummary)
		api.POST("/workflows/:name", h.TriggerWorkflow)
		api.GET("/ws", feed.Handle)
	}
}
