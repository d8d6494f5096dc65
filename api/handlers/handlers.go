package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mindmesh-labs/mindmesh/coordinator"
	"github.com/mindmesh-labs/mindmesh/core"
	"github.com/mindmesh-labs/mindmesh/knowledge"
	"github.com/mindmesh-labs/mindmesh/memory"
	"github.com/mindmesh-labs/mindmesh/personality"
	"github.com/mindmesh-labs/mindmesh/registry"
)

const workflowTimeout = 5 * time.Minute

// Handlers serves the read-only admin queries plus the single
// workflow-trigger write. All components are injected.
type Handlers struct {
	Registry    *registry.Registry
	Memory      *memory.Store
	Graph       *knowledge.Graph
	Personality *personality.Engine
	Coordinator *coordinator.Coordinator
	Broker      *core.NATSBroker
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrCapability):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetHealth reports per-subsystem availability.
func (h *Handlers) GetHealth(c *gin.Context) {
	brokerUp := h.Broker != nil && h.Broker.Conn != nil && h.Broker.Conn.IsConnected()
	c.JSON(http.StatusOK, gin.H{
		"memory":      h.Memory != nil,
		"knowledge":   h.Graph != nil,
		"personality": h.Personality != nil,
		"coordinator": h.Coordinator != nil,
		"broker":      brokerUp,
	})
}

// GetStats reports aggregate counters across all participants.
func (h *Handlers) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"totalMemories":      h.Memory.TotalCount(),
		"knowledgeNodeCount": h.Graph.NodeCount(),
		"avgSuccessRate":     h.Memory.AvgSuccessRate(),
		"participants":       len(h.Registry.IDs()),
	})
}

// GetMemories lists a participant's recent memory records.
func (h *Handlers) GetMemories(c *gin.Context) {
	id := c.Param("participantID")

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	filter := memory.Filter{Limit: limit}
	if kind := c.Query("kind"); kind != "" {
		filter.Kind = memory.Kind(kind)
	}

	records, err := h.Memory.Query(id, filter)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"participantId": id, "memories": records})
}

// GetTraits returns a participant's current personality profile.
func (h *Handlers) GetTraits(c *gin.Context) {
	id := c.Param("participantID")

	profile, err := h.Personality.GetProfile(id)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"participantId": id,
		"baseTraits":    profile.BaseTraits,
		"currentTraits": profile.CurrentTraits,
		"adaptations":   profile.Adaptations,
	})
}

// GetSummary returns a participant's memory summary.
func (h *Handlers) GetSummary(c *gin.Context) {
	id := c.Param("participantID")

	summary, err := h.Memory.Summarize(id)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetParticipants lists the roster.
func (h *Handlers) GetParticipants(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"participants": h.Registry.Participants()})
}

type workflowRequest struct {
	Topic        string   `json:"topic"`
	Participants []string `json:"participants"`
	Context      string   `json:"context"`
	MaxRounds    int      `json:"maxRounds"`
	Asset        string   `json:"asset"`
	Theme        string   `json:"theme"`
}

// TriggerWorkflow is the admin surface's only write: it starts a named
// multi-participant workflow with a free-form parameter payload.
func (h *Handlers) TriggerWorkflow(c *gin.Context) {
	name := c.Param("name")

	var req workflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workflow payload"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), workflowTimeout)
	defer cancel()

	var result interface{}
	var err error
	switch name {
	case "collaborate":
		if len(req.Participants) == 0 {
			req.Participants = h.Registry.IDs()
		}
		result, err = h.Coordinator.Collaborate(ctx, coordinator.CollaborateRequest{
			Participants: req.Participants,
			Topic:        req.Topic,
			Context:      req.Context,
			MaxRounds:    req.MaxRounds,
		})
	case "market-analysis":
		result, err = h.Coordinator.MarketAnalysis(ctx, req.Asset)
	case "creative":
		result, err = h.Coordinator.CreativeCollaboration(ctx, req.Theme)
	case "daily-cycle":
		result, err = h.Coordinator.RunDailyCycle(ctx)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown workflow: " + name})
		return
	}

	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "partial": result})
		return
	}
	c.JSON(http.StatusOK, result)
}
