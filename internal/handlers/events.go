// internal/handlers/events.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/artcurio/curio-backend/internal/registry"
	"github.com/artcurio/curio-backend/internal/utils"
)

type EventsHandler struct {
	registry *registry.Registry
}

func NewEventsHandler(reg *registry.Registry) *EventsHandler {
	return &EventsHandler{registry: reg}
}

// ListEvents streams the append-only activity feed. Clients poll with
// ?after=<seq> to continue where they left off; sequence numbers are
// contiguous from 1.
func (h *EventsHandler) ListEvents(c *gin.Context) {
	after, err := strconv.ParseUint(c.DefaultQuery("after", "0"), 10, 64)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid after cursor", nil)
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 || limit > 1000 {
		limit = 100
	}

	events := h.registry.Events(after)
	if len(events) > limit {
		events = events[:limit]
	}

	next := after
	if len(events) > 0 {
		next = events[len(events)-1].Seq
	}

	utils.SuccessResponse(c, gin.H{
		"events": events,
		"next":   next,
	})
}
