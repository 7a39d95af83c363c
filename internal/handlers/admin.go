// internal/handlers/admin.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/artcurio/curio-backend/internal/registry"
	"github.com/artcurio/curio-backend/internal/services"
	"github.com/artcurio/curio-backend/internal/utils"
)

// AdminHandler exposes platform administration. The routes are behind
// the admin role check; inside the registry the operations run as the
// platform account.
type AdminHandler struct {
	registry   *registry.Registry
	payments   *services.PaymentService
	projection *services.ProjectionService
}

func NewAdminHandler(reg *registry.Registry, payments *services.PaymentService, projection *services.ProjectionService) *AdminHandler {
	return &AdminHandler{registry: reg, payments: payments, projection: projection}
}

type updateFeeRequest struct {
	FeeRate uint32 `json:"fee_rate"`
}

// UpdateFeeRate changes the platform's cut of future sales, in tenths
// of a percent. Completed sales are never recomputed.
func (h *AdminHandler) UpdateFeeRate(c *gin.Context) {
	var req updateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}

	if err := h.registry.UpdateFee(req.FeeRate, h.registry.Admin()); err != nil {
		respondRegistryError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"fee_rate": h.registry.FeeRate()})
}

func (h *AdminHandler) GetFeeRate(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{"fee_rate": h.registry.FeeRate()})
}

// GetTransferHistory returns payout ledger rows, optionally filtered
// by recipient identity.
func (h *AdminHandler) GetTransferHistory(c *gin.Context) {
	recipient := c.Query("recipient")
	if recipient == "" {
		utils.BadRequestResponse(c, "recipient query parameter is required", nil)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := h.payments.GetTransferHistory(recipient, limit)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"transfers": records})
}

// RebuildReadModels reconstructs the listing views from the event
// journal.
func (h *AdminHandler) RebuildReadModels(c *gin.Context) {
	if err := h.projection.RebuildReadModels(); err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"status": "rebuilt"})
}
