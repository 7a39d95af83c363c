// internal/handlers/errors.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/artcurio/curio-backend/internal/registry"
	"github.com/artcurio/curio-backend/internal/utils"
)

// respondRegistryError translates a registry error kind into the HTTP
// status and error code the API promises.
func respondRegistryError(c *gin.Context, err error) {
	kind := registry.KindOf(err)
	switch kind {
	case registry.KindInvalidArgument:
		utils.BadRequestResponse(c, err.Error(), nil)
	case registry.KindNotFound:
		utils.NotFoundResponse(c, err.Error())
	case registry.KindAlreadyExists:
		utils.ConflictResponse(c, "ALREADY_EXISTS", err.Error())
	case registry.KindAlreadyRated:
		utils.ConflictResponse(c, "ALREADY_RATED", err.Error())
	case registry.KindNotForSale:
		utils.ConflictResponse(c, "NOT_FOR_SALE", err.Error())
	case registry.KindUnauthorized:
		utils.ForbiddenResponse(c, err.Error())
	case registry.KindInsufficientPayment:
		utils.PaymentRequiredResponse(c, "INSUFFICIENT_PAYMENT", err.Error())
	case registry.KindTransferFailed:
		utils.BadGatewayResponse(c, "TRANSFER_FAILED", err.Error())
	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}
