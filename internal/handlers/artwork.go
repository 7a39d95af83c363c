// internal/handlers/artwork.go
package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/artcurio/curio-backend/internal/models"
	"github.com/artcurio/curio-backend/internal/registry"
	"github.com/artcurio/curio-backend/internal/services"
	"github.com/artcurio/curio-backend/internal/utils"
)

type ArtworkHandler struct {
	registry *registry.Registry
	db       *gorm.DB
	storage  *services.StorageService
}

func NewArtworkHandler(reg *registry.Registry, db *gorm.DB, storage *services.StorageService) *ArtworkHandler {
	return &ArtworkHandler{registry: reg, db: db, storage: storage}
}

type createArtworkRequest struct {
	Title      string `json:"title" binding:"required"`
	ContentRef string `json:"content_ref" binding:"required"`
	Price      uint64 `json:"price" binding:"required"`
	GalleryKey string `json:"gallery_key" binding:"required"`
	RoyaltyPct uint32 `json:"royalty_pct"`
}

// CreateArtwork registers a new artwork listed for sale in a gallery.
// The caller becomes both creator and first owner.
func (h *ArtworkHandler) CreateArtwork(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req createArtworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}

	id, err := h.registry.CreateAsset(
		req.Title,
		req.ContentRef,
		registry.Amount(req.Price),
		req.GalleryKey,
		req.RoyaltyPct,
		registry.Identity(userID),
	)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	snapshot, err := h.registry.Asset(id)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	utils.CreatedResponse(c, snapshot)
}

// GetArtwork returns the authoritative record for one artwork.
func (h *ArtworkHandler) GetArtwork(c *gin.Context) {
	id, ok := parseArtworkID(c)
	if !ok {
		return
	}

	snapshot, err := h.registry.Asset(id)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	utils.SuccessResponse(c, snapshot)
}

// ListCatalog pages through the artwork read model with optional
// search and filters.
func (h *ArtworkHandler) ListCatalog(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	query := h.db.Model(&models.AssetView{})

	if params.Search != "" {
		query = query.Where("to_tsvector('english', title) @@ plainto_tsquery('english', ?)", params.Search)
	}
	if gallery := c.Query("gallery"); gallery != "" {
		query = query.Where("gallery_key = ?", gallery)
	}
	if owner := c.Query("owner"); owner != "" {
		query = query.Where("owner = ?", owner)
	}
	if c.Query("for_sale") == "true" {
		query = query.Where("for_sale = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.InternalErrorResponse(c, "Failed to count artworks")
		return
	}

	allowedSorts := []string{"listed_at", "price", "average_rating", "rating_count"}
	var artworks []models.AssetView
	if err := utils.ApplyPagination(utils.ApplySort(query, params, allowedSorts), params).
		Find(&artworks).Error; err != nil {
		utils.InternalErrorResponse(c, "Failed to fetch artworks")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(artworks, total, params))
}

type updatePriceRequest struct {
	Price uint64 `json:"price" binding:"required"`
}

// UpdatePrice sets a new asking price and relists the artwork. Only
// the current owner may call it.
func (h *ArtworkHandler) UpdatePrice(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := parseArtworkID(c)
	if !ok {
		return
	}

	var req updatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}

	if err := h.registry.UpdatePrice(id, registry.Amount(req.Price), registry.Identity(userID)); err != nil {
		respondRegistryError(c, err)
		return
	}

	snapshot, err := h.registry.Asset(id)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	utils.SuccessResponse(c, snapshot)
}

type purchaseRequest struct {
	Payment uint64 `json:"payment" binding:"required"`
}

// Purchase buys the artwork at its asking price. Ownership transfer
// and the payment split are atomic: either every payout succeeds and
// the buyer owns the piece, or nothing changes.
func (h *ArtworkHandler) Purchase(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := parseArtworkID(c)
	if !ok {
		return
	}

	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}

	if err := h.registry.Purchase(id, registry.Amount(req.Payment), registry.Identity(userID)); err != nil {
		respondRegistryError(c, err)
		return
	}

	snapshot, err := h.registry.Asset(id)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	utils.SuccessResponse(c, snapshot)
}

type addReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// AddReview records a 1-5 star review. One review per identity per
// artwork.
func (h *ArtworkHandler) AddReview(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := parseArtworkID(c)
	if !ok {
		return
	}

	var req addReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}

	if err := h.registry.AddReview(id, req.Comment, req.Rating, registry.Identity(userID)); err != nil {
		respondRegistryError(c, err)
		return
	}

	snapshot, err := h.registry.Asset(id)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	utils.CreatedResponse(c, snapshot)
}

// ListReviews returns all reviews for one artwork.
func (h *ArtworkHandler) ListReviews(c *gin.Context) {
	id, ok := parseArtworkID(c)
	if !ok {
		return
	}

	reviews, err := h.registry.Reviews(id)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"reviews": reviews})
}

// ListOwned returns every artwork id the caller has ever owned,
// including pieces later sold on. The index is provenance, not a
// wallet.
func (h *ArtworkHandler) ListOwned(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	ids := h.registry.ByOwner(registry.Identity(userID))
	utils.SuccessResponse(c, gin.H{"artworks": ids})
}

// ListByOwner returns the provenance index for any identity.
func (h *ArtworkHandler) ListByOwner(c *gin.Context) {
	ids := h.registry.ByOwner(registry.Identity(c.Param("id")))
	utils.SuccessResponse(c, gin.H{"artworks": ids})
}

// UploadContent stores artwork media and returns the content reference
// to use when registering the artwork.
func (h *ArtworkHandler) UploadContent(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "No file provided", nil)
		return
	}
	defer file.Close()

	result, err := h.storage.UploadArtwork(file, header)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, result)
}

// ContentURL issues a short-lived download link for a stored media
// object.
func (h *ArtworkHandler) ContentURL(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		utils.BadRequestResponse(c, "Missing content key", nil)
		return
	}

	url, err := h.storage.GeneratePresignedURL(key, 15*time.Minute)
	if err != nil {
		utils.NotFoundResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"url": url})
}

func parseArtworkID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.BadRequestResponse(c, "Invalid artwork id", nil)
		return 0, false
	}
	return id, true
}
