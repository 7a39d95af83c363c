// internal/handlers/gallery.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/artcurio/curio-backend/internal/models"
	"github.com/artcurio/curio-backend/internal/registry"
	"github.com/artcurio/curio-backend/internal/utils"
)

type GalleryHandler struct {
	registry *registry.Registry
	db       *gorm.DB
}

func NewGalleryHandler(reg *registry.Registry, db *gorm.DB) *GalleryHandler {
	return &GalleryHandler{registry: reg, db: db}
}

type createGalleryRequest struct {
	Key         string `json:"key" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateGallery opens a new gallery curated by the caller.
func (h *GalleryHandler) CreateGallery(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req createGalleryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}

	if err := utils.ValidateVar(req.Key, "gallery_key"); err != nil {
		utils.BadRequestResponse(c, "Gallery key must be lowercase letters, digits and hyphens", nil)
		return
	}

	if err := h.registry.CreateGallery(req.Key, req.Name, req.Description, registry.Identity(userID)); err != nil {
		respondRegistryError(c, err)
		return
	}

	gallery, err := h.registry.Gallery(req.Key)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	utils.CreatedResponse(c, gallery)
}

// GetGallery returns one gallery with its artwork ids.
func (h *GalleryHandler) GetGallery(c *gin.Context) {
	key := c.Param("key")

	gallery, err := h.registry.Gallery(key)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	artworks, err := h.registry.Artworks(key)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"gallery":  gallery,
		"artworks": artworks,
	})
}

// ListGalleries pages through the gallery read model.
func (h *GalleryHandler) ListGalleries(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	query := h.db.Model(&models.GalleryView{})
	if curator := c.Query("curator"); curator != "" {
		query = query.Where("curator = ?", curator)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.InternalErrorResponse(c, "Failed to count galleries")
		return
	}

	var galleries []models.GalleryView
	if err := utils.ApplyPagination(query.Order("created_at DESC"), params).Find(&galleries).Error; err != nil {
		utils.InternalErrorResponse(c, "Failed to fetch galleries")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(galleries, total, params))
}

// ListGalleryArtworks returns the gallery's member ids in insertion
// order.
func (h *GalleryHandler) ListGalleryArtworks(c *gin.Context) {
	ids, err := h.registry.Artworks(c.Param("key"))
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"artworks": ids})
}

// ListGalleriesByCurator returns the gallery keys any identity curates,
// in creation order.
func (h *GalleryHandler) ListGalleriesByCurator(c *gin.Context) {
	keys := h.registry.GalleriesByCurator(registry.Identity(c.Param("id")))
	utils.SuccessResponse(c, gin.H{"galleries": keys})
}

// ListCuratorGalleries returns the keys of the galleries the caller
// curates.
func (h *GalleryHandler) ListCuratorGalleries(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	keys := h.registry.GalleriesByCurator(registry.Identity(userID))
	utils.SuccessResponse(c, gin.H{"galleries": keys})
}
