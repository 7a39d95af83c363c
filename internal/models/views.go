// internal/models/views.go
package models

import (
	"time"

	"github.com/lib/pq"
)

// Read models maintained by the projection service from the event feed.
// They exist for listing and search queries; the registry itself remains
// authoritative and they can be dropped and rebuilt from the journal at
// any time.

type AssetView struct {
	ID            uint64    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Title         string    `json:"title" gorm:"size:255;not null"`
	Creator       string    `json:"creator" gorm:"size:255;not null;index"`
	Owner         string    `json:"owner" gorm:"size:255;not null;index"`
	Price         uint64    `json:"price" gorm:"not null"`
	ForSale       bool      `json:"for_sale" gorm:"index"`
	ContentRef    string    `json:"content_ref" gorm:"size:512"`
	GalleryKey    string    `json:"gallery_key" gorm:"size:100;index"`
	RoyaltyPct    uint32    `json:"royalty_pct"`
	RatingCount   uint64    `json:"rating_count"`
	RatingSum     uint64    `json:"rating_sum"`
	AverageRating uint64    `json:"average_rating"`
	ListedAt      time.Time `json:"listed_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type GalleryView struct {
	Key         string        `json:"key" gorm:"primaryKey;size:100"`
	Name        string        `json:"name" gorm:"size:255;not null"`
	Description string        `json:"description" gorm:"type:text"`
	Curator     string        `json:"curator" gorm:"size:255;not null;index"`
	Active      bool          `json:"active"`
	ArtworkIDs  pq.Int64Array `json:"artwork_ids" gorm:"type:bigint[]"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
