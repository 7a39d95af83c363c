// internal/registry/types.go
package registry

import "time"

// Identity is an opaque caller identity supplied by the authentication
// layer. The registry never creates or verifies identities; it only
// compares them.
type Identity string

// Amount is a quantity of money in the smallest currency unit the
// deployment uses. All fee and royalty math is integer floor division,
// so the unit must be fine enough for the configured fee rate.
type Amount uint64

// Asset is a registered art listing. Creator and GalleryKey are fixed at
// creation; Owner, Price and ForSale change on purchases and relistings.
type Asset struct {
	ID          uint64
	Title       string
	Creator     Identity
	Owner       Identity
	Price       Amount
	ForSale     bool
	ContentRef  string
	GalleryKey  string
	RoyaltyPct  uint32
	CreatedAt   time.Time
	RatingCount uint64
	RatingSum   uint64
}

// AssetSnapshot is the read view of an asset returned by queries.
// AverageRating is floor(RatingSum / RatingCount), zero when unrated.
type AssetSnapshot struct {
	ID            uint64    `json:"id"`
	Title         string    `json:"title"`
	Creator       Identity  `json:"creator"`
	Owner         Identity  `json:"owner"`
	Price         Amount    `json:"price"`
	ForSale       bool      `json:"for_sale"`
	ContentRef    string    `json:"content_ref"`
	GalleryKey    string    `json:"gallery_key"`
	RoyaltyPct    uint32    `json:"royalty_pct"`
	CreatedAt     time.Time `json:"created_at"`
	RatingCount   uint64    `json:"rating_count"`
	RatingSum     uint64    `json:"rating_sum"`
	AverageRating uint64    `json:"average_rating"`
}

// Gallery is a curator-owned, append-only collection of asset ids. Keys
// are unique for the life of the registry and galleries are never
// removed or deactivated.
type Gallery struct {
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Curator     Identity  `json:"curator"`
	Active      bool      `json:"active"`
	ArtworkIDs  []uint64  `json:"artwork_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

// Review is one immutable rating entry in an asset's review sequence.
type Review struct {
	Reviewer  Identity  `json:"reviewer"`
	Comment   string    `json:"comment"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *Asset) snapshot() AssetSnapshot {
	s := AssetSnapshot{
		ID:          a.ID,
		Title:       a.Title,
		Creator:     a.Creator,
		Owner:       a.Owner,
		Price:       a.Price,
		ForSale:     a.ForSale,
		ContentRef:  a.ContentRef,
		GalleryKey:  a.GalleryKey,
		RoyaltyPct:  a.RoyaltyPct,
		CreatedAt:   a.CreatedAt,
		RatingCount: a.RatingCount,
		RatingSum:   a.RatingSum,
	}
	if a.RatingCount > 0 {
		s.AverageRating = a.RatingSum / a.RatingCount
	}
	return s
}
