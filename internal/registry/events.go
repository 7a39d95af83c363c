// internal/registry/events.go
package registry

import "time"

type EventType string

const (
	EventGalleryCreated EventType = "gallery_created"
	EventAssetCreated   EventType = "asset_created"
	EventAssetSold      EventType = "asset_sold"
	EventRoyaltyPaid    EventType = "royalty_paid"
	EventPriceUpdated   EventType = "price_updated"
	EventReviewAdded    EventType = "review_added"
	EventFeeUpdated     EventType = "fee_updated"
)

// Event is one entry in the append-only log. The envelope is flat; each
// event type fills only the fields it needs. Replaying the log from the
// beginning reconstructs the full registry state, so every state
// transition, including fee changes, is recorded here.
type Event struct {
	Seq  uint64    `json:"seq"`
	Type EventType `json:"type"`
	Time time.Time `json:"time"`

	// Gallery fields
	GalleryKey  string   `json:"gallery_key,omitempty"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Curator     Identity `json:"curator,omitempty"`

	// Asset fields
	AssetID    uint64   `json:"asset_id,omitempty"`
	Title      string   `json:"title,omitempty"`
	ContentRef string   `json:"content_ref,omitempty"`
	Creator    Identity `json:"creator,omitempty"`
	Owner      Identity `json:"owner,omitempty"`
	Price      Amount   `json:"price,omitempty"`
	RoyaltyPct uint32   `json:"royalty_pct,omitempty"`

	// Sale fields
	Seller    Identity `json:"seller,omitempty"`
	Buyer     Identity `json:"buyer,omitempty"`
	Payment   Amount   `json:"payment,omitempty"`
	Recipient Identity `json:"recipient,omitempty"`
	Amount    Amount   `json:"amount,omitempty"`

	// Review fields
	Reviewer Identity `json:"reviewer,omitempty"`
	Rating   int      `json:"rating,omitempty"`
	Comment  string   `json:"comment,omitempty"`

	// Fee administration
	FeeRate uint32 `json:"fee_rate,omitempty"`
}

// Events returns a copy of the committed log after the given sequence
// number (0 returns everything).
func (r *Registry) Events(after uint64) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if after >= uint64(len(r.log)) {
		return nil
	}
	out := make([]Event, len(r.log)-int(after))
	copy(out, r.log[after:])
	return out
}

// Replay rebuilds a registry from a committed event log, for example the
// journal persisted by a downstream consumer. No payment transfers are
// re-executed; events are applied as pure state transitions.
func Replay(admin Identity, payments Transferer, events []Event) *Registry {
	r := New(admin, payments)
	for _, ev := range events {
		r.apply(ev)
	}
	return r
}

func (r *Registry) apply(ev Event) {
	switch ev.Type {
	case EventGalleryCreated:
		g := &Gallery{
			Key:         ev.GalleryKey,
			Name:        ev.Name,
			Description: ev.Description,
			Curator:     ev.Curator,
			Active:      true,
			CreatedAt:   ev.Time,
		}
		r.galleries[g.Key] = g
		r.galleriesByCurator[g.Curator] = append(r.galleriesByCurator[g.Curator], g.Key)

	case EventAssetCreated:
		a := &Asset{
			ID:         ev.AssetID,
			Title:      ev.Title,
			Creator:    ev.Creator,
			Owner:      ev.Creator,
			Price:      ev.Price,
			ForSale:    true,
			ContentRef: ev.ContentRef,
			GalleryKey: ev.GalleryKey,
			RoyaltyPct: ev.RoyaltyPct,
			CreatedAt:  ev.Time,
		}
		r.assets[a.ID] = a
		r.assetSeq.advancePast(a.ID)
		r.byOwner[a.Creator] = append(r.byOwner[a.Creator], a.ID)
		if g, ok := r.galleries[a.GalleryKey]; ok {
			g.ArtworkIDs = append(g.ArtworkIDs, a.ID)
		}

	case EventAssetSold:
		if a, ok := r.assets[ev.AssetID]; ok {
			a.Owner = ev.Buyer
			a.ForSale = false
			r.byOwner[ev.Buyer] = append(r.byOwner[ev.Buyer], a.ID)
		}

	case EventRoyaltyPaid:
		// No state transition; the payout itself happened off-registry.

	case EventPriceUpdated:
		if a, ok := r.assets[ev.AssetID]; ok {
			a.Price = ev.Price
			a.ForSale = true
		}

	case EventReviewAdded:
		if a, ok := r.assets[ev.AssetID]; ok {
			r.reviews[a.ID] = append(r.reviews[a.ID], Review{
				Reviewer:  ev.Reviewer,
				Comment:   ev.Comment,
				Rating:    ev.Rating,
				CreatedAt: ev.Time,
			})
			if r.rated[a.ID] == nil {
				r.rated[a.ID] = make(map[Identity]bool)
			}
			r.rated[a.ID][ev.Reviewer] = true
			a.RatingCount++
			a.RatingSum += uint64(ev.Rating)
		}

	case EventFeeUpdated:
		r.feeRate = ev.FeeRate
	}

	r.log = append(r.log, ev)
}
