// internal/registry/registry.go
package registry

import (
	"sync"
	"time"
)

// DefaultFeeRate is the platform cut in tenths of a percent (25 = 2.5%).
const DefaultFeeRate uint32 = 25

// MaxFeeRate caps the platform cut at 10%.
const MaxFeeRate uint32 = 100

// Transferer is the outward payment substrate. Transfer must be
// synchronous and bounded, and must not call back into the registry:
// transfers run inside the serialized section of a purchase.
type Transferer interface {
	Transfer(to Identity, amount Amount) error
}

// Registry is the canonical store for galleries, assets and reviews and
// the only component allowed to mutate them. All mutating operations
// serialize on one writer lock and either fully commit or fully fail;
// read accessors run concurrently and return copies.
type Registry struct {
	mu       sync.RWMutex
	admin    Identity
	feeRate  uint32
	payments Transferer
	now      func() time.Time

	galleries          map[string]*Gallery
	galleriesByCurator map[Identity][]string

	assets   map[uint64]*Asset
	assetSeq *sequence
	byOwner  map[Identity][]uint64

	reviews map[uint64][]Review
	rated   map[uint64]map[Identity]bool

	log  []Event
	sink func(Event)
}

// New creates an empty registry. admin is the administrator identity
// that receives platform fees and may change the fee rate.
func New(admin Identity, payments Transferer) *Registry {
	return &Registry{
		admin:              admin,
		feeRate:            DefaultFeeRate,
		payments:           payments,
		now:                time.Now,
		galleries:          make(map[string]*Gallery),
		galleriesByCurator: make(map[Identity][]string),
		assets:             make(map[uint64]*Asset),
		assetSeq:           newSequence(),
		byOwner:            make(map[Identity][]uint64),
		reviews:            make(map[uint64][]Review),
		rated:              make(map[uint64]map[Identity]bool),
	}
}

// Subscribe registers a single consumer for committed events. The sink
// runs inside the committing operation and must return quickly; it must
// not call back into the registry.
func (r *Registry) Subscribe(sink func(Event)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink = sink
}

// share returns floor(payment * rate / scale) without the intermediate
// product, which overflows uint64 for payments past 2^64/rate. Exact
// for rate <= scale: payment = q*scale + m gives q*rate + m*rate/scale,
// and m*rate stays far below 2^64.
func share(payment Amount, rate uint32, scale Amount) Amount {
	r := Amount(rate)
	return payment/scale*r + payment%scale*r/scale
}

// commit stamps and appends events to the log and notifies the sink.
// Callers hold the write lock.
func (r *Registry) commit(events ...Event) {
	for _, ev := range events {
		ev.Seq = uint64(len(r.log)) + 1
		r.log = append(r.log, ev)
		if r.sink != nil {
			r.sink(ev)
		}
	}
}

// CreateGallery registers a new named collection owned by caller. Keys
// are unique forever; there is no update or deactivation operation.
func (r *Registry) CreateGallery(key, name, description string, caller Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if key == "" {
		return errf(KindInvalidArgument, "gallery key must not be empty")
	}
	if name == "" {
		return errf(KindInvalidArgument, "gallery name must not be empty")
	}
	if _, ok := r.galleries[key]; ok {
		return errf(KindAlreadyExists, "gallery %q already exists", key)
	}

	g := &Gallery{
		Key:         key,
		Name:        name,
		Description: description,
		Curator:     caller,
		Active:      true,
		CreatedAt:   r.now(),
	}
	r.galleries[key] = g
	r.galleriesByCurator[caller] = append(r.galleriesByCurator[caller], key)

	r.commit(Event{
		Type:        EventGalleryCreated,
		Time:        g.CreatedAt,
		GalleryKey:  key,
		Name:        name,
		Description: description,
		Curator:     caller,
	})
	return nil
}

// CreateAsset registers a new listing inside an existing gallery and
// returns its id. The caller becomes both creator and initial owner and
// the asset is immediately for sale at price.
func (r *Registry) CreateAsset(title, contentRef string, price Amount, galleryKey string, royaltyPct uint32, caller Identity) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if title == "" {
		return 0, errf(KindInvalidArgument, "title must not be empty")
	}
	if price == 0 {
		return 0, errf(KindInvalidArgument, "price must be positive")
	}
	if royaltyPct > 100 {
		return 0, errf(KindInvalidArgument, "royalty percentage %d exceeds 100", royaltyPct)
	}
	g, ok := r.galleries[galleryKey]
	if !ok || !g.Active {
		return 0, errf(KindNotFound, "gallery %q not found", galleryKey)
	}

	// The id is allocated only after every precondition holds, so failed
	// attempts never consume sequence numbers.
	now := r.now()
	a := &Asset{
		ID:         r.assetSeq.allocate(),
		Title:      title,
		Creator:    caller,
		Owner:      caller,
		Price:      price,
		ForSale:    true,
		ContentRef: contentRef,
		GalleryKey: galleryKey,
		RoyaltyPct: royaltyPct,
		CreatedAt:  now,
	}
	r.assets[a.ID] = a
	r.byOwner[caller] = append(r.byOwner[caller], a.ID)
	g.ArtworkIDs = append(g.ArtworkIDs, a.ID)

	r.commit(Event{
		Type:       EventAssetCreated,
		Time:       now,
		AssetID:    a.ID,
		Title:      title,
		ContentRef: contentRef,
		Creator:    caller,
		GalleryKey: galleryKey,
		Price:      price,
		RoyaltyPct: royaltyPct,
	})
	return a.ID, nil
}

// UpdatePrice sets a new price and relists the asset. Only the current
// owner may call it.
func (r *Registry) UpdatePrice(id uint64, newPrice Amount, caller Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assets[id]
	if !ok {
		return errf(KindNotFound, "asset %d not found", id)
	}
	if a.Owner != caller {
		return errf(KindUnauthorized, "caller is not the owner of asset %d", id)
	}
	if newPrice == 0 {
		return errf(KindInvalidArgument, "price must be positive")
	}

	now := r.now()
	a.Price = newPrice
	a.ForSale = true

	r.commit(Event{
		Type:    EventPriceUpdated,
		Time:    now,
		AssetID: id,
		Owner:   caller,
		Price:   newPrice,
	})
	return nil
}

// Purchase executes the atomic sale protocol: validate, split the
// payment, mutate ownership, then pay out. State is mutated before any
// outward transfer, so a reentrant observer already sees the asset off
// sale; a failed transfer aborts the whole call and rolls everything
// back, events included.
func (r *Registry) Purchase(id uint64, payment Amount, buyer Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assets[id]
	if !ok {
		return errf(KindNotFound, "asset %d not found", id)
	}
	if !a.ForSale {
		return errf(KindNotForSale, "asset %d is not for sale", id)
	}
	if payment < a.Price {
		return errf(KindInsufficientPayment, "payment %d below asking price %d", payment, a.Price)
	}

	seller := a.Owner
	fee := share(payment, r.feeRate, 1000)
	var royalty Amount
	if seller != a.Creator {
		// Secondary sale. On a primary sale the creator is the seller and
		// pays no royalty to themselves.
		royalty = share(payment, a.RoyaltyPct, 100)
	}
	if royalty > payment-fee {
		// Royalty is computed on the full payment, not net of the fee, so
		// the two can overrun it for royalty rates near 100%. The sale
		// reverts rather than underpaying the seller. Compared against
		// payment-fee (fee never exceeds payment) so the check itself
		// cannot wrap.
		return errf(KindInvalidArgument, "royalty %d plus platform fee %d exceeds payment %d", royalty, fee, payment)
	}
	remainder := payment - fee - royalty

	// Effects before interactions. The seller keeps its historical entry
	// in the owned-asset index: the index is provenance, not a live set.
	now := r.now()
	a.Owner = buyer
	a.ForSale = false
	r.byOwner[buyer] = append(r.byOwner[buyer], id)

	staged := []Event{{
		Type:    EventAssetSold,
		Time:    now,
		AssetID: id,
		Seller:  seller,
		Buyer:   buyer,
		Payment: payment,
	}}

	rollback := func() {
		a.Owner = seller
		a.ForSale = true
		owned := r.byOwner[buyer]
		r.byOwner[buyer] = owned[:len(owned)-1]
	}

	if royalty > 0 {
		if err := r.payments.Transfer(a.Creator, royalty); err != nil {
			rollback()
			return &Error{Kind: KindTransferFailed, Reason: "royalty transfer rejected", Err: err}
		}
		staged = append(staged, Event{
			Type:      EventRoyaltyPaid,
			Time:      now,
			AssetID:   id,
			Recipient: a.Creator,
			Amount:    royalty,
		})
	}
	if err := r.payments.Transfer(r.admin, fee); err != nil {
		rollback()
		return &Error{Kind: KindTransferFailed, Reason: "platform fee transfer rejected", Err: err}
	}
	if err := r.payments.Transfer(seller, remainder); err != nil {
		rollback()
		return &Error{Kind: KindTransferFailed, Reason: "seller payout rejected", Err: err}
	}

	r.commit(staged...)
	return nil
}

// AddReview appends an immutable rating entry. Each reviewer may rate a
// given asset once; a rejected attempt leaves the rating totals intact.
func (r *Registry) AddReview(id uint64, comment string, rating int, caller Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assets[id]
	if !ok {
		return errf(KindNotFound, "asset %d not found", id)
	}
	if rating < 1 || rating > 5 {
		return errf(KindInvalidArgument, "rating %d outside [1,5]", rating)
	}
	if r.rated[id][caller] {
		return errf(KindAlreadyRated, "caller already rated asset %d", id)
	}

	now := r.now()
	r.reviews[id] = append(r.reviews[id], Review{
		Reviewer:  caller,
		Comment:   comment,
		Rating:    rating,
		CreatedAt: now,
	})
	if r.rated[id] == nil {
		r.rated[id] = make(map[Identity]bool)
	}
	r.rated[id][caller] = true
	a.RatingCount++
	a.RatingSum += uint64(rating)

	r.commit(Event{
		Type:     EventReviewAdded,
		Time:     now,
		AssetID:  id,
		Reviewer: caller,
		Rating:   rating,
		Comment:  comment,
	})
	return nil
}

// UpdateFee changes the platform fee rate, in tenths of a percent.
// Administrator only; the new rate applies to subsequent purchases.
func (r *Registry) UpdateFee(newRate uint32, caller Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.admin {
		return errf(KindUnauthorized, "caller is not the registry administrator")
	}
	if newRate > MaxFeeRate {
		return errf(KindInvalidArgument, "fee rate %d exceeds maximum %d", newRate, MaxFeeRate)
	}

	now := r.now()
	r.feeRate = newRate

	r.commit(Event{
		Type:    EventFeeUpdated,
		Time:    now,
		FeeRate: newRate,
	})
	return nil
}

// Asset returns a point-in-time snapshot of one asset.
func (r *Registry) Asset(id uint64) (AssetSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.assets[id]
	if !ok {
		return AssetSnapshot{}, errf(KindNotFound, "asset %d not found", id)
	}
	return a.snapshot(), nil
}

// Artworks returns the gallery's member ids in insertion order.
func (r *Registry) Artworks(key string) ([]uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.galleries[key]
	if !ok || !g.Active {
		return nil, errf(KindNotFound, "gallery %q not found", key)
	}
	out := make([]uint64, len(g.ArtworkIDs))
	copy(out, g.ArtworkIDs)
	return out, nil
}

// Gallery returns a copy of one gallery record.
func (r *Registry) Gallery(key string) (Gallery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.galleries[key]
	if !ok || !g.Active {
		return Gallery{}, errf(KindNotFound, "gallery %q not found", key)
	}
	out := *g
	out.ArtworkIDs = make([]uint64, len(g.ArtworkIDs))
	copy(out.ArtworkIDs, g.ArtworkIDs)
	return out, nil
}

// ByOwner returns the identity's owned-asset index. The index is
// append-only provenance: ids are added when an identity creates or buys
// an asset and are never retracted when it sells.
func (r *Registry) ByOwner(identity Identity) []uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owned := r.byOwner[identity]
	out := make([]uint64, len(owned))
	copy(out, owned)
	return out
}

// ByGallery returns the stored id sequence for a gallery, identical to
// Artworks. Both accessors exist because listing consumers address the
// index by gallery while directory consumers address the gallery itself.
func (r *Registry) ByGallery(key string) ([]uint64, error) {
	return r.Artworks(key)
}

// GalleriesByCurator returns the keys of every gallery the identity
// created, in creation order.
func (r *Registry) GalleriesByCurator(identity Identity) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := r.galleriesByCurator[identity]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// Reviews returns the asset's review sequence in insertion order.
func (r *Registry) Reviews(id uint64) ([]Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.assets[id]; !ok {
		return nil, errf(KindNotFound, "asset %d not found", id)
	}
	seq := r.reviews[id]
	out := make([]Review, len(seq))
	copy(out, seq)
	return out, nil
}

// FeeRate returns the current platform fee rate in tenths of a percent.
func (r *Registry) FeeRate() uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.feeRate
}

// Admin returns the administrator identity.
func (r *Registry) Admin() Identity {
	return r.admin
}
