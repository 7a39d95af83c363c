// internal/registry/registry_test.go
package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	admin   = Identity("platform")
	alice   = Identity("alice")
	bob     = Identity("bob")
	carol   = Identity("carol")
	oneUnit = Amount(1_000_000)
)

func newTestRegistry(t *testing.T) (*Registry, *fakeBank) {
	t.Helper()
	bank := &fakeBank{}
	return New(admin, bank), bank
}

func mustCreateGallery(t *testing.T, r *Registry, key string, curator Identity) {
	t.Helper()
	require.NoError(t, r.CreateGallery(key, key+" gallery", "", curator))
}

func mustCreateAsset(t *testing.T, r *Registry, gallery string, price Amount, royalty uint32, creator Identity) uint64 {
	t.Helper()
	id, err := r.CreateAsset("Untitled", "sha256:feed", price, gallery, royalty, creator)
	require.NoError(t, err)
	return id
}

func TestCreateGallery(t *testing.T) {
	r, _ := newTestRegistry(t)

	require.NoError(t, r.CreateGallery("g1", "First", "opening show", alice))

	g, err := r.Gallery("g1")
	require.NoError(t, err)
	assert.Equal(t, alice, g.Curator)
	assert.True(t, g.Active)
	assert.Empty(t, g.ArtworkIDs)
	assert.Equal(t, []string{"g1"}, r.GalleriesByCurator(alice))

	err = r.CreateGallery("g1", "Duplicate", "", bob)
	assert.True(t, IsKind(err, KindAlreadyExists))

	assert.True(t, IsKind(r.CreateGallery("", "No key", "", alice), KindInvalidArgument))
	assert.True(t, IsKind(r.CreateGallery("g2", "", "", alice), KindInvalidArgument))
}

func TestArtworksUnknownGallery(t *testing.T) {
	r, _ := newTestRegistry(t)

	_, err := r.Artworks("missing")
	assert.True(t, IsKind(err, KindNotFound))
}

func TestCreateAssetValidation(t *testing.T) {
	r, _ := newTestRegistry(t)
	mustCreateGallery(t, r, "g1", alice)

	_, err := r.CreateAsset("", "ref", oneUnit, "g1", 10, alice)
	assert.True(t, IsKind(err, KindInvalidArgument))

	_, err = r.CreateAsset("Piece", "ref", 0, "g1", 10, alice)
	assert.True(t, IsKind(err, KindInvalidArgument))

	_, err = r.CreateAsset("Piece", "ref", oneUnit, "g1", 101, alice)
	assert.True(t, IsKind(err, KindInvalidArgument))

	_, err = r.CreateAsset("Piece", "ref", oneUnit, "nope", 10, alice)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestAssetIDsMonotonicAcrossFailures(t *testing.T) {
	r, _ := newTestRegistry(t)
	mustCreateGallery(t, r, "g1", alice)

	first := mustCreateAsset(t, r, "g1", oneUnit, 10, alice)

	// Failed attempts must not consume ids.
	_, err := r.CreateAsset("", "ref", oneUnit, "g1", 10, alice)
	require.Error(t, err)
	_, err = r.CreateAsset("Piece", "ref", oneUnit, "missing", 10, alice)
	require.Error(t, err)

	second := mustCreateAsset(t, r, "g1", oneUnit, 10, alice)
	third := mustCreateAsset(t, r, "g1", oneUnit, 10, bob)

	assert.Equal(t, first+1, second)
	assert.Equal(t, second+1, third)
}

func TestCreateAssetIndexes(t *testing.T) {
	r, _ := newTestRegistry(t)
	mustCreateGallery(t, r, "g1", alice)

	id1 := mustCreateAsset(t, r, "g1", oneUnit, 10, alice)
	id2 := mustCreateAsset(t, r, "g1", 2*oneUnit, 0, bob)

	ids, err := r.Artworks("g1")
	require.NoError(t, err)
	assert.Equal(t, []uint64{id1, id2}, ids)

	byGallery, err := r.ByGallery("g1")
	require.NoError(t, err)
	assert.Equal(t, ids, byGallery)

	assert.Equal(t, []uint64{id1}, r.ByOwner(alice))
	assert.Equal(t, []uint64{id2}, r.ByOwner(bob))

	snap, err := r.Asset(id1)
	require.NoError(t, err)
	assert.Equal(t, alice, snap.Creator)
	assert.Equal(t, alice, snap.Owner)
	assert.True(t, snap.ForSale)
	assert.Zero(t, snap.RatingCount)
}

func TestUpdatePrice(t *testing.T) {
	r, bank := newTestRegistry(t)
	mustCreateGallery(t, r, "g1", alice)
	id := mustCreateAsset(t, r, "g1", oneUnit, 10, alice)

	assert.True(t, IsKind(r.UpdatePrice(999, oneUnit, alice), KindNotFound))
	assert.True(t, IsKind(r.UpdatePrice(id, oneUnit, bob), KindUnauthorized))
	assert.True(t, IsKind(r.UpdatePrice(id, 0, alice), KindInvalidArgument))

	// A sold asset is relisted by a price update from its new owner.
	require.NoError(t, r.Purchase(id, oneUnit, bob))
	snap, _ := r.Asset(id)
	require.False(t, snap.ForSale)

	require.NoError(t, r.UpdatePrice(id, 3*oneUnit, bob))
	snap, _ = r.Asset(id)
	assert.True(t, snap.ForSale)
	assert.Equal(t, 3*oneUnit, snap.Price)
	assert.NotEmpty(t, bank.calls)
}

func TestAddReview(t *testing.T) {
	r, _ := newTestRegistry(t)
	mustCreateGallery(t, r, "g1", alice)
	id := mustCreateAsset(t, r, "g1", oneUnit, 10, alice)

	assert.True(t, IsKind(r.AddReview(999, "", 3, bob), KindNotFound))
	assert.True(t, IsKind(r.AddReview(id, "", 0, bob), KindInvalidArgument))
	assert.True(t, IsKind(r.AddReview(id, "", 6, bob), KindInvalidArgument))

	require.NoError(t, r.AddReview(id, "lovely", 4, bob))
	require.NoError(t, r.AddReview(id, "meh", 2, carol))

	// Second rating from the same caller is rejected and leaves the
	// totals untouched.
	err := r.AddReview(id, "again", 5, bob)
	assert.True(t, IsKind(err, KindAlreadyRated))

	snap, err := r.Asset(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), snap.RatingCount)
	assert.Equal(t, uint64(6), snap.RatingSum)
	// floor((4+2)/2) = 3, integer truncation, never rounding.
	assert.Equal(t, uint64(3), snap.AverageRating)

	reviews, err := r.Reviews(id)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, bob, reviews[0].Reviewer)
	assert.Equal(t, 4, reviews[0].Rating)
}

func TestAverageRatingTruncates(t *testing.T) {
	r, _ := newTestRegistry(t)
	mustCreateGallery(t, r, "g1", alice)
	id := mustCreateAsset(t, r, "g1", oneUnit, 10, alice)

	require.NoError(t, r.AddReview(id, "", 5, bob))
	require.NoError(t, r.AddReview(id, "", 4, carol))
	require.NoError(t, r.AddReview(id, "", 4, Identity("dave")))

	snap, _ := r.Asset(id)
	// 13/3 = 4.33..., truncated to 4.
	assert.Equal(t, uint64(4), snap.AverageRating)
}

func TestUpdateFee(t *testing.T) {
	r, _ := newTestRegistry(t)

	assert.True(t, IsKind(r.UpdateFee(30, bob), KindUnauthorized))
	assert.True(t, IsKind(r.UpdateFee(101, admin), KindInvalidArgument))
	assert.Equal(t, DefaultFeeRate, r.FeeRate())

	require.NoError(t, r.UpdateFee(30, admin))
	assert.Equal(t, uint32(30), r.FeeRate())
}
