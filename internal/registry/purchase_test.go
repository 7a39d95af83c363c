// internal/registry/purchase_test.go
package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transferCall struct {
	To     Identity
	Amount Amount
}

// fakeBank records outward transfers and can be told to reject them.
type fakeBank struct {
	calls  []transferCall
	failOn func(to Identity, amount Amount) error
}

func (b *fakeBank) Transfer(to Identity, amount Amount) error {
	if b.failOn != nil {
		if err := b.failOn(to, amount); err != nil {
			return err
		}
	}
	b.calls = append(b.calls, transferCall{To: to, Amount: amount})
	return nil
}

func (b *fakeBank) total(to Identity) Amount {
	var sum Amount
	for _, c := range b.calls {
		if c.To == to {
			sum += c.Amount
		}
	}
	return sum
}

func TestPurchaseNotFound(t *testing.T) {
	r, _ := newTestRegistry(t)
	assert.True(t, IsKind(r.Purchase(42, oneUnit, bob), KindNotFound))
}

func TestPurchaseNotForSale(t *testing.T) {
	r, _ := newTestRegistry(t)
	mustCreateGallery(t, r, "g1", alice)
	id := mustCreateAsset(t, r, "g1", oneUnit, 10, alice)

	require.NoError(t, r.Purchase(id, oneUnit, bob))

	// Off sale now; any payment amount is rejected with the same kind.
	assert.True(t, IsKind(r.Purchase(id, oneUnit, carol), KindNotForSale))
	assert.True(t, IsKind(r.Purchase(id, 100*oneUnit, carol), KindNotForSale))
}

func TestPurchaseInsufficientPayment(t *testing.T) {
	r, _ := newTestRegistry(t)
	mustCreateGallery(t, r, "g1", alice)
	id := mustCreateAsset(t, r, "g1", oneUnit, 10, alice)

	err := r.Purchase(id, oneUnit/2, bob)
	assert.True(t, IsKind(err, KindInsufficientPayment))

	snap, _ := r.Asset(id)
	assert.Equal(t, alice, snap.Owner)
	assert.True(t, snap.ForSale)
}

func TestPrimarySalePaysNoRoyalty(t *testing.T) {
	r, bank := newTestRegistry(t)
	mustCreateGallery(t, r, "g1", alice)
	id := mustCreateAsset(t, r, "g1", oneUnit, 10, alice)

	require.NoError(t, r.Purchase(id, oneUnit, bob))

	fee := oneUnit * Amount(DefaultFeeRate) / 1000
	require.Len(t, bank.calls, 2)
	assert.Equal(t, transferCall{To: admin, Amount: fee}, bank.calls[0])
	assert.Equal(t, transferCall{To: alice, Amount: oneUnit - fee}, bank.calls[1])

	snap, _ := r.Asset(id)
	assert.Equal(t, bob, snap.Owner)
	assert.False(t, snap.ForSale)
}

// The full acceptance scenario: primary sale to B1, relist, secondary
// sale to B2 with a 10% royalty back to the creator.
func TestPurchaseScenario(t *testing.T) {
	r, bank := newTestRegistry(t)
	mustCreateGallery(t, r, "g1", carol)
	id, err := r.CreateAsset("Meridian", "sha256:abc", oneUnit, "g1", 10, carol)
	require.NoError(t, err)

	assert.True(t, IsKind(r.Purchase(id, oneUnit/2, alice), KindInsufficientPayment))

	require.NoError(t, r.Purchase(id, oneUnit, alice))
	snap, _ := r.Asset(id)
	assert.Equal(t, alice, snap.Owner)
	assert.Zero(t, bank.total(carol)) // primary sale, no royalty line

	require.NoError(t, r.UpdatePrice(id, oneUnit, alice))
	bank.calls = nil

	require.NoError(t, r.Purchase(id, oneUnit, bob))

	royalty := oneUnit * 10 / 100       // 100_000
	fee := oneUnit * Amount(DefaultFeeRate) / 1000 // 25_000
	proceeds := oneUnit - royalty - fee // 875_000

	require.Len(t, bank.calls, 3)
	assert.Equal(t, transferCall{To: carol, Amount: royalty}, bank.calls[0])
	assert.Equal(t, transferCall{To: admin, Amount: fee}, bank.calls[1])
	assert.Equal(t, transferCall{To: alice, Amount: proceeds}, bank.calls[2])
	assert.Equal(t, oneUnit, royalty+fee+proceeds)

	snap, _ = r.Asset(id)
	assert.Equal(t, bob, snap.Owner)
	assert.False(t, snap.ForSale)
}

func TestOwnerIndexIsProvenance(t *testing.T) {
	r, _ := newTestRegistry(t)
	mustCreateGallery(t, r, "g1", alice)
	id := mustCreateAsset(t, r, "g1", oneUnit, 10, alice)

	require.NoError(t, r.Purchase(id, oneUnit, bob))
	require.NoError(t, r.UpdatePrice(id, oneUnit, bob))
	require.NoError(t, r.Purchase(id, oneUnit, carol))

	// Selling never retracts ids: the index is ownership history.
	assert.Equal(t, []uint64{id}, r.ByOwner(alice))
	assert.Equal(t, []uint64{id}, r.ByOwner(bob))
	assert.Equal(t, []uint64{id}, r.ByOwner(carol))
}

func TestExcessPaymentSplitsOnFullAmount(t *testing.T) {
	r, bank := newTestRegistry(t)
	mustCreateGallery(t, r, "g1", alice)
	id := mustCreateAsset(t, r, "g1", oneUnit, 10, alice)

	payment := 2 * oneUnit
	require.NoError(t, r.Purchase(id, payment, bob))

	fee := payment * Amount(DefaultFeeRate) / 1000
	assert.Equal(t, fee, bank.total(admin))
	assert.Equal(t, payment-fee, bank.total(alice))
}

func TestFeeChangeAppliesToSubsequentPurchases(t *testing.T) {
	r, bank := newTestRegistry(t)
	mustCreateGallery(t, r, "g1", alice)
	id1 := mustCreateAsset(t, r, "g1", oneUnit, 0, alice)
	id2 := mustCreateAsset(t, r, "g1", oneUnit, 0, alice)

	require.NoError(t, r.Purchase(id1, oneUnit, bob))
	assert.Equal(t, oneUnit*25/1000, bank.total(admin))

	require.NoError(t, r.UpdateFee(30, admin))
	bank.calls = nil

	require.NoError(t, r.Purchase(id2, oneUnit, carol))
	assert.Equal(t, oneUnit*30/1000, bank.total(admin))
}

func TestTransferFailureRollsBack(t *testing.T) {
	r, bank := newTestRegistry(t)
	mustCreateGallery(t, r, "g1", carol)
	id := mustCreateAsset(t, r, "g1", oneUnit, 10, carol)

	require.NoError(t, r.Purchase(id, oneUnit, alice))
	require.NoError(t, r.UpdatePrice(id, oneUnit, alice))
	eventsBefore := len(r.Events(0))
	bank.calls = nil

	// Reject the seller payout, the last transfer in the order: royalty
	// and fee have already gone out when the abort hits.
	bank.failOn = func(to Identity, _ Amount) error {
		if to == alice {
			return errors.New("account frozen")
		}
		return nil
	}

	err := r.Purchase(id, oneUnit, bob)
	require.True(t, IsKind(err, KindTransferFailed))

	// Ownership, sale state, owner index and the event log are all back
	// to their pre-purchase values.
	snap, _ := r.Asset(id)
	assert.Equal(t, alice, snap.Owner)
	assert.True(t, snap.ForSale)
	assert.Empty(t, r.ByOwner(bob))
	assert.Len(t, r.Events(0), eventsBefore)

	// The same purchase succeeds once the substrate recovers.
	bank.failOn = nil
	bank.calls = nil
	require.NoError(t, r.Purchase(id, oneUnit, bob))
	snap, _ = r.Asset(id)
	assert.Equal(t, bob, snap.Owner)
}

func TestRoyaltyTransferFailureAbortsEarly(t *testing.T) {
	r, bank := newTestRegistry(t)
	mustCreateGallery(t, r, "g1", carol)
	id := mustCreateAsset(t, r, "g1", oneUnit, 10, carol)
	require.NoError(t, r.Purchase(id, oneUnit, alice))
	require.NoError(t, r.UpdatePrice(id, oneUnit, alice))
	bank.calls = nil

	bank.failOn = func(to Identity, _ Amount) error {
		if to == carol {
			return errors.New("royalty account closed")
		}
		return nil
	}

	err := r.Purchase(id, oneUnit, bob)
	require.True(t, IsKind(err, KindTransferFailed))
	// Nothing after the failed royalty transfer went out.
	assert.Empty(t, bank.calls)

	snap, _ := r.Asset(id)
	assert.Equal(t, alice, snap.Owner)
	assert.True(t, snap.ForSale)
}

func TestRoyaltyPlusFeeOverrunReverts(t *testing.T) {
	r, bank := newTestRegistry(t)
	mustCreateGallery(t, r, "g1", carol)
	id := mustCreateAsset(t, r, "g1", oneUnit, 100, carol)
	require.NoError(t, r.Purchase(id, oneUnit, alice))
	require.NoError(t, r.UpdatePrice(id, oneUnit, alice))
	bank.calls = nil

	// 100% royalty plus the 2.5% fee exceeds the payment; the sale
	// reverts untouched instead of shorting the seller.
	err := r.Purchase(id, oneUnit, bob)
	require.True(t, IsKind(err, KindInvalidArgument))
	assert.Empty(t, bank.calls)

	snap, _ := r.Asset(id)
	assert.Equal(t, alice, snap.Owner)
	assert.True(t, snap.ForSale)
}

func TestHugePaymentSplitsExactly(t *testing.T) {
	r, bank := newTestRegistry(t)
	mustCreateGallery(t, r, "g1", carol)
	id := mustCreateAsset(t, r, "g1", 1, 10, carol)
	require.NoError(t, r.Purchase(id, 1, alice))
	require.NoError(t, r.UpdatePrice(id, 1, alice))
	bank.calls = nil

	// payment * rate overflows uint64 here; the split must still be the
	// exact floor division.
	payment := Amount(1) << 62
	require.NoError(t, r.Purchase(id, payment, bob))

	royalty := Amount(461168601842738790) // floor(2^62 * 10 / 100)
	fee := Amount(115292150460684697)     // floor(2^62 * 25 / 1000)
	assert.Equal(t, royalty, bank.total(carol))
	assert.Equal(t, fee, bank.total(admin))
	assert.Equal(t, payment-royalty-fee, bank.total(alice))
}

func TestPurchaseEventsEmittedInOrder(t *testing.T) {
	r, _ := newTestRegistry(t)
	mustCreateGallery(t, r, "g1", carol)
	id := mustCreateAsset(t, r, "g1", oneUnit, 10, carol)
	require.NoError(t, r.Purchase(id, oneUnit, alice))
	require.NoError(t, r.UpdatePrice(id, oneUnit, alice))

	before := uint64(len(r.Events(0)))
	require.NoError(t, r.Purchase(id, oneUnit, bob))

	events := r.Events(before)
	require.Len(t, events, 2)
	assert.Equal(t, EventAssetSold, events[0].Type)
	assert.Equal(t, alice, events[0].Seller)
	assert.Equal(t, bob, events[0].Buyer)
	assert.Equal(t, oneUnit, events[0].Payment)
	assert.Equal(t, EventRoyaltyPaid, events[1].Type)
	assert.Equal(t, carol, events[1].Recipient)
	assert.Equal(t, oneUnit*10/100, events[1].Amount)

	// Sequence numbers are contiguous across the whole log.
	all := r.Events(0)
	for i, ev := range all {
		assert.Equal(t, uint64(i+1), ev.Seq)
	}
}
