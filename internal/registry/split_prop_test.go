// internal/registry/split_prop_test.go
package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Money conservation: for any payment, fee rate and royalty percentage,
// the three-way split sums back to the payment exactly, with both floor
// remainders accruing to the seller.
func TestSplitConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// The upper bound reaches past 2^64/1000, where a naive
		// payment*rate product would wrap.
		price := Amount(rapid.Uint64Range(1, 1<<62).Draw(t, "price"))
		payment := price + Amount(rapid.Uint64Range(0, 1<<61).Draw(t, "excess"))
		feeRate := uint32(rapid.Uint64Range(0, 100).Draw(t, "feeRate"))
		// Capped at 90 so royalty plus the 10%-max fee never overruns the
		// payment; that edge reverts and is covered separately.
		royaltyPct := uint32(rapid.Uint64Range(0, 90).Draw(t, "royaltyPct"))

		bank := &fakeBank{}
		r := New(admin, bank)
		require.NoError(t, r.CreateGallery("g", "Prop", "", carol))
		id, err := r.CreateAsset("Piece", "ref", price, "g", royaltyPct, carol)
		require.NoError(t, err)
		if feeRate != DefaultFeeRate {
			require.NoError(t, r.UpdateFee(feeRate, admin))
		}

		// Route through a secondary sale so the royalty line is live.
		require.NoError(t, r.Purchase(id, price, alice))
		require.NoError(t, r.UpdatePrice(id, price, alice))
		bank.calls = nil

		require.NoError(t, r.Purchase(id, payment, bob))

		var sum Amount
		for _, c := range bank.calls {
			sum += c.Amount
		}
		if sum != payment {
			t.Fatalf("split of %d paid out %d", payment, sum)
		}

		// Expectations decomposed the same way so they cannot wrap either.
		royalty := payment / 100 * Amount(royaltyPct)
		royalty += payment % 100 * Amount(royaltyPct) / 100
		fee := payment / 1000 * Amount(feeRate)
		fee += payment % 1000 * Amount(feeRate) / 1000
		if got := bank.total(carol); got != royalty {
			t.Fatalf("royalty: got %d want %d", got, royalty)
		}
		if got := bank.total(admin); got != fee {
			t.Fatalf("fee: got %d want %d", got, fee)
		}
		if got := bank.total(alice); got != payment-royalty-fee {
			t.Fatalf("proceeds: got %d want %d", got, payment-royalty-fee)
		}
	})
}
