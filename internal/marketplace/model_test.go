package marketplace

import "testing"

func TestVendorConfirmOnlyFromPending(t *testing.T) {
	if !CanVendorConfirm(LoopPending) {
		t.Errorf("pending loop should be vendor-confirmable")
	}
	if CanVendorConfirm(LoopVendorConfirmed) {
		t.Errorf("vendor_confirmed loop must not be vendor-confirmable again")
	}
	if CanVendorConfirm(LoopCompleted) {
		t.Errorf("completed loop must not be vendor-confirmable")
	}
}

func TestBuyerConfirmRequiresVendorConfirmation(t *testing.T) {
	if CanBuyerConfirm(LoopPending) {
		t.Errorf("buyer must not confirm before the vendor does")
	}
	if !CanBuyerConfirm(LoopVendorConfirmed) {
		t.Errorf("vendor_confirmed loop should be buyer-confirmable")
	}
	if CanBuyerConfirm(LoopCompleted) {
		t.Errorf("completed loop must not be buyer-confirmable")
	}
}

func TestHandshakeClosesEitherLiveState(t *testing.T) {
	if !CanHandshakeComplete(LoopPending) {
		t.Errorf("handshake should complete a pending loop")
	}
	if !CanHandshakeComplete(LoopVendorConfirmed) {
		t.Errorf("handshake should complete a vendor_confirmed loop")
	}
	if CanHandshakeComplete(LoopCompleted) {
		t.Errorf("handshake must not re-complete a finished loop")
	}
}

func TestUnresolvedStatesBlockDuplicateLoops(t *testing.T) {
	if !IsUnresolved(LoopPending) || !IsUnresolved(LoopVendorConfirmed) {
		t.Errorf("both live states should count as unresolved")
	}
	if IsUnresolved(LoopCompleted) {
		t.Errorf("completed loop should not block a new purchase")
	}
}

func TestValidRatingBounds(t *testing.T) {
	for _, r := range []int{1, 2, 3, 4, 5} {
		if !ValidRating(r) {
			t.Errorf("rating %d should be valid", r)
		}
	}
	for _, r := range []int{0, -1, 6, 100} {
		if ValidRating(r) {
			t.Errorf("rating %d should be rejected", r)
		}
	}
}
