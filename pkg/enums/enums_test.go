package enums

import "testing"

func TestSellPostStatusTransitions(t *testing.T) {
	cases := []struct {
		from SellPostStatus
		to   SellPostStatus
		want bool
	}{
		{SellPostStatusAvailable, SellPostStatusPending, true},
		{SellPostStatusAvailable, SellPostStatusSold, true},
		{SellPostStatusAvailable, SellPostStatusExpired, true},
		{SellPostStatusAvailable, SellPostStatusHidden, true},
		{SellPostStatusPending, SellPostStatusAvailable, true},
		{SellPostStatusPending, SellPostStatusSold, true},
		{SellPostStatusPending, SellPostStatusExpired, true},
		{SellPostStatusSold, SellPostStatusAvailable, false},
		{SellPostStatusSold, SellPostStatusHidden, false},
		{SellPostStatusExpired, SellPostStatusAvailable, true},
		{SellPostStatusExpired, SellPostStatusSold, false},
		{SellPostStatusHidden, SellPostStatusAvailable, true},
		{SellPostStatusHidden, SellPostStatusSold, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestSellPostStatusTerminal(t *testing.T) {
	if !SellPostStatusSold.IsTerminal() {
		t.Error("SOLD should be terminal")
	}
	for _, s := range []SellPostStatus{SellPostStatusAvailable, SellPostStatusPending, SellPostStatusExpired, SellPostStatusHidden} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestOfferStatusActive(t *testing.T) {
	active := []OfferStatus{OfferStatusPending, OfferStatusCountered}
	terminal := []OfferStatus{OfferStatusAccepted, OfferStatusRejected, OfferStatusWithdrawn, OfferStatusExpired}

	for _, s := range active {
		if !s.IsActive() {
			t.Errorf("%s should be active", s)
		}
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	for _, s := range terminal {
		if s.IsActive() {
			t.Errorf("%s should not be active", s)
		}
	}
}

func TestOfferStatusTransitions(t *testing.T) {
	cases := []struct {
		from OfferStatus
		to   OfferStatus
		want bool
	}{
		{OfferStatusPending, OfferStatusAccepted, true},
		{OfferStatusPending, OfferStatusCountered, true},
		{OfferStatusPending, OfferStatusWithdrawn, true},
		{OfferStatusCountered, OfferStatusAccepted, true},
		{OfferStatusCountered, OfferStatusRejected, true},
		{OfferStatusCountered, OfferStatusCountered, true},
		{OfferStatusCountered, OfferStatusWithdrawn, false},
		{OfferStatusAccepted, OfferStatusRejected, false},
		{OfferStatusWithdrawn, OfferStatusPending, false},
		{OfferStatusExpired, OfferStatusAccepted, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestParseOfferStatus(t *testing.T) {
	s, ok := ParseOfferStatus("  pending ")
	if !ok || s != OfferStatusPending {
		t.Errorf("ParseOfferStatus(pending) = %s, %v", s, ok)
	}
	if _, ok := ParseOfferStatus("bogus"); ok {
		t.Error("ParseOfferStatus(bogus) should fail")
	}
}

func TestOfferPartyOther(t *testing.T) {
	if OfferPartyBuyer.Other() != OfferPartySeller {
		t.Error("buyer's counterpart should be seller")
	}
	if OfferPartySeller.Other() != OfferPartyBuyer {
		t.Error("seller's counterpart should be buyer")
	}
}

func TestParseItemCondition(t *testing.T) {
	c, ok := ParseItemCondition("like_new")
	if !ok || c != ItemConditionLikeNew {
		t.Errorf("ParseItemCondition(like_new) = %s, %v", c, ok)
	}
	if _, ok := ParseItemCondition("mint"); ok {
		t.Error("ParseItemCondition(mint) should fail")
	}
}
