package enums

import "strings"

// OfferStatus tracks a single offer through negotiation. PENDING and
// COUNTERED are the only live states; everything else is terminal.
type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "PENDING"
	OfferStatusAccepted  OfferStatus = "ACCEPTED"
	OfferStatusRejected  OfferStatus = "REJECTED"
	OfferStatusCountered OfferStatus = "COUNTERED"
	OfferStatusWithdrawn OfferStatus = "WITHDRAWN"
	OfferStatusExpired   OfferStatus = "EXPIRED"
)

var validOfferStatuses = []OfferStatus{
	OfferStatusPending,
	OfferStatusAccepted,
	OfferStatusRejected,
	OfferStatusCountered,
	OfferStatusWithdrawn,
	OfferStatusExpired,
}

var offerTransitions = map[OfferStatus][]OfferStatus{
	OfferStatusPending:   {OfferStatusAccepted, OfferStatusRejected, OfferStatusCountered, OfferStatusWithdrawn, OfferStatusExpired},
	OfferStatusCountered: {OfferStatusAccepted, OfferStatusRejected, OfferStatusCountered, OfferStatusExpired},
	OfferStatusAccepted:  {},
	OfferStatusRejected:  {},
	OfferStatusWithdrawn: {},
	OfferStatusExpired:   {},
}

func (s OfferStatus) String() string {
	return string(s)
}

func (s OfferStatus) IsValid() bool {
	for _, v := range validOfferStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsActive reports whether the offer still awaits a decision from one
// of the parties.
func (s OfferStatus) IsActive() bool {
	return s == OfferStatusPending || s == OfferStatusCountered
}

func (s OfferStatus) IsTerminal() bool {
	return !s.IsActive()
}

// CanTransition reports whether moving from s to next is allowed.
func (s OfferStatus) CanTransition(next OfferStatus) bool {
	for _, v := range offerTransitions[s] {
		if next == v {
			return true
		}
	}
	return false
}

func ParseOfferStatus(raw string) (OfferStatus, bool) {
	s := OfferStatus(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.IsValid()
}

// OfferParty identifies which side of a negotiation must act next.
type OfferParty string

const (
	OfferPartyBuyer  OfferParty = "BUYER"
	OfferPartySeller OfferParty = "SELLER"
)

func (p OfferParty) IsValid() bool {
	return p == OfferPartyBuyer || p == OfferPartySeller
}

func (p OfferParty) String() string {
	return string(p)
}

// Other returns the opposite party.
func (p OfferParty) Other() OfferParty {
	if p == OfferPartyBuyer {
		return OfferPartySeller
	}
	return OfferPartyBuyer
}

// OfferDecision is a seller's or buyer's verb against a live offer.
type OfferDecision string

const (
	OfferDecisionAccept  OfferDecision = "ACCEPT"
	OfferDecisionReject  OfferDecision = "REJECT"
	OfferDecisionCounter OfferDecision = "COUNTER"
)

func (d OfferDecision) IsValid() bool {
	switch d {
	case OfferDecisionAccept, OfferDecisionReject, OfferDecisionCounter:
		return true
	}
	return false
}

func ParseOfferDecision(raw string) (OfferDecision, bool) {
	d := OfferDecision(strings.ToUpper(strings.TrimSpace(raw)))
	return d, d.IsValid()
}
