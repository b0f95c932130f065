package enums

import "strings"

// SellPostStatus tracks where a listing sits in its lifecycle. SOLD is
// terminal; every other status can still move.
type SellPostStatus string

const (
	SellPostStatusAvailable SellPostStatus = "AVAILABLE"
	SellPostStatusPending   SellPostStatus = "PENDING"
	SellPostStatusSold      SellPostStatus = "SOLD"
	SellPostStatusExpired   SellPostStatus = "EXPIRED"
	SellPostStatusHidden    SellPostStatus = "HIDDEN"
)

var validSellPostStatuses = []SellPostStatus{
	SellPostStatusAvailable,
	SellPostStatusPending,
	SellPostStatusSold,
	SellPostStatusExpired,
	SellPostStatusHidden,
}

// sellPostTransitions holds the allowed next statuses per current status.
var sellPostTransitions = map[SellPostStatus][]SellPostStatus{
	SellPostStatusAvailable: {SellPostStatusPending, SellPostStatusSold, SellPostStatusExpired, SellPostStatusHidden},
	SellPostStatusPending:   {SellPostStatusAvailable, SellPostStatusSold, SellPostStatusExpired, SellPostStatusHidden},
	SellPostStatusSold:      {},
	SellPostStatusExpired:   {SellPostStatusAvailable, SellPostStatusHidden},
	SellPostStatusHidden:    {SellPostStatusAvailable},
}

func (s SellPostStatus) String() string {
	return string(s)
}

func (s SellPostStatus) IsValid() bool {
	for _, v := range validSellPostStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s SellPostStatus) IsTerminal() bool {
	return s == SellPostStatusSold
}

// CanTransition reports whether moving from s to next is allowed.
func (s SellPostStatus) CanTransition(next SellPostStatus) bool {
	for _, v := range sellPostTransitions[s] {
		if next == v {
			return true
		}
	}
	return false
}

// IsOfferable reports whether new offers may be submitted against a
// post in this status.
func (s SellPostStatus) IsOfferable() bool {
	return s == SellPostStatusAvailable
}

func ParseSellPostStatus(raw string) (SellPostStatus, bool) {
	s := SellPostStatus(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.IsValid()
}
