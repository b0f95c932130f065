package enums

import "strings"

// NotificationKind names the event class a notification reports.
type NotificationKind string

const (
	NotificationKindNewOffer       NotificationKind = "NEW_OFFER"
	NotificationKindOfferUpdated   NotificationKind = "OFFER_UPDATED"
	NotificationKindNewMessage     NotificationKind = "NEW_MESSAGE"
	NotificationKindListingUpdated NotificationKind = "LISTING_UPDATED"
)

var validNotificationKinds = []NotificationKind{
	NotificationKindNewOffer,
	NotificationKindOfferUpdated,
	NotificationKindNewMessage,
	NotificationKindListingUpdated,
}

func (k NotificationKind) String() string {
	return string(k)
}

func (k NotificationKind) IsValid() bool {
	for _, v := range validNotificationKinds {
		if k == v {
			return true
		}
	}
	return false
}

func ParseNotificationKind(raw string) (NotificationKind, bool) {
	k := NotificationKind(strings.ToUpper(strings.TrimSpace(raw)))
	return k, k.IsValid()
}
