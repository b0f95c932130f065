package enums

import "strings"

// ItemCondition grades the physical state of a listed item.
type ItemCondition string

const (
	ItemConditionNew        ItemCondition = "NEW"
	ItemConditionLikeNew    ItemCondition = "LIKE_NEW"
	ItemConditionGood       ItemCondition = "GOOD"
	ItemConditionFair       ItemCondition = "FAIR"
	ItemConditionPoor       ItemCondition = "POOR"
)

var validItemConditions = []ItemCondition{
	ItemConditionNew,
	ItemConditionLikeNew,
	ItemConditionGood,
	ItemConditionFair,
	ItemConditionPoor,
}

func (c ItemCondition) String() string {
	return string(c)
}

func (c ItemCondition) IsValid() bool {
	for _, v := range validItemConditions {
		if c == v {
			return true
		}
	}
	return false
}

func ParseItemCondition(raw string) (ItemCondition, bool) {
	c := ItemCondition(strings.ToUpper(strings.TrimSpace(raw)))
	return c, c.IsValid()
}
