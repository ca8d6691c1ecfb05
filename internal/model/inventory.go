package model

// ItemKind disambiguates consumable inventory rows the engine touches.
type ItemKind string

const (
	KindBait       ItemKind = "bait"
	KindGroundbait ItemKind = "groundbait"
	KindFlavoring  ItemKind = "flavoring"
)
