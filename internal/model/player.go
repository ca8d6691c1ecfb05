package model

// RodSlots is the number of fixed equipment positions a player can mount
// assembled rods into. Only equipped rods may be cast.
const RodSlots = 3

// Player carries the mutable attributes the fishing core reads and, for
// karma/experience/hunger, writes back through the player store. Accounts,
// money and social state stay in the surrounding CRUD layer.
type Player struct {
	ID       int64
	Nickname string

	LocationID int64 // 0 when not at a fishing location
	Rank       int
	Karma      int
	Hunger     int // 0-100
	Experience int

	// Equipped rod ids by slot position, 0 for an empty slot.
	EquippedRods [RodSlots]int64
}

// AtLocation reports whether the player is currently at a location.
func (p *Player) AtLocation() bool { return p.LocationID != 0 }

// HasEquipped reports whether the rod occupies one of the fixed slots.
func (p *Player) HasEquipped(rodID int64) bool {
	for _, id := range p.EquippedRods {
		if id != 0 && id == rodID {
			return true
		}
	}
	return false
}
