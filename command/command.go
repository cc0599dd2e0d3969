// Package command defines the typed requests the bridge hands to the
// simulation and the priority-aware queues the simulation drains.
package command

// Kind routes a request to one of the five logical queues.
type Kind int

const (
	TNT Kind = iota
	MegaTNT
	FastSlow
	Big
	PickaxeChange
)

func (k Kind) String() string {
	switch k {
	case TNT:
		return "tnt"
	case MegaTNT:
		return "megatnt"
	case FastSlow:
		return "fastslow"
	case Big:
		return "big"
	case PickaxeChange:
		return "pickaxe"
	default:
		return "unknown"
	}
}

// Kinds lists every queue kind, in queue-layout order.
func Kinds() []Kind {
	return []Kind{TNT, MegaTNT, FastSlow, Big, PickaxeChange}
}

// Priority orders requests within a single queue. Gift-priority entries are
// served before normal ones regardless of arrival order.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityGift
)

func (p Priority) String() string {
	if p == PriorityGift {
		return "gift"
	}
	return "normal"
}

// Speed is the choice carried by FastSlow requests.
type Speed string

const (
	SpeedFast Speed = "Fast"
	SpeedSlow Speed = "Slow"
)

// Pickaxe identifies the tier requested by a PickaxeChange.
type Pickaxe string

const (
	PickaxeWooden    Pickaxe = "wooden_pickaxe"
	PickaxeStone     Pickaxe = "stone_pickaxe"
	PickaxeIron      Pickaxe = "iron_pickaxe"
	PickaxeGolden    Pickaxe = "golden_pickaxe"
	PickaxeDiamond   Pickaxe = "diamond_pickaxe"
	PickaxeNetherite Pickaxe = "netherite_pickaxe"
)

// Request is one unit of work for the simulation. It is created by the
// classifier, owned by exactly one queue, and consumed at most once.
type Request struct {
	Kind        Kind
	AuthorID    string
	DisplayName string
	Message     string
	AvatarURL   string
	Count       int
	Priority    Priority
	Highlight   string

	// Choice is set for FastSlow requests only.
	Choice Speed
	// Pickaxe is set for PickaxeChange requests only.
	Pickaxe Pickaxe
}
