// Package event defines the closed set of chat events the bridge consumes and
// the identity resolution used to deduplicate them. Platform SDK objects are
// adapted into these types at the upstream boundary; nothing past that boundary
// sees a platform-specific shape.
package event

import "time"

// Type discriminates the event variants.
type Type int

const (
	TypeComment Type = iota
	TypeGift
	TypeLike
)

func (t Type) String() string {
	switch t {
	case TypeComment:
		return "comment"
	case TypeGift:
		return "gift"
	case TypeLike:
		return "like"
	default:
		return "unknown"
	}
}

// Author identifies the viewer behind an event.
type Author struct {
	ID          string
	DisplayName string
	AvatarURL   string
}

// Event is the closed variant of upstream happenings. The unexported method
// keeps the set sealed to Comment, Gift, and Like.
type Event interface {
	Type() Type
	Author() Author
	// RawID is the platform-provided message identifier, empty when the
	// platform did not supply one.
	RawID() string
	When() time.Time

	sealed()
}

// Comment is a free-text chat message.
type Comment struct {
	User      Author
	Text      string
	ID        string
	Timestamp time.Time
}

func (Comment) Type() Type        { return TypeComment }
func (c Comment) Author() Author  { return c.User }
func (c Comment) RawID() string   { return c.ID }
func (c Comment) When() time.Time { return c.Timestamp }
func (Comment) sealed()           {}

// Gift is a paid gift. CoinKnown reports whether the platform exposed a coin
// value; when false, CoinValue is meaningless.
type Gift struct {
	User      Author
	GiftID    string
	GiftName  string
	Quantity  int
	CoinValue int
	CoinKnown bool
	ID        string
	Timestamp time.Time
}

func (Gift) Type() Type        { return TypeGift }
func (g Gift) Author() Author  { return g.User }
func (g Gift) RawID() string   { return g.ID }
func (g Gift) When() time.Time { return g.Timestamp }
func (Gift) sealed()           {}

// Like is a burst of likes; Count is how many the platform batched together.
type Like struct {
	User      Author
	Count     int
	ID        string
	Timestamp time.Time
}

func (Like) Type() Type        { return TypeLike }
func (l Like) Author() Author  { return l.User }
func (l Like) RawID() string   { return l.ID }
func (l Like) When() time.Time { return l.Timestamp }
func (Like) sealed()           {}
