// Package classify maps chat events onto command requests. Classification is
// synchronous and non-blocking: a comment, gift, or like goes in, and zero or
// more requests come out ready for the queues.
package classify

import (
	"fmt"
	"strings"

	"github.com/onnwee/pickaxe-bridge/command"
	"github.com/onnwee/pickaxe-bridge/event"
)

// Gift coin thresholds and payouts, unchanged from the original tuning.
const (
	giftCoinMegaThreshold = 50
	giftCoinSingle        = 1
	giftFullPayout        = 10
	giftSplitPayout       = 5
)

// Gate answers whether an author already has a request queued for a kind.
// FastSlow, Big, and PickaxeChange are idempotent per author while pending:
// a second matching comment is ignored until the consumer drains the first.
type Gate interface {
	HasPending(k command.Kind, authorID string) bool
}

// pickaxeKeywords is checked in order; the first keyword found in the comment
// wins.
var pickaxeKeywords = []struct {
	word string
	tier command.Pickaxe
}{
	{"wood", command.PickaxeWooden},
	{"stone", command.PickaxeStone},
	{"iron", command.PickaxeIron},
	{"gold", command.PickaxeGolden},
	{"diamond", command.PickaxeDiamond},
	{"netherite", command.PickaxeNetherite},
}

// Classifier turns events into requests. It owns the like accumulator; all
// other state it consults lives behind the Gate.
type Classifier struct {
	gate  Gate
	likes *LikeAccumulator
}

// New builds a classifier gated by gate, bundling likes in groups of
// bundleSize (values below 1 fall back to DefaultLikeBundle).
func New(gate Gate, bundleSize int) *Classifier {
	return &Classifier{gate: gate, likes: NewLikeAccumulator(bundleSize)}
}

// Likes exposes the accumulator, mainly for introspection in tests and health
// reporting.
func (c *Classifier) Likes() *LikeAccumulator { return c.likes }

// Classify returns the requests ev produces, possibly none.
func (c *Classifier) Classify(ev event.Event) []command.Request {
	switch e := ev.(type) {
	case event.Comment:
		return c.comment(e)
	case event.Gift:
		return c.gift(e)
	case event.Like:
		return c.like(e)
	}
	return nil
}

func (c *Classifier) comment(e event.Comment) []command.Request {
	text := strings.ToLower(strings.TrimSpace(e.Text))
	base := command.Request{
		AuthorID:    e.User.ID,
		DisplayName: e.User.DisplayName,
		Message:     e.Text,
		AvatarURL:   e.User.AvatarURL,
		Count:       1,
	}

	var out []command.Request

	if strings.Contains(text, "tnt") {
		r := base
		r.Kind = command.TNT
		r.Highlight = "tnt"
		out = append(out, r)
	}
	if strings.Contains(text, "megatnt") {
		r := base
		r.Kind = command.MegaTNT
		r.Highlight = "megatnt"
		out = append(out, r)
	}

	var choice command.Speed
	if strings.Contains(text, "fast") {
		choice = command.SpeedFast
	} else if strings.Contains(text, "slow") {
		choice = command.SpeedSlow
	}
	if choice != "" && !c.gate.HasPending(command.FastSlow, e.User.ID) {
		r := base
		r.Kind = command.FastSlow
		r.Choice = choice
		out = append(out, r)
	}

	if strings.Contains(text, "big") && !c.gate.HasPending(command.Big, e.User.ID) {
		r := base
		r.Kind = command.Big
		out = append(out, r)
	}

	for _, pk := range pickaxeKeywords {
		if strings.Contains(text, pk.word) {
			if !c.gate.HasPending(command.PickaxeChange, e.User.ID) {
				r := base
				r.Kind = command.PickaxeChange
				r.Pickaxe = pk.tier
				out = append(out, r)
			}
			break
		}
	}

	return out
}

func (c *Classifier) gift(e event.Gift) []command.Request {
	name := e.GiftName
	if name == "" {
		name = "Live gift"
	}
	base := command.Request{
		AuthorID:    e.User.ID,
		DisplayName: e.User.DisplayName,
		Message:     fmt.Sprintf("Gift: %s", name),
		AvatarURL:   e.User.AvatarURL,
		Priority:    command.PriorityGift,
	}

	var tnt, mega int
	switch {
	case e.CoinKnown && e.CoinValue > giftCoinMegaThreshold:
		mega = giftFullPayout
	case e.CoinKnown && e.CoinValue > giftCoinSingle:
		tnt, mega = giftSplitPayout, giftSplitPayout
	case e.CoinKnown:
		tnt = giftFullPayout
	case e.Quantity > 1:
		tnt, mega = giftSplitPayout, giftSplitPayout
	default:
		tnt = giftFullPayout
	}

	var out []command.Request
	if tnt > 0 {
		r := base
		r.Kind = command.TNT
		r.Highlight = "tnt"
		r.Count = tnt
		out = append(out, r)
	}
	if mega > 0 {
		r := base
		r.Kind = command.MegaTNT
		r.Highlight = "megatnt"
		r.Count = mega
		out = append(out, r)
	}
	return out
}

func (c *Classifier) like(e event.Like) []command.Request {
	bundles := c.likes.Add(e.User.ID, e.Count)
	if bundles <= 0 {
		return nil
	}
	out := make([]command.Request, 0, bundles)
	for i := 0; i < bundles; i++ {
		out = append(out, command.Request{
			Kind:        command.MegaTNT,
			AuthorID:    e.User.ID,
			DisplayName: e.User.DisplayName,
			Message:     fmt.Sprintf("Likes x%d", c.likes.BundleSize()),
			AvatarURL:   e.User.AvatarURL,
			Count:       1,
			Highlight:   "megatnt",
		})
	}
	return out
}
