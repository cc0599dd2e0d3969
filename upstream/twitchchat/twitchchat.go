// Package twitchchat adapts a Twitch IRC session to the upstream client
// contract. Chat messages become comments; sub and gift-sub notices become
// gift events with coin values approximated from the sub tier. Twitch has no
// like events.
package twitchchat

import (
	"context"
	"errors"
	"strings"
	"sync"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/onnwee/pickaxe-bridge/event"
	"github.com/onnwee/pickaxe-bridge/upstream"
)

// Sub tiers mapped onto gift coin values so the classifier's thresholds (1/50)
// split them into the intended payouts: tier 1 -> plain TNT, tier 2 -> mixed,
// tier 3 -> all MegaTNT.
const (
	coinsTier1 = 1
	coinsTier2 = 10
	coinsTier3 = 60
)

// Client is one IRC session. Build a fresh one per connection attempt.
type Client struct {
	channel string
	irc     *twitch.Client

	onConnect    func()
	onComment    func(event.Comment)
	onGift       func(event.Gift)
	onDisconnect func(reason string)

	mu     sync.Mutex
	roomID string
}

// New builds a client for channel, authenticating as username with an
// "oauth:" prefixed token.
func New(channel, username, token string) *Client {
	return &Client{channel: channel, irc: twitch.NewClient(username, token)}
}

func (c *Client) OnConnect(fn func())              { c.onConnect = fn }
func (c *Client) OnComment(fn func(event.Comment)) { c.onComment = fn }
func (c *Client) OnGift(fn func(event.Gift))       { c.onGift = fn }
func (c *Client) OnLike(func(event.Like))          {} // Twitch has no like feed
func (c *Client) OnDisconnect(fn func(string))     { c.onDisconnect = fn }

// RoomID returns the Twitch room id seen on the first message, empty before
// that.
func (c *Client) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

// Connect joins the channel and blocks until the session ends. Disconnect
// causes a nil return (stream-ended semantics).
func (c *Client) Connect(ctx context.Context) error {
	c.irc.OnConnect(func() {
		if c.onConnect != nil {
			c.onConnect()
		}
	})
	c.irc.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		c.setRoomID(msg.RoomID)
		if c.onComment != nil {
			c.onComment(event.Comment{
				User: event.Author{
					ID:          msg.User.ID,
					DisplayName: msg.User.DisplayName,
				},
				Text:      msg.Message,
				ID:        msg.ID,
				Timestamp: msg.Time,
			})
		}
	})
	c.irc.OnUserNoticeMessage(func(msg twitch.UserNoticeMessage) {
		c.setRoomID(msg.RoomID)
		g, ok := giftFromNotice(msg)
		if ok && c.onGift != nil {
			c.onGift(g)
		}
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.irc.Disconnect()
		case <-done:
		}
	}()

	c.irc.Join(c.channel)
	err := c.irc.Connect()
	if err == nil || errors.Is(err, twitch.ErrClientDisconnected) {
		if c.onDisconnect != nil {
			c.onDisconnect("session closed")
		}
		return nil
	}
	if errors.Is(err, twitch.ErrLoginAuthenticationFailed) {
		return upstream.Wrap(upstream.CategoryRateLimited, err)
	}
	return upstream.Wrap(upstream.CategoryGeneric, err)
}

// Disconnect closes the IRC session; Connect then returns nil.
func (c *Client) Disconnect(context.Context) error {
	if err := c.irc.Disconnect(); err != nil && !errors.Is(err, twitch.ErrConnectionIsNotOpen) {
		return err
	}
	return nil
}

func (c *Client) setRoomID(id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	c.roomID = id
	c.mu.Unlock()
}

// giftFromNotice converts sub-family user notices into gift events. Other
// notice types (raids, rituals) are ignored.
func giftFromNotice(msg twitch.UserNoticeMessage) (event.Gift, bool) {
	switch msg.MsgID {
	case "sub", "resub", "subgift", "submysterygift":
	default:
		return event.Gift{}, false
	}

	quantity := 1
	if msg.MsgID == "submysterygift" {
		if n, ok := msg.MsgParams["msg-param-mass-gift-count"]; ok {
			quantity = parsePositive(n, 1)
		}
	}

	g := event.Gift{
		User: event.Author{
			ID:          msg.User.ID,
			DisplayName: msg.User.DisplayName,
		},
		GiftID:    msg.MsgID,
		GiftName:  giftName(msg.MsgID),
		Quantity:  quantity,
		CoinValue: coinsForPlan(msg.MsgParams["msg-param-sub-plan"]),
		CoinKnown: true,
		ID:        msg.ID,
		Timestamp: msg.Time,
	}
	return g, true
}

func giftName(msgID string) string {
	switch msgID {
	case "subgift", "submysterygift":
		return "Gifted Sub"
	default:
		return "Subscription"
	}
}

func coinsForPlan(plan string) int {
	switch strings.ToLower(plan) {
	case "2000":
		return coinsTier2
	case "3000":
		return coinsTier3
	default: // "1000", "Prime", missing
		return coinsTier1
	}
}

func parsePositive(s string, fallback int) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return fallback
		}
		n = n*10 + int(r-'0')
	}
	if n < 1 {
		return fallback
	}
	return n
}
