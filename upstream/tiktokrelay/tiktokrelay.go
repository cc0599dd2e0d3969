// Package tiktokrelay consumes TikTok Live events from a local webcast relay.
// The relay speaks the TikTok wire protocol and re-publishes comment, gift,
// and like events as JSON envelopes over a WebSocket, which keeps the protocol
// churn out of this process. Session failures are mapped onto the upstream
// error taxonomy via the relay's error envelopes and close codes.
package tiktokrelay

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/onnwee/pickaxe-bridge/event"
	"github.com/onnwee/pickaxe-bridge/upstream"
)

// envelope is one relay message. Type selects which fields are meaningful.
type envelope struct {
	Type      string `json:"type"` // room | comment | gift | like | error | end
	ID        string `json:"id,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"` // unix millis

	User struct {
		ID        string `json:"id"`
		Nickname  string `json:"nickname"`
		AvatarURL string `json:"avatar_url"`
	} `json:"user,omitempty"`

	Comment string `json:"comment,omitempty"`

	Gift struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		RepeatCount  int    `json:"repeat_count"`
		DiamondCount *int   `json:"diamond_count"`
	} `json:"gift,omitempty"`

	LikeCount int `json:"like_count,omitempty"`

	RoomID string `json:"room_id,omitempty"`
	Code   string `json:"code,omitempty"` // error envelopes: offline | already_connected | rate_limited | sign_error
	Reason string `json:"reason,omitempty"`
}

// Client is one relay session. Build a fresh one per connection attempt.
type Client struct {
	relayURL string
	uniqueID string

	onConnect    func()
	onComment    func(event.Comment)
	onGift       func(event.Gift)
	onLike       func(event.Like)
	onDisconnect func(reason string)

	mu     sync.Mutex
	conn   *websocket.Conn
	roomID string
}

// New builds a client that will subscribe to uniqueID's live room through the
// relay at relayURL (ws:// or wss://).
func New(relayURL, uniqueID string) *Client {
	return &Client{relayURL: relayURL, uniqueID: uniqueID}
}

func (c *Client) OnConnect(fn func())              { c.onConnect = fn }
func (c *Client) OnComment(fn func(event.Comment)) { c.onComment = fn }
func (c *Client) OnGift(fn func(event.Gift))       { c.onGift = fn }
func (c *Client) OnLike(fn func(event.Like))       { c.onLike = fn }
func (c *Client) OnDisconnect(fn func(string))     { c.onDisconnect = fn }

// RoomID returns the live room id reported by the relay, empty before connect.
func (c *Client) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

// Connect dials the relay and pumps events until the session ends. A nil
// return means the stream ended; errors are tagged with an upstream category.
func (c *Client) Connect(ctx context.Context) error {
	target, err := url.Parse(c.relayURL)
	if err != nil {
		return upstream.Errorf(upstream.CategoryGeneric, "relay url: %v", err)
	}
	q := target.Query()
	q.Set("unique_id", c.uniqueID)
	target.RawQuery = q.Encode()

	conn, resp, err := websocket.Dial(ctx, target.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == 429 {
			return upstream.Errorf(upstream.CategoryRateLimited, "relay dial: %v", err)
		}
		return upstream.Errorf(upstream.CategoryGeneric, "relay dial: %v", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer conn.Close(websocket.StatusNormalClosure, "session over")

	for {
		var env envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				// Relay closed cleanly without an end envelope; treat as
				// stream ended.
				return nil
			default:
				return upstream.Errorf(upstream.CategoryGeneric, "relay read: %v", err)
			}
		}
		if done, err := c.dispatch(env); done || err != nil {
			return err
		}
	}
}

// dispatch handles one envelope; done is true when the session is over.
func (c *Client) dispatch(env envelope) (done bool, err error) {
	switch env.Type {
	case "room":
		c.mu.Lock()
		c.roomID = env.RoomID
		c.mu.Unlock()
		if c.onConnect != nil {
			c.onConnect()
		}
	case "comment":
		if c.onComment != nil {
			c.onComment(event.Comment{
				User:      c.author(env),
				Text:      env.Comment,
				ID:        env.ID,
				Timestamp: c.when(env),
			})
		}
	case "gift":
		g := event.Gift{
			User:      c.author(env),
			GiftID:    env.Gift.ID,
			GiftName:  env.Gift.Name,
			Quantity:  env.Gift.RepeatCount,
			ID:        env.ID,
			Timestamp: c.when(env),
		}
		if g.Quantity < 1 {
			g.Quantity = 1
		}
		if env.Gift.DiamondCount != nil {
			g.CoinValue = *env.Gift.DiamondCount
			g.CoinKnown = true
		}
		if c.onGift != nil {
			c.onGift(g)
		}
	case "like":
		if c.onLike != nil {
			c.onLike(event.Like{
				User:      c.author(env),
				Count:     env.LikeCount,
				ID:        env.ID,
				Timestamp: c.when(env),
			})
		}
	case "end":
		if c.onDisconnect != nil {
			c.onDisconnect("stream ended")
		}
		return true, nil
	case "error":
		if c.onDisconnect != nil {
			c.onDisconnect(env.Reason)
		}
		return true, upstream.Errorf(categoryFor(env.Code), "relay: %s", env.Reason)
	default:
		slog.Debug("relay: ignoring envelope", slog.String("type", env.Type))
	}
	return false, nil
}

func (c *Client) author(env envelope) event.Author {
	return event.Author{
		ID:          env.User.ID,
		DisplayName: env.User.Nickname,
		AvatarURL:   env.User.AvatarURL,
	}
}

func (c *Client) when(env envelope) time.Time {
	if env.Timestamp > 0 {
		return time.UnixMilli(env.Timestamp)
	}
	return time.Now()
}

// Disconnect closes the relay session.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	if err := conn.Close(websocket.StatusNormalClosure, "bridge shutdown"); err != nil {
		return fmt.Errorf("relay close: %w", err)
	}
	return nil
}

func categoryFor(code string) upstream.Category {
	switch code {
	case "offline", "room_closed":
		return upstream.CategoryOffline
	case "already_connected":
		return upstream.CategoryAlreadyConnected
	case "rate_limited", "sign_error":
		return upstream.CategoryRateLimited
	default:
		return upstream.CategoryGeneric
	}
}
