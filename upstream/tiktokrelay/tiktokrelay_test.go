package tiktokrelay

import (
	"testing"
	"time"

	"github.com/onnwee/pickaxe-bridge/event"
	"github.com/onnwee/pickaxe-bridge/upstream"
)

func TestDispatchComment(t *testing.T) {
	c := New("ws://localhost:9000/feed", "streamer")
	var got event.Comment
	c.OnComment(func(e event.Comment) { got = e })

	env := envelope{Type: "comment", ID: "m1", Comment: "drop tnt", Timestamp: 1700000000000}
	env.User.ID = "7"
	env.User.Nickname = "viewer"
	done, err := c.dispatch(env)
	if done || err != nil {
		t.Fatalf("dispatch(comment) = %v, %v; want false, nil", done, err)
	}
	if got.User.ID != "7" || got.Text != "drop tnt" || got.ID != "m1" {
		t.Errorf("comment = %+v, want mapped envelope fields", got)
	}
	if !got.Timestamp.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("timestamp = %v, want relay millis", got.Timestamp)
	}
}

func TestDispatchGiftCoinValue(t *testing.T) {
	c := New("ws://localhost:9000/feed", "streamer")
	var got event.Gift
	c.OnGift(func(e event.Gift) { got = e })

	coins := 25
	env := envelope{Type: "gift"}
	env.Gift.ID = "g-5"
	env.Gift.Name = "Rose"
	env.Gift.DiamondCount = &coins
	if _, err := c.dispatch(env); err != nil {
		t.Fatalf("dispatch(gift) error: %v", err)
	}
	if !got.CoinKnown || got.CoinValue != 25 {
		t.Errorf("gift coins = %d known=%v, want 25 known", got.CoinValue, got.CoinKnown)
	}
	if got.Quantity != 1 {
		t.Errorf("gift quantity = %d, want normalized 1", got.Quantity)
	}
}

func TestDispatchRoomSetsRoomIDAndConnect(t *testing.T) {
	c := New("ws://localhost:9000/feed", "streamer")
	connected := false
	c.OnConnect(func() { connected = true })
	if _, err := c.dispatch(envelope{Type: "room", RoomID: "room-1"}); err != nil {
		t.Fatalf("dispatch(room) error: %v", err)
	}
	if !connected {
		t.Errorf("OnConnect not fired")
	}
	if c.RoomID() != "room-1" {
		t.Errorf("RoomID() = %q, want room-1", c.RoomID())
	}
}

func TestDispatchErrorEnvelopeCategories(t *testing.T) {
	tests := []struct {
		code string
		want upstream.Category
	}{
		{"offline", upstream.CategoryOffline},
		{"room_closed", upstream.CategoryOffline},
		{"already_connected", upstream.CategoryAlreadyConnected},
		{"sign_error", upstream.CategoryRateLimited},
		{"rate_limited", upstream.CategoryRateLimited},
		{"weird", upstream.CategoryGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			c := New("ws://localhost:9000/feed", "streamer")
			done, err := c.dispatch(envelope{Type: "error", Code: tt.code, Reason: "x"})
			if !done {
				t.Fatalf("error envelope should end the session")
			}
			if got := upstream.Classify(err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDispatchEndEnvelope(t *testing.T) {
	c := New("ws://localhost:9000/feed", "streamer")
	var reason string
	c.OnDisconnect(func(r string) { reason = r })
	done, err := c.dispatch(envelope{Type: "end"})
	if !done || err != nil {
		t.Fatalf("dispatch(end) = %v, %v; want true, nil", done, err)
	}
	if reason != "stream ended" {
		t.Errorf("disconnect reason = %q", reason)
	}
}
