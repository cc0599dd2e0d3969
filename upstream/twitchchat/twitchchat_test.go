package twitchchat

import (
	"testing"

	twitch "github.com/gempir/go-twitch-irc/v4"
)

func TestGiftFromNoticeSubPlans(t *testing.T) {
	tests := []struct {
		name      string
		plan      string
		wantCoins int
	}{
		{"tier 1", "1000", coinsTier1},
		{"prime", "Prime", coinsTier1},
		{"tier 2", "2000", coinsTier2},
		{"tier 3", "3000", coinsTier3},
		{"missing plan", "", coinsTier1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := twitch.UserNoticeMessage{
				MsgID:     "sub",
				MsgParams: map[string]string{"msg-param-sub-plan": tt.plan},
			}
			msg.User = twitch.User{ID: "42", DisplayName: "subber"}

			g, ok := giftFromNotice(msg)
			if !ok {
				t.Fatalf("giftFromNotice() ok = false, want true")
			}
			if !g.CoinKnown || g.CoinValue != tt.wantCoins {
				t.Errorf("coins = %d known=%v, want %d", g.CoinValue, g.CoinKnown, tt.wantCoins)
			}
			if g.User.ID != "42" {
				t.Errorf("author = %q, want 42", g.User.ID)
			}
		})
	}
}

func TestGiftFromNoticeMysteryGiftQuantity(t *testing.T) {
	msg := twitch.UserNoticeMessage{
		MsgID: "submysterygift",
		MsgParams: map[string]string{
			"msg-param-mass-gift-count": "5",
			"msg-param-sub-plan":        "1000",
		},
	}
	g, ok := giftFromNotice(msg)
	if !ok {
		t.Fatalf("giftFromNotice() ok = false, want true")
	}
	if g.Quantity != 5 {
		t.Errorf("quantity = %d, want 5", g.Quantity)
	}
	if g.GiftName != "Gifted Sub" {
		t.Errorf("gift name = %q, want Gifted Sub", g.GiftName)
	}
}

func TestGiftFromNoticeIgnoresNonSubNotices(t *testing.T) {
	for _, msgID := range []string{"raid", "ritual", "announcement"} {
		msg := twitch.UserNoticeMessage{MsgID: msgID}
		if _, ok := giftFromNotice(msg); ok {
			t.Errorf("giftFromNotice(%q) ok = true, want false", msgID)
		}
	}
}

func TestParsePositive(t *testing.T) {
	tests := []struct {
		in       string
		fallback int
		want     int
	}{
		{"5", 1, 5},
		{"0", 1, 1},
		{"abc", 1, 1},
		{"", 3, 3},
	}
	for _, tt := range tests {
		if got := parsePositive(tt.in, tt.fallback); got != tt.want {
			t.Errorf("parsePositive(%q, %d) = %d, want %d", tt.in, tt.fallback, got, tt.want)
		}
	}
}
