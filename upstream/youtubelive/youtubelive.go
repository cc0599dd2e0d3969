// Package youtubelive adapts the YouTube Live chat API to the upstream client
// contract. It resolves the channel's active broadcast, then polls the live
// chat at the interval the API asks for. Text messages become comments; super
// chats and super stickers become gift events with a coin value derived from
// the paid amount. YouTube exposes no like feed.
package youtubelive

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	youtube "google.golang.org/api/youtube/v3"

	"github.com/onnwee/pickaxe-bridge/event"
	"github.com/onnwee/pickaxe-bridge/upstream"
)

// coinsPerCurrencyUnit converts a super chat amount (in whole currency units)
// into gift coins so the classifier's 1/50 thresholds behave sensibly.
const coinsPerCurrencyUnit = 10

// defaultPollInterval is used when the API omits pollingIntervalMillis.
const defaultPollInterval = 3 * time.Second

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtube\.com/live/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`^([a-zA-Z0-9_-]{11})$`),
}

// ExtractVideoID pulls an 11-character video id out of a YouTube URL, or
// returns the input when it is already a bare id. Empty return means no id
// could be extracted.
func ExtractVideoID(s string) string {
	if s == "" {
		return ""
	}
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(s); m != nil {
			return m[1]
		}
	}
	return ""
}

// Client is one live chat polling session. Build a fresh one per attempt.
type Client struct {
	apiKey    string
	channelID string

	onConnect    func()
	onComment    func(event.Comment)
	onGift       func(event.Gift)
	onDisconnect func(reason string)

	mu     sync.Mutex
	chatID string
}

// New builds a client polling the active live chat of channelID using an API
// key (no OAuth flow; mirrors read-only chat consumption).
func New(apiKey, channelID string) *Client {
	return &Client{apiKey: apiKey, channelID: channelID}
}

func (c *Client) OnConnect(fn func())              { c.onConnect = fn }
func (c *Client) OnComment(fn func(event.Comment)) { c.onComment = fn }
func (c *Client) OnGift(fn func(event.Gift))       { c.onGift = fn }
func (c *Client) OnLike(func(event.Like))          {} // YouTube has no like feed
func (c *Client) OnDisconnect(fn func(string))     { c.onDisconnect = fn }

// RoomID returns the active live chat id, empty before connect.
func (c *Client) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chatID
}

// Connect resolves the active broadcast and polls its chat until the stream
// ends (nil return) or a terminal failure occurs.
func (c *Client) Connect(ctx context.Context) error {
	svc, err := youtube.NewService(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return upstream.Errorf(upstream.CategoryGeneric, "youtube service: %v", err)
	}

	chatID, err := c.findActiveChat(ctx, svc)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.chatID = chatID
	c.mu.Unlock()
	if c.onConnect != nil {
		c.onConnect()
	}

	return c.poll(ctx, svc, chatID)
}

// Disconnect is a no-op: polling stops when the Connect context is canceled.
func (c *Client) Disconnect(context.Context) error { return nil }

func (c *Client) findActiveChat(ctx context.Context, svc *youtube.Service) (string, error) {
	search, err := svc.Search.List([]string{"id"}).
		ChannelId(c.channelID).
		EventType("live").
		Type("video").
		Context(ctx).Do()
	if err != nil {
		return "", classifyAPIError(err, "search live streams")
	}
	if len(search.Items) == 0 {
		return "", upstream.Errorf(upstream.CategoryOffline, "channel %s has no live stream", c.channelID)
	}
	videoID := search.Items[0].Id.VideoId

	videos, err := svc.Videos.List([]string{"liveStreamingDetails"}).
		Id(videoID).
		Context(ctx).Do()
	if err != nil {
		return "", classifyAPIError(err, "fetch live stream details")
	}
	if len(videos.Items) == 0 || videos.Items[0].LiveStreamingDetails == nil ||
		videos.Items[0].LiveStreamingDetails.ActiveLiveChatId == "" {
		return "", upstream.Errorf(upstream.CategoryOffline, "live stream %s has no active chat", videoID)
	}
	return videos.Items[0].LiveStreamingDetails.ActiveLiveChatId, nil
}

func (c *Client) poll(ctx context.Context, svc *youtube.Service, chatID string) error {
	pageToken := ""
	for {
		call := svc.LiveChatMessages.List(chatID, []string{"snippet", "authorDetails"}).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var gerr *googleapi.Error
			if errors.As(err, &gerr) && gerr.Code == 403 && hasReason(gerr, "liveChatEnded") {
				if c.onDisconnect != nil {
					c.onDisconnect("live chat ended")
				}
				return nil
			}
			return classifyAPIError(err, "poll live chat")
		}

		for _, item := range resp.Items {
			c.dispatch(item)
		}
		if resp.OfflineAt != "" {
			if c.onDisconnect != nil {
				c.onDisconnect("stream went offline")
			}
			return nil
		}
		pageToken = resp.NextPageToken

		wait := defaultPollInterval
		if resp.PollingIntervalMillis > 0 {
			wait = time.Duration(resp.PollingIntervalMillis) * time.Millisecond
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) dispatch(item *youtube.LiveChatMessage) {
	if item == nil || item.Snippet == nil {
		return
	}
	author := event.Author{}
	if item.AuthorDetails != nil {
		author = event.Author{
			ID:          item.AuthorDetails.ChannelId,
			DisplayName: item.AuthorDetails.DisplayName,
			AvatarURL:   item.AuthorDetails.ProfileImageUrl,
		}
	}
	ts := time.Now()
	if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
		ts = t
	}

	switch {
	case item.Snippet.SuperChatDetails != nil:
		sc := item.Snippet.SuperChatDetails
		if c.onGift != nil {
			c.onGift(event.Gift{
				User:      author,
				GiftID:    item.Id,
				GiftName:  "Super Chat",
				Quantity:  1,
				CoinValue: coinsForMicros(sc.AmountMicros),
				CoinKnown: true,
				ID:        item.Id,
				Timestamp: ts,
			})
		}
	case item.Snippet.SuperStickerDetails != nil:
		ss := item.Snippet.SuperStickerDetails
		if c.onGift != nil {
			c.onGift(event.Gift{
				User:      author,
				GiftID:    item.Id,
				GiftName:  "Super Sticker",
				Quantity:  1,
				CoinValue: coinsForMicros(ss.AmountMicros),
				CoinKnown: true,
				ID:        item.Id,
				Timestamp: ts,
			})
		}
	default:
		if c.onComment != nil {
			c.onComment(event.Comment{
				User:      author,
				Text:      item.Snippet.DisplayMessage,
				ID:        item.Id,
				Timestamp: ts,
			})
		}
	}
}

// coinsForMicros converts a paid amount in currency micros into gift coins,
// never less than 1 coin for a real payment.
func coinsForMicros(micros uint64) int {
	coins := int(micros / 1_000_000 * coinsPerCurrencyUnit)
	if coins < 1 {
		coins = 1
	}
	return coins
}

func classifyAPIError(err error, op string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == 429 || (gerr.Code == 403 && (hasReason(gerr, "quotaExceeded") || hasReason(gerr, "rateLimitExceeded"))):
			return upstream.Errorf(upstream.CategoryRateLimited, "%s: %v", op, err)
		case gerr.Code == 404:
			return upstream.Errorf(upstream.CategoryOffline, "%s: %v", op, err)
		}
	}
	return upstream.Errorf(upstream.CategoryGeneric, "%s: %v", op, err)
}

func hasReason(gerr *googleapi.Error, reason string) bool {
	for _, e := range gerr.Errors {
		if e.Reason == reason {
			return true
		}
	}
	return false
}
