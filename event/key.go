package event

import "fmt"

// Key returns a stable identity for ev, used to recognize duplicates when the
// platform replays history after a reconnect. Explicit platform message IDs
// win; otherwise a key is synthesized from the event's own fields so replays
// of identical payloads still collide. The second return is false when neither
// an explicit ID nor enough fields exist to synthesize one; callers must treat
// that as "cannot deduplicate" and process the event anyway.
func Key(ev Event) (string, bool) {
	if id := ev.RawID(); id != "" {
		return id, true
	}

	switch e := ev.(type) {
	case Comment:
		if e.User.ID == "" && e.Text == "" {
			return "", false
		}
		return fmt.Sprintf("comment:%s:%s:%d", e.User.ID, e.Text, e.Timestamp.UnixMilli()), true
	case Gift:
		content := e.GiftID
		if content == "" {
			content = e.GiftName
		}
		if e.User.ID == "" && content == "" {
			return "", false
		}
		return fmt.Sprintf("gift:%s:%s:%d", e.User.ID, content, e.Timestamp.UnixMilli()), true
	case Like:
		if e.User.ID == "" {
			return "", false
		}
		return fmt.Sprintf("like:%s:%d:%d", e.User.ID, e.Count, e.Timestamp.UnixMilli()), true
	}
	return "", false
}
