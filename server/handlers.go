package server

import (
	"encoding/json"
	"net/http"

	"github.com/onnwee/pickaxe-bridge/contrib"
)

// Handlers bundles the route implementations with their dependencies.
type Handlers struct {
	deps Deps
}

// HandleHealthz responds to liveness probe requests. When a database is
// configured it also checks connectivity.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.deps.DB != nil {
		if err := h.deps.DB.PingContext(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz reports ready only when the bridge holds a live upstream
// session. Load balancers use this to keep traffic off instances that are
// still connecting or backing off.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.deps.Bridge == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":       "not_ready",
			"failed_check": "bridge",
			"error":        "bridge disabled: platform credentials missing",
		})
		return
	}
	if got := h.deps.Bridge.State().String(); got != "connected" {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":       "not_ready",
			"failed_check": "upstream",
			"error":        "connection state is " + got,
		})
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

type statusResponse struct {
	Bridge      string          `json:"bridge"`
	State       string          `json:"state,omitempty"`
	Room        string          `json:"room,omitempty"`
	Queues      map[string]int  `json:"queues,omitempty"`
	LastComment *float64        `json:"last_comment_seconds,omitempty"`
	LastGift    *float64        `json:"last_gift_seconds,omitempty"`
	Flashes     []string        `json:"flashes,omitempty"`
	Leaderboard []contrib.Entry `json:"leaderboard,omitempty"`
}

// HandleStatus returns a JSON snapshot of the bridge: connection state, queue
// depths, event recency, active trigger flashes, and the top contributors when
// a store is configured.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Bridge: "disabled"}

	if b := h.deps.Bridge; b != nil {
		resp.Bridge = "enabled"
		resp.State = b.State().String()
		resp.Room = b.RoomID()
		resp.Queues = make(map[string]int)
		for kind, n := range b.Queues().Depths() {
			resp.Queues[kind.String()] = n
		}
		if age, ok := b.LastCommentAge(); ok {
			s := age.Seconds()
			resp.LastComment = &s
		}
		if age, ok := b.LastGiftAge(); ok {
			s := age.Seconds()
			resp.LastGift = &s
		}
	}
	if h.deps.Flasher != nil {
		resp.Flashes = h.deps.Flasher.Active()
	}
	if h.deps.Contrib != nil {
		if top, err := h.deps.Contrib.Top(r.Context(), 10); err == nil {
			resp.Leaderboard = top
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// HandleLeaderboard returns the full top-25 contributor list.
func (h *Handlers) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if h.deps.Contrib == nil {
		http.Error(w, "leaderboard disabled: no database configured", http.StatusNotFound)
		return
	}
	top, err := h.deps.Contrib.Top(r.Context(), 25)
	if err != nil {
		http.Error(w, "leaderboard query failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"leaderboard": top})
}
