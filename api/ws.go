package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"widget-dashboard/auth"
	"widget-dashboard/live"
	"widget-dashboard/preference"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is a control message in either direction.
type wsMessage struct {
	Type string `json:"type"`
}

// preferencesMessage always carries both fields so clients see the same
// shape as GET /api/preferences.
type preferencesMessage struct {
	Type       string                  `json:"type"`
	Version    uint64                  `json:"version"`
	Components []preference.Descriptor `json:"components"`
}

func updateMessage(u live.Update) preferencesMessage {
	return preferencesMessage{Type: "preferences", Version: u.Version, Components: preference.NewDocument(u.Components).Components}
}

func (h *handler) handleWS(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.EmailFromContext(r.Context())

	// Attach before reading the store so a save landing in between is
	// either in the read or pushed to this client.
	feed, client := h.hub.Attach(email)
	defer h.hub.Detach(email, feed, client)

	u, err := h.store.User(r.Context(), email)
	if err != nil {
		h.storeError(w, err)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	// gorilla/websocket forbids concurrent writes.
	var writeMu sync.Mutex
	writeMsg := func(msg any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(msg)
	}

	metricLiveClients.Inc()
	defer metricLiveClients.Dec()

	feed.Publish(live.Update{Version: u.Version, Components: u.Components})
	latest, _ := feed.Latest()
	if err := writeMsg(updateMessage(latest)); err != nil {
		h.logger.Debug("ws replay", zap.Error(err))
		return
	}

	// Exits when Detach closes client.Out.
	go func() {
		for u := range client.Out {
			if u.Version <= latest.Version {
				continue
			}
			if err := writeMsg(updateMessage(u)); err != nil {
				return
			}
		}
	}()

	// Close the connection on displacement so ReadJSON below unblocks.
	connDone := make(chan struct{})
	go func() {
		select {
		case <-client.Kicked():
			conn.Close()
		case <-connDone:
		}
	}()
	defer close(connDone)

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type == "ping" {
			if err := writeMsg(wsMessage{Type: "pong"}); err != nil {
				return
			}
		}
	}
}
