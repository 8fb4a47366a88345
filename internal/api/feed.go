package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zhulik/pips"
	"github.com/zhulik/pips/apply"

	"instafeed/internal/feed"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// feedMessage is one websocket frame: a snapshot, or the terminal error.
type feedMessage struct {
	Snapshot *feed.Snapshot `json:"snapshot,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func (s *Server) feed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger(r.Context()).Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := s.Synchronizer.Subscribe(r.Context())
	defer sub.Unsubscribe()

	// The client never sends anything, reading only detects a closed connection.
	go func() {
		defer sub.Unsubscribe()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	err = pips.New[feed.Snapshot, any]().
		Then(apply.Each(func(_ context.Context, snapshot feed.Snapshot) error {
			return writeFrame(conn, feedMessage{Snapshot: &snapshot})
		})).
		Run(r.Context(), sub.C()).
		Wait(r.Context())
	if err != nil && sub.Err() == nil {
		logger(r.Context()).Debug("websocket write failed", "error", err)
		return
	}

	if err := sub.Err(); err != nil {
		if err := writeFrame(conn, feedMessage{Error: err.Error()}); err != nil {
			logger(r.Context()).Debug("websocket write failed", "error", err)
			return
		}
	}

	deadline := time.Now().Add(time.Second)
	conn.WriteControl(websocket.CloseMessage, //nolint:errcheck
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
}

func writeFrame(conn *websocket.Conn, msg feedMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
	return conn.WriteJSON(msg)
}
