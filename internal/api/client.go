package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/zhulik/pips"

	"instafeed/internal/core"
	"instafeed/internal/feed"
	"instafeed/pkg/chans"
)

var ErrRemoteFeed = errors.New("remote feed error")

// Subscribe dials a remote /v1/feed endpoint. The channel is closed when the connection or ctx ends. A remote
// SyncFailure is delivered as the last element.
func Subscribe(ctx context.Context, url, token string) (<-chan pips.D[feed.Snapshot], error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}

	ch := make(chan pips.D[feed.Snapshot])

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	go func() {
		defer close(ch)
		defer conn.Close()

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					chans.Send(ctx, ch, pips.ErrD[feed.Snapshot](fmt.Errorf("%w: %w", core.ErrSyncFailure, err)))
				}
				return
			}

			var msg feedMessage
			if err := json.Unmarshal(message, &msg); err != nil {
				chans.Send(ctx, ch, pips.ErrD[feed.Snapshot](fmt.Errorf("%w: %w", ErrRemoteFeed, err)))
				return
			}

			if msg.Error != "" || msg.Snapshot == nil {
				chans.Send(ctx, ch, pips.ErrD[feed.Snapshot](fmt.Errorf("%w: %w: %s", core.ErrSyncFailure, ErrRemoteFeed, msg.Error)))
				return
			}

			if !chans.Send(ctx, ch, pips.NewD(*msg.Snapshot)) {
				return
			}
		}
	}()

	return ch, nil
}
