package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/webmark/webmark/internal/broker"
	"github.com/webmark/webmark/internal/httpserver/deps"
	"github.com/webmark/webmark/internal/logger"
	"github.com/webmark/webmark/internal/utils"
)

const (
	writeTimeout  = 10 * time.Second
	pongTimeout   = 60 * time.Second
	pingInterval  = 45 * time.Second
	outboundDepth = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Page contexts connect from arbitrary origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Sync upgrades a page context to the sync protocol: request envelopes
// in, responses and fan-out notifications out. The context subscribes
// with its page URL; an empty url subscribes to every record change.
func Sync(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageURL := r.URL.Query().Get("url")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			d.Logger.Warn("websocket upgrade failed", logger.Error(err))
			return
		}

		subID, notifs := d.Broker.Subscribe(pageURL)
		d.Logger.Info("page context connected",
			logger.String("url", pageURL),
			logger.String("remote_ip", r.RemoteAddr))

		outbound := make(chan any, outboundDepth)
		done := make(chan struct{})

		// Single writer: responses and notifications share one pump so
		// concurrent writes never interleave on the wire.
		go func() {
			ticker := time.NewTicker(pingInterval)
			defer ticker.Stop()
			defer utils.Close(conn)
			for {
				select {
				case msg, ok := <-outbound:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteJSON(msg); err != nil {
						return
					}
				case n, ok := <-notifs:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteJSON(n); err != nil {
						return
					}
				case <-ticker.C:
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongTimeout))
		})

		for {
			var msg broker.Message
			if err := conn.ReadJSON(&msg); err != nil {
				break
			}
			resp := d.Broker.Dispatch(r.Context(), msg)
			select {
			case outbound <- resp:
			case <-done:
			}
		}

		close(done)
		d.Broker.Unsubscribe(subID)
		d.Logger.Info("page context disconnected",
			logger.String("url", pageURL))
	}
}
