package server

import (
	"net/http"
	"time"

	"github.com/etnz/tradesim/logging"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Stream upgrades to a websocket and sends one JSON session.Update per
// market cycle, until the client leaves or the session ends.
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	updates, cancel, err := controllerFrom(r.Context()).Subscribe()
	if err != nil {
		HandleErrors(w, r, err)
		return
	}
	defer cancel()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the client.
		logging.FromContext(r.Context()).WithError(err).Debug("websocket upgrade failed")
		return
	}
	defer conn.Close()
	log := logging.FromContext(r.Context())

	// the read loop only handles control frames and detects the client leaving
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(pongWait)) })
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-gone:
			return
		case u, ok := <-updates:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
				return
			}
			if err := conn.WriteJSON(u); err != nil {
				log.WithError(err).Debug("websocket write failed")
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
