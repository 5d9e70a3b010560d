package server

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// ServeWS upgrades an HTTP request to a websocket connection and hands it
// to the orchestrator. Grounded on the teacher's HandleWebSocket: origin
// checking is left permissive here since gridstrike has no browser-hosted
// client of its own to restrict against, unlike the teacher's embedded
// static frontend.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("websocket upgrade failed", "error", err)
		return
	}
	s.Accept(conn)
}
