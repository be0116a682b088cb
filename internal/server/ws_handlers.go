package server

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// local app; allow all
		return true
	},
}

func (s *Server) handleWSCal(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := s.wsCal.Add(conn)
	s.log.Debugf("websocket client connected from %s", r.RemoteAddr)

	// A client joining mid-run still needs the question on screen.
	if p, ok := s.operator.Pending(); ok {
		_ = client.Send(WSMessage{Type: msgPrompt, Data: p})
	}

	// Keep reading until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.wsCal.Remove(client)
			return
		}
	}
}
