package monitor

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const writeWait = 2 * time.Second

// stream pushes a StatusPayload every interval until the client goes
// away. Link errors are sent as ErrResponse and the stream goes on.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Println("upgrade:", err)
		return
	}
	defer conn.Close()

	// The client never talks; reading notices when it hangs up.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	tick := time.NewTicker(s.interval)
	defer tick.Stop()
	for {
		var msg interface{}
		if st, err := s.ctl.Status(); err != nil {
			msg = &ErrResponse{StatusText: "Robot unavailable.", ErrorText: err.Error()}
		} else {
			msg = newStatusPayload(st)
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Printf("[%s] write: %v", conn.RemoteAddr(), err)
			return
		}

		select {
		case <-tick.C:
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
