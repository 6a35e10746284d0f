package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
	pollInterval = 500 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Events streams job snapshots over a websocket. A snapshot is sent on
// connect and whenever the job changes; the socket is closed normally once
// the job is terminal.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	done, ok := h.jobs.Done(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Request not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[API] Events: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Reads only service control frames; any error means the peer is gone.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	log.Printf("[API] Events: connected | %s", id)

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()
	pollTicker := time.NewTicker(pollInterval)
	defer pollTicker.Stop()

	var last *JobReply
	send := func() (bool, error) {
		job, ok := h.jobs.Get(id)
		if !ok {
			return true, nil
		}
		reply := h.replyFor(r, job)
		if last == nil || !sameReply(*last, reply) {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(reply); err != nil {
				return true, err
			}
			last = &reply
		}
		return job.Status.Terminal(), nil
	}

	for {
		finished, err := send()
		if err != nil {
			log.Printf("[API] Events: write failed | %s: %v", id, err)
			return
		}
		if finished {
			break
		}

		select {
		case <-done:
		case <-pollTicker.C:
		case <-pingTicker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-gone:
			log.Printf("[API] Events: client left | %s", id)
			return
		case <-r.Context().Done():
			return
		}
	}

	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(2*time.Second),
	)
	log.Printf("[API] Events: finished | %s", id)
}

func sameReply(a, b JobReply) bool {
	if a.Status != b.Status || a.DownloadURL != b.DownloadURL || a.Message != b.Message {
		return false
	}
	if a.Progress == nil || b.Progress == nil {
		return a.Progress == b.Progress
	}
	return *a.Progress == *b.Progress
}
