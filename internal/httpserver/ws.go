package httpserver

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/anazari96/voice-agent/internal/agent"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Twilio connects server-to-server; there is no browser origin to check.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsTransport serializes writes to one media-stream websocket.
type wsTransport struct {
	mu   sync.Mutex
	conn *websocket.Conn
	open bool
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	return &wsTransport{conn: conn, open: true}
}

func (t *wsTransport) WriteJSON(v any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.open {
		return websocket.ErrCloseSent
	}
	return t.conn.WriteJSON(v)
}

func (t *wsTransport) Open() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

func (t *wsTransport) markClosed() {
	t.mu.Lock()
	t.open = false
	t.mu.Unlock()
}

// handleStreams accepts a Twilio media-stream websocket and pumps its
// messages into a fresh session. The session's handlers are attached before
// the first read, so no inbound event can be dropped.
func handleStreams(newSession func(ctx context.Context, t agent.Transport) *agent.Session) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			log.Printf("stream upgrade failed: %v", err)
			return err
		}

		transport := newWSTransport(conn)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sess := newSession(ctx, transport)
		sess.Start(ctx)
		log.Printf("[%s] media websocket accepted", sess.ID())

		defer func() {
			transport.markClosed()
			_ = conn.Close()
		}()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				transport.markClosed()
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					sess.HandleClose()
				} else {
					sess.HandleError(err)
				}
				return nil
			}
			sess.HandleMessage(raw)
		}
	}
}
