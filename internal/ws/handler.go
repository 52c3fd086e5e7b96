package ws

import (
	"net/http"
	"time"

	"orderhash/internal/manager"

	"github.com/coder/websocket"
	"go.uber.org/zap"
	"golang.org/x/net/context"
)

const writeTimeout = 5 * time.Second

func (ws *WSServer) Serve() http.Handler {
	ws.logger.Info("WebSocket server listening", zap.Int("port", ws.port))
	mux := http.NewServeMux()

	// main and only route for the WebSocket server
	mux.HandleFunc("/", ws.MainHandler)

	// Wrap the mux with CORS middleware
	return ws.corsMiddleware(mux)
}

func (ws *WSServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Set CORS headers
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Proceed with the next handler
		next.ServeHTTP(w, r)
	})
}

// MainHandler streams every new record to the client as a RECORD event and
// answers LOOKUP events sent by the client.
func (ws *WSServer) MainHandler(w http.ResponseWriter, r *http.Request) {
	ws.logger.Debug("WebSocket connection request received", zap.String("remote", r.RemoteAddr))

	// Upgrade the HTTP connection to a WebSocket connection
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		ws.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer c.CloseNow()

	msgChan := make(chan []byte, sendBuffer)
	id := ws.manager.RegisterReceiver(msgChan)
	defer ws.manager.UnregisterReceiver(id)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	replies := make(chan []byte, sendBuffer)
	go ws.readLoop(ctx, cancel, c, replies)

	for {
		select {
		case m, ok := <-msgChan:
			if !ok {
				// Manager closed
				c.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := ws.write(ctx, c, m); err != nil {
				return
			}
		case m := <-replies:
			if err := ws.write(ctx, c, m); err != nil {
				return
			}
		case <-ctx.Done():
			// Client disconnected
			return
		}
	}
}

func (ws *WSServer) readLoop(ctx context.Context, cancel context.CancelFunc, c *websocket.Conn, replies chan<- []byte) {
	defer cancel()

	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				ws.logger.Debug("WebSocket read failed", zap.Error(err))
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		reply, err := ws.manager.HandleReceiveEvent(msg)
		if err != nil {
			reply = []byte(manager.ErrorEvent + " " + err.Error())
		}

		select {
		case replies <- reply:
		case <-ctx.Done():
			return
		}
	}
}

func (ws *WSServer) write(ctx context.Context, c *websocket.Conn, m []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := c.Write(ctx, websocket.MessageText, m); err != nil {
		ws.logger.Debug("Failed to write message", zap.Error(err))
		return err
	}
	return nil
}
