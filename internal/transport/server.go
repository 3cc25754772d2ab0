package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server exposes the hub on a websocket endpoint at /observe. Packets go
// out as binary messages.
type Server struct {
	hub          *Hub
	log          *zap.Logger
	writeTimeout time.Duration

	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

// NewServer creates an observer endpoint bound to addr.
func NewServer(hub *Hub, addr string, writeTimeout time.Duration, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	s := &Server{
		hub:          hub,
		log:          log,
		writeTimeout: writeTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // local observer endpoint
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/observe", s.Handler())
	s.httpSrv = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Handler returns the websocket subscribe handler.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess := s.hub.Register()

		// Writer goroutine.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for b := range sess.Out() {
				_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
				if err := conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
					return
				}
			}
			// Send channel closed by the hub: polite goodbye.
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
				time.Now().Add(time.Second))
		}()

		// Reader loop: observers send nothing; wait for the close.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		s.hub.Unregister(sess)

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// ListenAndServe serves the observer endpoint until Shutdown.
func (s *Server) ListenAndServe() error {
	s.log.Info("observer endpoint listening", zap.String("addr", s.httpSrv.Addr))
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting subscribers and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpSrv.Shutdown(ctx)
}
