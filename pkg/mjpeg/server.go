package mjpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/AbQaadir/RemoteWebCam/pkg/broadcast"
)

const indexPage = `<!DOCTYPE html>
<html>
<head>
    <title>RemoteWebCam</title>
</head>
<body>
    <h1>RemoteWebCam Live Stream</h1>
    <img src="/video" alt="live stream">
</body>
</html>`

// statusResponse is the /status wire format. Key order matters to clients
// that diff raw bodies, so it is a struct rather than a map.
type statusResponse struct {
	Status   string `json:"status"`
	Port     int    `json:"port"`
	HasFrame bool   `json:"hasFrame"`
}

// Server serves the MJPEG stream and snapshots over plain HTTP.
// Control-plane endpoints live on the API server; this server is the data path.
type Server struct {
	config      MJPEGConfig
	broadcaster *broadcast.Broadcaster
	httpServer  *http.Server
	mux         *http.ServeMux
	listener    net.Listener
	ctx         context.Context
	cancel      context.CancelFunc
	running     bool
}

// NewServer creates a new MJPEG stream server
func NewServer(config MJPEGConfig, broadcaster *broadcast.Broadcaster) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	server := &Server{
		config:      config,
		broadcaster: broadcaster,
		mux:         http.NewServeMux(),
		ctx:         ctx,
		cancel:      cancel,
	}

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Port),
		Handler: server.mux,
	}

	return server
}

// setupRoutes HTTP 라우트 설정
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/video", s.handleStream)
	s.mux.HandleFunc("/stream", s.handleStream)
	s.mux.HandleFunc("/snapshot", s.handleSnapshot)
	s.mux.HandleFunc("/frame", s.handleSnapshot)
	s.mux.HandleFunc("/status", s.handleStatus)
	s.mux.HandleFunc("/", s.handleIndex)
}

// Handle mounts an extra handler (e.g. the WebSocket ingest) on the stream
// server's mux. Must be called before Start.
func (s *Server) Handle(path string, handler http.Handler) {
	s.mux.Handle(path, handler)
}

// Start 서버 시작 (ProtocolServer 인터페이스 구현)
// A bind failure is returned to the caller and is fatal for the process.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		slog.Error("Error starting MJPEG server", "port", s.config.Port, "err", err)
		return err
	}
	s.listener = ln
	s.running = true

	slog.Info("Starting MJPEG server", "port", s.config.Port, "boundary", s.config.Boundary)

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("MJPEG server error", "err", err)
		}
	}()

	return nil
}

// Stop 서버 중지 (ProtocolServer 인터페이스 구현)
// Streaming connections never drain on their own, so after the grace period
// remaining connections are closed outright; in-flight writes observe the
// closed socket and terminate their session.
func (s *Server) Stop() {
	slog.Info("Stopping MJPEG server")
	s.running = false
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Debug("MJPEG server shutdown grace period elapsed, closing connections", "err", err)
		if err := s.httpServer.Close(); err != nil {
			slog.Error("Failed to close MJPEG server", "err", err)
		}
	}

	slog.Info("MJPEG server stopped")
}

// Name 서버 이름 반환 (ProtocolServer 인터페이스 구현)
func (s *Server) Name() string {
	return "mjpeg"
}

// Handler returns the route handler (for testing)
func (s *Server) Handler() http.Handler {
	return s.mux
}

// handleStream serves the open-ended multipart stream. One session per
// connection; the session owns its subscription for the connection lifetime.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.notFound(w)
		return
	}

	session := NewSession(w, s.config.Boundary, s.broadcaster)
	session.Serve(r.Context())
}

// handleSnapshot serves the current frame as a complete JPEG body. It reads
// the broadcaster directly (no subscription) and returns within one request
// regardless of streaming load.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.notFound(w)
		return
	}

	frame, ok := s.broadcaster.Current()
	if !ok {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("No frame available"))
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(frame.Size()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(frame.Data); err != nil {
		slog.Debug("Snapshot write failed", "err", err)
	}
}

// handleStatus reports liveness and whether a frame exists
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.notFound(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statusResponse{
		Status:   "running",
		Port:     s.config.Port,
		HasFrame: s.broadcaster.HasFrame(),
	})
}

// handleIndex serves the static viewer page; any unknown path falls through
// to here and gets a plain 404.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || r.Method != http.MethodGet {
		s.notFound(w)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(indexPage))
}

func (s *Server) notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte("Not Found"))
}
