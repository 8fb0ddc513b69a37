package source

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// WSIngest accepts encoded frames pushed over a WebSocket. Each binary
// message is one complete JPEG frame and is published on arrival. This is
// the network-facing counterpart of the in-process camera producer.
type WSIngest struct {
	publisher Publisher
	events    chan<- any
	upgrader  websocket.Upgrader

	mu      sync.Mutex
	conns   map[*websocket.Conn]struct{}
	stopped bool
}

// NewWSIngest creates a new WebSocket ingest source
func NewWSIngest(publisher Publisher, events chan<- any) *WSIngest {
	return &WSIngest{
		publisher: publisher,
		events:    events,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 1024,
			// 로컬 네트워크 신뢰 모델: 오리진 검사 없음
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Start 소스 시작 (Source 인터페이스 구현)
// The ingest is passive; connections arrive through ServeHTTP.
func (w *WSIngest) Start() error {
	slog.Info("WebSocket ingest ready")
	emit(w.events, SourceStartedEvent{Source: w.Name()})
	return nil
}

// Stop closes every active producer connection
func (w *WSIngest) Stop() {
	w.mu.Lock()
	w.stopped = true
	for conn := range w.conns {
		conn.Close()
	}
	w.conns = make(map[*websocket.Conn]struct{})
	w.mu.Unlock()

	emit(w.events, SourceStoppedEvent{Source: w.Name(), Reason: "stopped"})
	slog.Info("WebSocket ingest stopped")
}

// Name 소스 이름 반환 (Source 인터페이스 구현)
func (w *WSIngest) Name() string {
	return "wsingest"
}

// ServeHTTP upgrades the connection and publishes each binary message as a
// frame until the producer disconnects.
func (w *WSIngest) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "remoteAddr", r.RemoteAddr, "err", err)
		return
	}

	if !w.track(conn) {
		conn.Close()
		return
	}
	defer w.untrack(conn)

	remote := conn.RemoteAddr().String()
	slog.Info("Frame producer connected", "remoteAddr", remote)
	emit(w.events, IngestConnectedEvent{RemoteAddr: remote})

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			// 연결 종료는 정상 흐름
			slog.Info("Frame producer disconnected", "remoteAddr", remote, "reason", err)
			emit(w.events, IngestDisconnectedEvent{RemoteAddr: remote, Reason: err.Error()})
			return
		}

		if messageType != websocket.BinaryMessage || len(data) == 0 {
			continue
		}

		w.publisher.Publish(data)
	}
}

func (w *WSIngest) track(conn *websocket.Conn) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return false
	}
	w.conns[conn] = struct{}{}
	return true
}

func (w *WSIngest) untrack(conn *websocket.Conn) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.conns, conn)
	conn.Close()
}
