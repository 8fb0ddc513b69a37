package mjpeg

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/AbQaadir/RemoteWebCam/pkg/broadcast"
)

// sessionState 클라이언트 세션 상태
type sessionState uint8

const (
	stateInit sessionState = iota
	stateStreaming
	stateClosed
)

// Session turns one subscriber's frame stream into a valid multipart HTTP
// body on a single connection. It is strictly reactive to the connection's
// lifetime: the first write failure ends the session, the client reconnects.
type Session struct {
	boundary    string
	w           http.ResponseWriter
	flusher     http.Flusher
	broadcaster *broadcast.Broadcaster
	sub         *broadcast.Subscriber
	state       sessionState
	framesSent  uint64
}

// NewSession creates a session for one stream connection
func NewSession(w http.ResponseWriter, boundary string, broadcaster *broadcast.Broadcaster) *Session {
	flusher, _ := w.(http.Flusher)
	return &Session{
		boundary:    boundary,
		w:           w,
		flusher:     flusher,
		broadcaster: broadcaster,
		state:       stateInit,
	}
}

// Serve runs the session state machine until the client disappears or the
// context is cancelled. The body is streamed indefinitely with no
// predetermined content length.
func (s *Session) Serve(ctx context.Context) {
	if err := s.init(); err != nil {
		// 구독 실패 (셧다운 중 등) → 암묵적 200 대신 명시적 503
		slog.Error("Stream session init failed", "err", err)
		s.w.Header().Set("Content-Type", "text/plain")
		s.w.WriteHeader(http.StatusServiceUnavailable)
		s.w.Write([]byte("Service Unavailable"))
		return
	}
	defer s.close()

	slog.Info("Stream session started", "subscriberId", s.sub.ID())

	s.state = stateStreaming
	for s.state == stateStreaming {
		frame, err := s.sub.Next(ctx)
		if err != nil {
			// 컨텍스트 취소 또는 구독 종료 → 정상 종료
			slog.Debug("Stream session wait ended", "subscriberId", s.sub.ID(), "reason", err)
			s.state = stateClosed
			return
		}

		if err := s.writeFrame(frame); err != nil {
			// 쓰기 실패는 일반적인 연결 종료로 처리 (재시도 없음)
			slog.Debug("Stream session write failed", "subscriberId", s.sub.ID(), "err", err)
			s.state = stateClosed
			return
		}
		s.framesSent++
	}
}

// init subscribes to the broadcaster and emits the multipart response headers.
func (s *Session) init() error {
	sub, err := s.broadcaster.Subscribe()
	if err != nil {
		return err
	}
	s.sub = sub

	header := s.w.Header()
	header.Set("Content-Type", fmt.Sprintf("multipart/x-mixed-replace; boundary=%s", s.boundary))
	header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	header.Set("Pragma", "no-cache")
	header.Set("Expires", "0")
	header.Set("Connection", "close")
	s.w.WriteHeader(http.StatusOK)
	s.flush()

	return nil
}

// writeFrame writes one complete multipart part. Content-Length is computed
// from the actual frame length before any bytes go out, so a partial or
// garbled part is never emitted.
func (s *Session) writeFrame(frame broadcast.Frame) error {
	if err := writePart(s.w, s.boundary, frame); err != nil {
		return err
	}
	s.flush()
	return nil
}

// close unsubscribes and terminates the response
func (s *Session) close() {
	s.state = stateClosed
	if s.sub != nil {
		s.broadcaster.Unsubscribe(s.sub.ID())
		slog.Info("Stream session closed", "subscriberId", s.sub.ID(), "framesSent", s.framesSent)
	}
}

func (s *Session) flush() {
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

// writePart emits a single multipart part:
//
//	--<boundary>\r\n
//	Content-Type: image/jpeg\r\n
//	Content-Length: <n>\r\n
//	\r\n
//	<n bytes of JPEG>\r\n
func writePart(w io.Writer, boundary string, frame broadcast.Frame) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", boundary, frame.Size()); err != nil {
		return err
	}
	if _, err := w.Write(frame.Data); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\r\n"); err != nil {
		return err
	}
	return nil
}
