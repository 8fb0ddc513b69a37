package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AbQaadir/RemoteWebCam/internal/cam"
	"github.com/AbQaadir/RemoteWebCam/pkg/mjpeg"
)

func newTestAPI(t *testing.T) (*Server, *cam.CamServer) {
	t.Helper()

	// 소스 없이 서버를 구성 (시작하지 않으므로 포트 바인드 없음)
	camServer := cam.NewCamServer(cam.Config{MJPEG: mjpeg.DefaultConfig()})
	return NewServer("0", camServer), camServer
}

func TestStatsEndpoint(t *testing.T) {
	server, camServer := newTestAPI(t)
	router := server.GetRouter()

	get := func() StatsResponse {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		var resp StatsResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Invalid JSON response: %v", err)
		}
		return resp
	}

	before := get()
	if before.FramesPublished != 0 || before.HasFrame {
		t.Errorf("Expected empty stats before publish, got %+v", before)
	}

	camServer.Broadcaster().Publish([]byte{0xff, 0xd8, 0xff, 0xd9})

	after := get()
	if after.FramesPublished != 1 {
		t.Errorf("Expected 1 published frame, got %d", after.FramesPublished)
	}
	if !after.HasFrame {
		t.Error("Expected hasFrame true after publish")
	}
}

func TestSubscribersEndpoint(t *testing.T) {
	server, camServer := newTestAPI(t)
	router := server.GetRouter()

	sub, err := camServer.Broadcaster().Subscribe()
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscribers", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp SubscribersResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if resp.Total != 1 || len(resp.Subscribers) != 1 {
		t.Fatalf("Expected 1 subscriber, got %+v", resp)
	}
	if resp.Subscribers[0].ID != sub.ID() {
		t.Errorf("Expected subscriber id %q, got %q", sub.ID(), resp.Subscribers[0].ID)
	}
}

func TestPublishFrameEndpoint(t *testing.T) {
	server, camServer := newTestAPI(t)
	router := server.GetRouter()

	frameData := []byte{0xff, 0xd8, 0x01, 0x02, 0xff, 0xd9}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/frame", bytes.NewReader(frameData))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	var resp PublishFrameResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if !resp.Success || resp.Sequence != 1 {
		t.Errorf("Expected success with sequence 1, got %+v", resp)
	}

	frame, ok := camServer.Broadcaster().Current()
	if !ok {
		t.Fatal("Expected a current frame after POST /api/v1/frame")
	}
	if string(frame.Data) != string(frameData) {
		t.Error("Current frame does not match posted body")
	}
}

func TestPublishFrameRejectsNonJPEGBody(t *testing.T) {
	server, camServer := newTestAPI(t)
	router := server.GetRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/frame", bytes.NewReader([]byte("plain text")))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-JPEG body, got %d", w.Code)
	}
	if camServer.Broadcaster().HasFrame() {
		t.Error("Rejected body must not be published")
	}
}
