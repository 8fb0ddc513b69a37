package mjpeg

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/AbQaadir/RemoteWebCam/pkg/broadcast"
)

func newTestServer(t *testing.T) (*Server, *broadcast.Broadcaster, *httptest.Server) {
	t.Helper()

	b := broadcast.NewBroadcaster()
	s := NewServer(DefaultConfig(), b)
	ts := httptest.NewServer(s.Handler())

	t.Cleanup(func() {
		ts.Close()
		b.Close()
	})

	return s, b, ts
}

// waitForSubscribers polls until the broadcaster reaches the expected
// subscriber count or the timeout elapses.
func waitForSubscribers(t *testing.T, b *broadcast.Broadcaster, want int, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if b.SubscriberCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d subscribers, got %d", want, b.SubscriberCount())
}

func TestSnapshotBeforeAndAfterPublish(t *testing.T) {
	_, b, ts := newTestServer(t)

	// 발행 전: 503
	resp, err := http.Get(ts.URL + "/snapshot")
	if err != nil {
		t.Fatalf("GET /snapshot failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 before first publish, got %d", resp.StatusCode)
	}
	if string(body) != "No frame available" {
		t.Errorf("Expected body %q, got %q", "No frame available", body)
	}

	// 발행 후: 200, 본문은 프레임 바이트와 동일
	frameData := []byte{0xff, 0xd8, 0x10, 0x20, 0x30, 0xff, 0xd9}
	b.Publish(frameData)

	for _, path := range []string{"/snapshot", "/frame"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("%s: expected image/jpeg, got %q", path, ct)
		}
		if cl := resp.Header.Get("Content-Length"); cl != strconv.Itoa(len(frameData)) {
			t.Errorf("%s: expected Content-Length %d, got %q", path, len(frameData), cl)
		}
		if string(body) != string(frameData) {
			t.Errorf("%s: body does not match published frame", path)
		}
	}
}

func TestStatusReportsFrameAvailability(t *testing.T) {
	_, b, ts := newTestServer(t)

	get := func() string {
		resp, err := http.Get(ts.URL + "/status")
		if err != nil {
			t.Fatalf("GET /status failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected application/json, got %q", ct)
		}
		body, _ := io.ReadAll(resp.Body)
		return strings.TrimSpace(string(body))
	}

	before := get()
	if !strings.Contains(before, `"status":"running"`) {
		t.Errorf("Status body missing running marker: %s", before)
	}
	if !strings.Contains(before, `"hasFrame":false`) {
		t.Errorf("Expected hasFrame false before publish: %s", before)
	}
	if !strings.Contains(before, fmt.Sprintf(`"port":%d`, DefaultConfig().Port)) {
		t.Errorf("Expected port %d in status: %s", DefaultConfig().Port, before)
	}

	b.Publish([]byte("jpeg"))

	after := get()
	if !strings.Contains(after, `"hasFrame":true`) {
		t.Errorf("Expected hasFrame true after publish: %s", after)
	}
}

func TestIndexPage(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/html" {
		t.Errorf("Expected text/html, got %q", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `src="/video"`) {
		t.Error("Index page should embed the /video stream")
	}
}

func TestUnknownPathReturns404(t *testing.T) {
	_, _, ts := newTestServer(t)

	for _, path := range []string{"/nope", "/video/extra", "/snapshots"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, resp.StatusCode)
		}
		if string(body) != "Not Found" {
			t.Errorf("%s: expected body %q, got %q", path, "Not Found", body)
		}
	}
}

func TestStreamDeliversValidMultipartParts(t *testing.T) {
	_, b, ts := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/video", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /video failed: %v", err)
	}
	defer resp.Body.Close()

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		t.Fatalf("Invalid Content-Type: %v", err)
	}
	if mediaType != "multipart/x-mixed-replace" {
		t.Errorf("Expected multipart/x-mixed-replace, got %q", mediaType)
	}
	if params["boundary"] != "frame" {
		t.Errorf("Expected boundary %q, got %q", "frame", params["boundary"])
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-cache, no-store, must-revalidate" {
		t.Errorf("Unexpected Cache-Control: %q", cc)
	}

	// 세션 등록을 기다린 뒤 발행 시작
	waitForSubscribers(t, b, 1, 2*time.Second)

	frames := [][]byte{
		[]byte("jpeg-frame-one"),
		[]byte("jpeg-frame-two-bigger"),
		[]byte("jpeg-3"),
	}
	go func() {
		for _, data := range frames {
			b.Publish(data)
			time.Sleep(20 * time.Millisecond)
		}
	}()

	reader := multipart.NewReader(resp.Body, params["boundary"])
	for i, want := range frames {
		part, err := reader.NextPart()
		if err != nil {
			t.Fatalf("Part %d: NextPart failed: %v", i, err)
		}

		if ct := part.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("Part %d: expected image/jpeg, got %q", i, ct)
		}

		declared, err := strconv.Atoi(part.Header.Get("Content-Length"))
		if err != nil {
			t.Fatalf("Part %d: invalid Content-Length: %v", i, err)
		}
		if declared != len(want) {
			t.Errorf("Part %d: declared length %d != frame length %d", i, declared, len(want))
		}

		// 스트림은 열린 채로 남으므로 선언된 길이만큼만 읽는다
		// (마지막 파트 뒤에는 다음 바운더리가 오지 않음)
		payload := make([]byte, declared)
		if _, err := io.ReadFull(part, payload); err != nil {
			t.Fatalf("Part %d: read failed: %v", i, err)
		}
		if string(payload) != string(want) {
			t.Errorf("Part %d: payload mismatch", i)
		}
	}
}

func TestStreamAfterBroadcasterCloseReturns503(t *testing.T) {
	_, b, ts := newTestServer(t)

	// 셧다운 중 도착한 스트림 요청은 거부되어야 함
	b.Close()

	resp, err := http.Get(ts.URL + "/video")
	if err != nil {
		t.Fatalf("GET /video failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 after broadcaster close, got %d", resp.StatusCode)
	}
	if string(body) != "Service Unavailable" {
		t.Errorf("Expected body %q, got %q", "Service Unavailable", body)
	}
}

func TestClientDisconnectRemovesSubscriber(t *testing.T) {
	_, b, ts := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/video", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /video failed: %v", err)
	}

	waitForSubscribers(t, b, 1, 2*time.Second)

	// 클라이언트 소켓 종료 → 구독자는 한 발행 주기 내에 제거되어야 함
	cancel()
	resp.Body.Close()
	b.Publish([]byte("after-disconnect"))

	waitForSubscribers(t, b, 0, 2*time.Second)
}
