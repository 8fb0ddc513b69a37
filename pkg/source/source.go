package source

import (
	"github.com/AbQaadir/RemoteWebCam/pkg/broadcast"
)

// Publisher accepts one encoded frame at a time. The broadcaster implements
// this; sources never see subscribers.
type Publisher interface {
	Publish(data []byte) broadcast.Frame
}

// Source 프레임 소스들의 공통 인터페이스
// 소스는 캡처/인코딩 실패 시 해당 프레임을 발행하지 않고 넘어간다 (코어로 에러가 전파되지 않음)
type Source interface {
	// 소스 시작
	Start() error

	// 소스 중지
	Stop()

	// 소스 이름 (식별자로 사용: "pattern", "dirwatch", "wsingest")
	Name() string
}

// SourceStartedEvent is emitted when a source begins producing frames
type SourceStartedEvent struct {
	Source string
}

// SourceStoppedEvent is emitted when a source stops
type SourceStoppedEvent struct {
	Source string
	Reason string
}

// SourceErrorEvent is emitted when a source skips a frame (read/encode failure)
type SourceErrorEvent struct {
	Source string
	Err    error
}

// IngestConnectedEvent is emitted when a producer connects to the WS ingest
type IngestConnectedEvent struct {
	RemoteAddr string
}

// IngestDisconnectedEvent is emitted when a producer disconnects
type IngestDisconnectedEvent struct {
	RemoteAddr string
	Reason     string
}

// emit forwards an event to the external channel without ever blocking the
// source's capture loop.
func emit(events chan<- any, event any) {
	if events == nil {
		return
	}
	select {
	case events <- event:
	default:
	}
}
