package cam

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AbQaadir/RemoteWebCam/pkg/broadcast"
	"github.com/AbQaadir/RemoteWebCam/pkg/mjpeg"
	"github.com/AbQaadir/RemoteWebCam/pkg/source"
	"github.com/AbQaadir/RemoteWebCam/pkg/utils"
)

// Config holds the camera server wiring
type Config struct {
	MJPEG   mjpeg.MJPEGConfig
	Pattern PatternSourceConfig
	Watch   WatchSourceConfig
	Ingest  IngestSourceConfig
}

// PatternSourceConfig enables the synthetic test pattern source
type PatternSourceConfig struct {
	Enabled bool
	source.PatternConfig
}

// WatchSourceConfig enables the directory watch source
type WatchSourceConfig struct {
	Enabled bool
	Dir     string
}

// IngestSourceConfig enables the WebSocket frame ingest
type IngestSourceConfig struct {
	Enabled bool
	Path    string
}

// CamServer wires the frame sources, the broadcaster and the protocol
// servers together behind one event channel.
type CamServer struct {
	broadcaster *broadcast.Broadcaster
	mjpegServer *mjpeg.Server
	servers     []ProtocolServer
	sources     []source.Source
	channel     chan any
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup // 이벤트 루프 송신자 추적용
	startedAt   time.Time
}

// NewCamServer creates the camera server from config
func NewCamServer(config Config) *CamServer {
	// 자체적으로 컨텍스트 생성
	ctx, cancel := context.WithCancel(context.Background())

	camServer := &CamServer{
		broadcaster: broadcast.NewBroadcaster(),
		channel:     make(chan any, 16),
		ctx:         ctx,
		cancel:      cancel,
	}

	camServer.mjpegServer = mjpeg.NewServer(config.MJPEG, camServer.broadcaster)
	camServer.servers = append(camServer.servers, camServer.mjpegServer)

	// 설정에 따라 프레임 소스 구성
	if config.Pattern.Enabled {
		camServer.sources = append(camServer.sources,
			source.NewPattern(config.Pattern.PatternConfig, camServer.broadcaster, camServer.channel))
	}
	if config.Watch.Enabled {
		camServer.sources = append(camServer.sources,
			source.NewDirWatcher(config.Watch.Dir, camServer.broadcaster, camServer.channel))
	}
	if config.Ingest.Enabled {
		ingest := source.NewWSIngest(camServer.broadcaster, camServer.channel)
		camServer.mjpegServer.Handle(config.Ingest.Path, ingest)
		camServer.sources = append(camServer.sources, ingest)
	}

	return camServer
}

// Start starts the protocol servers and the frame sources
func (s *CamServer) Start() error {
	slog.Info("Cam server starting...")
	s.startedAt = time.Now()

	// 프로토콜 서버 시작 (바인드 실패는 치명적이므로 호출자에게 반환)
	for _, server := range s.servers {
		if err := server.Start(); err != nil {
			slog.Error("Failed to start protocol server", "server", server.Name(), "err", err)
			return err
		}
		slog.Info("Protocol server started", "server", server.Name())
	}

	// 프레임 소스 시작
	for _, src := range s.sources {
		if err := src.Start(); err != nil {
			slog.Error("Failed to start frame source", "source", src.Name(), "err", err)
			return err
		}
		slog.Info("Frame source started", "source", src.Name())
	}

	// 이벤트 루프 시작
	s.wg.Add(1)
	go s.eventLoop()

	return nil
}

// Stop stops the server
func (s *CamServer) Stop() {
	slog.Info("Stopping cam server...")
	s.cancel()
	s.wg.Wait()
	slog.Info("Cam server stopped successfully")
}

// Broadcaster exposes the frame broadcaster (for the control-plane API)
func (s *CamServer) Broadcaster() *broadcast.Broadcaster {
	return s.broadcaster
}

// Uptime returns how long the server has been running
func (s *CamServer) Uptime() time.Duration {
	if s.startedAt.IsZero() {
		return 0
	}
	return time.Since(s.startedAt)
}

func (s *CamServer) eventLoop() {
	defer s.wg.Done()

	for {
		select {
		case event := <-s.channel:
			s.handleEvent(event)
		case <-s.ctx.Done():
			s.shutdown()
			return
		}
	}
}

// handleEvent logs notable source events; nothing here may block the sources
func (s *CamServer) handleEvent(event any) {
	switch e := event.(type) {
	case source.SourceStartedEvent:
		slog.Debug("Source started", "source", e.Source)
	case source.SourceStoppedEvent:
		slog.Debug("Source stopped", "source", e.Source, "reason", e.Reason)
	case source.SourceErrorEvent:
		slog.Warn("Source skipped a frame", "source", e.Source, "err", e.Err)
	case source.IngestConnectedEvent:
		slog.Info("Ingest producer connected", "remoteAddr", e.RemoteAddr)
	case source.IngestDisconnectedEvent:
		slog.Info("Ingest producer disconnected", "remoteAddr", e.RemoteAddr, "reason", e.Reason)
	default:
		slog.Warn("Unknown event type", "eventType", utils.TypeName(event))
	}
}

// shutdown performs the actual shutdown sequence: sources first so no new
// frames arrive, then the broadcaster so every session wakes, then the
// protocol servers so remaining sockets close.
func (s *CamServer) shutdown() {
	slog.Info("Cam event loop stopping...")

	for _, src := range s.sources {
		src.Stop()
		slog.Info("Frame source stopped", "source", src.Name())
	}

	s.broadcaster.Close()

	for _, server := range s.servers {
		server.Stop()
		slog.Info("Protocol server stopped", "server", server.Name())
	}

	slog.Info("Cam server shutdown complete")
}
