package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/AbQaadir/RemoteWebCam/internal/api"
	"github.com/AbQaadir/RemoteWebCam/internal/cam"
)

// App represents the main application
type App struct {
	config    *Config
	camServer *cam.CamServer
	apiServer *api.Server
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewApp creates a new application instance
func NewApp() *App {
	// 설정 로드
	config, err := LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	// 설정을 기반으로 로거 초기화
	InitLogger(config)

	// 취소 가능한 컨텍스트 생성
	ctx, cancel := context.WithCancel(context.Background())

	// cam 서버 생성 (브로드캐스터, 소스, MJPEG)
	camServer := cam.NewCamServer(config.ToCamConfig())

	// API 서버 생성 (cam 서버를 DI)
	apiServer := api.NewServer(strconv.Itoa(config.API.Port), camServer)

	return &App{
		config:    config,
		camServer: camServer,
		apiServer: apiServer,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start starts the application
func (app *App) Start() {
	slog.Info("Application starting...")

	// Cam 서버 시작 (소스, MJPEG 스트림)
	if err := app.camServer.Start(); err != nil {
		slog.Error("Failed to start cam server", "err", err)
		os.Exit(1)
	}

	// API 서버 시작
	go func() {
		if err := app.apiServer.Start(); err != nil {
			slog.Error("Failed to start API server", "err", err)
			os.Exit(1)
		}
	}()

	slog.Info("Stream Server started", "port", app.config.Stream.Port)
	slog.Info("API Server started", "port", app.config.API.Port)

	// 시그널 처리
	app.waitForShutdown()
}

// waitForShutdown waits for shutdown signals and performs graceful shutdown
func (app *App) waitForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down application", "signal", sig)
	case <-app.ctx.Done():
		slog.Info("Context cancelled, shutting down application")
	}

	app.shutdown()
}

// shutdown performs graceful shutdown
func (app *App) shutdown() {
	slog.Info("Stopping application...")

	// 컨텍스트 취소
	app.cancel()

	// Cam 서버 종료 (소스 -> 브로드캐스터 -> 프로토콜 서버)
	app.camServer.Stop()

	slog.Info("Application stopped successfully")
}
